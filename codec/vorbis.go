package codec

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"

	"audiofx/audio"
)

// decodeVorbis decodes an Ogg Vorbis stream into a per-channel float buffer.
func decodeVorbis(f *os.File) (*audio.Buffer, error) {
	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("codec: decode Ogg Vorbis: %w", err)
	}
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("codec: Ogg Vorbis stream has no usable format data")
	}

	channels := format.Channels
	frames := len(data) / channels
	out := audio.New(channels, frames, format.SampleRate)

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out.Samples[ch][i] = float64(data[i*channels+ch])
		}
	}
	return out, nil
}
