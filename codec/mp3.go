package codec

import (
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"audiofx/audio"
)

// decodeMP3 decodes an MP3 stream. go-mp3 always produces 16-bit stereo
// interleaved little-endian PCM regardless of the source channel layout.
func decodeMP3(f *os.File) (*audio.Buffer, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("codec: decode MP3: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("codec: read MP3 stream: %w", err)
	}

	const channels = 2
	frames := len(raw) / 4 // 2 channels x 2 bytes
	out := audio.New(channels, frames, dec.SampleRate())

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := i*4 + ch*2
			v := int16(uint16(raw[off]) | uint16(raw[off+1])<<8)
			out.Samples[ch][i] = float64(v) / 32768.0
		}
	}
	return out, nil
}
