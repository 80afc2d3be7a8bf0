package codec

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"audiofx/audio"
)

// decodeWAV decodes a PCM WAV file into a per-channel float buffer.
func decodeWAV(f *os.File) (*audio.Buffer, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("codec: %s is not a valid WAV file", f.Name())
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("codec: decode WAV: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 || pcm.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("codec: WAV file has no usable format data")
	}

	channels := pcm.Format.NumChannels
	frames := len(pcm.Data) / channels
	out := audio.New(channels, frames, pcm.Format.SampleRate)

	// go-audio delivers interleaved ints at the source bit depth.
	bitDepth := pcm.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	scale := 1.0 / float64(int(1)<<(uint(bitDepth)-1))
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out.Samples[ch][i] = float64(pcm.Data[i*channels+ch]) * scale
		}
	}
	return out, nil
}

// encodeWAV writes buf to path as 16-bit PCM.
func encodeWAV(buf *audio.Buffer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("codec: create %s: %w", path, err)
	}
	defer f.Close()

	channels := buf.NumChannels()
	frames := buf.NumFrames()

	enc := wav.NewEncoder(f, buf.SampleRate, 16, channels, 1)

	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			data[i*channels+ch] = clampSample(buf.Samples[ch][i])
		}
	}

	pcm := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("codec: encode WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("codec: finalize WAV: %w", err)
	}
	return nil
}
