package effects

import (
	"math"

	"audiofx/audio"
)

// applyDistortion drives the signal into a tanh soft clipper, raising
// harmonic content with intensity.
func applyDistortion(buf *audio.Buffer, amount float64) (*audio.Buffer, error) {
	gain := 1.0 + amount*4.0
	wetLevel := amount

	out := audio.New(buf.NumChannels(), buf.NumFrames(), buf.SampleRate)
	for ch, src := range buf.Samples {
		wet := make([]float64, len(src))
		for i, v := range src {
			wet[i] = math.Tanh(v * gain)
		}
		mix(src, wet, wetLevel)
		out.Samples[ch] = wet
	}
	return out, nil
}

const compressorRatio = 4.0

// applyCompressor attenuates samples whose magnitude exceeds the threshold,
// reducing dynamic range. Intensity lowers the threshold and raises the wet
// level.
func applyCompressor(buf *audio.Buffer, amount float64) (*audio.Buffer, error) {
	threshold := 0.8 - amount*0.5
	wetLevel := amount

	out := audio.New(buf.NumChannels(), buf.NumFrames(), buf.SampleRate)
	for ch, src := range buf.Samples {
		wet := make([]float64, len(src))
		for i, v := range src {
			a := math.Abs(v)
			if a > threshold {
				compressed := threshold + (a-threshold)/compressorRatio
				wet[i] = math.Copysign(compressed, v)
			} else {
				wet[i] = v
			}
		}
		mix(src, wet, wetLevel)
		out.Samples[ch] = wet
	}
	return out, nil
}
