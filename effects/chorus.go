package effects

import (
	"math"

	"audiofx/audio"
)

const (
	chorusDepthSeconds = 0.002 // Modulation depth of the delayed tap
)

// applyChorus mixes in a pitch-modulated delayed copy of the signal. The LFO
// is computed once and shared across channels so the stereo image does not
// smear.
func applyChorus(buf *audio.Buffer, amount float64) (*audio.Buffer, error) {
	rate := 1.0 + amount*2.0 // Hz
	wetLevel := amount * 0.7

	frames := buf.NumFrames()
	sr := float64(buf.SampleRate)

	// Delay offset in samples per frame, driven by a sine LFO.
	lfo := make([]int, frames)
	depthSamples := chorusDepthSeconds * sr
	for i := range lfo {
		t := float64(i) / sr
		lfo[i] = int(math.Sin(2*math.Pi*rate*t) * depthSamples)
	}

	out := audio.New(buf.NumChannels(), frames, buf.SampleRate)
	for ch, src := range buf.Samples {
		wet := make([]float64, frames)
		for i := range src {
			j := i - lfo[i]
			if j < 0 {
				j = 0
			}
			if j < len(src) {
				wet[i] = src[j]
			}
		}
		mix(src, wet, wetLevel)
		out.Samples[ch] = wet
	}
	return out, nil
}
