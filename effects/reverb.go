package effects

import (
	"math"
	"math/rand"

	"audiofx/audio"
	"audiofx/dsp"
)

// Impulse response generation uses a fixed seed so a given (file, intensity)
// pair always yields the same output, which keeps cached results valid.
const reverbSeed = 1

// applyReverb convolves the signal with an exponentially decaying noise
// impulse response. Intensity drives both the simulated room size (decay
// length) and the wet level.
func applyReverb(buf *audio.Buffer, amount float64) (*audio.Buffer, error) {
	roomSize := amount
	wetLevel := amount * 0.5

	reverbTime := roomSize * 2.0 // seconds
	reverbSamples := int(reverbTime * float64(buf.SampleRate))
	if reverbSamples < 1 || wetLevel == 0 {
		// Nothing audible to add at zero intensity.
		return buf.Clone(), nil
	}

	const damping = 0.5
	rng := rand.New(rand.NewSource(reverbSeed))
	impulse := make([]float64, reverbSamples)
	peak := 0.0
	for i := range impulse {
		decay := math.Exp(-float64(i) / (float64(reverbSamples) * damping))
		impulse[i] = rng.NormFloat64() * decay
		if a := math.Abs(impulse[i]); a > peak {
			peak = a
		}
	}
	if peak > 0 {
		for i := range impulse {
			impulse[i] /= peak
		}
	}

	out := audio.New(buf.NumChannels(), buf.NumFrames(), buf.SampleRate)
	for ch, src := range buf.Samples {
		wet, err := dsp.ConvolveSame(src, impulse)
		if err != nil {
			return nil, err
		}
		mix(src, wet, wetLevel)
		out.Samples[ch] = wet
	}
	return out, nil
}
