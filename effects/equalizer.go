package effects

import (
	"audiofx/audio"
	"audiofx/dsp"
)

// Fixed 3-band crossover frequencies.
const (
	eqLowCrossoverHz  = 300.0
	eqHighCrossoverHz = 3000.0
)

// applyEqualizer splits the signal into low/mid/high bands with zero-phase
// Butterworth filters and recombines them with intensity-driven gains:
// stronger intensity boosts lows and highs and leaves mids close to unity.
func applyEqualizer(buf *audio.Buffer, amount float64) (*audio.Buffer, error) {
	lowGain := 0.5 + amount
	midGain := 1.0 + (amount-0.5)*0.5
	highGain := 0.7 + amount*0.6
	wetLevel := amount

	sr := float64(buf.SampleRate)
	lowPass := dsp.NewLowPass(eqLowCrossoverHz, sr)
	midHigh := dsp.NewHighPass(eqLowCrossoverHz, sr)
	midLow := dsp.NewLowPass(eqHighCrossoverHz, sr)
	highPass := dsp.NewHighPass(eqHighCrossoverHz, sr)

	out := audio.New(buf.NumChannels(), buf.NumFrames(), buf.SampleRate)
	for ch, src := range buf.Samples {
		low := lowPass.ForwardBackward(src)
		mid := midLow.ForwardBackward(midHigh.ForwardBackward(src))
		high := highPass.ForwardBackward(src)

		wet := make([]float64, len(src))
		for i := range wet {
			wet[i] = low[i]*lowGain + mid[i]*midGain + high[i]*highGain
		}
		mix(src, wet, wetLevel)
		out.Samples[ch] = wet
	}
	return out, nil
}
