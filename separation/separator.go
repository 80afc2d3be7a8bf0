// Package separation splits a mixed-down recording into a vocal-emphasized
// and an instrumental-emphasized buffer using harmonic/percussive median
// filtering plus spectral subtraction. It is a signal heuristic, not a
// learned model; audible bleed on dense mixes is expected.
package separation

import (
	"fmt"
	"math"

	"audiofx/audio"
	"audiofx/dsp"
)

// Analysis parameters. The kernel length, mask exponent and subtraction
// strength are tunables; see DESIGN.md for how the defaults were chosen.
const (
	FrameSize = 2048
	HopSize   = 512

	// medianKernel is the median-filter length used for both the time-axis
	// (harmonic) and frequency-axis (percussive) estimates.
	medianKernel = 17

	// maskExponent controls how hard the soft mask leans toward the
	// dominant component. 2 gives Wiener-style power masking.
	maskExponent = 2.0

	// subtractionStrength scales down each component by the opposite
	// component's mask before reconstruction. At 0.5 a bin contributes
	// nothing to the vocal estimate unless its harmonic share exceeds 1/3.
	subtractionStrength = 0.5
)

// Progress receives coarse percentage checkpoints as stages finish.
type Progress func(percent int)

// Result holds the two separated buffers. Both are mono, reconstructed from
// the mixed-down input.
type Result struct {
	Vocals      *audio.Buffer
	Instruments *audio.Buffer
}

// Separate splits buf into vocal- and instrumental-emphasized estimates.
// The input must be at least one analysis frame long.
func Separate(buf *audio.Buffer, report Progress) (*Result, error) {
	if report == nil {
		report = func(int) {}
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	mono := buf.Mono()

	stft, err := dsp.NewSTFT(FrameSize, HopSize)
	if err != nil {
		return nil, err
	}
	spec, err := stft.Analyze(mono)
	if err != nil {
		return nil, fmt.Errorf("separation: analysis failed: %w", err)
	}
	report(10)

	// Median filtering along time isolates sustained tonal content, along
	// frequency isolates broadband transients.
	harmonic := dsp.MedianFilterTime(spec.Magnitude, medianKernel)
	percussive := dsp.MedianFilterFreq(spec.Magnitude, medianKernel)

	vocalSpec := spec.Clone()
	instrSpec := spec.Clone()

	const eps = 1e-12
	for f := range spec.Magnitude {
		for k := range spec.Magnitude[f] {
			h := math.Pow(harmonic[f][k], maskExponent)
			p := math.Pow(percussive[f][k], maskExponent)
			m := h / (h + p + eps)

			mag := spec.Magnitude[f][k]

			// Spectral subtraction: each estimate is the masked magnitude
			// minus a share of the opposite component, floored at zero.
			vocal := mag * (m - subtractionStrength*(1-m))
			instr := mag * ((1 - m) - subtractionStrength*m)
			if vocal < 0 {
				vocal = 0
			}
			if instr < 0 {
				instr = 0
			}
			vocalSpec.Magnitude[f][k] = vocal
			instrSpec.Magnitude[f][k] = instr
		}
	}
	report(40)

	vocals, err := stft.Synthesize(vocalSpec)
	if err != nil {
		return nil, fmt.Errorf("separation: vocal reconstruction failed: %w", err)
	}
	instruments, err := stft.Synthesize(instrSpec)
	if err != nil {
		return nil, fmt.Errorf("separation: instrumental reconstruction failed: %w", err)
	}
	report(80)

	result := &Result{
		Vocals:      audio.FromMono(vocals, buf.SampleRate),
		Instruments: audio.FromMono(instruments, buf.SampleRate),
	}
	result.Vocals.Normalize()
	result.Instruments.Normalize()
	report(90)
	return result, nil
}
