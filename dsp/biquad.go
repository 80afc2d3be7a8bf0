package dsp

import "math"

// butterworthQ is the quality factor of a maximally flat 2nd-order section.
const butterworthQ = math.Sqrt2 / 2

// Biquad is a 2nd-order IIR section in direct form I, normalized so a0 = 1.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// NewLowPass designs a 2nd-order Butterworth low-pass at cutoff Hz.
func NewLowPass(cutoff, sampleRate float64) *Biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2 * butterworthQ)
	cosw0 := math.Cos(w0)

	a0 := 1 + alpha
	return &Biquad{
		b0: (1 - cosw0) / 2 / a0,
		b1: (1 - cosw0) / a0,
		b2: (1 - cosw0) / 2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// NewHighPass designs a 2nd-order Butterworth high-pass at cutoff Hz.
func NewHighPass(cutoff, sampleRate float64) *Biquad {
	w0 := 2 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2 * butterworthQ)
	cosw0 := math.Cos(w0)

	a0 := 1 + alpha
	return &Biquad{
		b0: (1 + cosw0) / 2 / a0,
		b1: -(1 + cosw0) / a0,
		b2: (1 + cosw0) / 2 / a0,
		a1: -2 * cosw0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// process runs the filter over src starting from zero state.
func (f *Biquad) process(src []float64) []float64 {
	out := make([]float64, len(src))
	var x1, x2, y1, y2 float64
	for i, x := range src {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// ForwardBackward applies the filter forward and then reversed, giving a
// zero-phase response at the cost of doubling the effective order.
func (f *Biquad) ForwardBackward(src []float64) []float64 {
	fwd := f.process(src)
	reverse(fwd)
	bwd := f.process(fwd)
	reverse(bwd)
	return bwd
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
