// Package dsp provides the signal primitives shared by the separation and
// effects layers: short-time spectral transforms, median filtering, FFT
// convolution and simple IIR filters.
package dsp

import "math"

// HannWindow returns a periodic Hann window of length n. The periodic form
// satisfies constant overlap-add for hop sizes of n/2 and n/4.
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}
