package dsp

import "sort"

// medianWindow returns the median of the values in window, using scratch as
// working storage.
func medianWindow(window, scratch []float64) float64 {
	scratch = scratch[:len(window)]
	copy(scratch, window)
	sort.Float64s(scratch)
	mid := len(scratch) / 2
	if len(scratch)%2 == 1 {
		return scratch[mid]
	}
	return 0.5 * (scratch[mid-1] + scratch[mid])
}

// medianFilter1D computes a sliding median over src with an odd kernel
// length. Windows are truncated at the edges rather than padded.
func medianFilter1D(dst, src []float64, kernel int) {
	half := kernel / 2
	scratch := make([]float64, kernel)
	for i := range src {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > len(src) {
			hi = len(src)
		}
		dst[i] = medianWindow(src[lo:hi], scratch)
	}
}

// MedianFilterTime median-filters a magnitude spectrogram along the time
// axis, one frequency bin at a time. Sustained tonal content survives this
// filter; transients are suppressed.
func MedianFilterTime(mag [][]float64, kernel int) [][]float64 {
	numFrames := len(mag)
	if numFrames == 0 {
		return nil
	}
	numBins := len(mag[0])

	out := make([][]float64, numFrames)
	for f := range out {
		out[f] = make([]float64, numBins)
	}

	column := make([]float64, numFrames)
	filtered := make([]float64, numFrames)
	for k := 0; k < numBins; k++ {
		for f := 0; f < numFrames; f++ {
			column[f] = mag[f][k]
		}
		medianFilter1D(filtered, column, kernel)
		for f := 0; f < numFrames; f++ {
			out[f][k] = filtered[f]
		}
	}
	return out
}

// MedianFilterFreq median-filters a magnitude spectrogram along the
// frequency axis, one time frame at a time. Broadband transients survive
// this filter; narrow tonal peaks are suppressed.
func MedianFilterFreq(mag [][]float64, kernel int) [][]float64 {
	out := make([][]float64, len(mag))
	for f, frame := range mag {
		filtered := make([]float64, len(frame))
		medianFilter1D(filtered, frame, kernel)
		out[f] = filtered
	}
	return out
}
