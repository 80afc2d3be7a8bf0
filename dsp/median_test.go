package dsp

import (
	"testing"
)

func TestMedianFilter1DRemovesSpike(t *testing.T) {
	src := []float64{1, 1, 1, 100, 1, 1, 1}
	dst := make([]float64, len(src))
	medianFilter1D(dst, src, 3)
	for i, v := range dst {
		if v != 1 {
			t.Errorf("dst[%d]: got %g, want 1", i, v)
		}
	}
}

func TestMedianFilter1DEdgeTruncation(t *testing.T) {
	src := []float64{4, 2, 6, 8}
	dst := make([]float64, len(src))
	medianFilter1D(dst, src, 3)

	// First window is [4 2], truncated: median 3. Last is [6 8]: median 7.
	if !almostEqual(dst[0], 3, tolerance) {
		t.Errorf("dst[0]: got %g, want 3", dst[0])
	}
	if !almostEqual(dst[3], 7, tolerance) {
		t.Errorf("dst[3]: got %g, want 7", dst[3])
	}
}

func TestMedianFilterTimeSuppressesTransient(t *testing.T) {
	// A single loud frame across all bins is a transient; filtering along
	// time must flatten it.
	mag := make([][]float64, 9)
	for f := range mag {
		mag[f] = []float64{1, 1}
	}
	mag[4] = []float64{10, 10}

	out := MedianFilterTime(mag, 5)
	if out[4][0] != 1 || out[4][1] != 1 {
		t.Errorf("transient survived time filter: %v", out[4])
	}
}

func TestMedianFilterFreqSuppressesTonalPeak(t *testing.T) {
	// A single loud bin in an otherwise flat frame is a tonal component;
	// filtering along frequency must flatten it.
	mag := [][]float64{{1, 1, 1, 1, 10, 1, 1, 1, 1}}
	out := MedianFilterFreq(mag, 5)
	if out[0][4] != 1 {
		t.Errorf("tonal peak survived frequency filter: got %g, want 1", out[0][4])
	}
}

func TestMedianFilterTimeEmpty(t *testing.T) {
	if out := MedianFilterTime(nil, 5); out != nil {
		t.Errorf("empty input: got %v, want nil", out)
	}
}
