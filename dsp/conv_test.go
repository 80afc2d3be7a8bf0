package dsp

import (
	"testing"
)

func TestConvolveSameIdentity(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5}
	out, err := ConvolveSame(signal, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	for i := range signal {
		if !almostEqual(out[i], signal[i], tolerance) {
			t.Errorf("out[%d]: got %g, want %g", i, out[i], signal[i])
		}
	}
}

func TestConvolveSameMatchesDirect(t *testing.T) {
	signal := []float64{1, -2, 3, 0.5, -1, 2, 0, 1}
	kernel := []float64{0.25, 0.5, 0.25}

	out, err := ConvolveSame(signal, kernel)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(signal) {
		t.Fatalf("length: got %d, want %d", len(out), len(signal))
	}

	offset := (len(kernel) - 1) / 2
	for i := range signal {
		var want float64
		for j, k := range kernel {
			idx := i + offset - j
			if idx >= 0 && idx < len(signal) {
				want += signal[idx] * k
			}
		}
		if !almostEqual(out[i], want, 1e-9) {
			t.Errorf("out[%d]: got %g, want %g", i, out[i], want)
		}
	}
}

func TestConvolveSameDelayKernel(t *testing.T) {
	// An impulse at kernel index 2 with offset 1 shifts the signal by one
	// sample in "same" mode.
	signal := []float64{1, 0, 0, 0}
	out, err := ConvolveSame(signal, []float64{0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 0, 0}
	for i := range want {
		if !almostEqual(out[i], want[i], tolerance) {
			t.Errorf("out[%d]: got %g, want %g", i, out[i], want[i])
		}
	}
}

func TestConvolveSameErrors(t *testing.T) {
	if _, err := ConvolveSame(nil, []float64{1}); err != ErrEmptySignal {
		t.Errorf("empty signal: got %v, want ErrEmptySignal", err)
	}
	if _, err := ConvolveSame([]float64{1}, nil); err != ErrEmptyKernel {
		t.Errorf("empty kernel: got %v, want ErrEmptyKernel", err)
	}
}
