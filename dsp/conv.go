package dsp

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

var (
	// ErrEmptySignal indicates an empty convolution input.
	ErrEmptySignal = errors.New("dsp: empty signal")
	// ErrEmptyKernel indicates an empty convolution kernel.
	ErrEmptyKernel = errors.New("dsp: empty kernel")
)

// nextPowerOf2 returns the smallest power of two >= n.
func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// ConvolveSame convolves signal with kernel in the frequency domain and
// returns the centered portion with the same length as signal, matching the
// usual "same" convolution mode. Used for impulse-response style effects
// where direct convolution would be too slow.
func ConvolveSame(signal, kernel []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	fullLen := len(signal) + len(kernel) - 1
	fftSize := nextPowerOf2(fullLen)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("dsp: failed to create FFT plan: %w", err)
	}

	a := make([]complex128, fftSize)
	b := make([]complex128, fftSize)
	for i, v := range signal {
		a[i] = complex(v, 0)
	}
	for i, v := range kernel {
		b[i] = complex(v, 0)
	}

	if err := plan.Forward(a, a); err != nil {
		return nil, fmt.Errorf("dsp: forward FFT failed: %w", err)
	}
	if err := plan.Forward(b, b); err != nil {
		return nil, fmt.Errorf("dsp: forward FFT failed: %w", err)
	}
	for i := range a {
		a[i] *= b[i]
	}
	if err := plan.Inverse(a, a); err != nil {
		return nil, fmt.Errorf("dsp: inverse FFT failed: %w", err)
	}

	// Center the full convolution on the input, like "same" mode.
	offset := (len(kernel) - 1) / 2
	out := make([]float64, len(signal))
	for i := range out {
		out[i] = real(a[i+offset])
	}
	return out, nil
}
