package dsp

import (
	"math"
	"testing"
)

func TestNewSTFTValidation(t *testing.T) {
	if _, err := NewSTFT(1000, 256); err != ErrBadFrameSize {
		t.Errorf("non power-of-two frame: got %v, want ErrBadFrameSize", err)
	}
	if _, err := NewSTFT(1024, 0); err != ErrBadHopSize {
		t.Errorf("zero hop: got %v, want ErrBadHopSize", err)
	}
	if _, err := NewSTFT(1024, 2048); err != ErrBadHopSize {
		t.Errorf("hop > frame: got %v, want ErrBadHopSize", err)
	}
	if _, err := NewSTFT(1024, 256); err != nil {
		t.Errorf("valid sizes: unexpected error %v", err)
	}
}

func TestAnalyzeShortSignal(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Analyze(make([]float64, 512)); err != ErrSignalTooShort {
		t.Errorf("got %v, want ErrSignalTooShort", err)
	}
}

func TestAnalyzeShape(t *testing.T) {
	st, err := NewSTFT(512, 128)
	if err != nil {
		t.Fatal(err)
	}
	signal := generateSine(1, 1000, 44100, 2048)
	spec, err := st.Analyze(signal)
	if err != nil {
		t.Fatal(err)
	}

	wantFrames := (2048-512)/128 + 1
	if spec.NumFrames() != wantFrames {
		t.Errorf("frames: got %d, want %d", spec.NumFrames(), wantFrames)
	}
	if spec.NumBins() != 257 {
		t.Errorf("bins: got %d, want 257", spec.NumBins())
	}
}

func TestAnalyzePeakBin(t *testing.T) {
	const sampleRate = 8192.0
	const frame = 1024
	st, err := NewSTFT(frame, 256)
	if err != nil {
		t.Fatal(err)
	}

	// Bin 64 exactly: 64 * sampleRate / frame = 512 Hz.
	signal := generateSine(1, 512, sampleRate, 4096)
	spec, err := st.Analyze(signal)
	if err != nil {
		t.Fatal(err)
	}

	mag := spec.Magnitude[spec.NumFrames()/2]
	peak := 0
	for k := range mag {
		if mag[k] > mag[peak] {
			peak = k
		}
	}
	if peak != 64 {
		t.Errorf("peak bin: got %d, want 64", peak)
	}
}

func TestRoundTrip(t *testing.T) {
	st, err := NewSTFT(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	signal := generateSine(0.5, 440, 44100, 8192)
	spec, err := st.Analyze(signal)
	if err != nil {
		t.Fatal(err)
	}
	recon, err := st.Synthesize(spec)
	if err != nil {
		t.Fatal(err)
	}
	if len(recon) != len(signal) {
		t.Fatalf("length: got %d, want %d", len(recon), len(signal))
	}

	// Skip the edges where overlap-add has partial window coverage.
	var maxErr float64
	for i := 1024; i < len(signal)-1024; i++ {
		if e := math.Abs(recon[i] - signal[i]); e > maxErr {
			maxErr = e
		}
	}
	if maxErr > 1e-6 {
		t.Errorf("interior reconstruction error too large: %g", maxErr)
	}
}

func TestSynthesizeMismatchedTransform(t *testing.T) {
	a, _ := NewSTFT(1024, 256)
	b, _ := NewSTFT(512, 128)

	spec, err := a.Analyze(generateSine(1, 440, 44100, 4096))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Synthesize(spec); err == nil {
		t.Error("expected error for mismatched frame/hop")
	}
}

func TestSpectrogramClone(t *testing.T) {
	st, _ := NewSTFT(512, 128)
	spec, err := st.Analyze(generateSine(1, 440, 44100, 2048))
	if err != nil {
		t.Fatal(err)
	}
	clone := spec.Clone()
	clone.Magnitude[0][0] = -1
	if spec.Magnitude[0][0] == -1 {
		t.Error("Clone must not share magnitude storage")
	}
}
