package dsp

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

var (
	// ErrSignalTooShort indicates fewer samples than one analysis frame.
	ErrSignalTooShort = errors.New("dsp: signal shorter than one analysis frame")
	// ErrBadFrameSize indicates a frame size that is not a power of two.
	ErrBadFrameSize = errors.New("dsp: frame size must be a power of two")
	// ErrBadHopSize indicates a hop size outside (0, frameSize].
	ErrBadHopSize = errors.New("dsp: hop size must be in (0, frame size]")
)

// Spectrogram is a magnitude/phase short-time spectral representation.
// Frames index time, bins index frequency (frameSize/2+1 bins per frame).
type Spectrogram struct {
	Magnitude [][]float64
	Phase     [][]float64

	frameSize int
	hopSize   int
	signalLen int
}

// NumFrames returns the number of analysis frames.
func (s *Spectrogram) NumFrames() int {
	return len(s.Magnitude)
}

// NumBins returns the number of frequency bins per frame.
func (s *Spectrogram) NumBins() int {
	if len(s.Magnitude) == 0 {
		return 0
	}
	return len(s.Magnitude[0])
}

// Clone deep-copies the magnitudes and shares nothing with the receiver.
// Phase slices are copied as well.
func (s *Spectrogram) Clone() *Spectrogram {
	out := &Spectrogram{
		Magnitude: make([][]float64, len(s.Magnitude)),
		Phase:     make([][]float64, len(s.Phase)),
		frameSize: s.frameSize,
		hopSize:   s.hopSize,
		signalLen: s.signalLen,
	}
	for i, m := range s.Magnitude {
		mc := make([]float64, len(m))
		copy(mc, m)
		out.Magnitude[i] = mc
	}
	for i, p := range s.Phase {
		pc := make([]float64, len(p))
		copy(pc, p)
		out.Phase[i] = pc
	}
	return out
}

// STFT performs forward and inverse short-time Fourier transforms with a
// Hann analysis window and overlap-add reconstruction.
type STFT struct {
	frameSize int
	hopSize   int
	window    []float64
	plan      *algofft.Plan[complex128]
}

// NewSTFT creates a transform with the given frame and hop sizes.
func NewSTFT(frameSize, hopSize int) (*STFT, error) {
	if frameSize <= 0 || frameSize&(frameSize-1) != 0 {
		return nil, ErrBadFrameSize
	}
	if hopSize <= 0 || hopSize > frameSize {
		return nil, ErrBadHopSize
	}
	plan, err := algofft.NewPlan64(frameSize)
	if err != nil {
		return nil, fmt.Errorf("dsp: failed to create FFT plan: %w", err)
	}
	return &STFT{
		frameSize: frameSize,
		hopSize:   hopSize,
		window:    HannWindow(frameSize),
		plan:      plan,
	}, nil
}

// FrameSize returns the analysis frame length.
func (t *STFT) FrameSize() int { return t.frameSize }

// HopSize returns the analysis hop length.
func (t *STFT) HopSize() int { return t.hopSize }

// Analyze computes the magnitude/phase spectrogram of signal.
func (t *STFT) Analyze(signal []float64) (*Spectrogram, error) {
	if len(signal) < t.frameSize {
		return nil, ErrSignalTooShort
	}

	numFrames := (len(signal)-t.frameSize)/t.hopSize + 1
	numBins := t.frameSize/2 + 1

	spec := &Spectrogram{
		Magnitude: make([][]float64, numFrames),
		Phase:     make([][]float64, numFrames),
		frameSize: t.frameSize,
		hopSize:   t.hopSize,
		signalLen: len(signal),
	}

	frame := make([]complex128, t.frameSize)
	for f := 0; f < numFrames; f++ {
		off := f * t.hopSize
		for i := 0; i < t.frameSize; i++ {
			frame[i] = complex(signal[off+i]*t.window[i], 0)
		}
		if err := t.plan.Forward(frame, frame); err != nil {
			return nil, fmt.Errorf("dsp: forward FFT failed: %w", err)
		}

		mag := make([]float64, numBins)
		phase := make([]float64, numBins)
		for k := 0; k < numBins; k++ {
			re := real(frame[k])
			im := imag(frame[k])
			mag[k] = math.Hypot(re, im)
			phase[k] = math.Atan2(im, re)
		}
		spec.Magnitude[f] = mag
		spec.Phase[f] = phase
	}
	return spec, nil
}

// Synthesize reconstructs a time-domain signal from the spectrogram using
// the stored phase and windowed overlap-add. The output has the same length
// as the analyzed signal; samples past the last full frame stay zero.
func (t *STFT) Synthesize(spec *Spectrogram) ([]float64, error) {
	if spec.frameSize != t.frameSize || spec.hopSize != t.hopSize {
		return nil, fmt.Errorf("dsp: spectrogram frame/hop %d/%d does not match transform %d/%d",
			spec.frameSize, spec.hopSize, t.frameSize, t.hopSize)
	}

	out := make([]float64, spec.signalLen)
	wsum := make([]float64, spec.signalLen)

	frame := make([]complex128, t.frameSize)
	numBins := t.frameSize/2 + 1

	for f := 0; f < spec.NumFrames(); f++ {
		mag := spec.Magnitude[f]
		phase := spec.Phase[f]

		// Rebuild the full Hermitian spectrum from the half spectrum.
		for k := 0; k < numBins; k++ {
			re := mag[k] * math.Cos(phase[k])
			im := mag[k] * math.Sin(phase[k])
			frame[k] = complex(re, im)
		}
		for k := numBins; k < t.frameSize; k++ {
			c := frame[t.frameSize-k]
			frame[k] = complex(real(c), -imag(c))
		}

		if err := t.plan.Inverse(frame, frame); err != nil {
			return nil, fmt.Errorf("dsp: inverse FFT failed: %w", err)
		}

		off := f * t.hopSize
		for i := 0; i < t.frameSize && off+i < len(out); i++ {
			w := t.window[i]
			out[off+i] += real(frame[i]) * w
			wsum[off+i] += w * w
		}
	}

	// Compensate the squared analysis/synthesis window where it has support.
	const eps = 1e-9
	for i := range out {
		if wsum[i] > eps {
			out[i] /= wsum[i]
		}
	}
	return out, nil
}
