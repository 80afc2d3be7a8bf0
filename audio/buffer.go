// Package audio holds the in-memory sample buffer shared by the codec,
// separation and effects layers.
package audio

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrEmptyBuffer indicates a buffer without channels or samples.
	ErrEmptyBuffer = errors.New("audio: buffer has no samples")
	// ErrChannelMismatch indicates channels of unequal length.
	ErrChannelMismatch = errors.New("audio: channels have unequal length")
	// ErrBadSampleRate indicates a non-positive sample rate.
	ErrBadSampleRate = errors.New("audio: sample rate must be positive")
)

// Buffer is a decoded audio signal: one float64 slice per channel, with all
// channels the same length. Amplitudes are nominally in [-1, 1]; Normalize
// restores that range after processing stages that may exceed it.
type Buffer struct {
	Samples    [][]float64
	SampleRate int
}

// New allocates a zeroed buffer with the given shape.
func New(channels, frames, sampleRate int) *Buffer {
	samples := make([][]float64, channels)
	for ch := range samples {
		samples[ch] = make([]float64, frames)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate}
}

// FromMono wraps a single channel of samples.
func FromMono(samples []float64, sampleRate int) *Buffer {
	return &Buffer{Samples: [][]float64{samples}, SampleRate: sampleRate}
}

// NumChannels returns the channel count.
func (b *Buffer) NumChannels() int {
	return len(b.Samples)
}

// NumFrames returns the per-channel sample count.
func (b *Buffer) NumFrames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the buffer length as wall time.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.NumFrames()) / float64(b.SampleRate) * float64(time.Second))
}

// Validate checks the buffer invariants.
func (b *Buffer) Validate() error {
	if b.SampleRate <= 0 {
		return ErrBadSampleRate
	}
	if len(b.Samples) == 0 || b.NumFrames() == 0 {
		return ErrEmptyBuffer
	}
	for _, ch := range b.Samples {
		if len(ch) != b.NumFrames() {
			return ErrChannelMismatch
		}
	}
	return nil
}

// Clone deep-copies the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Samples:    make([][]float64, len(b.Samples)),
		SampleRate: b.SampleRate,
	}
	for ch, src := range b.Samples {
		dst := make([]float64, len(src))
		copy(dst, src)
		out.Samples[ch] = dst
	}
	return out
}

// Mono mixes all channels down to a single new slice by averaging.
func (b *Buffer) Mono() []float64 {
	if len(b.Samples) == 1 {
		out := make([]float64, len(b.Samples[0]))
		copy(out, b.Samples[0])
		return out
	}
	frames := b.NumFrames()
	out := make([]float64, frames)
	scale := 1.0 / float64(len(b.Samples))
	for _, ch := range b.Samples {
		for i, v := range ch {
			out[i] += v * scale
		}
	}
	return out
}

// Peak returns the maximum absolute amplitude across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.Samples {
		for _, v := range ch {
			if a := math.Abs(v); a > peak {
				peak = a
			}
		}
	}
	return peak
}

// Normalize rescales the whole buffer by 1/peak when the peak exceeds 1.0,
// so every stage's output stays clip-safe. Buffers already in range, and
// silent buffers, are left untouched. Normalizing twice is a no-op.
func (b *Buffer) Normalize() {
	peak := b.Peak()
	if peak <= 1.0 {
		return
	}
	scale := 1.0 / peak
	for _, ch := range b.Samples {
		for i := range ch {
			ch[i] *= scale
		}
	}
}

// ScaleToPeak rescales so the peak lands on target, leaving silent buffers
// untouched. Used when synthesizing content with headroom.
func (b *Buffer) ScaleToPeak(target float64) {
	peak := b.Peak()
	if peak == 0 {
		return
	}
	scale := target / peak
	for _, ch := range b.Samples {
		for i := range ch {
			ch[i] *= scale
		}
	}
}
