// Package demo synthesizes demo audio tracks so the service can be exercised
// without real recordings. The band-style track layers a harmonic vocal line
// over bass, guitar, melody and kick bursts, giving the separation algorithm
// distinct harmonic and percussive content to work with.
package demo

import (
	"math"
	"math/rand"
	"path/filepath"

	"audiofx/audio"
	"audiofx/codec"
	"audiofx/logger"
)

const (
	sampleRate  = 44100
	mixPeak     = 0.8
	vibratoHz   = 5.0
	vibratoAmnt = 0.05
)

// GenerateTrack writes a band-style demo of the given duration as a stereo
// WAV in dir and returns the file path.
func GenerateTrack(dir, filename string, durationSeconds float64) (string, error) {
	n := int(durationSeconds * sampleRate)

	instrumental := make([]float64, n)
	addBass(instrumental)
	addGuitar(instrumental)
	addMelody(instrumental, []float64{440, 523.25, 659.25, 783.99, 659.25, 523.25, 440}, 0.3)
	addKickBursts(instrumental, sampleRate/2, 1000, 200, 60, 0.5)

	vocals := vocalLine(n, []float64{330, 370, 415, 466, 415, 370, 330})

	mixed := make([]float64, n)
	for i := range mixed {
		mixed[i] = 0.7*instrumental[i] + 0.8*vocals[i]
	}

	return writeStereo(dir, filename, mixed)
}

// GenerateElectronic writes an electronic-style demo: sawtooth bass, detuned
// pad, filter-swept square lead and synthetic drums.
func GenerateElectronic(dir, filename string, durationSeconds float64) (string, error) {
	n := int(durationSeconds * sampleRate)
	mix := make([]float64, n)

	// Sawtooth bass at A1.
	const bassFreq = 55.0
	for i := range mix {
		phase := math.Mod(bassFreq*float64(i)/sampleRate, 1)
		mix[i] += 0.4 * (2*phase - 1)
	}

	// A minor pad with a slight detune on each note.
	for _, freq := range []float64{220, 277.18, 329.63} {
		for i := range mix {
			t := float64(i) / sampleRate
			mix[i] += 0.2 * math.Sin(2*math.Pi*freq*t)
			mix[i] += 0.1 * math.Sin(2*math.Pi*freq*1.01*t)
		}
	}

	addFilteredLead(mix, 440, 0.3)
	addElectronicDrums(mix)

	// Single 100ms feedback-free tap stands in for reverb.
	delay := sampleRate / 10
	for i := n - 1; i >= delay; i-- {
		mix[i] += 0.3 * mix[i-delay]
	}

	return writeStereo(dir, filename, mix)
}

// GenerateAll produces the standard demo set used for manual testing.
func GenerateAll(dir string) error {
	specs := []struct {
		name     string
		duration float64
		generate func(dir, name string, duration float64) (string, error)
	}{
		{"demo_short.wav", 10, GenerateTrack},
		{"demo_medium.wav", 30, GenerateTrack},
		{"demo_electronic.wav", 20, GenerateElectronic},
	}
	for _, s := range specs {
		path, err := s.generate(dir, s.name, s.duration)
		if err != nil {
			return err
		}
		logger.Info("generated demo track",
			logger.String("path", path), logger.Float64("duration", s.duration))
	}
	return nil
}

func addBass(dst []float64) {
	for i := range dst {
		t := float64(i) / sampleRate
		dst[i] += 0.3*math.Sin(2*math.Pi*80*t) + 0.2*math.Sin(2*math.Pi*120*t)
	}
}

// addGuitar adds a 220 Hz tone with 4 Hz amplitude tremolo.
func addGuitar(dst []float64) {
	for i := range dst {
		t := float64(i) / sampleRate
		dst[i] += 0.4 * math.Sin(2*math.Pi*220*t) * (1 + 0.1*math.Sin(2*math.Pi*4*t))
	}
}

// addMelody divides the track evenly among the notes.
func addMelody(dst []float64, notes []float64, amplitude float64) {
	noteLen := len(dst) / len(notes)
	for ni, freq := range notes {
		start := ni * noteLen
		end := start + noteLen
		if ni == len(notes)-1 {
			end = len(dst)
		}
		for i := start; i < end; i++ {
			t := float64(i) / sampleRate
			dst[i] += amplitude * math.Sin(2*math.Pi*freq*t)
		}
	}
}

// addKickBursts places exponentially decaying low-frequency bursts on a
// regular grid, the percussive half of the demo material.
func addKickBursts(dst []float64, interval, burstLen int, decaySamples float64, freq, amplitude float64) {
	for start := 0; start+burstLen < len(dst); start += interval {
		for i := 0; i < burstLen; i++ {
			env := math.Exp(-float64(i) / decaySamples)
			dst[start+i] += amplitude * env * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		}
	}
}

// vocalLine builds a voice-like melody: fundamental plus two harmonics at
// falling amplitude, with slow vibrato over the whole line.
func vocalLine(n int, notes []float64) []float64 {
	out := make([]float64, n)
	noteLen := n / len(notes)
	for ni, freq := range notes {
		start := ni * noteLen
		end := start + noteLen
		if ni == len(notes)-1 {
			end = n
		}
		for i := start; i < end; i++ {
			t := float64(i) / sampleRate
			out[i] = 0.4*math.Sin(2*math.Pi*freq*t) +
				0.2*math.Sin(2*math.Pi*freq*2*t) +
				0.1*math.Sin(2*math.Pi*freq*3*t)
		}
	}
	for i := range out {
		t := float64(i) / sampleRate
		out[i] *= 1 + vibratoAmnt*math.Sin(2*math.Pi*vibratoHz*t)
	}
	return out
}

// addFilteredLead adds a square wave through a one-pole low-pass whose cutoff
// sweeps between 500 and 1500 Hz.
func addFilteredLead(dst []float64, freq, amplitude float64) {
	prev := 0.0
	for i := range dst {
		t := float64(i) / sampleRate
		v := amplitude
		if math.Sin(2*math.Pi*freq*t) < 0 {
			v = -amplitude
		}
		cutoff := 1000 + 500*math.Sin(2*math.Pi*0.5*t)
		alpha := 2 * math.Pi * cutoff / sampleRate
		if alpha > 1 {
			alpha = 1
		}
		prev = alpha*v + (1-alpha)*prev
		dst[i] += prev
	}
}

func addElectronicDrums(dst []float64) {
	rng := rand.New(rand.NewSource(7))
	interval := sampleRate / 4
	for start := 0; start < len(dst); start += interval {
		if start+500 < len(dst) {
			for i := 0; i < 500; i++ {
				env := math.Exp(-float64(i) / 100)
				dst[start+i] += 0.6 * env * math.Sin(2*math.Pi*80*float64(i)/sampleRate)
			}
		}
		hat := start + interval/2
		if hat+100 < len(dst) {
			for i := 0; i < 100; i++ {
				env := math.Exp(-float64(i) / 20)
				dst[hat+i] += 0.3 * rng.NormFloat64() * env
			}
		}
	}
}

// writeStereo normalizes the mono mix to a 0.8 peak, duplicates it to both
// channels and encodes it as WAV.
func writeStereo(dir, filename string, mono []float64) (string, error) {
	buf := audio.New(2, len(mono), sampleRate)
	copy(buf.Samples[0], mono)
	copy(buf.Samples[1], mono)
	buf.ScaleToPeak(mixPeak)

	path := filepath.Join(dir, filename)
	if err := codec.Encode(buf, path); err != nil {
		return "", err
	}
	return path, nil
}
