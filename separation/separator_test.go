package separation

import (
	"math"
	"testing"

	"audiofx/audio"
)

const sampleRate = 44100

// mixedSignal layers a sustained tone over periodic noise bursts, giving the
// algorithm clearly harmonic and clearly percussive material.
func mixedSignal(seconds float64) *audio.Buffer {
	n := int(seconds * sampleRate)
	buf := audio.New(2, n, sampleRate)
	for i := 0; i < n; i++ {
		t := float64(i) / sampleRate
		v := 0.4 * math.Sin(2*math.Pi*440*t)

		// Clicks every quarter second.
		if i%(sampleRate/4) < 64 {
			v += 0.5 * math.Exp(-float64(i%(sampleRate/4))/16)
		}
		buf.Samples[0][i] = v
		buf.Samples[1][i] = v
	}
	return buf
}

func TestSeparatePreservesLengthAndRate(t *testing.T) {
	buf := mixedSignal(1.0)
	result, err := Separate(buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Vocals.NumFrames() != buf.NumFrames() {
		t.Errorf("vocals frames: got %d, want %d", result.Vocals.NumFrames(), buf.NumFrames())
	}
	if result.Instruments.NumFrames() != buf.NumFrames() {
		t.Errorf("instruments frames: got %d, want %d", result.Instruments.NumFrames(), buf.NumFrames())
	}
	if result.Vocals.SampleRate != sampleRate || result.Instruments.SampleRate != sampleRate {
		t.Error("sample rate not preserved")
	}
}

func TestSeparateOutputsInRange(t *testing.T) {
	result, err := Separate(mixedSignal(0.5), nil)
	if err != nil {
		t.Fatal(err)
	}
	if p := result.Vocals.Peak(); p > 1.0+1e-9 {
		t.Errorf("vocals peak %g exceeds 1.0", p)
	}
	if p := result.Instruments.Peak(); p > 1.0+1e-9 {
		t.Errorf("instruments peak %g exceeds 1.0", p)
	}
}

func TestSeparateSilentInput(t *testing.T) {
	buf := audio.New(1, sampleRate, sampleRate)
	result, err := Separate(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Vocals.Peak() != 0 {
		t.Errorf("silent input produced vocal energy: %g", result.Vocals.Peak())
	}
	if result.Instruments.Peak() != 0 {
		t.Errorf("silent input produced instrumental energy: %g", result.Instruments.Peak())
	}
}

func TestSeparateTooShort(t *testing.T) {
	buf := audio.New(1, FrameSize/2, sampleRate)
	if _, err := Separate(buf, nil); err == nil {
		t.Error("expected error for input shorter than one frame")
	}
}

func TestSeparateProgressMonotonic(t *testing.T) {
	var reports []int
	_, err := Separate(mixedSignal(0.5), func(p int) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress went backwards: %v", reports)
		}
	}
}

// The sustained tone should land mostly in the vocal estimate and the clicks
// mostly in the instrumental estimate. Compare band energies rather than
// exact samples; the method is a heuristic.
func TestSeparateRoutesToneAndClicks(t *testing.T) {
	buf := mixedSignal(2.0)
	result, err := Separate(buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	toneInVocals := energyAt(result.Vocals.Samples[0], 440)
	toneInInstr := energyAt(result.Instruments.Samples[0], 440)
	if toneInVocals <= toneInInstr {
		t.Errorf("tone energy: vocals %g <= instruments %g", toneInVocals, toneInInstr)
	}
}

// energyAt measures signal energy at freq via single-bin correlation.
func energyAt(s []float64, freq float64) float64 {
	var re, im float64
	for i, v := range s {
		t := float64(i) / sampleRate
		re += v * math.Cos(2*math.Pi*freq*t)
		im += v * math.Sin(2*math.Pi*freq*t)
	}
	return re*re + im*im
}
