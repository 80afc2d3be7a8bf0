// Package effects implements the parameterized effects engine. Every effect
// consumes a buffer plus a 0-100 intensity knob, processes channels
// independently (chorus shares its modulation phase across channels to keep
// the stereo image) and peak-normalizes the result so no stage can emit
// samples outside [-1, 1].
package effects

import (
	"errors"
	"fmt"
	"strings"

	"audiofx/audio"
)

// ErrUnknownEffect indicates an effect name outside the supported set.
// Failures of this class are invalid parameters, not processing errors.
var ErrUnknownEffect = errors.New("effects: unknown effect")

// Effect is a closed enum over the supported effects.
type Effect int

const (
	Reverb Effect = iota
	Echo
	Chorus
	Distortion
	Compressor
	Equalizer
	Delay
)

var effectNames = map[Effect]string{
	Reverb:     "reverb",
	Echo:       "echo",
	Chorus:     "chorus",
	Distortion: "distortion",
	Compressor: "compressor",
	Equalizer:  "equalizer",
	Delay:      "delay",
}

// String returns the wire name of the effect.
func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// Parse resolves a user-supplied effect name, case-insensitively.
func Parse(name string) (Effect, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for e, n := range effectNames {
		if n == lower {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
}

// Names lists the supported effect names in a stable order.
func Names() []string {
	return []string{"reverb", "echo", "chorus", "distortion", "compressor", "equalizer", "delay"}
}

// Progress receives coarse percentage checkpoints while an effect runs.
type Progress func(percent int)

// clampIntensity limits the user knob to [0, 100]. Out-of-range values are
// clamped, not rejected.
func clampIntensity(intensity int) float64 {
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 100 {
		intensity = 100
	}
	return float64(intensity) / 100.0
}

// Apply runs the named effect over buf at the given intensity and returns a
// new, normalized buffer. The input buffer is never mutated.
func Apply(buf *audio.Buffer, name string, intensity int, report Progress) (*audio.Buffer, error) {
	if report == nil {
		report = func(int) {}
	}
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	effect, err := Parse(name)
	if err != nil {
		return nil, err
	}
	amount := clampIntensity(intensity)
	report(10)

	var out *audio.Buffer
	switch effect {
	case Reverb:
		out, err = applyReverb(buf, amount)
	case Echo:
		out, err = applyEcho(buf, 0.2+amount*0.5, 0.5, amount*0.6)
	case Chorus:
		out, err = applyChorus(buf, amount)
	case Distortion:
		out, err = applyDistortion(buf, amount)
	case Compressor:
		out, err = applyCompressor(buf, amount)
	case Equalizer:
		out, err = applyEqualizer(buf, amount)
	case Delay:
		// Delay is echo with longer times and intensity-driven feedback.
		out, err = applyEcho(buf, 0.5+amount*1.0, 0.3+amount*0.4, amount*0.5)
	}
	if err != nil {
		return nil, fmt.Errorf("effects: %s failed: %w", effect, err)
	}
	report(80)

	out.Normalize()
	report(90)
	return out, nil
}

// mix blends dry and wet signals in place on wet: wet = dry*(1-level) + wet*level.
func mix(dry, wet []float64, level float64) {
	for i := range wet {
		wet[i] = dry[i]*(1-level) + wet[i]*level
	}
}
