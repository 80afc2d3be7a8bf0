package effects

import "audiofx/audio"

// applyEcho adds one attenuated, time-shifted copy of the signal. The same
// routine backs both the echo and delay effects; they differ only in the
// delay time, decay and wet level their intensity mappings produce.
func applyEcho(buf *audio.Buffer, delaySeconds, decay, wetLevel float64) (*audio.Buffer, error) {
	delaySamples := int(delaySeconds * float64(buf.SampleRate))

	out := audio.New(buf.NumChannels(), buf.NumFrames(), buf.SampleRate)
	for ch, src := range buf.Samples {
		wet := make([]float64, len(src))
		copy(wet, src)
		for i := delaySamples; i < len(src); i++ {
			wet[i] += src[i-delaySamples] * decay
		}
		mix(src, wet, wetLevel)
		out.Samples[ch] = wet
	}
	return out, nil
}
