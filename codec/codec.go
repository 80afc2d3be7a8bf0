// Package codec decodes uploaded audio files into sample buffers and encodes
// processed buffers back to distributable files. Format support: WAV, MP3 and
// Ogg Vorbis for decoding, 16-bit PCM WAV for encoding.
package codec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"audiofx/audio"
)

var (
	// ErrUnsupportedFormat indicates a file extension with no decoder.
	ErrUnsupportedFormat = errors.New("codec: unsupported audio format")
)

// Decode reads the audio file at path into a per-channel float buffer.
// The decoder is chosen by file extension.
func Decode(path string) (*audio.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codec: open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	case ".ogg":
		return decodeVorbis(f)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Encode writes buf to path as a 16-bit PCM WAV file. The destination
// directory must already exist.
func Encode(buf *audio.Buffer, path string) error {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("codec: refusing to encode: %w", err)
	}
	return encodeWAV(buf, path)
}

// clampSample converts a float sample in [-1, 1] to int16 range, clamping
// anything outside.
func clampSample(v float64) int {
	s := int(v * 32767)
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return s
}
