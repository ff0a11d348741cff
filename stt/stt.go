// Package stt provides the speech-to-text recognizer interface and
// implementations.
package stt

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnintelligible is returned when the service processed the audio but
// produced no usable text (silence, noise, speech it could not make out).
var ErrUnintelligible = errors.New("stt: speech not recognized")

// blankAudioToken is emitted by whisper-style services for silent input.
const blankAudioToken = "[BLANK_AUDIO]"

// Result represents the outcome of a recognition request.
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language"` // language reported by the service, may differ from the request
}

// Recognizer converts one bounded phrase of audio into text.
type Recognizer interface {
	// Name returns the recognizer identifier.
	Name() string

	// Transcribe converts audio samples to text.
	// audio: PCM float32 samples at 16000 Hz, mono
	// language: BCP-47 tag to recognize against (empty for auto-detect)
	// It returns ErrUnintelligible when the service answers with no
	// usable text.
	Transcribe(ctx context.Context, audio []float32, language string) (*Result, error)

	// Close releases resources held by the recognizer.
	Close() error
}

// isBlankText reports whether the service's answer carries no usable text.
func isBlankText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	return strings.EqualFold(trimmed, blankAudioToken)
}

// baseLanguage reduces a BCP-47 tag to its base language subtag, which is
// what transcription endpoints expect ("en-US" -> "en"). Tags that do not
// parse are passed through unchanged.
func baseLanguage(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, conf := t.Base()
	if conf == language.No {
		return tag
	}
	return base.String()
}
