package dictation

import (
	"strings"
	"sync"

	"github.com/rowdy-raedon/V2T/internal/types"
)

// Transcript accumulates recognized text as one flat string. Phrases are
// joined with a single space; there is no per-phrase structure once text
// has been appended.
type Transcript struct {
	mu   sync.RWMutex
	text string
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append joins text onto the current transcript and returns the result.
func (t *Transcript) Append(text string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.text == "" {
		t.text = text
	} else {
		t.text = t.text + " " + text
	}
	return t.text
}

// Set replaces the transcript, e.g. after the user edits the text area.
func (t *Transcript) Set(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = text
}

// Clear discards all accumulated text.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = ""
}

// Text returns the transcript exactly as accumulated.
func (t *Transcript) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

// Words returns the number of whitespace-separated words.
func (t *Transcript) Words() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(strings.Fields(t.text))
}

// IsEmpty reports whether the transcript holds no visible text.
func (t *Transcript) IsEmpty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return strings.TrimSpace(t.text) == ""
}

// State returns a snapshot for event delivery to the frontend.
func (t *Transcript) State() types.TranscriptState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return types.TranscriptState{
		Text:  t.text,
		Words: len(strings.Fields(t.text)),
	}
}
