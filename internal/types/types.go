// Package types provides shared type definitions for the application.
package types

// Status kinds, used by the frontend to style the status line and by the
// dictation loop to classify what it is reporting. The "stopped" and
// "error" kinds both mean the loop is back in the idle state.
const (
	StatusInfo         = "info"         // general surface feedback (copied, cleared, ...)
	StatusListening    = "listening"    // waiting for speech to begin
	StatusRecording    = "recording"    // capture is active
	StatusProcessing   = "processing"   // recognition request in flight
	StatusRecognized   = "recognized"   // a phrase was appended
	StatusUnrecognized = "unrecognized" // speech was captured but not understood
	StatusStopped      = "stopped"      // loop returned to idle
	StatusError        = "error"        // loop died, back to idle
)

// Status is a transient message describing what the dictation loop is doing.
// Each update replaces the previous one; nothing is persisted.
type Status struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Phrase represents one recognized span of speech.
type Phrase struct {
	ID        string `json:"id"`        // Unique identifier
	Text      string `json:"text"`      // Recognized text
	Language  string `json:"language"`  // BCP-47 tag the recognizer was asked for
	Duration  int64  `json:"duration"`  // Captured audio length in milliseconds
	Timestamp int64  `json:"timestamp"` // Unix timestamp in milliseconds
}

// TranscriptState mirrors the transcript buffer for the frontend.
type TranscriptState struct {
	Text  string `json:"text"`
	Words int    `json:"words"`
}

// RecordingState tells the frontend which of the two loop states is current,
// so the primary control can reflect it.
type RecordingState struct {
	Recording bool `json:"recording"`
}

// SettingsInfo is the settings view exchanged with the frontend. The API
// key never crosses to the frontend.
type SettingsInfo struct {
	Language       string `json:"language"`
	LanguageName   string `json:"languageName"`
	AutoCopy       bool   `json:"autoCopy"`
	AlwaysOnTop    bool   `json:"alwaysOnTop"`
	Hotkey         string `json:"hotkey,omitempty"`
	KeepRecordings bool   `json:"keepRecordings"`
	History        bool   `json:"history"`
}
