package app

// Event names for frontend communication.
const (
	EventStatus     = "dictation:status"
	EventTranscript = "dictation:transcript"
	EventState      = "dictation:state"
	EventLevel      = "dictation:level"
	EventSettings   = "settings:changed"
)

// AudioLevel is a typed event for microphone level emission.
type AudioLevel struct {
	Level     float32 `json:"level"`
	Timestamp int64   `json:"timestamp"`
	Seq       int     `json:"seq"`
}
