package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/rowdy-raedon/V2T/internal/types"
)

// Dictationer is the slice of the dictation loop the surface needs. The
// concrete implementation is dictation.Service; tests substitute a scripted
// fake.
type Dictationer interface {
	Start(ctx context.Context) error
	Stop()
	Recording() bool
	Statuses() <-chan types.Status
	Phrases() <-chan types.Phrase
	Close() error
}

// forwardEvents drains the dictation channels and republishes everything as
// frontend events. This is the only place loop output crosses to the UI, so
// the worker itself never touches a window. Runs until both channels close.
func (s *Service) forwardEvents() {
	statuses := s.dict.Statuses()
	phrases := s.dict.Phrases()

	for statuses != nil || phrases != nil {
		select {
		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			s.emit(EventStatus, st)
			if st.Kind == types.StatusError || st.Kind == types.StatusStopped {
				s.emit(EventState, types.RecordingState{Recording: false})
			}
		case p, ok := <-phrases:
			if !ok {
				phrases = nil
				continue
			}
			s.handlePhrase(p)
		}
	}
}

// handlePhrase appends recognized text to the transcript, records it in the
// history store and schedules the auto-copy when enabled.
func (s *Service) handlePhrase(p types.Phrase) {
	s.transcript.Append(p.Text)
	s.emit(EventTranscript, s.transcript.State())

	if s.hist != nil {
		if err := s.hist.Append(p); err != nil {
			slog.Warn("append history", "error", err)
		}
	}

	s.mu.Lock()
	autoCopy := s.settings != nil && s.settings.AutoCopy
	s.mu.Unlock()

	if autoCopy {
		time.AfterFunc(s.copyDelay, s.CopyTranscript)
	}
}
