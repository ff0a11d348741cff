// Package dictation runs the capture and recognition loop behind the
// voice-to-text surface. The service owns a background worker that
// alternates between listening for a bounded phrase and sending it to a
// recognizer; everything the surface needs to know arrives over channels.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rowdy-raedon/V2T/audiocapture"
	"github.com/rowdy-raedon/V2T/internal/types"
	"github.com/rowdy-raedon/V2T/stt"
)

// ErrAlreadyRecording is returned by Start when the loop is running.
var ErrAlreadyRecording = errors.New("dictation: already recording")

// Status lines shown to the user.
const (
	statusRecording    = "🎙️ Recording... Speak now!"
	statusListening    = "🎙️ Listening..."
	statusProcessing   = "🔄 Processing..."
	statusContinue     = "🎙️ Continue speaking..."
	statusUnrecognized = "🎙️ Didn't catch that..."
	statusStopped      = "✅ Recording stopped"
)

// Config holds tuning for the dictation loop.
type Config struct {
	// Language is the BCP-47 tag passed to the recognizer.
	Language string
	// WaitTimeout bounds how long one iteration waits for speech to begin.
	WaitTimeout time.Duration
	// PhraseLimit caps the length of a single captured phrase.
	PhraseLimit time.Duration
	// SilenceTail is the quiet run that ends a phrase.
	SilenceTail time.Duration
	// PreRoll is how much audio from before speech onset is kept.
	PreRoll time.Duration
	// VADThreshold is the RMS energy above which a frame counts as speech.
	VADThreshold float32
}

// DefaultConfig returns the stock dictation tuning.
func DefaultConfig() Config {
	return Config{
		Language:     "en-US",
		WaitTimeout:  2 * time.Second,
		PhraseLimit:  8 * time.Second,
		SilenceTail:  800 * time.Millisecond,
		PreRoll:      200 * time.Millisecond,
		VADThreshold: 0.015,
	}
}

// Service is the two-state dictation loop: idle until started, recording
// until stopped or a fatal error. The worker goroutine never touches the
// surface; recognized phrases and status updates are delivered over the
// Phrases and Statuses channels.
type Service struct {
	source     PhraseSource
	recognizer stt.Recognizer
	audio      AudioSource

	recording atomic.Bool

	mu       sync.Mutex
	language string
	keeper   *Keeper
	cancel   context.CancelFunc
	done     chan struct{}

	phraseChan chan types.Phrase
	statusChan chan types.Status
}

// NewService creates a dictation service over an arbitrary phrase source.
func NewService(cfg Config, source PhraseSource, recognizer stt.Recognizer) *Service {
	def := DefaultConfig()
	if cfg.Language == "" {
		cfg.Language = def.Language
	}

	return &Service{
		source:     source,
		recognizer: recognizer,
		language:   cfg.Language,
		phraseChan: make(chan types.Phrase, 10),
		statusChan: make(chan types.Status, 10),
	}
}

// NewMicrophoneService wires a dictation service to the default capture
// device.
func NewMicrophoneService(cfg Config, recognizer stt.Recognizer) *Service {
	def := DefaultConfig()
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = def.WaitTimeout
	}
	if cfg.PhraseLimit <= 0 {
		cfg.PhraseLimit = def.PhraseLimit
	}
	if cfg.SilenceTail <= 0 {
		cfg.SilenceTail = def.SilenceTail
	}
	if cfg.PreRoll <= 0 {
		cfg.PreRoll = def.PreRoll
	}
	if cfg.VADThreshold <= 0 {
		cfg.VADThreshold = def.VADThreshold
	}

	capture := audiocapture.New(audiocapture.DefaultConfig())
	s := NewService(cfg, newListener(capture, cfg), recognizer)
	s.audio = capture
	return s
}

// Start transitions the loop from idle to recording. A stopped worker may
// still be winding down from its last blocking call; Start waits for it to
// exit and release the capture device before opening a new session.
// Opening the capture device is the guard: when the microphone is
// unavailable the error is returned and the service stays idle.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.recording.Load() {
			return ErrAlreadyRecording
		}
		prev := s.done
		if prev == nil {
			break
		}
		// The previous worker holds the device until its cleanup closes
		// done. Wait outside the lock so it can finish.
		s.mu.Unlock()
		<-prev
		s.mu.Lock()
		if s.done == prev {
			s.done = nil
		}
	}

	if s.audio != nil {
		if err := s.audio.Start(); err != nil {
			return fmt.Errorf("start microphone: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.recording.Store(true)
	s.sendStatus(types.StatusRecording, statusRecording)

	go s.run(ctx, cancel, done)

	slog.Info("dictation started", "language", s.language)
	return nil
}

// Stop transitions the loop from recording to idle. It flips the flag and
// cancels the in-flight listen; the worker winds down within one
// iteration. Stopping an idle service is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.recording.Load() {
		return
	}

	s.recording.Store(false)
	if s.cancel != nil {
		s.cancel()
	}

	s.sendStatus(types.StatusStopped, statusStopped)
	slog.Info("dictation stopped")
}

// Recording reports whether the loop is active.
func (s *Service) Recording() bool {
	return s.recording.Load()
}

// Audio returns the capture device feeding the loop, or nil when the
// service was built over a bare phrase source.
func (s *Service) Audio() AudioSource {
	return s.audio
}

// Phrases returns the channel of recognized phrases.
func (s *Service) Phrases() <-chan types.Phrase {
	return s.phraseChan
}

// Statuses returns the channel of status updates.
func (s *Service) Statuses() <-chan types.Status {
	return s.statusChan
}

// SetLanguage changes the recognition language for subsequent phrases.
func (s *Service) SetLanguage(language string) {
	if language == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = language
}

// SetKeeper installs a sink that keeps a WAV copy of every captured
// phrase. A nil keeper disables keeping.
func (s *Service) SetKeeper(k *Keeper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keeper = k
}

// Close stops the loop, waits for the worker to exit and releases the
// recognizer.
func (s *Service) Close() error {
	s.Stop()

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	return s.recognizer.Close()
}

// run is the worker loop. The recording flag is observed at the top of
// each iteration and after every blocking call, so a stop request is
// honored within one iteration. cancel and done belong to this session
// alone; closing done is the last cleanup step and is what a later Start
// waits on before touching the device again.
func (s *Service) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer func() {
		s.recording.Store(false)
		if s.audio != nil {
			if err := s.audio.Stop(); err != nil {
				slog.Error("stop microphone", "error", err)
			}
		}
		cancel()
		close(done)
	}()

	for s.recording.Load() {
		phrase, err := s.source.Listen(ctx)

		// A stop request may have landed while we were blocked.
		if !s.recording.Load() || ctx.Err() != nil {
			return
		}

		if errors.Is(err, ErrNoSpeech) {
			s.sendStatus(types.StatusListening, statusListening)
			continue
		}
		if err != nil {
			slog.Error("listen failed", "error", err)
			s.sendStatus(types.StatusError, errorStatus(err))
			return
		}

		if k := s.keeperRef(); k != nil {
			if path, err := k.Save(phrase); err != nil {
				slog.Warn("keep recording", "error", err)
			} else {
				slog.Debug("kept recording", "path", path)
			}
		}

		s.sendStatus(types.StatusProcessing, statusProcessing)

		result, err := s.recognizer.Transcribe(ctx, phrase.Samples, s.Language())
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, stt.ErrUnintelligible) {
			s.sendStatus(types.StatusUnrecognized, statusUnrecognized)
			continue
		}
		if err != nil {
			slog.Error("recognition failed", "error", err)
			s.sendStatus(types.StatusError, errorStatus(err))
			return
		}

		s.sendPhrase(types.Phrase{
			ID:        uuid.New().String(),
			Text:      result.Text,
			Language:  s.Language(),
			Duration:  phrase.Duration().Milliseconds(),
			Timestamp: time.Now().UnixMilli(),
		})
		s.sendStatus(types.StatusRecognized, statusContinue)
	}
}

// Language returns the current recognition language.
func (s *Service) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

func (s *Service) keeperRef() *Keeper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keeper
}

// sendStatus delivers a status update without ever blocking the worker.
func (s *Service) sendStatus(kind, message string) {
	select {
	case s.statusChan <- types.Status{Kind: kind, Message: message}:
	default:
		// Channel full, skip
	}
}

// sendPhrase delivers a recognized phrase without ever blocking the worker.
func (s *Service) sendPhrase(phrase types.Phrase) {
	select {
	case s.phraseChan <- phrase:
	default:
		// Channel full, skip
	}
}

func errorStatus(err error) string {
	return fmt.Sprintf("❌ Error: %v", err)
}
