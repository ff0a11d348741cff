// Package app provides the core application service for Wails bindings.
package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"

	"github.com/rowdy-raedon/V2T/clipboard"
	"github.com/rowdy-raedon/V2T/config"
	"github.com/rowdy-raedon/V2T/dictation"
	"github.com/rowdy-raedon/V2T/history"
	"github.com/rowdy-raedon/V2T/hotkey"
	"github.com/rowdy-raedon/V2T/internal/types"
	"github.com/rowdy-raedon/V2T/stt"
)

// autoCopyDelay is how long after a phrase lands the transcript is copied,
// giving the text area a beat to render first.
const autoCopyDelay = 100 * time.Millisecond

// Service orchestrates the voice-to-text surface: it owns the transcript,
// drives the dictation loop, and pushes every update to the frontend as an
// event. Methods are invoked from Wails bindings and from the forwarder
// goroutine; shared state is guarded here.
type Service struct {
	mu       sync.Mutex
	settings *config.Settings

	transcript *dictation.Transcript
	dict       Dictationer
	clip       clipboard.Writer
	hist       *history.Store
	hotkeys    *hotkey.Listener

	// UI seams - set via Init, left nil in tests
	emitFn           func(name string, data any)
	applyAlwaysOnTop func(onTop bool)
	minimizeFn       func()
	quitFn           func()

	copyDelay time.Duration
	closeOnce sync.Once
	version   string
}

// New creates a new Service. Call Init() after the Wails app is created.
func New(version string) *Service {
	return &Service{
		transcript: dictation.NewTranscript(),
		copyDelay:  autoCopyDelay,
		version:    version,
	}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init wires the service to the Wails app and window, builds the dictation
// pipeline from the persisted settings, and starts forwarding loop events.
func (s *Service) Init(app *application.App, window application.Window) {
	s.emitFn = func(name string, data any) { app.Event.Emit(name, data) }
	s.applyAlwaysOnTop = func(onTop bool) { window.SetAlwaysOnTop(onTop) }
	s.minimizeFn = func() { window.Minimise() }
	s.quitFn = app.Quit

	settings, err := config.Load()
	if err != nil {
		slog.Error("load settings", "error", err)
	}
	s.settings = settings
	slog.Info("settings loaded", "language", settings.Language, "autoCopy", settings.AutoCopy)

	s.clip = clipboard.ForApp(app)

	s.setupHistory()
	s.setupDictation()
	s.setupHotkey()

	if settings.AlwaysOnTop {
		s.applyAlwaysOnTop(true)
	}

	go s.forwardEvents()
}

// Shutdown stops recording, persists settings and releases every resource.
// Safe to call more than once.
func (s *Service) Shutdown() {
	s.closeOnce.Do(func() {
		if s.hotkeys != nil {
			s.hotkeys.Stop()
		}
		if s.dict != nil {
			if err := s.dict.Close(); err != nil {
				slog.Error("close dictation", "error", err)
			}
		}
		if s.settings != nil {
			if err := s.settings.Save(); err != nil {
				slog.Error("save settings", "error", err)
			}
		}
		if s.hist != nil {
			if err := s.hist.Close(); err != nil {
				slog.Error("close history", "error", err)
			}
		}
	})
}

func (s *Service) setupHistory() {
	if !s.settings.History {
		return
	}

	dir, err := config.Dir()
	if err != nil {
		slog.Error("locate history dir", "error", err)
		return
	}

	path := filepath.Join(dir, "history")
	store, err := history.Open(path, time.Duration(s.settings.HistoryDays)*24*time.Hour)
	if err != nil {
		slog.Error("open history", "error", err)
		return
	}
	s.hist = store
	slog.Info("history opened", "path", path, "retentionDays", s.settings.HistoryDays)
}

func (s *Service) setupDictation() {
	cfg := dictation.DefaultConfig()
	cfg.Language = s.settings.Language

	svc := dictation.NewMicrophoneService(cfg, s.buildRecognizer())

	if s.settings.KeepRecordings {
		if dir, err := config.Dir(); err != nil {
			slog.Error("locate recordings dir", "error", err)
		} else {
			svc.SetKeeper(dictation.NewKeeper(filepath.Join(dir, "recordings")))
		}
	}

	if src := svc.Audio(); src != nil {
		NewLevelMeter(src, s.emit)
	}

	s.dict = svc
}

// buildRecognizer picks the speech backend. V2T_MOCK_STT=1 swaps in a
// scripted recognizer so the surface can be exercised without credentials.
func (s *Service) buildRecognizer() stt.Recognizer {
	if os.Getenv("V2T_MOCK_STT") == "1" {
		slog.Warn("using mock recognizer", "reason", "V2T_MOCK_STT=1")
		m := stt.NewMock()
		m.Delay = 300 * time.Millisecond
		return m
	}

	return stt.NewWhisperAPI(stt.Config{
		APIKey:  s.settings.APIKey,
		BaseURL: s.settings.BaseURL,
		Model:   s.settings.Model,
	})
}

func (s *Service) setupHotkey() {
	combo := s.settings.Hotkey
	if combo == "" {
		return
	}

	keys, err := hotkey.Parse(combo)
	if err != nil {
		slog.Error("parse hotkey", "combo", combo, "error", err)
		return
	}

	s.hotkeys = hotkey.NewListener(keys)
	go s.hotkeys.Run()
	go func() {
		for range s.hotkeys.Events() {
			s.ToggleRecording()
		}
	}()
	slog.Info("global hotkey armed", "combo", combo)
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.emitFn != nil {
		s.emitFn(name, data)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Recording
// ─────────────────────────────────────────────────────────────────────────────

// ToggleRecording flips between idle and recording and reports the new
// state. When the microphone cannot be opened the service stays idle and
// the failure is surfaced as an error status.
func (s *Service) ToggleRecording() bool {
	if s.dict.Recording() {
		s.StopRecording()
		return false
	}

	if err := s.dict.Start(context.Background()); err != nil {
		slog.Error("start dictation", "error", err)
		s.emit(EventStatus, types.Status{Kind: types.StatusError, Message: "❌ Microphone not available"})
		s.emit(EventState, types.RecordingState{Recording: false})
		return false
	}

	s.emit(EventState, types.RecordingState{Recording: true})
	return true
}

// StopRecording requests the loop to stop. The worker drains within one
// iteration; the stopped status arrives through the event stream.
func (s *Service) StopRecording() {
	s.dict.Stop()
	s.emit(EventState, types.RecordingState{Recording: false})
}

// IsRecording reports whether the dictation loop is active.
func (s *Service) IsRecording() bool {
	return s.dict.Recording()
}

// ─────────────────────────────────────────────────────────────────────────────
// Transcript
// ─────────────────────────────────────────────────────────────────────────────

// ClearTranscript discards the accumulated text.
func (s *Service) ClearTranscript() {
	s.transcript.Clear()
	s.emit(EventTranscript, s.transcript.State())
	s.emit(EventStatus, types.Status{Kind: types.StatusInfo, Message: "🗑️ Text cleared"})
}

// CopyTranscript puts the exact transcript text on the clipboard. An empty
// transcript leaves the clipboard untouched.
func (s *Service) CopyTranscript() {
	if s.transcript.IsEmpty() {
		s.emit(EventStatus, types.Status{Kind: types.StatusInfo, Message: "❌ No text to copy"})
		return
	}

	if err := s.clip.WriteText(s.transcript.Text()); err != nil {
		slog.Error("copy transcript", "error", err)
		s.emit(EventStatus, types.Status{Kind: types.StatusInfo, Message: "❌ Copy failed"})
		return
	}
	s.emit(EventStatus, types.Status{Kind: types.StatusInfo, Message: "📋 Copied!"})
}

// SyncTranscript replaces the transcript with text the user edited in the
// text area and returns the resulting state.
func (s *Service) SyncTranscript(text string) types.TranscriptState {
	s.transcript.Set(text)
	return s.transcript.State()
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

// Settings returns the current settings view.
func (s *Service) Settings() types.SettingsInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return settingsInfo(s.settings)
}

// SaveSettings applies the values from the settings dialog. The new values
// take effect immediately even when persisting them fails; the save outcome
// is reported as a status.
func (s *Service) SaveSettings(autoCopy, alwaysOnTop bool) types.SettingsInfo {
	s.mu.Lock()
	s.settings.AutoCopy = autoCopy
	topChanged := s.settings.AlwaysOnTop != alwaysOnTop
	s.settings.AlwaysOnTop = alwaysOnTop
	snapshot := *s.settings
	s.mu.Unlock()

	if topChanged && s.applyAlwaysOnTop != nil {
		s.applyAlwaysOnTop(alwaysOnTop)
	}

	if err := snapshot.Save(); err != nil {
		slog.Error("save settings", "error", err)
		s.emit(EventStatus, types.Status{Kind: types.StatusInfo, Message: "❌ Settings save failed"})
	} else {
		s.emit(EventStatus, types.Status{Kind: types.StatusInfo, Message: "⚙️ Settings saved!"})
	}

	info := settingsInfo(&snapshot)
	s.emit(EventSettings, info)
	return info
}

func settingsInfo(c *config.Settings) types.SettingsInfo {
	return types.SettingsInfo{
		Language:       c.Language,
		LanguageName:   c.LanguageName(),
		AutoCopy:       c.AutoCopy,
		AlwaysOnTop:    c.AlwaysOnTop,
		Hotkey:         c.Hotkey,
		KeepRecordings: c.KeepRecordings,
		History:        c.History,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// History
// ─────────────────────────────────────────────────────────────────────────────

// RecentPhrases returns the newest recognized phrases, newest first.
func (s *Service) RecentPhrases(limit int) []types.Phrase {
	if s.hist == nil {
		return []types.Phrase{}
	}

	phrases, err := s.hist.Recent(limit)
	if err != nil {
		slog.Error("read history", "error", err)
		return []types.Phrase{}
	}
	if phrases == nil {
		phrases = []types.Phrase{}
	}
	return phrases
}

// InsertPhrase appends previously recognized text to the transcript.
func (s *Service) InsertPhrase(text string) types.TranscriptState {
	if strings.TrimSpace(text) == "" {
		return s.transcript.State()
	}

	s.transcript.Append(text)
	state := s.transcript.State()
	s.emit(EventTranscript, state)
	return state
}

// ─────────────────────────────────────────────────────────────────────────────
// Window
// ─────────────────────────────────────────────────────────────────────────────

// Minimize minimizes the main window.
func (s *Service) Minimize() {
	if s.minimizeFn != nil {
		s.minimizeFn()
	}
}

// CloseApp stops recording, persists settings and quits.
func (s *Service) CloseApp() {
	s.Shutdown()
	if s.quitFn != nil {
		s.quitFn()
	}
}
