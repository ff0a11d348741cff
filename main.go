package main

import (
	"embed"
	"log/slog"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"github.com/rowdy-raedon/V2T/internal/app"
	"github.com/rowdy-raedon/V2T/internal/types"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// App is the application service bound to Wails. It is a thin facade over
// app.Service so the frontend calls methods as "main.App.Name".
type App struct {
	svc *app.Service
}

func NewApp() *App {
	return &App{svc: app.New(version)}
}

// GetVersion returns the application version.
func (a *App) GetVersion() string {
	return a.svc.GetVersion()
}

// ToggleRecording starts dictation when idle and stops it when recording.
// It returns the resulting recording state.
func (a *App) ToggleRecording() bool {
	return a.svc.ToggleRecording()
}

// StopRecording stops dictation if it is running.
func (a *App) StopRecording() {
	a.svc.StopRecording()
}

// IsRecording reports whether dictation is running.
func (a *App) IsRecording() bool {
	return a.svc.IsRecording()
}

// ClearTranscript discards the accumulated text.
func (a *App) ClearTranscript() {
	a.svc.ClearTranscript()
}

// CopyTranscript copies the transcript to the system clipboard.
func (a *App) CopyTranscript() {
	a.svc.CopyTranscript()
}

// SyncTranscript replaces the transcript with user-edited text.
func (a *App) SyncTranscript(text string) types.TranscriptState {
	return a.svc.SyncTranscript(text)
}

// InsertPhrase appends a phrase from the history panel to the transcript.
func (a *App) InsertPhrase(text string) types.TranscriptState {
	return a.svc.InsertPhrase(text)
}

// RecentPhrases returns recently recognized phrases, newest first.
func (a *App) RecentPhrases(limit int) []types.Phrase {
	return a.svc.RecentPhrases(limit)
}

// Settings returns the current settings for the settings dialog.
func (a *App) Settings() types.SettingsInfo {
	return a.svc.Settings()
}

// SaveSettings applies and persists values from the settings dialog.
func (a *App) SaveSettings(autoCopy, alwaysOnTop bool) types.SettingsInfo {
	return a.svc.SaveSettings(autoCopy, alwaysOnTop)
}

// Minimize minimizes the main window.
func (a *App) Minimize() {
	a.svc.Minimize()
}

// CloseApp stops recording, persists settings and exits.
func (a *App) CloseApp() {
	a.svc.CloseApp()
}

func main() {
	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	bound := NewApp()

	wapp := application.New(application.Options{
		Name:        "V2T",
		Description: "Voice to Text",
		Services: []application.Service{
			application.NewService(bound),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
	})

	mainWindow := wapp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:           "V2T",
		Width:           360,
		Height:          450,
		URL:             "/",
		Frameless:       true,
		DisableResize:   true,
		DevToolsEnabled: true,
	})
	mainWindow.Center()

	// Closing the window ends the app; make sure recording stops and
	// settings land on disk first.
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		bound.svc.Shutdown()
	})

	bound.svc.Init(wapp, mainWindow)

	if err := wapp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
