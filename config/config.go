// Package config handles application settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	appName          = "v2t"
	settingsFileName = "settings.json"

	// legacyFileName is where earlier releases kept their settings,
	// directly in the user's home directory.
	legacyFileName = "speech_settings.json"

	defaultLanguage    = "en-US"
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModel       = "whisper-1"
	defaultHistoryDays = 7
)

// Settings represents the persisted user preferences.
// Unknown keys in the file are ignored; missing keys keep their defaults.
type Settings struct {
	Language    string `json:"language"`
	AutoCopy    bool   `json:"auto_copy"`
	AlwaysOnTop bool   `json:"always_on_top"`

	// Recognition service
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"stt_base_url"`
	Model   string `json:"stt_model"`

	// Extras
	Hotkey         string `json:"hotkey,omitempty"`
	KeepRecordings bool   `json:"keep_recordings"`
	History        bool   `json:"history"`
	HistoryDays    int    `json:"history_days"`
}

// Load reads settings from the settings file.
// It always returns usable settings: on any failure the returned value is
// the defaults and the error describes what went wrong, so callers can log
// it and carry on.
func Load() (*Settings, error) {
	path, err := settingsPath()
	if err != nil {
		return defaultSettings(), fmt.Errorf("get settings path: %w", err)
	}

	if err := migrateLegacySettings(path); err != nil {
		return defaultSettings(), fmt.Errorf("migrate legacy settings: %w", err)
	}

	return loadFrom(path)
}

func loadFrom(path string) (*Settings, error) {
	s := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return defaultSettings(), fmt.Errorf("unmarshal settings: %w", err)
	}

	s.normalize()
	return s, nil
}

// Save persists the settings to disk.
func (s *Settings) Save() error {
	path, err := settingsPath()
	if err != nil {
		return fmt.Errorf("get settings path: %w", err)
	}
	return s.saveTo(path)
}

func (s *Settings) saveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// LanguageName returns a human-readable name for the configured
// recognition language, e.g. "American English" for en-US.
func (s *Settings) LanguageName() string {
	tag, err := language.Parse(s.Language)
	if err != nil {
		return s.Language
	}
	return display.English.Tags().Name(tag)
}

// normalize repairs values no part of the app can work with.
func (s *Settings) normalize() {
	if _, err := language.Parse(s.Language); err != nil {
		s.Language = defaultLanguage
	}
	if s.BaseURL == "" {
		s.BaseURL = defaultBaseURL
	}
	if s.Model == "" {
		s.Model = defaultModel
	}
	if s.HistoryDays <= 0 {
		s.HistoryDays = defaultHistoryDays
	}
}

func settingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, settingsFileName), nil
}

// Dir returns the per-user directory holding the settings file and the
// app's other on-disk state (history database, kept recordings).
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

func defaultSettings() *Settings {
	return &Settings{
		Language:    defaultLanguage,
		AutoCopy:    true,
		AlwaysOnTop: false,
		BaseURL:     defaultBaseURL,
		Model:       defaultModel,
		History:     true,
		HistoryDays: defaultHistoryDays,
	}
}

// migrateLegacySettings copies the settings file from the original
// location in the home directory the first time the new path is missing.
func migrateLegacySettings(newPath string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get user home dir: %w", err)
	}
	return migrateFrom(filepath.Join(home, legacyFileName), newPath)
}

func migrateFrom(oldPath, newPath string) error {
	// Nothing to do once the new file exists
	if _, err := os.Stat(newPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat settings: %w", err)
	}

	data, err := os.ReadFile(oldPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read legacy settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	if err := os.WriteFile(newPath, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}
