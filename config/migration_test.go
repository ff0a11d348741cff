package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrateLegacySettings(t *testing.T) {
	tmp := t.TempDir()
	oldPath := filepath.Join(tmp, legacyFileName)
	newPath := filepath.Join(tmp, appName, settingsFileName)

	legacy := `{"language": "de-DE", "auto_copy": false, "always_on_top": true}`
	if err := os.WriteFile(oldPath, []byte(legacy), 0644); err != nil {
		t.Fatalf("write legacy settings: %v", err)
	}

	if err := migrateFrom(oldPath, newPath); err != nil {
		t.Fatalf("migrateFrom() error = %v", err)
	}

	s, err := loadFrom(newPath)
	if err != nil {
		t.Fatalf("loadFrom() after migration error = %v", err)
	}

	if s.Language != "de-DE" {
		t.Errorf("Language = %q, want %q", s.Language, "de-DE")
	}
	if s.AutoCopy {
		t.Error("AutoCopy = true, want false from legacy file")
	}
	if !s.AlwaysOnTop {
		t.Error("AlwaysOnTop = false, want true from legacy file")
	}

	// The legacy file stays where it was.
	if _, err := os.Stat(oldPath); err != nil {
		t.Errorf("legacy file should be left in place: %v", err)
	}
}

func TestMigrateNoLegacyFile(t *testing.T) {
	tmp := t.TempDir()
	newPath := filepath.Join(tmp, appName, settingsFileName)

	if err := migrateFrom(filepath.Join(tmp, legacyFileName), newPath); err != nil {
		t.Fatalf("migrateFrom() error = %v, want nil when nothing to migrate", err)
	}

	if _, err := os.Stat(newPath); !os.IsNotExist(err) {
		t.Error("migration should not create a settings file out of thin air")
	}
}

func TestMigrateKeepsExistingSettings(t *testing.T) {
	tmp := t.TempDir()
	oldPath := filepath.Join(tmp, legacyFileName)
	newPath := filepath.Join(tmp, appName, settingsFileName)

	if err := os.WriteFile(oldPath, []byte(`{"language": "de-DE"}`), 0644); err != nil {
		t.Fatalf("write legacy settings: %v", err)
	}
	current := []byte(`{"language": "fr-FR"}`)
	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		t.Fatalf("create settings dir: %v", err)
	}
	if err := os.WriteFile(newPath, current, 0644); err != nil {
		t.Fatalf("write current settings: %v", err)
	}

	if err := migrateFrom(oldPath, newPath); err != nil {
		t.Fatalf("migrateFrom() error = %v", err)
	}

	data, err := os.ReadFile(newPath)
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	if string(data) != string(current) {
		t.Errorf("existing settings were overwritten: got %s", data)
	}
}
