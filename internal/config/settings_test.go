package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if s.Logging.Level != "info" {
		t.Errorf("expected level info, got %q", s.Logging.Level)
	}
	if s.Windows.Max != 3 {
		t.Errorf("expected windows.max 3, got %d", s.Windows.Max)
	}
	if s.Restore.Concurrency != 4 {
		t.Errorf("expected restore.concurrency 4, got %d", s.Restore.Concurrency)
	}
	if !s.Restore.ActiveTabFirst {
		t.Error("expected restore.active_tab_first true")
	}
}

func TestLoadSettings_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `logging:
  level: debug
  development: true
windows:
  max: 5
restore:
  concurrency: 2
  active_tab_first: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}

	if s.Logging.Level != "debug" || !s.Logging.Development {
		t.Errorf("logging not overridden: %+v", s.Logging)
	}
	if s.Windows.Max != 5 {
		t.Errorf("expected windows.max 5, got %d", s.Windows.Max)
	}
	if s.Restore.Concurrency != 2 || s.Restore.ActiveTabFirst {
		t.Errorf("restore not overridden: %+v", s.Restore)
	}
}

func TestLoadSettings_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("windows:\n  max: 0\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Error("expected error for windows.max 0")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Errorf("default settings should validate: %v", err)
	}
}
