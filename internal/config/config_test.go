package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValidOnceKeyIsSet(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.CaptureRate != 16000 || cfg.Audio.PlaybackRate != 24000 {
		t.Errorf("audio defaults = %+v", cfg.Audio)
	}
	if cfg.Monitor.Debounce != 10*time.Second {
		t.Errorf("debounce = %v", cfg.Monitor.Debounce)
	}
	if cfg.Session.InterruptMinGap != 500*time.Millisecond {
		t.Errorf("interrupt gap = %v", cfg.Session.InterruptMinGap)
	}
}

func TestMissingAPIKeyFails(t *testing.T) {
	os.Unsetenv("GEMINI_API_KEY")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.yaml")
	content := `
gemini_api_key: from-file
session:
  voice: Kore
audio:
  frame_samples: 2048
monitor:
  debounce: 5s
store:
  max_problems: 10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("TUTOR_VOICE", "Fenrir")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GeminiAPIKey != "from-env" {
		t.Errorf("env must override file, got %q", cfg.GeminiAPIKey)
	}
	if cfg.Session.Voice != "Fenrir" {
		t.Errorf("voice = %q", cfg.Session.Voice)
	}
	if cfg.Audio.FrameSamples != 2048 {
		t.Errorf("frame samples = %d", cfg.Audio.FrameSamples)
	}
	if cfg.Monitor.Debounce != 5*time.Second {
		t.Errorf("debounce = %v", cfg.Monitor.Debounce)
	}
	if cfg.Store.MaxProblems != 10 {
		t.Errorf("max problems = %d", cfg.Store.MaxProblems)
	}
}

func TestBadAudioConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.yaml")
	os.WriteFile(path, []byte("audio:\n  capture_rate: -1\n"), 0o600)
	t.Setenv("GEMINI_API_KEY", "k")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}
