// Package config loads the daemon configuration: YAML file, environment
// overrides for secrets, defaults for everything else.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hr7657316/education-ai/pkg/store"
)

// SessionConfig tunes the live tutoring session.
type SessionConfig struct {
	Model           string        `yaml:"model"`
	Voice           string        `yaml:"voice"`
	InterruptMinGap time.Duration `yaml:"interrupt_min_gap"`
}

// AudioConfig selects capture and playback parameters.
type AudioConfig struct {
	CaptureRate  int     `yaml:"capture_rate"`
	PlaybackRate int     `yaml:"playback_rate"`
	FrameSamples int     `yaml:"frame_samples"`
	RMSThreshold float64 `yaml:"rms_threshold"`
}

// MonitorConfig tunes canvas change detection.
type MonitorConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Debounce     time.Duration `yaml:"debounce"`
}

// LogConfig controls structured log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full daemon configuration.
type Config struct {
	GeminiAPIKey string `yaml:"gemini_api_key"`
	FalAPIKey    string `yaml:"fal_api_key"`

	Session SessionConfig `yaml:"session"`
	Audio   AudioConfig   `yaml:"audio"`
	Monitor MonitorConfig `yaml:"monitor"`
	Store   store.Config  `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Session: SessionConfig{
			Model:           "models/gemini-2.5-flash-native-audio-preview-09-2025",
			Voice:           "Puck",
			InterruptMinGap: 500 * time.Millisecond,
		},
		Audio: AudioConfig{
			CaptureRate:  16000,
			PlaybackRate: 24000,
			FrameSamples: 4096,
			RMSThreshold: 0.01,
		},
		Monitor: MonitorConfig{
			PollInterval: 2 * time.Second,
			Debounce:     10 * time.Second,
		},
		Store: store.DefaultConfig(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("FAL_API_KEY"); v != "" {
		cfg.FalAPIKey = v
	}
	if v := os.Getenv("TUTOR_MODEL"); v != "" {
		cfg.Session.Model = v
	}
	if v := os.Getenv("TUTOR_VOICE"); v != "" {
		cfg.Session.Voice = v
	}
	if v := os.Getenv("TUTOR_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TUTOR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func validate(cfg Config) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("gemini api key is required (set GEMINI_API_KEY)")
	}
	if cfg.Audio.CaptureRate <= 0 || cfg.Audio.PlaybackRate <= 0 {
		return fmt.Errorf("audio sample rates must be positive")
	}
	if cfg.Audio.FrameSamples <= 0 {
		return fmt.Errorf("audio frame size must be positive")
	}
	if cfg.Monitor.PollInterval <= 0 || cfg.Monitor.Debounce <= 0 {
		return fmt.Errorf("monitor intervals must be positive")
	}
	return nil
}
