package session

import "time"

// State represents the coordinator lifecycle state.
type State int

const (
	// StateDisconnected is the idle state; no session exists.
	StateDisconnected State = iota
	// StateConnecting is while the microphone and the realtime session are
	// being opened.
	StateConnecting
	// StateConnected is normal operation.
	StateConnected
	// StateClosing is while resources are being released.
	StateClosing
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// AudioConfig specifies PCM format parameters.
type AudioConfig struct {
	// SampleRate in Hz.
	SampleRate int

	// Channels: 1 for mono.
	Channels int

	// BitsPerSample: 16 for signed little-endian PCM.
	BitsPerSample int
}

// BytesPerSecond returns the audio byte rate.
func (c AudioConfig) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// Duration returns the playback duration of the given byte count.
func (c AudioConfig) Duration(bytes int) time.Duration {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(bytes) * time.Second / time.Duration(bps)
}

// BytesFor returns the byte count covering the given duration.
func (c AudioConfig) BytesFor(d time.Duration) int {
	return int(d * time.Duration(c.BytesPerSecond()) / time.Second)
}

// CaptureConfig configures the microphone capture pipeline.
type CaptureConfig struct {
	// SampleRate is the input rate in Hz. Default: 16000.
	SampleRate int

	// FrameSamples is the fixed frame size in samples. Default: 4096.
	FrameSamples int

	// RMSThreshold is the energy level above which a frame counts as user
	// speech. Range 0.0 to 1.0. Default: 0.01.
	RMSThreshold float64

	// OnsetHold is how long energy must stay above the threshold before the
	// speech signal fires. Filters transient noise. Default: 500ms.
	OnsetHold time.Duration
}

// DefaultCaptureConfig returns the standard capture configuration.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:   16000,
		FrameSamples: 4096,
		RMSThreshold: 0.01,
		OnsetHold:    500 * time.Millisecond,
	}
}

// AudioConfig returns the PCM format implied by the capture settings.
func (c CaptureConfig) AudioConfig() AudioConfig {
	return AudioConfig{SampleRate: c.SampleRate, Channels: 1, BitsPerSample: 16}
}

// FrameBytes returns the byte length of one capture frame.
func (c CaptureConfig) FrameBytes() int {
	return c.FrameSamples * 2
}

// PlaybackConfig configures the output queue.
type PlaybackConfig struct {
	// SampleRate is the output rate in Hz. Default: 24000.
	SampleRate int
}

// DefaultPlaybackConfig returns the standard playback configuration.
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{SampleRate: 24000}
}

// AudioConfig returns the PCM format implied by the playback settings.
func (c PlaybackConfig) AudioConfig() AudioConfig {
	return AudioConfig{SampleRate: c.SampleRate, Channels: 1, BitsPerSample: 16}
}

// MonitorConfig configures the canvas change monitor.
type MonitorConfig struct {
	// PollInterval is how often the board text is sampled. Default: 2s.
	PollInterval time.Duration

	// Debounce is how long the board must stay unchanged before a pending
	// update is reported. Default: 10s.
	Debounce time.Duration
}

// DefaultMonitorConfig returns the standard monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval: 2 * time.Second,
		Debounce:     10 * time.Second,
	}
}

// Config holds all configuration for the session coordinator.
type Config struct {
	// Model is the realtime model identifier.
	Model string

	// Voice selects the prebuilt output voice. Optional.
	Voice string

	// System is the tutor system instruction sent at setup.
	System string

	// InterruptMinGap is the minimum spacing between playback interruptions
	// triggered by user speech. Default: 500ms.
	InterruptMinGap time.Duration

	Capture  CaptureConfig
	Playback PlaybackConfig
	Monitor  MonitorConfig
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:           "models/gemini-2.5-flash-native-audio-preview-09-2025",
		InterruptMinGap: 500 * time.Millisecond,
		Capture:         DefaultCaptureConfig(),
		Playback:        DefaultPlaybackConfig(),
		Monitor:         DefaultMonitorConfig(),
	}
}
