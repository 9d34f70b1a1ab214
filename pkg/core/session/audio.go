package session

import (
	"math"
	"time"

	"github.com/hr7657316/education-ai/pkg/core"
)

// RMSEnergy computes the root-mean-square energy of 16-bit signed
// little-endian PCM. Returns a value between 0.0 and 1.0.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// ValidatePCM checks that a chunk is plausible 16-bit mono PCM: non-empty
// with an even byte length. Returns a DecodeError otherwise.
func ValidatePCM(pcm []byte) error {
	if len(pcm) == 0 {
		return core.NewDecodeError("empty audio chunk", nil)
	}
	if len(pcm)%2 != 0 {
		return core.NewDecodeError("odd-length audio chunk", nil)
	}
	return nil
}

// SpeechDetector raises a speech-onset signal when frame energy stays above
// a threshold for a hold period. The signal fires exactly once per onset and
// re-arms only after energy drops back below the threshold.
type SpeechDetector struct {
	threshold float64
	hold      time.Duration

	aboveSince time.Time
	above      bool
	fired      bool
}

// NewSpeechDetector creates a detector with the given energy threshold and
// hold period.
func NewSpeechDetector(threshold float64, hold time.Duration) *SpeechDetector {
	return &SpeechDetector{threshold: threshold, hold: hold}
}

// Process consumes one frame and reports whether a speech onset fired at
// that frame. now must be monotonically non-decreasing across calls.
func (d *SpeechDetector) Process(frame []byte, now time.Time) bool {
	energy := RMSEnergy(frame)
	if energy <= d.threshold {
		// Quiet frame breaks continuity and re-arms the detector.
		d.above = false
		d.fired = false
		return false
	}

	if !d.above {
		d.above = true
		d.aboveSince = now
	}
	if d.fired {
		return false
	}
	if now.Sub(d.aboveSince) >= d.hold {
		d.fired = true
		return true
	}
	return false
}

// Reset returns the detector to its initial armed state.
func (d *SpeechDetector) Reset() {
	d.above = false
	d.fired = false
}
