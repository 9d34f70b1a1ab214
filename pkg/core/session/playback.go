package session

import (
	"log/slog"
	"sync"
	"time"
)

// PlaybackSink plays scheduled PCM buffers. Play must not block; Stop halts
// everything currently playing or scheduled.
type PlaybackSink interface {
	Play(pcm []byte, start time.Time)
	Stop()
}

// Playback schedules inbound model audio back-to-back with no gaps and no
// overlap, and supports immediate full-stop interruption.
type Playback struct {
	config PlaybackConfig
	sink   PlaybackSink
	logger *slog.Logger
	clock  func() time.Time

	onSpeakingChange func(bool)

	mu        sync.Mutex
	nextStart time.Time
	scheduled int
	speaking  bool
	// generation invalidates completion timers armed before an interrupt
	generation uint64
}

// NewPlayback creates a playback queue over the given sink.
func NewPlayback(config PlaybackConfig, sink PlaybackSink, logger *slog.Logger) *Playback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Playback{
		config: config,
		sink:   sink,
		logger: logger,
		clock:  time.Now,
	}
}

// SetSpeakingCallback registers a callback invoked on every transition of
// the "model audio is playing" flag. Must be set before Enqueue.
func (p *Playback) SetSpeakingCallback(fn func(bool)) {
	p.onSpeakingChange = fn
}

// Enqueue validates and schedules one PCM chunk. Each buffer starts at
// max(now, end of the previous buffer). A malformed chunk returns a decode
// error and is dropped; subsequent chunks are unaffected.
func (p *Playback) Enqueue(pcm []byte) error {
	if err := ValidatePCM(pcm); err != nil {
		p.logger.Warn("dropping malformed audio chunk", slog.Int("bytes", len(pcm)))
		return err
	}

	duration := p.config.AudioConfig().Duration(len(pcm))
	now := p.clock()

	p.mu.Lock()
	start := now
	if p.nextStart.After(now) {
		start = p.nextStart
	}
	p.nextStart = start.Add(duration)
	p.scheduled++
	p.setSpeakingLocked(true)
	gen := p.generation
	end := p.nextStart
	p.mu.Unlock()

	p.sink.Play(pcm, start)
	time.AfterFunc(end.Sub(now), func() { p.complete(gen) })
	return nil
}

// Interrupt stops every scheduled buffer, clears the queue, and resets the
// cursor to now. Safe to call when nothing is playing.
func (p *Playback) Interrupt() {
	p.mu.Lock()
	p.generation++
	p.scheduled = 0
	p.nextStart = p.clock()
	p.setSpeakingLocked(false)
	p.mu.Unlock()

	p.sink.Stop()
}

// Speaking reports whether any buffer is scheduled or playing.
func (p *Playback) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}

func (p *Playback) complete(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return
	}
	if p.scheduled > 0 {
		p.scheduled--
	}
	if p.scheduled == 0 {
		p.setSpeakingLocked(false)
	}
}

// setSpeakingLocked flips the speaking flag and notifies. Caller holds mu;
// the callback must not call back into the queue.
func (p *Playback) setSpeakingLocked(speaking bool) {
	if p.speaking == speaking {
		return
	}
	p.speaking = speaking
	if p.onSpeakingChange != nil {
		p.onSpeakingChange(speaking)
	}
}
