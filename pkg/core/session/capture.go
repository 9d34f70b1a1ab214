package session

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hr7657316/education-ai/pkg/core"
)

// CaptureSource is a microphone. Read blocks until PCM16 data is available.
// Implementations classify open failures as permission or device errors.
type CaptureSource interface {
	Start() error
	Read(buf []byte) (int, error)
	Stop() error
}

// Capture reads fixed-size PCM frames from a microphone, hands them to an
// emit callback, and raises a debounced speech-onset signal.
type Capture struct {
	config CaptureConfig
	source CaptureSource
	logger *slog.Logger

	onFrame  func(pcm []byte)
	onSpeech func()

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	now func() time.Time
}

// NewCapture creates a capture pipeline over the given source. onFrame
// receives every completed frame; onSpeech fires once per speech onset.
// Either callback may be nil.
func NewCapture(config CaptureConfig, source CaptureSource, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{
		config: config,
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// SetCallbacks sets the frame and speech-onset callbacks. Must be called
// before Start.
func (c *Capture) SetCallbacks(onFrame func(pcm []byte), onSpeech func()) {
	c.onFrame = onFrame
	c.onSpeech = onSpeech
}

// Start opens the microphone and begins frame emission. Open failures are
// returned as permission or device errors.
func (c *Capture) Start() error {
	if c.running.Swap(true) {
		return nil
	}
	if err := c.source.Start(); err != nil {
		c.running.Store(false)
		if core.TypeOf(err) != "" {
			return err
		}
		return core.NewDeviceError("open microphone", err)
	}

	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.readLoop()
	return nil
}

// Stop releases the microphone and halts frame emission. Idempotent.
func (c *Capture) Stop() {
	if !c.running.Swap(false) {
		return
	}
	close(c.done)
	if err := c.source.Stop(); err != nil {
		c.logger.Warn("stop microphone", slog.String("error", err.Error()))
	}
	c.wg.Wait()
}

func (c *Capture) readLoop() {
	defer c.wg.Done()

	detector := NewSpeechDetector(c.config.RMSThreshold, c.config.OnsetHold)
	frame := make([]byte, c.config.FrameBytes())
	filled := 0

	for {
		select {
		case <-c.done:
			return
		default:
		}

		n, err := c.source.Read(frame[filled:])
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("microphone read failed", slog.String("error", err.Error()))
			return
		}
		filled += n
		if filled < len(frame) {
			continue
		}
		filled = 0

		if detector.Process(frame, c.now()) && c.onSpeech != nil {
			c.onSpeech()
		}
		if c.onFrame != nil {
			out := make([]byte, len(frame))
			copy(out, frame)
			c.onFrame(out)
		}
	}
}
