// Package session implements the client side of a live tutoring session:
// microphone capture with speech detection, gapless playback of model audio,
// debounced canvas monitoring, and the coordinator that owns the realtime
// connection lifecycle.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hr7657316/education-ai/pkg/core"
	"github.com/hr7657316/education-ai/pkg/core/live"
)

// RealtimeSession is the narrow surface the coordinator needs from a
// connected realtime client.
type RealtimeSession interface {
	SendAudio(pcm []byte, sampleRateHz int) error
	SendText(text string) error
	SendMedia(text string, blob live.Blob) error
	SendToolResponse(responses ...live.FunctionResponse) error
	Messages() <-chan live.ServerMessage
	Err() error
	Close() error
}

// Dialer opens a realtime session with the given setup.
type Dialer func(ctx context.Context, setup live.Setup) (RealtimeSession, error)

// Dispatcher executes tool calls. Dispatch always returns a response, even on
// failure, so the session is never left waiting.
type Dispatcher interface {
	Declarations() []live.FunctionDeclaration
	Dispatch(ctx context.Context, call live.FunctionCall) live.FunctionResponse
}

// Deps are the coordinator's collaborators.
type Deps struct {
	// Dial opens the realtime connection.
	Dial Dialer

	// Source is the microphone.
	Source CaptureSource

	// Sink plays model audio.
	Sink PlaybackSink

	// Dispatcher executes tool calls.
	Dispatcher Dispatcher

	// CanvasText extracts the current board text for change monitoring.
	CanvasText func() string

	// CanvasPNG exports the board as a PNG, or nil data when empty. Optional;
	// used by hint and image-explanation requests.
	CanvasPNG func(ctx context.Context) ([]byte, error)

	Logger *slog.Logger
}

// Coordinator owns one realtime tutoring session end to end. It is created
// disconnected; Connect and Stop move it through the lifecycle. All methods
// are safe for concurrent use.
type Coordinator struct {
	config Config
	deps   Deps
	logger *slog.Logger

	capture  *Capture
	playback *Playback
	monitor  *Monitor

	mu            sync.RWMutex
	state         State
	session       RealtimeSession
	lastInterrupt time.Time

	muted  atomic.Bool
	closed atomic.Bool

	events chan Event
	recvWG sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	now func() time.Time
}

// NewCoordinator creates a disconnected coordinator.
func NewCoordinator(config Config, deps Deps) *Coordinator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Coordinator{
		config: config,
		deps:   deps,
		logger: logger,
		state:  StateDisconnected,
		events: make(chan Event, 100),
		now:    time.Now,
	}

	c.capture = NewCapture(config.Capture, deps.Source, logger)
	c.capture.SetCallbacks(c.onFrame, c.onSpeech)

	c.playback = NewPlayback(config.Playback, deps.Sink, logger)
	c.playback.SetSpeakingCallback(func(speaking bool) {
		c.emit(&SpeakingChangedEvent{Speaking: speaking})
	})

	c.monitor = NewMonitor(config.Monitor, deps.CanvasText, c.onCanvasUpdate, logger)
	return c
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Events returns the channel of coordinator events.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// Speaking reports whether model audio is currently scheduled or playing.
func (c *Coordinator) Speaking() bool {
	return c.playback.Speaking()
}

// Muted reports the mute flag.
func (c *Coordinator) Muted() bool {
	return c.muted.Load()
}

// SetMuted gates whether captured audio is forwarded to the session. Speech
// detection keeps running while muted so interruption works the moment the
// user unmutes.
func (c *Coordinator) SetMuted(muted bool) {
	c.muted.Store(muted)
}

// Connect opens the microphone and the realtime session, then starts audio
// streaming and canvas monitoring. On any failure every acquired resource is
// released and the coordinator returns to disconnected.
func (c *Coordinator) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot connect in state %s", state)
	}
	c.setStateLocked(StateConnecting)
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	if err := c.capture.Start(); err != nil {
		c.failConnect("microphone", err)
		return err
	}

	setup := live.Setup{
		Model: c.config.Model,
		GenerationConfig: &live.GenerationConfig{
			ResponseModalities: []string{live.ModalityAudio},
		},
		Tools: []live.Tool{{FunctionDeclarations: c.deps.Dispatcher.Declarations()}},
	}
	if c.config.System != "" {
		setup.SystemInstruction = &live.Content{Parts: []live.Part{{Text: c.config.System}}}
	}
	if c.config.Voice != "" {
		setup.GenerationConfig.SpeechConfig = &live.SpeechConfig{
			VoiceConfig: &live.VoiceConfig{
				PrebuiltVoiceConfig: &live.PrebuiltVoiceConfig{VoiceName: c.config.Voice},
			},
		}
	}

	sess, err := c.deps.Dial(c.ctx, setup)
	if err != nil {
		c.capture.Stop()
		c.failConnect("realtime session", err)
		return err
	}

	c.mu.Lock()
	c.session = sess
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	c.monitor.Start()
	c.recvWG.Add(1)
	go c.recvLoop(sess)

	c.logger.Info("session connected", slog.String("model", c.config.Model))
	return nil
}

// Stop tears the session down and returns the coordinator to disconnected.
// Safe to call in any state, repeatedly.
func (c *Coordinator) Stop() {
	c.teardown("stopped")
}

// AskForHint exports the board and asks the tutor for a hint. Falls back to
// a plain text request when the board is empty.
func (c *Coordinator) AskForHint(ctx context.Context) error {
	return c.sendWithSnapshot(ctx,
		"Here's my current work on the whiteboard. Can you give me a hint?",
		"I'm stuck. Can you give me a hint to get started?")
}

// ExplainWithImages asks the tutor to explain the current problem with
// generated visuals, attaching a board snapshot when one exists.
func (c *Coordinator) ExplainWithImages(ctx context.Context, prompt string) error {
	return c.sendWithSnapshot(ctx, prompt, prompt)
}

func (c *Coordinator) sendWithSnapshot(ctx context.Context, withImage, withoutImage string) error {
	sess := c.currentSession()
	if sess == nil {
		return core.NewConnectionError("not connected", nil)
	}
	if c.deps.CanvasPNG != nil {
		png, err := c.deps.CanvasPNG(ctx)
		if err == nil && len(png) > 0 {
			return sess.SendMedia(withImage, live.Blob{MIMEType: "image/png", Data: png})
		}
		if err != nil {
			c.logger.Warn("canvas export failed, sending text only", slog.String("error", err.Error()))
		}
	}
	return sess.SendText(withoutImage)
}

// onFrame forwards one captured frame unless muted.
func (c *Coordinator) onFrame(pcm []byte) {
	if c.muted.Load() {
		return
	}
	sess := c.currentSession()
	if sess == nil {
		return
	}
	if err := sess.SendAudio(pcm, c.config.Capture.SampleRate); err != nil {
		c.logger.Warn("send audio failed", slog.String("error", err.Error()))
	}
}

// onSpeech interrupts model playback when the user starts talking over it.
// Interrupts are rate limited so a sustained utterance cuts playback once.
func (c *Coordinator) onSpeech() {
	c.emit(&SpeechStartEvent{})
	if !c.playback.Speaking() {
		return
	}

	now := c.now()
	c.mu.Lock()
	if now.Sub(c.lastInterrupt) < c.config.InterruptMinGap {
		c.mu.Unlock()
		return
	}
	c.lastInterrupt = now
	c.mu.Unlock()

	c.logger.Debug("user speech detected, interrupting playback")
	c.playback.Interrupt()
	c.emit(&PlaybackInterruptedEvent{})
}

// onCanvasUpdate reports a debounced board edit to the tutor.
func (c *Coordinator) onCanvasUpdate(snapshot string) {
	sess := c.currentSession()
	if sess == nil {
		return
	}
	text := "[CANVAS UPDATE] The student has modified their work. Current content:\n\n" + snapshot
	if err := sess.SendText(text); err != nil {
		c.logger.Warn("send canvas update failed", slog.String("error", err.Error()))
		return
	}
	c.emit(&CanvasUpdateEvent{Snapshot: snapshot})
}

func (c *Coordinator) recvLoop(sess RealtimeSession) {
	defer c.recvWG.Done()

	for msg := range sess.Messages() {
		switch {
		case msg.ServerContent != nil:
			c.handleServerContent(msg.ServerContent)
		case msg.ToolCall != nil:
			c.handleToolCall(sess, msg.ToolCall)
		case msg.ToolCallCancellation != nil:
			// Calls are never retried; in-flight handlers run to completion
			// and their results are dropped at delivery if the session is
			// gone by then.
			c.logger.Debug("tool call cancellation received",
				slog.Int("count", len(msg.ToolCallCancellation.IDs)))
		case msg.GoAway != nil:
			c.logger.Warn("server going away", slog.String("time_left", msg.GoAway.TimeLeft))
		}
	}

	// The message channel closed: either we closed it or the transport died.
	if err := sess.Err(); err != nil && !c.closed.Load() {
		c.emit(&ErrorEvent{Code: string(core.ErrConnection), Message: err.Error()})
		c.teardown("connection lost")
	}
}

func (c *Coordinator) handleServerContent(sc *live.ServerContent) {
	if sc.Interrupted {
		// Server-side barge-in detection; drop whatever is still queued.
		c.playback.Interrupt()
	}
	if blob := sc.InlineAudio(); blob != nil {
		// Per-chunk decode failures are logged and dropped inside Enqueue;
		// they never end the session.
		_ = c.playback.Enqueue(blob.Data)
	}
	if sc.TurnComplete {
		c.emit(&TurnCompleteEvent{})
	}
}

// handleToolCall dispatches each call on its own goroutine. Completion order
// is unconstrained; the generation lock inside the dispatcher serializes the
// media tools against each other.
func (c *Coordinator) handleToolCall(sess RealtimeSession, tc *live.ToolCallMessage) {
	for _, call := range tc.FunctionCalls {
		c.emit(&ToolCallEvent{ID: call.ID, Name: call.Name})
		go func(call live.FunctionCall) {
			resp := c.deps.Dispatcher.Dispatch(c.ctx, call)
			// The session may have closed while the tool ran; skip delivery
			// rather than writing to a dead transport.
			if c.closed.Load() || c.currentSession() == nil {
				c.logger.Debug("session closed, dropping tool result", slog.String("tool", call.Name))
				return
			}
			if err := sess.SendToolResponse(resp); err != nil {
				c.logger.Warn("send tool response failed",
					slog.String("tool", call.Name), slog.String("error", err.Error()))
				return
			}
			c.emit(&ToolResultEvent{ID: call.ID, Name: call.Name})
		}(call)
	}
}

func (c *Coordinator) currentSession() RealtimeSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateConnected {
		return nil
	}
	return c.session
}

// failConnect unwinds a partial connect.
func (c *Coordinator) failConnect(stage string, err error) {
	c.logger.Error("connect failed", slog.String("stage", stage), slog.String("error", err.Error()))
	c.emit(&ErrorEvent{Code: string(core.TypeOf(err)), Message: err.Error()})

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()
}

// teardown releases every resource. Each release step is independently
// guarded so a failure in one never skips the others.
func (c *Coordinator) teardown(reason string) {
	c.mu.Lock()
	if c.state == StateDisconnected || c.state == StateClosing {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateClosing)
	sess := c.session
	c.session = nil
	c.mu.Unlock()

	c.closed.Store(true)

	c.capture.Stop()
	c.monitor.Stop()
	c.playback.Interrupt()

	if sess != nil {
		if err := sess.Close(); err != nil {
			c.logger.Warn("close session", slog.String("error", err.Error()))
		}
	}
	if c.cancel != nil {
		c.cancel()
	}

	c.mu.Lock()
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	c.closed.Store(false)
	c.emit(&SessionClosedEvent{Reason: reason})
	c.logger.Info("session closed", slog.String("reason", reason))
}

// setStateLocked updates state and emits the transition. Caller holds mu.
func (c *Coordinator) setStateLocked(next State) {
	if c.state == next {
		return
	}
	prev := c.state
	c.state = next
	c.emit(&StateChangedEvent{From: prev, To: next})
}

// emit sends an event without blocking; a full channel drops the event.
func (c *Coordinator) emit(event Event) {
	select {
	case c.events <- event:
	default:
	}
}
