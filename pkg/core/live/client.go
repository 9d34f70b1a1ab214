// Package live implements the realtime bidirectional streaming protocol the
// tutor session speaks with the hosted model: a WebSocket carrying JSON
// frames for setup, microphone audio, tool calls and tool responses.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hr7657316/education-ai/pkg/core"
)

const (
	defaultHost           = "generativelanguage.googleapis.com"
	defaultConnectTimeout = 15 * time.Second

	// bidiPath is the streaming RPC the session rides on.
	bidiPath = "/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
)

// Config configures a realtime client.
type Config struct {
	// Host overrides the API host. Used by tests to point at a local server.
	Host string

	// Scheme overrides the URL scheme ("wss" by default).
	Scheme string

	// APIKey authenticates the session.
	APIKey string

	// ConnectTimeout bounds the dial plus setup handshake. Default: 15s.
	ConnectTimeout time.Duration

	// Logger receives transport-level diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Client is a connected realtime session. All Send methods are safe for
// concurrent use; Messages delivers decoded server frames until the
// connection ends.
type Client struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex

	messages chan ServerMessage
	done     chan struct{}
	closed   atomic.Bool

	errMu sync.Mutex
	err   error
}

// Connect dials the realtime endpoint, performs the setup handshake, and
// starts the read loop. The returned client is live until Close is called or
// the transport fails.
func Connect(ctx context.Context, cfg Config, setup Setup) (*Client, error) {
	if cfg.Host == "" {
		cfg.Host = defaultHost
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "wss"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	u := url.URL{
		Scheme:   cfg.Scheme,
		Host:     cfg.Host,
		Path:     bidiPath,
		RawQuery: url.Values{"key": {cfg.APIKey}}.Encode(),
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		return nil, core.NewConnectionError("dial realtime endpoint", err)
	}

	c := &Client{
		conn:     conn,
		logger:   cfg.Logger,
		messages: make(chan ServerMessage, 64),
		done:     make(chan struct{}),
	}

	if err := c.send(ClientMessage{Setup: &setup}); err != nil {
		conn.Close()
		return nil, core.NewConnectionError("send setup", err)
	}

	// The server acknowledges setup before any content flows.
	conn.SetReadDeadline(time.Now().Add(cfg.ConnectTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, core.NewConnectionError("await setup ack", err)
	}
	ack, err := DecodeServerMessage(data)
	if err != nil || ack.SetupComplete == nil {
		conn.Close()
		if err == nil {
			err = fmt.Errorf("unexpected first frame")
		}
		return nil, core.NewConnectionError("setup not acknowledged", err)
	}
	conn.SetReadDeadline(time.Time{})

	go c.readLoop()

	c.logger.Debug("realtime session open", slog.String("model", setup.Model))
	return c, nil
}

// Messages returns the channel of decoded server frames. The channel closes
// when the connection ends; Err reports why.
func (c *Client) Messages() <-chan ServerMessage {
	return c.messages
}

// Err returns the transport error that ended the read loop, or nil after a
// clean Close.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// SendAudio streams one captured PCM frame. The mime type carries the input
// sample rate so the server can decode without negotiation.
func (c *Client) SendAudio(pcm []byte, sampleRateHz int) error {
	return c.send(ClientMessage{RealtimeInput: &RealtimeInput{
		MediaChunks: []Blob{{
			MIMEType: fmt.Sprintf("audio/pcm;rate=%d", sampleRateHz),
			Data:     pcm,
		}},
	}})
}

// SendText streams a contextual text message mid-session.
func (c *Client) SendText(text string) error {
	return c.send(ClientMessage{RealtimeInput: &RealtimeInput{Text: text}})
}

// SendMedia streams text plus an inline media blob (e.g. a canvas snapshot).
func (c *Client) SendMedia(text string, blob Blob) error {
	return c.send(ClientMessage{RealtimeInput: &RealtimeInput{
		Text:        text,
		MediaChunks: []Blob{blob},
	}})
}

// SendToolResponse answers one or more tool calls.
func (c *Client) SendToolResponse(responses ...FunctionResponse) error {
	return c.send(ClientMessage{ToolResponse: &ToolResponse{
		FunctionResponses: responses,
	}})
}

// Close shuts the connection down. Safe to call more than once and
// concurrently with Send methods.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)
	return c.conn.Close()
}

func (c *Client) send(msg ClientMessage) error {
	if c.closed.Load() {
		return core.NewConnectionError("session closed", nil)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		return core.NewConnectionError("write frame", err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed.Load() {
				c.errMu.Lock()
				c.err = core.NewConnectionError("read frame", err)
				c.errMu.Unlock()
				c.logger.Warn("realtime read failed", slog.String("error", err.Error()))
			}
			return
		}
		msg, err := DecodeServerMessage(data)
		if err != nil {
			// A malformed frame is dropped rather than tearing the session
			// down; the server keeps its own protocol state.
			c.logger.Warn("dropping malformed frame", slog.String("error", err.Error()))
			continue
		}
		select {
		case c.messages <- msg:
		case <-c.done:
			return
		}
	}
}
