package session

// Event is the interface for all coordinator events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// StateChangedEvent is emitted on every lifecycle transition.
type StateChangedEvent struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// SpeechStartEvent is emitted once per detected user speech onset.
type SpeechStartEvent struct{}

func (e *SpeechStartEvent) EventType() string { return "speech.start" }

// PlaybackInterruptedEvent is emitted when user speech cuts off model audio.
type PlaybackInterruptedEvent struct{}

func (e *PlaybackInterruptedEvent) EventType() string { return "playback.interrupted" }

// SpeakingChangedEvent tracks whether model audio is currently scheduled.
type SpeakingChangedEvent struct {
	Speaking bool `json:"speaking"`
}

func (e *SpeakingChangedEvent) EventType() string { return "speaking.changed" }

// ToolCallEvent is emitted when a tool call is received from the session.
type ToolCallEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (e *ToolCallEvent) EventType() string { return "tool.call" }

// ToolResultEvent is emitted after the matching result has been sent back.
type ToolResultEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (e *ToolResultEvent) EventType() string { return "tool.result" }

// TurnCompleteEvent is emitted when the model finishes a response turn.
type TurnCompleteEvent struct{}

func (e *TurnCompleteEvent) EventType() string { return "turn.complete" }

// CanvasUpdateEvent is emitted when a debounced board edit is reported.
type CanvasUpdateEvent struct {
	Snapshot string `json:"snapshot"`
}

func (e *CanvasUpdateEvent) EventType() string { return "canvas.update" }

// SessionClosedEvent is emitted when the coordinator returns to disconnected.
type SessionClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *SessionClosedEvent) EventType() string { return "session.closed" }

// ErrorEvent carries a user-visible failure.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "error" }
