package live

import "encoding/json"

// Schema type names used by function declarations.
const (
	TypeObject  = "OBJECT"
	TypeString  = "STRING"
	TypeNumber  = "NUMBER"
	TypeInteger = "INTEGER"
	TypeBoolean = "BOOLEAN"
	TypeArray   = "ARRAY"
)

// Response modalities accepted in the setup generation config.
const (
	ModalityAudio = "AUDIO"
	ModalityText  = "TEXT"
)

// Schema is a declarative parameter schema for a function declaration.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// FunctionDeclaration describes one callable tool exposed to the model.
type FunctionDeclaration struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Tool is a batch of function declarations.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
}

// Blob carries inline binary data. Data is base64-encoded on the wire by
// encoding/json.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Part is one piece of multimodal content.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Content is a role-tagged sequence of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// GenerationConfig configures model output for the session.
type GenerationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *SpeechConfig `json:"speechConfig,omitempty"`
}

// SpeechConfig selects the synthesized voice.
type SpeechConfig struct {
	VoiceConfig *VoiceConfig `json:"voiceConfig,omitempty"`
}

// VoiceConfig names a prebuilt voice.
type VoiceConfig struct {
	PrebuiltVoiceConfig *PrebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

// PrebuiltVoiceConfig is the inner voice selector.
type PrebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

// Setup is the first client frame of a session. It fixes the model, the
// response modality, the system instruction and the tool surface for the
// whole session.
type Setup struct {
	Model             string            `json:"model"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
}

// RealtimeInput streams microphone audio, text, or inline media mid-session.
type RealtimeInput struct {
	MediaChunks []Blob `json:"mediaChunks,omitempty"`
	Text        string `json:"text,omitempty"`
}

// FunctionResponse answers one function call, correlated by ID.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ToolResponse carries a batch of function responses.
type ToolResponse struct {
	FunctionResponses []FunctionResponse `json:"functionResponses"`
}

// ClientMessage is a single client frame. Exactly one field is set.
type ClientMessage struct {
	Setup         *Setup         `json:"setup,omitempty"`
	RealtimeInput *RealtimeInput `json:"realtimeInput,omitempty"`
	ToolResponse  *ToolResponse  `json:"toolResponse,omitempty"`
}

// FunctionCall is one tool invocation requested by the model.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolCallMessage is a batch of function calls from the model.
type ToolCallMessage struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

// ToolCallCancellation asks the client to abandon previously issued calls.
type ToolCallCancellation struct {
	IDs []string `json:"ids,omitempty"`
}

// ServerContent carries incremental model output.
type ServerContent struct {
	ModelTurn    *Content `json:"modelTurn,omitempty"`
	TurnComplete bool     `json:"turnComplete,omitempty"`
	Interrupted  bool     `json:"interrupted,omitempty"`
}

// GoAway warns that the server will close the connection.
type GoAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// ServerMessage is a single server frame. Exactly one field is set.
type ServerMessage struct {
	SetupComplete        *struct{}             `json:"setupComplete,omitempty"`
	ServerContent        *ServerContent        `json:"serverContent,omitempty"`
	ToolCall             *ToolCallMessage      `json:"toolCall,omitempty"`
	ToolCallCancellation *ToolCallCancellation `json:"toolCallCancellation,omitempty"`
	GoAway               *GoAway               `json:"goAway,omitempty"`
}

// InlineAudio extracts the first inline audio blob from a server content
// frame, or nil if the frame carries none.
func (c *ServerContent) InlineAudio() *Blob {
	if c == nil || c.ModelTurn == nil {
		return nil
	}
	for i := range c.ModelTurn.Parts {
		if d := c.ModelTurn.Parts[i].InlineData; d != nil && len(d.Data) > 0 {
			return d
		}
	}
	return nil
}

// Text joins the text parts of a server content frame.
func (c *ServerContent) Text() string {
	if c == nil || c.ModelTurn == nil {
		return ""
	}
	var out string
	for _, p := range c.ModelTurn.Parts {
		out += p.Text
	}
	return out
}

// DecodeServerMessage parses one wire frame.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var msg ServerMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}
