package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeRealtimeServer upgrades connections, acknowledges setup, and records
// every client frame it sees.
type fakeRealtimeServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu     sync.Mutex
	frames []ClientMessage

	connCh chan *websocket.Conn
}

func newFakeRealtimeServer(t *testing.T) (*fakeRealtimeServer, *httptest.Server) {
	fs := &fakeRealtimeServer{t: t, connCh: make(chan *websocket.Conn, 1)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		// First frame must be setup.
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read setup: %v", err)
			return
		}
		if msg.Setup == nil {
			t.Error("first frame was not setup")
			return
		}
		fs.record(msg)
		if err := conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}}); err != nil {
			t.Errorf("write ack: %v", err)
			return
		}
		fs.connCh <- conn
		for {
			var m ClientMessage
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			fs.record(m)
		}
	}))
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeRealtimeServer) record(msg ClientMessage) {
	fs.mu.Lock()
	fs.frames = append(fs.frames, msg)
	fs.mu.Unlock()
}

func (fs *fakeRealtimeServer) framesSeen() []ClientMessage {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]ClientMessage, len(fs.frames))
	copy(out, fs.frames)
	return out
}

func connectTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	host := strings.TrimPrefix(srv.URL, "http://")
	client, err := Connect(context.Background(), Config{
		Host:   host,
		Scheme: "ws",
		APIKey: "test-key",
	}, Setup{Model: "models/test-model"})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnectPerformsSetupHandshake(t *testing.T) {
	fs, srv := newFakeRealtimeServer(t)
	client := connectTestClient(t, srv)
	defer client.Close()

	frames := fs.framesSeen()
	if len(frames) != 1 || frames[0].Setup == nil {
		t.Fatalf("expected exactly one setup frame, got %d frames", len(frames))
	}
	if frames[0].Setup.Model != "models/test-model" {
		t.Errorf("setup model = %q", frames[0].Setup.Model)
	}
}

func TestClientDeliversServerMessages(t *testing.T) {
	fs, srv := newFakeRealtimeServer(t)
	client := connectTestClient(t, srv)

	conn := <-fs.connCh
	if err := conn.WriteJSON(map[string]any{
		"toolCall": map[string]any{
			"functionCalls": []map[string]any{
				{"id": "fc-1", "name": "stickyNoteHint", "args": map[string]any{"hint": "try recursion"}},
			},
		},
	}); err != nil {
		t.Fatalf("server write: %v", err)
	}

	select {
	case msg := <-client.Messages():
		if msg.ToolCall == nil || len(msg.ToolCall.FunctionCalls) != 1 {
			t.Fatalf("expected a tool call frame, got %+v", msg)
		}
		fc := msg.ToolCall.FunctionCalls[0]
		if fc.ID != "fc-1" || fc.Name != "stickyNoteHint" {
			t.Errorf("function call = %+v", fc)
		}
		if fc.Args["hint"] != "try recursion" {
			t.Errorf("args = %v", fc.Args)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server message")
	}
}

func TestSendAudioEncodesBase64PCM(t *testing.T) {
	fs, srv := newFakeRealtimeServer(t)
	client := connectTestClient(t, srv)

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	if err := client.SendAudio(pcm, 16000); err != nil {
		t.Fatalf("SendAudio: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		frames := fs.framesSeen()
		if len(frames) >= 2 {
			in := frames[1].RealtimeInput
			if in == nil || len(in.MediaChunks) != 1 {
				t.Fatalf("expected one media chunk, got %+v", frames[1])
			}
			chunk := in.MediaChunks[0]
			if chunk.MIMEType != "audio/pcm;rate=16000" {
				t.Errorf("mime type = %q", chunk.MIMEType)
			}
			if string(chunk.Data) != string(pcm) {
				t.Errorf("payload round trip mismatch: %v", chunk.Data)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for audio frame")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendToolResponseCorrelatesByID(t *testing.T) {
	fs, srv := newFakeRealtimeServer(t)
	client := connectTestClient(t, srv)

	err := client.SendToolResponse(FunctionResponse{
		ID:       "fc-9",
		Name:     "writeOnCanvas",
		Response: map[string]any{"result": "ok"},
	})
	if err != nil {
		t.Fatalf("SendToolResponse: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		frames := fs.framesSeen()
		if len(frames) >= 2 {
			tr := frames[1].ToolResponse
			if tr == nil || len(tr.FunctionResponses) != 1 {
				t.Fatalf("expected one function response, got %+v", frames[1])
			}
			if tr.FunctionResponses[0].ID != "fc-9" {
				t.Errorf("response id = %q", tr.FunctionResponses[0].ID)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for tool response frame")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	_, srv := newFakeRealtimeServer(t)
	client := connectTestClient(t, srv)

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
	if err := client.SendText("hello"); err == nil {
		t.Error("expected error sending on closed client")
	}
}

func TestServerContentInlineAudio(t *testing.T) {
	raw := []byte(`{
		"serverContent": {
			"modelTurn": {"parts": [
				{"text": "thinking"},
				{"inlineData": {"mimeType": "audio/pcm;rate=24000", "data": "AQIDBA=="}}
			]},
			"turnComplete": true
		}
	}`)
	msg, err := DecodeServerMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sc := msg.ServerContent
	if sc == nil || !sc.TurnComplete {
		t.Fatalf("unexpected frame: %+v", msg)
	}
	blob := sc.InlineAudio()
	if blob == nil {
		t.Fatal("expected inline audio")
	}
	if string(blob.Data) != string([]byte{1, 2, 3, 4}) {
		t.Errorf("audio payload = %v", blob.Data)
	}
	if sc.Text() != "thinking" {
		t.Errorf("text = %q", sc.Text())
	}

	// A one-field frame never decodes into two branches.
	var back map[string]json.RawMessage
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("remarshal: %v", err)
	}
	if len(back) != 1 {
		t.Errorf("expected single top-level field, got %d", len(back))
	}
}
