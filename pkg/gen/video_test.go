package gen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestGenerateVideoQueueFlow(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("POST /fal-ai/veo3.1/reference-to-video", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Key test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req queueSubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode submit: %v", err)
		}
		if len(req.ImageURLs) != 1 || !strings.HasPrefix(req.ImageURLs[0], "data:image/png;base64,") {
			t.Errorf("image_urls = %v", req.ImageURLs)
		}
		if req.Duration != "8s" || req.Resolution != "720p" || !req.GenerateAudio {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(queueSubmitResponse{
			RequestID:   "req-1",
			StatusURL:   serverURL + "/status",
			ResponseURL: serverURL + "/result",
		})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		status := "IN_PROGRESS"
		if polls.Add(1) >= 3 {
			status = "COMPLETED"
		}
		json.NewEncoder(w).Encode(queueStatusResponse{Status: status})
	})
	mux.HandleFunc("GET /result", func(w http.ResponseWriter, r *http.Request) {
		var result queueResultResponse
		result.Video.URL = "https://cdn.fal.media/clip.mp4"
		json.NewEncoder(w).Encode(result)
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	svc := NewVideoService("test-key", nil,
		WithVideoBaseURL(server.URL),
		WithVideoPollInterval(10*time.Millisecond))

	url, err := svc.GenerateVideo(context.Background(), []byte{0x89, 0x50}, "animate the sort")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if url != "https://cdn.fal.media/clip.mp4" {
		t.Errorf("url = %q", url)
	}
	if polls.Load() < 3 {
		t.Errorf("polled %d times", polls.Load())
	}
}

func TestGenerateVideoFailedStatus(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("POST /fal-ai/veo3.1/reference-to-video", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(queueSubmitResponse{
			RequestID: "req-2",
			StatusURL: serverURL + "/status",
		})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(queueStatusResponse{Status: "FAILED"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	svc := NewVideoService("k", nil,
		WithVideoBaseURL(server.URL),
		WithVideoPollInterval(10*time.Millisecond))

	_, err := svc.GenerateVideo(context.Background(), []byte{1}, "p")
	if err == nil || !strings.Contains(err.Error(), "FAILED") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateVideoMissingURL(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("POST /fal-ai/veo3.1/reference-to-video", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(queueSubmitResponse{
			RequestID:   "req-3",
			StatusURL:   serverURL + "/status",
			ResponseURL: serverURL + "/result",
		})
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(queueStatusResponse{Status: "COMPLETED"})
	})
	mux.HandleFunc("GET /result", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	svc := NewVideoService("k", nil,
		WithVideoBaseURL(server.URL),
		WithVideoPollInterval(10*time.Millisecond))

	_, err := svc.GenerateVideo(context.Background(), []byte{1}, "p")
	if err == nil || !strings.Contains(err.Error(), "no video URL") {
		t.Fatalf("err = %v", err)
	}
}

func TestGenerateVideoSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	svc := NewVideoService("bad", nil, WithVideoBaseURL(server.URL))
	_, err := svc.GenerateVideo(context.Background(), []byte{1}, "p")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v", err)
	}
}
