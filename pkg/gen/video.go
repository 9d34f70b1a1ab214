package gen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hr7657316/education-ai/pkg/core"
)

// Veo model endpoint on the fal.ai queue.
const (
	DefaultVideoEndpoint = "fal-ai/veo3.1/reference-to-video"
	defaultQueueBaseURL  = "https://queue.fal.run"
	defaultPollInterval  = 3 * time.Second
	defaultVideoTimeout  = 5 * time.Minute
)

// VideoService generates short animated explainers from a board snapshot
// through the fal.ai request queue: submit, poll, fetch.
type VideoService struct {
	httpClient   *http.Client
	baseURL      string
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	timeout      time.Duration
	logger       *slog.Logger
}

// VideoOption adjusts a VideoService.
type VideoOption func(*VideoService)

// WithVideoBaseURL points the service at a different queue host.
func WithVideoBaseURL(url string) VideoOption {
	return func(s *VideoService) { s.baseURL = url }
}

// WithVideoHTTPClient swaps the HTTP client.
func WithVideoHTTPClient(c *http.Client) VideoOption {
	return func(s *VideoService) { s.httpClient = c }
}

// WithVideoPollInterval changes how often the queue is polled.
func WithVideoPollInterval(d time.Duration) VideoOption {
	return func(s *VideoService) { s.pollInterval = d }
}

// NewVideoService creates a queue client for the Veo endpoint.
func NewVideoService(apiKey string, logger *slog.Logger, opts ...VideoOption) *VideoService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &VideoService{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		baseURL:      defaultQueueBaseURL,
		endpoint:     DefaultVideoEndpoint,
		apiKey:       apiKey,
		pollInterval: defaultPollInterval,
		timeout:      defaultVideoTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type queueSubmitRequest struct {
	ImageURLs     []string `json:"image_urls"`
	Prompt        string   `json:"prompt"`
	Duration      string   `json:"duration"`
	Resolution    string   `json:"resolution"`
	GenerateAudio bool     `json:"generate_audio"`
}

type queueSubmitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type queueStatusResponse struct {
	Status string `json:"status"`
}

type queueResultResponse struct {
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
}

// GenerateVideo animates the snapshot according to the prompt and returns
// the hosted video URL. The snapshot travels inline as a data URI so no
// separate storage upload is needed.
func (s *VideoService) GenerateVideo(ctx context.Context, snapshot []byte, animationPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	submitted, err := s.submit(ctx, snapshot, animationPrompt)
	if err != nil {
		return "", err
	}
	s.logger.Info("video generation queued", slog.String("request_id", submitted.RequestID))

	if err := s.awaitCompletion(ctx, submitted); err != nil {
		return "", err
	}
	return s.fetchResult(ctx, submitted)
}

func (s *VideoService) submit(ctx context.Context, snapshot []byte, prompt string) (*queueSubmitResponse, error) {
	body, err := json.Marshal(queueSubmitRequest{
		ImageURLs:     []string{"data:image/png;base64," + base64.StdEncoding.EncodeToString(snapshot)},
		Prompt:        prompt,
		Duration:      "8s",
		Resolution:    "720p",
		GenerateAudio: true,
	})
	if err != nil {
		return nil, err
	}

	var resp queueSubmitResponse
	if err := s.do(ctx, http.MethodPost, s.baseURL+"/"+s.endpoint, body, &resp); err != nil {
		return nil, fmt.Errorf("submit video request: %w", err)
	}
	if resp.RequestID == "" {
		return nil, core.NewDecodeError("queue returned no request id", nil)
	}
	if resp.StatusURL == "" {
		resp.StatusURL = fmt.Sprintf("%s/%s/requests/%s/status", s.baseURL, s.endpoint, resp.RequestID)
	}
	if resp.ResponseURL == "" {
		resp.ResponseURL = fmt.Sprintf("%s/%s/requests/%s", s.baseURL, s.endpoint, resp.RequestID)
	}
	return &resp, nil
}

func (s *VideoService) awaitCompletion(ctx context.Context, submitted *queueSubmitResponse) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		var status queueStatusResponse
		if err := s.do(ctx, http.MethodGet, submitted.StatusURL, nil, &status); err != nil {
			return fmt.Errorf("poll video status: %w", err)
		}
		switch status.Status {
		case "COMPLETED":
			return nil
		case "IN_QUEUE", "IN_PROGRESS":
		default:
			return core.NewToolExecutionError(fmt.Sprintf("video request %s failed with status %s", submitted.RequestID, status.Status), nil)
		}

		select {
		case <-ctx.Done():
			return core.NewTimeoutError("video generation timed out")
		case <-ticker.C:
		}
	}
}

func (s *VideoService) fetchResult(ctx context.Context, submitted *queueSubmitResponse) (string, error) {
	var result queueResultResponse
	if err := s.do(ctx, http.MethodGet, submitted.ResponseURL, nil, &result); err != nil {
		return "", fmt.Errorf("fetch video result: %w", err)
	}
	if result.Video.URL == "" {
		return "", core.NewDecodeError("no video URL returned from fal.ai", nil)
	}
	return result.Video.URL, nil
}

func (s *VideoService) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, payload)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
