// Package gen talks to the media generation backends: Gemini for diagrams
// and the fal.ai queue for Veo videos.
package gen

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/hr7657316/education-ai/pkg/core"
)

// DefaultImageModel renders educational diagrams.
const DefaultImageModel = "gemini-2.5-flash-image"

// ImageService generates diagram images from prompts.
type ImageService struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewImageService wraps a genai client. An empty model selects the default.
func NewImageService(client *genai.Client, model string, logger *slog.Logger) *ImageService {
	if model == "" {
		model = DefaultImageModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageService{client: client, model: model, logger: logger}
}

// GenerateImage asks the model for a single image and returns its raw bytes.
func (s *ImageService) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	s.logger.Debug("generating image", slog.String("model", s.model))

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, core.NewDecodeError("no image data received from the API", nil)
}
