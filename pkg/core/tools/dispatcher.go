// Package tools executes the model's function calls against the whiteboard
// and the media generation services. Every call produces exactly one result;
// failures are reported as result text so the model can react to them.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hr7657316/education-ai/pkg/core"
	"github.com/hr7657316/education-ai/pkg/core/live"
)

// BusyResult is returned when a media tool is called while another image or
// video generation is still running.
const BusyResult = "Media generation already in progress. Please wait for the current generation to complete."

// Board is the whiteboard surface the tools draw on.
type Board interface {
	CreateStickyNote(ctx context.Context, hint string) error
	WriteText(ctx context.Context, text string) error
	ReplaceAllText(ctx context.Context, code string) error
	UpdateText(ctx context.Context, oldCode, newCode string) error
	CreateImage(ctx context.Context, png []byte, alt string) error
	CreateVideoOverlay(ctx context.Context, url string) error
	ExportPNG(ctx context.Context) ([]byte, error)
}

// ImageGenerator produces a PNG from a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// VideoGenerator animates a board snapshot and returns the video URL.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, snapshot []byte, animationPrompt string) (string, error)
}

// CodeRunner executes student code in a sandbox. The returned map is passed
// through as the tool result verbatim.
type CodeRunner interface {
	ExecuteCode(ctx context.Context, code string) map[string]any
}

// Dispatcher routes function calls to their handlers. Image and video
// generation share a lock so at most one media generation runs at a time;
// all other tools run freely.
type Dispatcher struct {
	board  Board
	images ImageGenerator
	videos VideoGenerator
	runner CodeRunner
	logger *slog.Logger

	generating atomic.Bool
}

// NewDispatcher wires the tool handlers. The board is required; the media
// and execution collaborators may be nil, in which case calls to their tools
// report failure in the result.
func NewDispatcher(board Board, images ImageGenerator, videos VideoGenerator, runner CodeRunner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		board:  board,
		images: images,
		videos: videos,
		runner: runner,
		logger: logger,
	}
}

// Declarations returns the advertised function declarations.
func (d *Dispatcher) Declarations() []live.FunctionDeclaration {
	return Declarations()
}

// Dispatch executes one function call and always returns a response carrying
// the call's id and name.
func (d *Dispatcher) Dispatch(ctx context.Context, call live.FunctionCall) live.FunctionResponse {
	d.logger.Debug("tool call", slog.String("name", call.Name), slog.String("id", call.ID))
	return live.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: d.execute(ctx, call),
	}
}

func (d *Dispatcher) execute(ctx context.Context, call live.FunctionCall) map[string]any {
	switch call.Name {
	case NameStickyNoteHint:
		return resultOf(d.board.CreateStickyNote(ctx, argString(call.Args, "hint")))
	case NameWriteOnCanvas:
		return resultOf(d.board.WriteText(ctx, argString(call.Args, "text")))
	case NameReplaceAllCode:
		return resultOf(d.board.ReplaceAllText(ctx, argString(call.Args, "newCode")))
	case NameUpdateCode:
		return resultOf(d.board.UpdateText(ctx, argString(call.Args, "oldCode"), argString(call.Args, "newCode")))
	case NameGenerateImage:
		return d.generateImage(ctx, argString(call.Args, "prompt"))
	case NameExecuteCode:
		if d.runner == nil {
			return map[string]any{"result": "Error: code execution is not available"}
		}
		return d.runner.ExecuteCode(ctx, argString(call.Args, "code"))
	case NameGenerateVideo:
		return d.generateVideo(ctx, argString(call.Args, "animationPrompt"))
	default:
		d.logger.Warn("unknown function call", slog.String("name", call.Name))
		return map[string]any{"result": fmt.Sprintf("Unknown function: %s", call.Name)}
	}
}

func (d *Dispatcher) generateImage(ctx context.Context, prompt string) map[string]any {
	if !d.generating.CompareAndSwap(false, true) {
		return map[string]any{"result": BusyResult}
	}
	defer d.generating.Store(false)

	if d.images == nil {
		return map[string]any{"result": "Image generation failed: no image service configured"}
	}
	png, err := d.images.GenerateImage(ctx, prompt)
	if err == nil {
		err = d.board.CreateImage(ctx, png, prompt)
	}
	if err != nil {
		d.logger.Error("image generation failed", slog.String("error", err.Error()))
		return map[string]any{"result": fmt.Sprintf("Image generation failed: %s", err.Error())}
	}
	return map[string]any{"result": "Image generated and displayed successfully"}
}

func (d *Dispatcher) generateVideo(ctx context.Context, animationPrompt string) map[string]any {
	if !d.generating.CompareAndSwap(false, true) {
		return map[string]any{"result": BusyResult}
	}
	defer d.generating.Store(false)

	if d.videos == nil {
		return map[string]any{"result": "Video generation failed: no video service configured"}
	}

	url, err := d.renderVideo(ctx, animationPrompt)
	if err != nil {
		d.logger.Error("video generation failed", slog.String("error", err.Error()))
		return map[string]any{"result": fmt.Sprintf("Video generation failed: %s", err.Error())}
	}
	d.logger.Info("video overlay displayed", slog.String("url", url))
	return map[string]any{"result": "Video generated and displayed successfully"}
}

// renderVideo exports the board as the animation reference, generates the
// video, and overlays it. An empty board cannot be animated.
func (d *Dispatcher) renderVideo(ctx context.Context, animationPrompt string) (string, error) {
	snapshot, err := d.board.ExportPNG(ctx)
	if err != nil {
		return "", err
	}
	if len(snapshot) == 0 {
		return "", core.NewEmptyCanvasError("cannot generate video: canvas is empty")
	}
	url, err := d.videos.GenerateVideo(ctx, snapshot, animationPrompt)
	if err != nil {
		return "", err
	}
	if err := d.board.CreateVideoOverlay(ctx, url); err != nil {
		return "", err
	}
	return url, nil
}

// resultOf maps a handler error onto the standard result shape.
func resultOf(err error) map[string]any {
	if err != nil {
		return map[string]any{"result": fmt.Sprintf("Error: %s", err.Error())}
	}
	return map[string]any{"result": "ok"}
}

// argString reads a string argument leniently. Missing or mistyped values
// come back empty; handlers treat empties as they see fit.
func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
