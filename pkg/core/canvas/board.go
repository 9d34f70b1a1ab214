// Package canvas holds the shared whiteboard state: an ordered set of shapes
// the student and the tutor both draw on, plus the video overlay slot.
package canvas

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ShapeType discriminates board shapes.
type ShapeType string

const (
	ShapeText  ShapeType = "text"
	ShapeNote  ShapeType = "note"
	ShapeImage ShapeType = "image"
)

// Shape is one element on the board.
type Shape struct {
	ID   string
	Type ShapeType

	X, Y float64
	W, H float64

	// Text is the content of text and note shapes.
	Text string

	// Font is "mono", "draw" or "sans".
	Font  string
	Align string

	// Color is set on note shapes.
	Color string

	// PNG and Alt carry image shape payloads.
	PNG []byte
	Alt string
}

// Renderer rasterizes the board into a PNG.
type Renderer func(shapes []Shape) ([]byte, error)

// Default viewport center used to place new shapes.
const (
	centerX = 400.0
	centerY = 300.0
)

// Board is an in-memory whiteboard. All methods are safe for concurrent use.
type Board struct {
	mu     sync.RWMutex
	shapes []Shape

	videoURL     string
	videoVisible bool

	initialPlaced bool

	render Renderer
	logger *slog.Logger
}

// NewBoard creates an empty board. A nil renderer falls back to the built-in
// rasterizer.
func NewBoard(render Renderer, logger *slog.Logger) *Board {
	if render == nil {
		render = RenderPNG
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{render: render, logger: logger}
}

// WriteText creates a new text shape in the viewport center. Content with
// backticks is treated as code and set in the mono font. Blank text is a
// no-op.
func (b *Board) WriteText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	font := "draw"
	if strings.Contains(text, "`") {
		font = "mono"
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.shapes = append(b.shapes, Shape{
		ID:    uuid.NewString(),
		Type:  ShapeText,
		X:     centerX - 150,
		Y:     centerY - 50,
		W:     300,
		H:     textHeight(text),
		Text:  text,
		Font:  font,
		Align: "middle",
	})
	return nil
}

// ReplaceAllText removes every text shape and creates a single text shape
// holding the new content. The first existing text shape's placement, width,
// font and alignment carry over so the code stays where the student put it.
// Blank content is a no-op.
func (b *Board) ReplaceAllText(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	replacement := Shape{
		ID:    uuid.NewString(),
		Type:  ShapeText,
		X:     centerX - 300,
		Y:     centerY - 200,
		W:     600,
		Font:  "mono",
		Align: "start",
	}
	if first := b.firstTextLocked(); first != nil {
		replacement.X = first.X
		replacement.Y = first.Y
		replacement.W = first.W
		replacement.Font = first.Font
		replacement.Align = first.Align
	}
	replacement.Text = code
	replacement.H = textHeight(code)

	kept := b.shapes[:0]
	for _, s := range b.shapes {
		if s.Type != ShapeText {
			kept = append(kept, s)
		}
	}
	b.shapes = append(kept, replacement)
	return nil
}

// UpdateText finds the first text shape containing oldCode and replaces the
// first occurrence in place. When no shape matches, the new code is written
// as a fresh shape instead so the correction is never silently lost.
func (b *Board) UpdateText(ctx context.Context, oldCode, newCode string) error {
	b.mu.Lock()
	for i := range b.shapes {
		s := &b.shapes[i]
		if s.Type != ShapeText || !strings.Contains(s.Text, oldCode) {
			continue
		}
		s.Text = strings.Replace(s.Text, oldCode, newCode, 1)
		s.H = textHeight(s.Text)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	b.logger.Warn("snippet to update not found, writing as new text")
	return b.WriteText(ctx, newCode)
}

// CreateStickyNote adds a yellow note to the right of the rightmost text
// shape, or in the center-right area of an empty board. Blank hints are a
// no-op.
func (b *Board) CreateStickyNote(ctx context.Context, hint string) error {
	if strings.TrimSpace(hint) == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	x, y := centerX+200, centerY-100
	var rightmost *Shape
	for i := range b.shapes {
		s := &b.shapes[i]
		if s.Type != ShapeText {
			continue
		}
		if rightmost == nil || s.X+s.W > rightmost.X+rightmost.W {
			rightmost = s
		}
	}
	if rightmost != nil {
		x = rightmost.X + rightmost.W + 50
		y = rightmost.Y
	}

	b.shapes = append(b.shapes, Shape{
		ID:    uuid.NewString(),
		Type:  ShapeNote,
		X:     x,
		Y:     y,
		W:     200,
		H:     200,
		Text:  hint,
		Font:  "sans",
		Align: "start",
		Color: "yellow",
	})
	return nil
}

// CreateImage places a generated image in the viewport center.
func (b *Board) CreateImage(ctx context.Context, png []byte, alt string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shapes = append(b.shapes, Shape{
		ID:   uuid.NewString(),
		Type: ShapeImage,
		X:    centerX - 250,
		Y:    centerY - 250,
		W:    500,
		H:    500,
		PNG:  png,
		Alt:  alt,
	})
	return nil
}

// CreateVideoOverlay shows a video on top of the board.
func (b *Board) CreateVideoOverlay(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.videoURL = url
	b.videoVisible = true
	return nil
}

// CloseVideoOverlay hides the video again.
func (b *Board) CloseVideoOverlay() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.videoVisible = false
}

// VideoOverlay returns the overlay URL and whether it is visible.
func (b *Board) VideoOverlay() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.videoURL, b.videoVisible
}

// AllText joins the content of every text shape, in creation order, with
// blank lines between shapes. An empty board yields the empty string.
func (b *Board) AllText() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var parts []string
	for _, s := range b.shapes {
		if s.Type == ShapeText {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// ExportPNG rasterizes the board. An empty board exports as nil with no
// error; callers decide whether that is a problem.
func (b *Board) ExportPNG(ctx context.Context) ([]byte, error) {
	b.mu.RLock()
	shapes := make([]Shape, len(b.shapes))
	copy(shapes, b.shapes)
	b.mu.RUnlock()

	if len(shapes) == 0 {
		return nil, nil
	}
	return b.render(shapes)
}

// PlaceInitialCode writes starter code as a wide mono text block, once per
// problem and only onto an empty board. Reset clears the once-guard.
func (b *Board) PlaceInitialCode(code string) {
	if strings.TrimSpace(code) == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialPlaced || len(b.shapes) > 0 {
		return
	}
	b.shapes = append(b.shapes, Shape{
		ID:    uuid.NewString(),
		Type:  ShapeText,
		X:     centerX - 300,
		Y:     centerY - 100,
		W:     600,
		H:     textHeight(code),
		Text:  code,
		Font:  "mono",
		Align: "start",
	})
	b.initialPlaced = true
}

// Reset clears the board for a new problem.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shapes = nil
	b.videoURL = ""
	b.videoVisible = false
	b.initialPlaced = false
}

// Shapes returns a snapshot of the board contents.
func (b *Board) Shapes() []Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Shape, len(b.shapes))
	copy(out, b.shapes)
	return out
}

func (b *Board) firstTextLocked() *Shape {
	for i := range b.shapes {
		if b.shapes[i].Type == ShapeText {
			return &b.shapes[i]
		}
	}
	return nil
}

// textHeight estimates a shape height from its line count.
func textHeight(text string) float64 {
	lines := strings.Count(text, "\n") + 1
	return float64(lines) * 24
}
