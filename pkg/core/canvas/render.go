package canvas

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

const renderMargin = 40

var (
	renderBackground = color.RGBA{R: 0x1e, G: 0x1e, B: 0x2a, A: 0xff}
	renderText       = color.RGBA{R: 0xd8, G: 0xd8, B: 0xe0, A: 0xff}
	renderNote       = color.RGBA{R: 0xf5, G: 0xd9, B: 0x4a, A: 0xff}
	renderImageBox   = color.RGBA{R: 0x5a, G: 0x7a, B: 0xc0, A: 0xff}
)

// RenderPNG is the built-in rasterizer. It draws every shape as a filled
// block at its board position, decoding image shapes into place where the
// payload is valid PNG. The output is a schematic snapshot, good enough for
// the model to reason about layout; it makes no attempt at typography.
func RenderPNG(shapes []Shape) ([]byte, error) {
	minX, minY := shapes[0].X, shapes[0].Y
	maxX, maxY := shapes[0].X+shapes[0].W, shapes[0].Y+shapes[0].H
	for _, s := range shapes[1:] {
		minX = min(minX, s.X)
		minY = min(minY, s.Y)
		maxX = max(maxX, s.X+s.W)
		maxY = max(maxY, s.Y+s.H)
	}

	width := int(maxX-minX) + 2*renderMargin
	height := int(maxY-minY) + 2*renderMargin
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(renderBackground), image.Point{}, draw.Src)

	for _, s := range shapes {
		rect := image.Rect(
			int(s.X-minX)+renderMargin,
			int(s.Y-minY)+renderMargin,
			int(s.X-minX+s.W)+renderMargin,
			int(s.Y-minY+s.H)+renderMargin,
		)
		switch s.Type {
		case ShapeNote:
			draw.Draw(canvas, rect, image.NewUniform(renderNote), image.Point{}, draw.Src)
		case ShapeImage:
			if img, err := png.Decode(bytes.NewReader(s.PNG)); err == nil {
				draw.Draw(canvas, rect, img, img.Bounds().Min, draw.Src)
			} else {
				draw.Draw(canvas, rect, image.NewUniform(renderImageBox), image.Point{}, draw.Src)
			}
		default:
			draw.Draw(canvas, rect, image.NewUniform(renderText), image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
