package perception

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// markPalette cycles per element so adjacent boxes stay tellable apart.
var markPalette = []color.RGBA{
	{R: 0xE5, G: 0x3E, B: 0x3E, A: 0xFF},
	{R: 0x2F, G: 0x6F, B: 0xED, A: 0xFF},
	{R: 0x1F, G: 0x9D, B: 0x55, A: 0xFF},
	{R: 0xD9, G: 0x77, B: 0x06, A: 0xFF},
	{R: 0x80, G: 0x3F, B: 0xD0, A: 0xFF},
}

const (
	boxBorderPx   = 2
	labelPadPx    = 2
	labelGlyphW   = 7  // basicfont.Face7x13 advance
	labelGlyphH   = 13 // basicfont.Face7x13 height
)

// annotate draws numbered boxes for the interactive nodes onto a copy
// of the screenshot. The page itself is never touched; only the bitmap
// handed to the reasoner carries the marks. Coordinates arrive in CSS
// pixels and are scaled by the device pixel ratio to land on the
// physical bitmap.
func annotate(screenshot []byte, nodes []*Node, dpr float64) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(screenshot))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	if dpr <= 0 {
		dpr = 1
	}

	var placed []image.Rectangle
	for i, node := range nodes {
		col := markPalette[i%len(markPalette)]
		box := scaleRect(node.Rect, dpr).Intersect(bounds)
		if box.Empty() {
			continue
		}

		drawBorder(canvas, box, col)

		label := fmt.Sprintf("%d", node.ID)
		labelRect := placeLabel(box, label, bounds, placed)
		placed = append(placed, labelRect)
		drawLabel(canvas, labelRect, label, col)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode annotated screenshot: %w", err)
	}
	return out.Bytes(), nil
}

func scaleRect(r Rect, dpr float64) image.Rectangle {
	return image.Rect(
		int(r.X*dpr),
		int(r.Y*dpr),
		int((r.X+r.W)*dpr),
		int((r.Y+r.H)*dpr),
	)
}

func drawBorder(canvas *image.RGBA, box image.Rectangle, col color.RGBA) {
	for t := 0; t < boxBorderPx; t++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			setIfInside(canvas, x, box.Min.Y+t, col)
			setIfInside(canvas, x, box.Max.Y-1-t, col)
		}
		for y := box.Min.Y; y < box.Max.Y; y++ {
			setIfInside(canvas, box.Min.X+t, y, col)
			setIfInside(canvas, box.Max.X-1-t, y, col)
		}
	}
}

func setIfInside(canvas *image.RGBA, x, y int, col color.RGBA) {
	if image.Pt(x, y).In(canvas.Bounds()) {
		canvas.SetRGBA(x, y, col)
	}
}

// placeLabel prefers the top-left corner just above the box, then
// slides the label downward in glyph-height steps until it stops
// colliding with labels already placed. The last candidate wins even
// when it overlaps, so every element keeps a readable number.
func placeLabel(box image.Rectangle, label string, bounds image.Rectangle, placed []image.Rectangle) image.Rectangle {
	w := len(label)*labelGlyphW + 2*labelPadPx
	h := labelGlyphH + 2*labelPadPx

	x := box.Min.X
	if x+w > bounds.Max.X {
		x = bounds.Max.X - w
	}
	if x < bounds.Min.X {
		x = bounds.Min.X
	}

	y := box.Min.Y - h
	if y < bounds.Min.Y {
		y = box.Min.Y
	}

	candidate := image.Rect(x, y, x+w, y+h)
	for attempt := 0; attempt < 8 && overlapsAny(candidate, placed); attempt++ {
		candidate = candidate.Add(image.Pt(0, h))
		if candidate.Max.Y > bounds.Max.Y {
			candidate = image.Rect(x, bounds.Min.Y, x+w, bounds.Min.Y+h)
		}
	}
	return candidate
}

func overlapsAny(r image.Rectangle, placed []image.Rectangle) bool {
	for _, p := range placed {
		if r.Overlaps(p) {
			return true
		}
	}
	return false
}

func drawLabel(canvas *image.RGBA, rect image.Rectangle, label string, col color.RGBA) {
	draw.Draw(canvas, rect, image.NewUniform(col), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot: fixed.P(
			rect.Min.X+labelPadPx,
			rect.Max.Y-labelPadPx-(labelGlyphH-basicfont.Face7x13.Ascent),
		),
	}
	drawer.DrawString(label)
}
