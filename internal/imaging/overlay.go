package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay draws diagnostic annotations (frame, ticks, traces) over a copy
// of a chart so a human can see what the pipeline detected.
type Overlay struct {
	img *image.RGBA
}

// NewOverlay copies src onto a fresh RGBA canvas anchored at the origin.
func NewOverlay(src image.Image) *Overlay {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Overlay{img: dst}
}

// Image returns the annotated canvas.
func (o *Overlay) Image() *image.RGBA {
	return o.img
}

// Rect outlines r with a 1 px border.
func (o *Overlay) Rect(r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		o.set(x, r.Min.Y, c)
		o.set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		o.set(r.Min.X, y, c)
		o.set(r.Max.X-1, y, c)
	}
}

// Cross draws a small plus sign centred on p.
func (o *Overlay) Cross(p image.Point, size int, c color.Color) {
	for d := -size; d <= size; d++ {
		o.set(p.X+d, p.Y, c)
		o.set(p.X, p.Y+d, c)
	}
}

// Polyline connects consecutive points with straight segments.
func (o *Overlay) Polyline(pts []image.Point, c color.Color) {
	if len(pts) == 1 {
		o.set(pts[0].X, pts[0].Y, c)
		return
	}
	for i := 1; i < len(pts); i++ {
		o.line(pts[i-1], pts[i], c)
	}
}

// Label writes text with its top-left corner at (x, y) on a filled
// background box.
func (o *Overlay) Label(x, y int, text string, fg, bg color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: o.img, Src: image.NewUniform(fg), Face: face}
	width := d.MeasureString(text).Ceil()
	box := image.Rect(x-1, y-1, x+width+1, y+face.Height+1).Intersect(o.img.Bounds())
	draw.Draw(o.img, box, image.NewUniform(bg), image.Point{}, draw.Over)
	d.Dot = fixed.P(x, y+face.Ascent)
	d.DrawString(text)
}

// line rasterizes a segment with Bresenham's algorithm.
func (o *Overlay) line(a, b image.Point, c color.Color) {
	dx := absInt(b.X - a.X)
	dy := -absInt(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		o.set(x, y, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

func (o *Overlay) set(x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(o.img.Bounds()) {
		o.img.Set(x, y, c)
	}
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length %d", len(hex))
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
