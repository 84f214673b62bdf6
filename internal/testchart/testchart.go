// Package testchart draws synthetic pump charts with known geometry for
// tests, and provides a fake label reader that answers from that geometry
// instead of running OCR.
package testchart

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/pump-curve-digitizer/internal/ocr"
)

// Tick is a labelled tick mark. Pixel is the tick's left (x axis) or top
// (y axes) pixel; ticks are 2 px wide, so their centre is Pixel+0.5.
type Tick struct {
	Pixel int
	Label string
}

// Line is a straight segment drawn with square stamps.
type Line struct {
	From, To  image.Point
	Color     color.Color
	Thickness int
}

// Chart describes a synthetic chart.
type Chart struct {
	Width, Height int

	// Frame line positions; each line is 2 px thick starting at the value.
	Left, Right, Top, Bottom int

	// Closed draws the right and top frame lines.
	Closed bool

	XTicks  []Tick
	YTicks  []Tick
	Y2Ticks []Tick

	// Gridlines draws light gray gridlines at every x and y tick.
	Gridlines bool

	// Labels renders tick labels with a bitmap font.
	Labels bool

	Lines []Line
}

// TickLength is the length of every drawn tick, in pixels.
const TickLength = 6

// Standard returns a 400x300 chart with a closed frame, x ticks at
// 60..380 labelled 0..400 and y ticks at 250..70 labelled 0..150.
func Standard() *Chart {
	return &Chart{
		Width: 400, Height: 300,
		Left: 60, Right: 380, Top: 30, Bottom: 250,
		Closed: true,
		XTicks: []Tick{
			{60, "0"}, {140, "100"}, {220, "200"}, {300, "300"}, {380, "400"},
		},
		YTicks: []Tick{
			{250, "0"}, {190, "50"}, {130, "100"}, {70, "150"},
		},
		Labels: true,
	}
}

// XValue converts an x pixel centre to its value using the standard scale.
func XValue(px float64) float64 { return (px - 60.5) * 400 / 320 }

// YValue converts a y pixel centre to its value using the standard scale.
func YValue(py float64) float64 { return (250.5 - py) * 150 / 180 }

// Render draws the chart.
func (c *Chart) Render() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	black := color.Black
	grid := color.NRGBA{200, 200, 200, 255}

	if c.Gridlines {
		for _, t := range c.XTicks {
			fill(img, t.Pixel, c.Top+2, t.Pixel, c.Bottom-1, grid)
		}
		for _, t := range c.YTicks {
			fill(img, c.Left+2, t.Pixel, c.Right-1, t.Pixel, grid)
		}
	}

	fill(img, c.Left, c.Top, c.Left+1, c.Bottom+1, black)
	fill(img, c.Left, c.Bottom, c.Right+1, c.Bottom+1, black)
	if c.Closed {
		fill(img, c.Right, c.Top, c.Right+1, c.Bottom+1, black)
		fill(img, c.Left, c.Top, c.Right+1, c.Top+1, black)
	}

	for _, t := range c.XTicks {
		fill(img, t.Pixel, c.Bottom+2, t.Pixel+1, c.Bottom+1+TickLength, black)
		if c.Labels {
			w := len(t.Label) * 7
			label(img, t.Pixel-w/2+1, c.Bottom+TickLength+16, t.Label)
		}
	}
	for _, t := range c.YTicks {
		fill(img, c.Left-TickLength, t.Pixel, c.Left-1, t.Pixel+1, black)
		if c.Labels {
			w := len(t.Label) * 7
			label(img, c.Left-TickLength-4-w, t.Pixel+5, t.Label)
		}
	}
	for _, t := range c.Y2Ticks {
		fill(img, c.Right+2, t.Pixel, c.Right+1+TickLength, t.Pixel+1, black)
		if c.Labels {
			label(img, c.Right+TickLength+6, t.Pixel+5, t.Label)
		}
	}

	for _, l := range c.Lines {
		stampLine(img, l)
	}
	return img
}

// PNG renders the chart and encodes it.
func (c *Chart) PNG() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.Render()); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Reader returns a label reader that answers with the label of the tick
// inside the requested region (nearest its centre), or "" when none is.
func (c *Chart) Reader() ocr.Reader {
	return ocr.ReaderFunc(func(ctx context.Context, _ image.Image, region image.Rectangle) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		switch {
		case region.Min.Y > c.Bottom+1:
			return nearest(c.XTicks, region.Min.X, region.Max.X), nil
		case region.Max.X <= c.Left:
			return nearest(c.YTicks, region.Min.Y, region.Max.Y), nil
		case region.Min.X > c.Right+1:
			return nearest(c.Y2Ticks, region.Min.Y, region.Max.Y), nil
		}
		return "", nil
	})
}

func nearest(ticks []Tick, lo, hi int) string {
	mid := float64(lo+hi) / 2
	best, dist := "", math.Inf(1)
	for _, t := range ticks {
		c := float64(t.Pixel) + 0.5
		if c < float64(lo) || c >= float64(hi) {
			continue
		}
		if d := math.Abs(c - mid); d < dist {
			best, dist = t.Label, d
		}
	}
	return best
}

func fill(img *image.NRGBA, x0, y0, x1, y1 int, c color.Color) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if (image.Point{X: x, Y: y}).In(img.Bounds()) {
				img.Set(x, y, c)
			}
		}
	}
}

func label(img *image.NRGBA, x, baseline int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

// stampLine walks the segment pixel by pixel and stamps a square of the
// line's thickness centred on each step.
func stampLine(img *image.NRGBA, l Line) {
	th := l.Thickness
	if th < 1 {
		th = 1
	}
	col := l.Color
	if col == nil {
		col = color.Black
	}
	dx := l.To.X - l.From.X
	dy := l.To.Y - l.From.Y
	steps := int(math.Max(math.Abs(float64(dx)), math.Abs(float64(dy))))
	if steps == 0 {
		steps = 1
	}
	lo := -(th - 1) / 2
	hi := th / 2
	for i := 0; i <= steps; i++ {
		x := l.From.X + int(math.Round(float64(dx*i)/float64(steps)))
		y := l.From.Y + int(math.Round(float64(dy*i)/float64(steps)))
		fill(img, x+lo, y+lo, x+hi, y+hi, col)
	}
}
