package calibrate

import (
	"image"
	"math"
)

// labelRegion returns the window next to a tick where its label is
// expected. bounds clips the result.
func labelRegion(id AxisID, lineLo, lineHi int, t Tick, spacing float64, opts Options, bounds image.Rectangle) image.Rectangle {
	gap := 1
	if t.Outward {
		gap += t.Length + 1
	}

	var r image.Rectangle
	switch id {
	case AxisX:
		half := math.Min(spacing/2, float64(opts.MaxLabelHalfWidth))
		y0 := lineHi + gap
		r = image.Rect(int(math.Floor(t.Pos-half)), y0, int(math.Ceil(t.Pos+half))+1, y0+opts.LabelHeight)
	case AxisY:
		hh := labelHalfHeight(spacing)
		x1 := lineLo - gap + 1
		r = image.Rect(x1-opts.LabelWidth, int(math.Floor(t.Pos-hh)), x1, int(math.Ceil(t.Pos+hh))+1)
	case AxisY2:
		hh := labelHalfHeight(spacing)
		x0 := lineHi + gap
		r = image.Rect(x0, int(math.Floor(t.Pos-hh)), x0+opts.LabelWidth, int(math.Ceil(t.Pos+hh))+1)
	}
	return r.Intersect(bounds)
}

func labelHalfHeight(spacing float64) float64 {
	return math.Max(8, math.Min(spacing/2, 16))
}
