package detection

import (
	"errors"
	"image"
)

// tickAllowance is how far tick marks may extend an axis band beyond the
// frame corner.
const tickAllowance = 16

// ErrNoFrame is returned when no plausible x or y axis line is found.
var ErrNoFrame = errors.New("plot frame not found")

// Band is a straight ink line several pixels thick.
//
// For a horizontal band Lo..Hi are rows and Start..End columns; for a
// vertical band Lo..Hi are columns and Start..End rows. All bounds inclusive.
type Band struct {
	Lo    int `json:"lo"`
	Hi    int `json:"hi"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Center returns the band's perpendicular midpoint.
func (b Band) Center() float64 { return float64(b.Lo+b.Hi) / 2 }

// Length returns the band's extent along the line.
func (b Band) Length() int { return b.End - b.Start + 1 }

// Frame is the detected plot frame.
type Frame struct {
	// XAxis is the horizontal line the x ticks hang from.
	XAxis Band `json:"x_axis"`

	// YAxis is the left vertical line carrying the primary y scale.
	YAxis Band `json:"y_axis"`

	// Right is the right frame line, nil when the frame is open.
	Right *Band `json:"right,omitempty"`

	// Top is the top frame line, nil when the frame is open.
	Top *Band `json:"top,omitempty"`

	// Horizontal and Vertical list every long band found, including
	// gridlines, ordered by position.
	Horizontal []Band `json:"horizontal"`
	Vertical   []Band `json:"vertical"`
}

// Interior returns the plot area strictly inside the frame lines.
func (f *Frame) Interior() image.Rectangle {
	x0 := f.YAxis.Hi + 1
	y1 := f.XAxis.Lo
	x1 := f.XAxis.End + 1
	if f.Right != nil {
		x1 = f.Right.Lo
	}
	y0 := f.YAxis.Start
	if f.Top != nil {
		y0 = f.Top.Hi + 1
	}
	return image.Rect(x0, y0, x1, y1)
}

// FrameOptions tunes DetectFrame.
type FrameOptions struct {
	// MinFraction is the minimum run length, relative to the image
	// dimension along the line, for a row or column to count as a line.
	MinFraction float64

	// CornerTolerance is how far, in pixels, a right or top line may be
	// from the corner it should close.
	CornerTolerance int
}

// DefaultFrameOptions returns the options used by the pipeline.
func DefaultFrameOptions() FrameOptions {
	return FrameOptions{MinFraction: 0.4, CornerTolerance: 6}
}

// DetectFrame locates the plot frame in an ink mask.
func DetectFrame(m *Mask, opts FrameOptions) (*Frame, error) {
	if opts.MinFraction <= 0 {
		opts = DefaultFrameOptions()
	}

	horiz := HorizontalBands(m, int(opts.MinFraction*float64(m.Width)))
	vert := VerticalBands(m, int(opts.MinFraction*float64(m.Height)))

	horiz = dropBorderBands(horiz, m.Height)
	vert = dropBorderBands(vert, m.Width)
	if len(horiz) == 0 || len(vert) == 0 {
		return nil, ErrNoFrame
	}

	f := &Frame{Horizontal: horiz, Vertical: vert}
	f.XAxis = horiz[len(horiz)-1]
	f.YAxis = vert[0]

	// The y axis must reach down to the x axis and stand within its extent.
	tol := opts.CornerTolerance
	if f.YAxis.End < f.XAxis.Lo-tol ||
		f.YAxis.Center() < float64(f.XAxis.Start-tol) || f.YAxis.Center() > float64(f.XAxis.End) {
		return nil, ErrNoFrame
	}

	for i := len(vert) - 1; i > 0; i-- {
		b := vert[i]
		// Outward ticks on the right line extend the x axis band past it.
		c := int(b.Center())
		if c <= f.XAxis.End+tol && c >= f.XAxis.End-tickAllowance-tol && b.End >= f.XAxis.Lo-tol {
			bb := b
			f.Right = &bb
			break
		}
	}
	for i := 0; i < len(horiz)-1; i++ {
		b := horiz[i]
		if absInt(int(b.Center())-f.YAxis.Start) <= tol && b.Start <= f.YAxis.Hi+tol {
			bb := b
			f.Top = &bb
			break
		}
	}

	return f, nil
}

// HorizontalBands groups adjacent rows whose longest ink run is at least
// minLen into bands, ordered top to bottom.
func HorizontalBands(m *Mask, minLen int) []Band {
	var bands []Band
	var cur *Band
	for y := 0; y < m.Height; y++ {
		r, ok := longest(RowRuns(m, y, 0, m.Width-1))
		if ok && r.Len() >= minLen && minLen > 0 {
			if cur != nil && cur.Hi == y-1 && overlaps(cur.Start, cur.End, r.Start, r.End) {
				cur.Hi = y
				cur.Start = minInt(cur.Start, r.Start)
				cur.End = maxInt(cur.End, r.End)
				continue
			}
			if cur != nil {
				bands = append(bands, *cur)
			}
			cur = &Band{Lo: y, Hi: y, Start: r.Start, End: r.End}
			continue
		}
		if cur != nil {
			bands = append(bands, *cur)
			cur = nil
		}
	}
	if cur != nil {
		bands = append(bands, *cur)
	}
	return bands
}

// VerticalBands groups adjacent columns whose longest ink run is at least
// minLen into bands, ordered left to right.
func VerticalBands(m *Mask, minLen int) []Band {
	var bands []Band
	var cur *Band
	for x := 0; x < m.Width; x++ {
		r, ok := longest(ColumnRuns(m, x, 0, m.Height-1))
		if ok && r.Len() >= minLen && minLen > 0 {
			if cur != nil && cur.Hi == x-1 && overlaps(cur.Start, cur.End, r.Start, r.End) {
				cur.Hi = x
				cur.Start = minInt(cur.Start, r.Start)
				cur.End = maxInt(cur.End, r.End)
				continue
			}
			if cur != nil {
				bands = append(bands, *cur)
			}
			cur = &Band{Lo: x, Hi: x, Start: r.Start, End: r.End}
			continue
		}
		if cur != nil {
			bands = append(bands, *cur)
			cur = nil
		}
	}
	if cur != nil {
		bands = append(bands, *cur)
	}
	return bands
}

// dropBorderBands removes bands lying on the first or last row/column,
// which are page borders rather than plot lines.
func dropBorderBands(bands []Band, size int) []Band {
	out := bands[:0:0]
	for _, b := range bands {
		if b.Lo == 0 || b.Hi == size-1 {
			continue
		}
		out = append(out, b)
	}
	return out
}

func overlaps(a0, a1, b0, b1 int) bool {
	return a0 <= b1 && b0 <= a1
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
