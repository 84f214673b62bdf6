package detection

import (
	"image"

	"github.com/anthonynsimon/bild/histogram"
)

// Threshold limits applied to the Otsu estimate. A clean chart with very
// little ink can push Otsu to an extreme; clamping keeps faint gridlines and
// anti-aliased strokes on the expected side.
const (
	MinInkThreshold = 64
	MaxInkThreshold = 160
)

// Mask is a binary ink raster. Pix is row-major, true meaning ink.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is ink. Out-of-range coordinates are not ink.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y). Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, ink bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = ink
}

// Count returns the number of ink pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]bool, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Crop returns a copy restricted to r, re-anchored at the origin, and the
// offset that maps its coordinates back.
func (m *Mask) Crop(r image.Rectangle) (*Mask, image.Point) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	out := NewMask(r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if m.Pix[y*m.Width+x] {
				out.Pix[(y-r.Min.Y)*out.Width+(x-r.Min.X)] = true
			}
		}
	}
	return out, r.Min
}

// Binarize marks every pixel darker than threshold as ink.
func Binarize(gray *image.Gray, threshold uint8) *Mask {
	b := gray.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if gray.GrayAt(x+b.Min.X, y+b.Min.Y).Y < threshold {
				m.Pix[y*m.Width+x] = true
			}
		}
	}
	return m
}

// InkThreshold returns the Otsu threshold of gray clamped to
// [MinInkThreshold, MaxInkThreshold].
func InkThreshold(gray *image.Gray) uint8 {
	t := OtsuThreshold(gray)
	if t < MinInkThreshold {
		return MinInkThreshold
	}
	if t > MaxInkThreshold {
		return MaxInkThreshold
	}
	return t
}

// OtsuThreshold picks the intensity that maximizes the between-class
// variance of the image histogram. Pixels strictly below the result belong
// to the dark class.
func OtsuThreshold(gray *image.Gray) uint8 {
	bins := histogram.NewRGBAHistogram(gray).R.Bins

	total := 0
	sumAll := 0.0
	for v, n := range bins {
		total += n
		sumAll += float64(v * n)
	}
	if total == 0 {
		return 128
	}

	var (
		wB, sumB  float64
		best      float64
		threshold int
	)
	for v := 0; v < len(bins); v++ {
		wB += float64(bins[v])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(v * bins[v])
		mB := sumB / wB
		mF := (sumAll - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = v
		}
	}
	// Class boundary sits after the last dark level.
	return uint8(minInt(threshold+1, 255))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
