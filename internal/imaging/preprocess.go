package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
)

// PreprocessOptions controls the normalization steps.
type PreprocessOptions struct {
	// BlurSigma is the Gaussian sigma used for denoising. Zero disables it.
	// Values much above 1 start to erase thin strokes.
	BlurSigma float64

	// MedianRadius enables a median despeckle pass when positive. It removes
	// scanner salt-and-pepper noise but also 1 px lines, so it is off by default.
	MedianRadius float64

	// LowPercentile and HighPercentile select the intensities that are
	// stretched to black and white respectively (fractions in 0..1).
	LowPercentile  float64
	HighPercentile float64
}

// DefaultPreprocessOptions returns the normalization used by the pipeline.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		BlurSigma:      0.6,
		LowPercentile:  0.001,
		HighPercentile: 0.99,
	}
}

// Normalized is the output of Preprocess.
type Normalized struct {
	// Gray is the normalized single-channel intensity image. Ink is dark.
	Gray *image.Gray

	// Color holds the source pixels, for hue-based curve separation.
	Color *image.NRGBA

	// Chromatic reports whether the source contains any clearly colored pixels.
	Chromatic bool

	Width  int
	Height int
}

// Preprocess converts a chart into a normalized grayscale raster.
//
// The steps are, in order: luminance conversion, optional median despeckle,
// light Gaussian blur and a linear contrast stretch between the configured
// intensity percentiles. The result is deterministic for a given input.
func Preprocess(ci *ChartImage, opts PreprocessOptions) (*Normalized, error) {
	if ci == nil || ci.pix == nil {
		return nil, fmt.Errorf("%w: nil chart image", ErrInvalidImage)
	}
	if opts.LowPercentile < 0 || opts.HighPercentile > 1 || opts.LowPercentile >= opts.HighPercentile {
		return nil, fmt.Errorf("invalid percentiles %.3f..%.3f", opts.LowPercentile, opts.HighPercentile)
	}

	gray := toGray(effect.Grayscale(ci.pix))

	if opts.MedianRadius > 0 {
		gray = toGray(effect.Median(gray, opts.MedianRadius))
	}
	if opts.BlurSigma > 0 {
		gray = toGray(imaging.Blur(gray, opts.BlurSigma))
	}

	stretchContrast(gray, opts.LowPercentile, opts.HighPercentile)

	return &Normalized{
		Gray:      gray,
		Color:     ci.pix,
		Chromatic: hasColor(ci.pix),
		Width:     ci.Width,
		Height:    ci.Height,
	}, nil
}

// stretchContrast linearly maps the [low, high] percentile intensities of
// gray onto [0, 255] in place.
func stretchContrast(gray *image.Gray, low, high float64) {
	hist := histogram.NewRGBAHistogram(gray)
	bins := hist.R.Bins

	total := 0
	for _, n := range bins {
		total += n
	}
	if total == 0 {
		return
	}

	lo := percentileLevel(bins, total, low)
	hi := percentileLevel(bins, total, high)
	if hi <= lo {
		return
	}

	var lut [256]uint8
	scale := 255.0 / float64(hi-lo)
	for v := 0; v < 256; v++ {
		s := math.Round(float64(v-lo) * scale)
		lut[v] = uint8(math.Max(0, math.Min(255, s)))
	}
	for i, v := range gray.Pix {
		gray.Pix[i] = lut[v]
	}
}

// percentileLevel returns the smallest intensity whose cumulative count
// reaches fraction p of total.
func percentileLevel(bins []int, total int, p float64) int {
	target := int(math.Ceil(p * float64(total)))
	if target < 1 {
		target = 1
	}
	cum := 0
	for v, n := range bins {
		cum += n
		if cum >= target {
			return v
		}
	}
	return len(bins) - 1
}

// toGray converts any image to *image.Gray, rebased at the origin.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.SetGray(x, y, color.GrayModel.Convert(img.At(x+b.Min.X, y+b.Min.Y)).(color.Gray))
		}
	}
	return out
}

// hasColor reports whether any pixel has channels differing by more than a
// small tolerance.
func hasColor(img *image.NRGBA) bool {
	const tol = 24
	for i := 0; i+3 < len(img.Pix); i += 4 {
		r, g, b := int(img.Pix[i]), int(img.Pix[i+1]), int(img.Pix[i+2])
		if absInt(r-g) > tol || absInt(g-b) > tol || absInt(r-b) > tol {
			return true
		}
	}
	return false
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
