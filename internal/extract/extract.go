// Package extract isolates the plotted curves inside a chart's plot area
// and follows each of them left to right into a pixel-space trace.
package extract

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/pump-curve-digitizer/internal/detection"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/logging"
)

// Options configures Extract.
type Options struct {
	Frame detection.FrameOptions

	// Threshold overrides the Otsu ink threshold when non-zero.
	Threshold uint8

	// Margin shrinks the plot interior on every side, keeping frame line
	// remnants and inward ticks out of the traced area.
	Margin int

	// GridEdgeTolerance is how far from the interior edges a straight row
	// or column run may stop and still count as a gridline. Gridlines run
	// frame to frame; flat curve stretches that stop short are kept.
	GridEdgeTolerance int

	// MinComponentSize erases connected ink components smaller than this.
	MinComponentSize int

	// TextBox, when non-zero, also erases components whose bounding box
	// fits inside it (annotation glyphs).
	TextBox image.Point

	// ChromaThreshold is the HCL chroma above which a pixel counts as
	// colored; MinHueShare the fraction of colored ink a hue peak needs.
	ChromaThreshold float64
	MinHueShare     float64

	// MaxJump is the largest vertical distance, in pixels, between a
	// track's prediction and the run it takes.
	MaxJump float64

	// MaxGap is the widest gap, in columns, a track survives.
	MaxGap int

	// ThickRunFactor times the typical stroke thickness marks a run as
	// tall enough to hold several overlapping curves.
	ThickRunFactor float64

	// MinSpanFraction drops traces shorter than this fraction of the
	// interior width.
	MinSpanFraction float64

	Logger logging.Logger
}

// DefaultOptions returns the options used by the pipeline.
func DefaultOptions() Options {
	return Options{
		Frame:             detection.DefaultFrameOptions(),
		Margin:            3,
		GridEdgeTolerance: 2,
		MinComponentSize:  10,
		ChromaThreshold:   0.15,
		MinHueShare:       0.05,
		MaxJump:           8,
		MaxGap:            25,
		ThickRunFactor:    2.5,
		MinSpanFraction:   0.15,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Frame.MinFraction <= 0 {
		o.Frame = def.Frame
	}
	if o.Margin < 0 {
		o.Margin = 0
	}
	if o.GridEdgeTolerance <= 0 {
		o.GridEdgeTolerance = def.GridEdgeTolerance
	}
	if o.ChromaThreshold <= 0 {
		o.ChromaThreshold = def.ChromaThreshold
	}
	if o.MinHueShare <= 0 {
		o.MinHueShare = def.MinHueShare
	}
	if o.MaxJump <= 0 {
		o.MaxJump = def.MaxJump
	}
	if o.MaxGap <= 0 {
		o.MaxGap = def.MaxGap
	}
	if o.ThickRunFactor <= 1 {
		o.ThickRunFactor = def.ThickRunFactor
	}
	if o.MinSpanFraction <= 0 {
		o.MinSpanFraction = def.MinSpanFraction
	}
	if o.Logger == nil {
		o.Logger = logging.Nop{}
	}
	return o
}

// Result is the outcome of extraction.
type Result struct {
	// Interior is the traced area in image coordinates.
	Interior image.Rectangle `json:"interior"`

	// FrameFound is false when no frame was detected and the whole image
	// was traced.
	FrameFound bool `json:"frame_found"`

	Layers int          `json:"layers"`
	Traces []CurveTrace `json:"traces"`

	// Expected echoes the requested count; Discarded is how many weaker
	// traces were dropped beyond it and Missing how many it lacks.
	Expected  int `json:"expected"`
	Discarded int `json:"discarded"`
	Missing   int `json:"missing"`
}

// Extract finds up to expected curve traces in the plot interior. An
// expected count of zero or less keeps every trace found.
//
// Traces are returned top to bottom at the interior's middle column, with
// Index set to that order. The only errors are a nil image and ctx
// expiring.
func Extract(ctx context.Context, norm *imaging.Normalized, expected int, opts Options) (*Result, error) {
	if norm == nil || norm.Gray == nil {
		return nil, fmt.Errorf("%w: nil normalized image", imaging.ErrInvalidImage)
	}
	opts = opts.withDefaults()
	log := opts.Logger

	th := opts.Threshold
	if th == 0 {
		th = detection.InkThreshold(norm.Gray)
	}
	mask := detection.Binarize(norm.Gray, th)

	res := &Result{Expected: expected}
	interior := image.Rect(0, 0, mask.Width, mask.Height)
	if frame, err := detection.DetectFrame(mask, opts.Frame); err == nil {
		interior = frame.Interior()
		res.FrameFound = true
	} else {
		log.Warn("frame not found, tracing the whole image", logging.Err(err))
	}
	interior = interior.Inset(opts.Margin)
	res.Interior = interior
	if interior.Empty() {
		res.Missing = max0(expected)
		return res, nil
	}

	sub, off := mask.Crop(interior)
	removeGridlines(sub, opts.GridEdgeTolerance)
	detection.RemoveSmall(sub, opts.MinComponentSize, opts.TextBox)

	var colors *image.NRGBA
	if norm.Chromatic {
		colors = norm.Color
	}
	layers := splitLayers(sub, colors, off, opts)
	res.Layers = len(layers)

	minSpan := int(opts.MinSpanFraction * float64(interior.Dx()))
	var traces []CurveTrace
	for _, l := range layers {
		frags, err := trackColumns(ctx, l.mask, opts)
		if err != nil {
			return nil, err
		}
		for _, pts := range stitch(frags, opts.MaxGap, 2*opts.MaxJump) {
			pts = bridge(pts)
			settleEnds(l.mask, pts)
			t := CurveTrace{Points: pts, Hue: l.hue, HasHue: l.hasHue}
			if t.Span() < minSpan {
				continue
			}
			t.Confidence = float64(t.Count(Observed)) / float64(t.Span())
			for i := range t.Points {
				t.Points[i].X += off.X
				t.Points[i].Y += float64(off.Y)
			}
			t.Color = meanColor(norm.Color, t.Points)
			traces = append(traces, t)
		}
	}

	orderTraces(traces, (interior.Min.X+interior.Max.X)/2)
	if expected > 0 {
		traces, res.Discarded = strongest(traces, expected)
		if len(traces) < expected {
			res.Missing = expected - len(traces)
		}
		for i := range traces {
			traces[i].Index = i
		}
	}
	res.Traces = traces

	log.Debug("traces extracted",
		logging.Int("traces", len(traces)),
		logging.Int("layers", len(layers)),
		logging.Int("discarded", res.Discarded),
		logging.Int("missing", res.Missing))
	return res, nil
}

// removeGridlines erases straight row and column runs that span the mask
// from edge to edge, give or take tol pixels at either end.
func removeGridlines(m *detection.Mask, tol int) {
	type gridRun struct {
		at int
		r  detection.Run
	}
	spans := func(r detection.Run, size int) bool {
		return r.Start <= tol && r.End >= size-1-tol
	}

	var rows, cols []gridRun
	for y := 0; y < m.Height; y++ {
		for _, r := range detection.RowRuns(m, y, 0, m.Width-1) {
			if spans(r, m.Width) {
				rows = append(rows, gridRun{y, r})
			}
		}
	}
	for x := 0; x < m.Width; x++ {
		for _, r := range detection.ColumnRuns(m, x, 0, m.Height-1) {
			if spans(r, m.Height) {
				cols = append(cols, gridRun{x, r})
			}
		}
	}
	for _, g := range rows {
		for x := g.r.Start; x <= g.r.End; x++ {
			m.Set(x, g.at, false)
		}
	}
	for _, g := range cols {
		for y := g.r.Start; y <= g.r.End; y++ {
			m.Set(g.at, y, false)
		}
	}
}

// meanColor averages the source color under the observed points.
func meanColor(img *image.NRGBA, pts []Point) string {
	if img == nil {
		return ""
	}
	var r, g, b, n int
	for _, p := range pts {
		if p.Kind != Observed {
			continue
		}
		c := img.NRGBAAt(p.X, int(p.Y+0.5))
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
		n++
	}
	if n == 0 {
		return ""
	}
	return imaging.HexColor(color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 255})
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
