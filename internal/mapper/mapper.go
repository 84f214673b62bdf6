// Package mapper turns pixel-space curve traces into calibrated data
// series sampled on a shared x grid.
package mapper

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/ironsheep/pump-curve-digitizer/internal/calibrate"
	"github.com/ironsheep/pump-curve-digitizer/internal/extract"
)

// ErrDegenerateCurve means a trace has fewer than two usable points.
var ErrDegenerateCurve = errors.New("curve has fewer than 2 valid points")

// Flag records where a sample value came from.
type Flag string

const (
	// Observed samples lie next to a column tracked unambiguously.
	Observed Flag = "observed"
	// Interpolated samples lie inside the observed range but next to an
	// ambiguous or bridged column.
	Interpolated Flag = "interpolated"
	// Extrapolated samples lie outside the observed x range.
	Extrapolated Flag = "extrapolated"
	// Unavailable samples have no y value.
	Unavailable Flag = "unavailable"
)

// Status summarizes a digitized curve.
type Status string

const (
	StatusOK              Status = "ok"
	StatusAxisUnavailable Status = "axis_unavailable"
	StatusMissing         Status = "missing"
	StatusDegenerate      Status = "degenerate"
)

// Sample is one grid point. Y is nil when Flag is Unavailable.
type Sample struct {
	X    float64  `json:"x"`
	Y    *float64 `json:"y"`
	Flag Flag     `json:"flag"`
}

// DigitizedCurve is a calibrated curve on the shared grid.
type DigitizedCurve struct {
	ID     string           `json:"id"`
	XAxis  calibrate.AxisID `json:"x_axis"`
	YAxis  calibrate.AxisID `json:"y_axis"`
	Status Status           `json:"status"`

	Samples []Sample `json:"samples"`

	// Confidence is copied from the trace.
	Confidence float64 `json:"confidence"`

	Extrema     int  `json:"extrema"`
	Oscillating bool `json:"oscillating"`

	// ObservedMin and ObservedMax bound the x values covered by the trace.
	ObservedMin float64 `json:"observed_min"`
	ObservedMax float64 `json:"observed_max"`

	Polynomial *Polynomial `json:"polynomial,omitempty"`

	Color string `json:"color,omitempty"`

	// TraceIndex is the extractor's index of the source trace, or -1.
	TraceIndex int `json:"trace_index"`
}

// Count returns the number of samples carrying flag f.
func (c *DigitizedCurve) Count(f Flag) int {
	n := 0
	for _, s := range c.Samples {
		if s.Flag == f {
			n++
		}
	}
	return n
}

// Options configures MapCurve.
type Options struct {
	// MaxExtrema is the number of local peaks and troughs above which a
	// curve is flagged as oscillating.
	MaxExtrema int

	// ProminenceFraction is the reversal, as a fraction of the y axis
	// range, a turn needs before it counts as an extremum.
	ProminenceFraction float64

	// ExtrapolationWindow is how many source points at each end define the
	// slope used outside the observed range.
	ExtrapolationWindow int

	// PolynomialDegree is the degree of the least-squares polynomial fit;
	// zero disables the fit.
	PolynomialDegree int
}

// DefaultOptions returns the options used by the pipeline.
func DefaultOptions() Options {
	return Options{
		MaxExtrema:          2,
		ProminenceFraction:  0.02,
		ExtrapolationWindow: 10,
		PolynomialDegree:    5,
	}
}

// Grid returns n evenly spaced values from min to max inclusive.
func Grid(min, max float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{min}
	}
	g := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range g {
		g[i] = min + float64(i)*step
	}
	g[n-1] = max
	return g
}

// predictor is satisfied by the gonum interpolators used here.
type predictor interface {
	Fit(xs, ys []float64) error
	Predict(x float64) float64
}

// MapCurve maps trace through the x and y axes and resamples it onto grid.
//
// A nil ax yields a curve with status axis_unavailable and no samples; a
// nil ay yields one grid sample per point with no y value. ErrDegenerateCurve
// is returned when the trace has fewer than two points.
func MapCurve(trace *extract.CurveTrace, ax, ay *calibrate.AxisSpec, grid []float64, opts Options) (*DigitizedCurve, error) {
	if trace == nil || len(trace.Points) < 2 {
		return nil, ErrDegenerateCurve
	}
	if opts.ProminenceFraction <= 0 {
		opts.ProminenceFraction = DefaultOptions().ProminenceFraction
	}
	if opts.ExtrapolationWindow < 2 {
		opts.ExtrapolationWindow = DefaultOptions().ExtrapolationWindow
	}

	out := &DigitizedCurve{
		XAxis:      calibrate.AxisX,
		YAxis:      calibrate.AxisY,
		Status:     StatusOK,
		Confidence: trace.Confidence,
		Color:      trace.Color,
		TraceIndex: trace.Index,
	}
	if ay != nil {
		out.YAxis = ay.ID
	}
	if ax == nil {
		out.Status = StatusAxisUnavailable
		return out, nil
	}

	xs, ys, kinds := source(trace, ax, ay)
	if len(xs) < 2 {
		return nil, ErrDegenerateCurve
	}
	out.ObservedMin, out.ObservedMax = xs[0], xs[len(xs)-1]

	if ay == nil {
		out.Status = StatusAxisUnavailable
		out.Samples = make([]Sample, len(grid))
		for i, g := range grid {
			out.Samples[i] = Sample{X: g, Flag: Unavailable}
		}
		return out, nil
	}

	var p predictor = &interp.FritschButland{}
	if len(xs) == 2 {
		p = &interp.PiecewiseLinear{}
	}
	if err := p.Fit(xs, ys); err != nil {
		return nil, err
	}

	w := opts.ExtrapolationWindow
	if w > len(xs)-1 {
		w = len(xs) - 1
	}
	n := len(xs)
	loSlope := (ys[w] - ys[0]) / (xs[w] - xs[0])
	hiSlope := (ys[n-1] - ys[n-1-w]) / (xs[n-1] - xs[n-1-w])

	out.Samples = make([]Sample, len(grid))
	var inside []float64
	for i, g := range grid {
		s := Sample{X: g}
		var y float64
		switch {
		case g < xs[0]:
			y = ys[0] + loSlope*(g-xs[0])
			s.Flag = Extrapolated
		case g > xs[n-1]:
			y = ys[n-1] + hiSlope*(g-xs[n-1])
			s.Flag = Extrapolated
		default:
			y = p.Predict(g)
			s.Flag = Interpolated
			if kinds[nearest(xs, g)] == extract.Observed {
				s.Flag = Observed
			}
			inside = append(inside, y)
		}
		s.Y = &y
		out.Samples[i] = s
	}

	out.Extrema = countExtrema(inside, opts.ProminenceFraction*yRange(ay, ys))
	out.Oscillating = out.Extrema > opts.MaxExtrema

	if opts.PolynomialDegree > 0 {
		out.Polynomial = FitPolynomial(xs, ys, opts.PolynomialDegree)
	}
	return out, nil
}

// source maps the trace points to values, ordered by increasing x and with
// duplicate x values dropped.
func source(trace *extract.CurveTrace, ax, ay *calibrate.AxisSpec) (xs, ys []float64, kinds []extract.PointKind) {
	n := len(trace.Points)
	xs = make([]float64, 0, n)
	ys = make([]float64, 0, n)
	kinds = make([]extract.PointKind, 0, n)

	reverse := ax.Transform.Scale < 0
	for i := 0; i < n; i++ {
		pt := trace.Points[i]
		if reverse {
			pt = trace.Points[n-1-i]
		}
		x := ax.Transform.Apply(float64(pt.X))
		if len(xs) > 0 && x <= xs[len(xs)-1] {
			continue
		}
		y := math.NaN()
		if ay != nil {
			y = ay.Transform.Apply(pt.Y)
		}
		xs = append(xs, x)
		ys = append(ys, y)
		kinds = append(kinds, pt.Kind)
	}
	return xs, ys, kinds
}

// nearest returns the index of the value in sorted xs closest to v.
func nearest(xs []float64, v float64) int {
	i := sort.SearchFloat64s(xs, v)
	switch {
	case i == 0:
		return 0
	case i == len(xs):
		return len(xs) - 1
	case v-xs[i-1] <= xs[i]-v:
		return i - 1
	}
	return i
}

// yRange is the value span of the y axis line, falling back to the span of
// ys when the axis extent is unknown.
func yRange(ay *calibrate.AxisSpec, ys []float64) float64 {
	r := math.Abs(ay.Transform.Scale * float64(ay.PixelEnd-ay.PixelStart))
	if r > 0 {
		return r
	}
	lo, hi := ys[0], ys[0]
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	return hi - lo
}

// countExtrema counts direction reversals of ys larger than prominence.
func countExtrema(ys []float64, prominence float64) int {
	if len(ys) < 3 {
		return 0
	}
	var (
		n      int
		dir    int
		ext    = ys[0]
		lo, hi = ys[0], ys[0]
	)
	for _, y := range ys[1:] {
		switch {
		case dir == 0:
			lo = math.Min(lo, y)
			hi = math.Max(hi, y)
			if hi-lo > prominence {
				dir = 1
				if y == lo {
					dir = -1
				}
				ext = y
			}
		case dir > 0:
			if y > ext {
				ext = y
			} else if ext-y > prominence {
				n++
				dir, ext = -1, y
			}
		default:
			if y < ext {
				ext = y
			} else if y-ext > prominence {
				n++
				dir, ext = 1, y
			}
		}
	}
	return n
}
