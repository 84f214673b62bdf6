package extract

import (
	"math"
	"sort"

	"github.com/ironsheep/pump-curve-digitizer/internal/detection"
)

// PointKind says how a trace point was obtained.
type PointKind string

const (
	// Observed points come from a column run owned by a single trace.
	Observed PointKind = "observed"

	// Ambiguous points fall in a run shared by several traces; the y value
	// is the trace's own prediction clamped to the run.
	Ambiguous PointKind = "ambiguous"

	// Bridged points fill gaps by linear interpolation.
	Bridged PointKind = "bridged"
)

// Point is one trace sample in image pixel coordinates.
type Point struct {
	X    int       `json:"x"`
	Y    float64   `json:"y"`
	Kind PointKind `json:"kind"`
}

// CurveTrace is a pixel-space polyline with one point per column, strictly
// increasing in X.
type CurveTrace struct {
	Index  int     `json:"index"`
	Points []Point `json:"points"`

	// Confidence is the fraction of spanned columns tracked unambiguously.
	Confidence float64 `json:"confidence"`

	// Hue is the HCL hue of the layer the trace was found in; HasHue is
	// false for achromatic traces.
	Hue    float64 `json:"hue,omitempty"`
	HasHue bool    `json:"has_hue"`

	// Color is the mean source color of the observed points.
	Color string `json:"color,omitempty"`
}

// StartX returns the first column of the trace.
func (t *CurveTrace) StartX() int { return t.Points[0].X }

// EndX returns the last column of the trace.
func (t *CurveTrace) EndX() int { return t.Points[len(t.Points)-1].X }

// Span returns the number of columns covered.
func (t *CurveTrace) Span() int { return t.EndX() - t.StartX() + 1 }

// YAt returns the trace's y at column x.
func (t *CurveTrace) YAt(x int) (float64, bool) {
	if len(t.Points) == 0 || x < t.StartX() || x > t.EndX() {
		return 0, false
	}
	return t.Points[x-t.StartX()].Y, true
}

// Count returns the number of points of kind k.
func (t *CurveTrace) Count(k PointKind) int {
	n := 0
	for _, p := range t.Points {
		if p.Kind == k {
			n++
		}
	}
	return n
}

// slopeWindow is the number of trailing points used to estimate slope.
const slopeWindow = 5

// endSlope returns the slope over the last slopeWindow points.
func endSlope(pts []Point) float64 {
	n := len(pts)
	k := n - slopeWindow
	if k < 0 {
		k = 0
	}
	if pts[n-1].X == pts[k].X {
		return 0
	}
	return (pts[n-1].Y - pts[k].Y) / float64(pts[n-1].X-pts[k].X)
}

// startSlope returns the slope over the first slopeWindow points.
func startSlope(pts []Point) float64 {
	k := slopeWindow - 1
	if k >= len(pts) {
		k = len(pts) - 1
	}
	if pts[k].X == pts[0].X {
		return 0
	}
	return (pts[k].Y - pts[0].Y) / float64(pts[k].X-pts[0].X)
}

// stitch joins fragments that continue each other across a gap of at most
// maxGap columns. A join needs both the forward prediction of the earlier
// fragment and the backward prediction of the later one to land within
// maxErr of the other's end point; the best joins are made first.
func stitch(frags [][]Point, maxGap int, maxErr float64) [][]Point {
	if len(frags) < 2 {
		return frags
	}
	sort.SliceStable(frags, func(i, j int) bool { return frags[i][0].X < frags[j][0].X })

	type link struct {
		a, b int
		cost float64
	}
	var links []link
	for i, a := range frags {
		end := a[len(a)-1]
		sa := endSlope(a)
		for j, b := range frags {
			if i == j {
				continue
			}
			start := b[0]
			gap := start.X - end.X - 1
			if gap < 0 || gap > maxGap {
				continue
			}
			dx := float64(start.X - end.X)
			fwd := math.Abs(end.Y + sa*dx - start.Y)
			bwd := math.Abs(start.Y - startSlope(b)*dx - end.Y)
			cost := (fwd + bwd) / 2
			if fwd <= maxErr && bwd <= maxErr {
				links = append(links, link{a: i, b: j, cost: cost})
			}
		}
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].cost < links[j].cost })

	next := make([]int, len(frags))
	prev := make([]int, len(frags))
	for i := range frags {
		next[i], prev[i] = -1, -1
	}
	for _, l := range links {
		if next[l.a] >= 0 || prev[l.b] >= 0 || reaches(next, l.b, l.a) {
			continue
		}
		next[l.a] = l.b
		prev[l.b] = l.a
	}

	var out [][]Point
	for i := range frags {
		if prev[i] >= 0 {
			continue
		}
		var chain []Point
		for k := i; k >= 0; k = next[k] {
			chain = append(chain, frags[k]...)
		}
		out = append(out, chain)
	}
	return out
}

// reaches reports whether following next from a arrives at b.
func reaches(next []int, a, b int) bool {
	for k := a; k >= 0; k = next[k] {
		if k == b {
			return true
		}
	}
	return false
}

// bridge fills every missing column between consecutive points by linear
// interpolation.
func bridge(pts []Point) []Point {
	if len(pts) < 2 {
		return pts
	}
	out := make([]Point, 0, pts[len(pts)-1].X-pts[0].X+1)
	out = append(out, pts[0])
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		for x := a.X + 1; x < b.X; x++ {
			f := float64(x-a.X) / float64(b.X-a.X)
			out = append(out, Point{X: x, Y: a.Y + f*(b.Y-a.Y), Kind: Bridged})
		}
		out = append(out, b)
	}
	return out
}

// orderTraces sorts traces top to bottom by their y at column mid, using
// the nearest end for traces that do not cover it. Ties go to the trace
// starting further left.
func orderTraces(traces []CurveTrace, mid int) {
	key := func(t *CurveTrace) float64 {
		switch {
		case mid < t.StartX():
			return t.Points[0].Y
		case mid > t.EndX():
			return t.Points[len(t.Points)-1].Y
		}
		y, _ := t.YAt(mid)
		return y
	}
	sort.SliceStable(traces, func(i, j int) bool {
		ki, kj := key(&traces[i]), key(&traces[j])
		if ki != kj {
			return ki < kj
		}
		return traces[i].StartX() < traces[j].StartX()
	})
	for i := range traces {
		traces[i].Index = i
	}
}

// strongest keeps the n traces with the largest span times confidence,
// preserving their relative order, and returns how many were dropped.
func strongest(traces []CurveTrace, n int) ([]CurveTrace, int) {
	if n <= 0 || len(traces) <= n {
		return traces, 0
	}
	idx := make([]int, len(traces))
	for i := range idx {
		idx[i] = i
	}
	score := func(t *CurveTrace) float64 { return float64(t.Span()) * t.Confidence }
	sort.SliceStable(idx, func(a, b int) bool {
		return score(&traces[idx[a]]) > score(&traces[idx[b]])
	})
	keep := make([]bool, len(traces))
	for _, i := range idx[:n] {
		keep[i] = true
	}
	out := make([]CurveTrace, 0, n)
	for i, t := range traces {
		if keep[i] {
			out = append(out, t)
		}
	}
	return out, len(traces) - n
}

// capColumns is how many columns at each end of a trace are shaped by the
// pen's cap rather than by the curve.
const capColumns = 2

// settleEnds re-estimates the capColumns observed points at each end of pts
// by extending the slope of the points just inside them. A settled y stays
// within one run length of the centre of its column run in m.
func settleEnds(m *detection.Mask, pts []Point) {
	n := len(pts)
	if n < 2*capColumns+slopeWindow {
		return
	}
	in := pts[capColumns:]
	s := startSlope(in)
	for i := 0; i < capColumns; i++ {
		settle(m, &pts[i], in[0].Y-s*float64(in[0].X-pts[i].X))
	}
	in = pts[:n-capColumns]
	s = endSlope(in)
	last := in[len(in)-1]
	for i := n - capColumns; i < n; i++ {
		settle(m, &pts[i], last.Y+s*float64(pts[i].X-last.X))
	}
}

func settle(m *detection.Mask, p *Point, y float64) {
	if p.Kind != Observed {
		return
	}
	at := int(math.Round(p.Y))
	for _, r := range detection.ColumnRuns(m, p.X, 0, m.Height-1) {
		if at < r.Start || at > r.End {
			continue
		}
		c, l := r.Center(), float64(r.Len())
		p.Y = math.Max(c-l, math.Min(c+l, y))
		return
	}
}
