package calibrate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Fit validates anchors and fits the least-squares pixel-to-value transform.
//
// The anchors are sorted by pixel. At least two are required, pixels must
// be distinct and values strictly monotonic (all increasing or all
// decreasing). Violations return an *AxisError wrapping ErrTooFewLabels,
// ErrDegenerateAnchors or ErrNotMonotonic. The returned residual is the RMS
// fit error in value units.
func Fit(axis AxisID, anchors []TickAnchor) ([]TickAnchor, Transform, float64, error) {
	if len(anchors) < 2 {
		return nil, Transform{}, 0, &AxisError{Axis: axis, Err: ErrTooFewLabels}
	}

	sorted := make([]TickAnchor, len(anchors))
	copy(sorted, anchors)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Pixel < sorted[j].Pixel })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Pixel == sorted[i-1].Pixel {
			return nil, Transform{}, 0, &AxisError{Axis: axis, Err: ErrDegenerateAnchors}
		}
	}

	increasing := sorted[1].Value > sorted[0].Value
	for i := 1; i < len(sorted); i++ {
		d := sorted[i].Value - sorted[i-1].Value
		if d == 0 || (d > 0) != increasing {
			return nil, Transform{}, 0, &AxisError{Axis: axis, Err: ErrNotMonotonic}
		}
	}

	pixels := make([]float64, len(sorted))
	values := make([]float64, len(sorted))
	for i, a := range sorted {
		pixels[i] = a.Pixel
		values[i] = a.Value
	}

	offset, scale := stat.LinearRegression(pixels, values, nil, false)
	t := Transform{Scale: scale, Offset: offset}

	var ss float64
	for i := range pixels {
		d := t.Apply(pixels[i]) - values[i]
		ss += d * d
	}
	return sorted, t, math.Sqrt(ss / float64(len(pixels))), nil
}

// spacing returns the mean gap between consecutive positions and its
// coefficient of variation. Fewer than two gaps have zero variation.
func spacing(positions []float64) (mean, cv float64) {
	if len(positions) < 2 {
		return 0, 0
	}
	gaps := make([]float64, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		gaps[i-1] = positions[i] - positions[i-1]
	}
	if len(gaps) == 1 {
		return gaps[0], 0
	}
	mean, std := stat.MeanStdDev(gaps, nil)
	if mean == 0 {
		return 0, 0
	}
	return mean, std / mean
}
