package calibrate

import (
	"errors"
	"fmt"
)

// AxisID names a chart axis.
type AxisID string

const (
	AxisX  AxisID = "x"
	AxisY  AxisID = "y"
	AxisY2 AxisID = "y2"
)

// Orientation of an axis line.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

var (
	// ErrAxisNotFound means the axis line itself was not detected.
	ErrAxisNotFound = errors.New("axis line not found")

	// ErrNoTicks means no tick marks were found along the axis line.
	ErrNoTicks = errors.New("no tick marks found")

	// ErrTooFewLabels means fewer than two tick labels could be read.
	ErrTooFewLabels = errors.New("fewer than 2 tick labels recognized")

	// ErrNotMonotonic means the recognized labels do not change
	// monotonically along the axis.
	ErrNotMonotonic = errors.New("tick labels are not strictly monotonic")

	// ErrDegenerateAnchors means the anchors do not span two distinct
	// pixel positions.
	ErrDegenerateAnchors = errors.New("anchors span fewer than 2 distinct pixels")
)

// TickAnchor pairs a pixel position along an axis with its numeric value.
type TickAnchor struct {
	Pixel float64 `json:"pixel"`
	Value float64 `json:"value"`

	// Text is the raw recognized label; empty for manual anchors.
	Text string `json:"text,omitempty"`
}

// Transform is the affine pixel-to-value mapping value = Scale*pixel + Offset.
type Transform struct {
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

// Apply maps a pixel coordinate to a value.
func (t Transform) Apply(pixel float64) float64 {
	return t.Scale*pixel + t.Offset
}

// Inverse maps a value back to a pixel coordinate.
func (t Transform) Inverse(value float64) float64 {
	return (value - t.Offset) / t.Scale
}

// AxisSpec is a calibrated axis.
type AxisSpec struct {
	ID          AxisID      `json:"id"`
	Units       string      `json:"units,omitempty"`
	Orientation Orientation `json:"orientation"`

	// PixelStart and PixelEnd bound the axis line along its direction.
	PixelStart int `json:"pixel_start"`
	PixelEnd   int `json:"pixel_end"`

	// Anchors are ordered by pixel.
	Anchors   []TickAnchor `json:"anchors"`
	Transform Transform    `json:"transform"`

	// Residual is the RMS difference between anchor values and the fit.
	Residual float64 `json:"residual"`

	// TickSpacing is the mean distance between detected ticks and
	// TickVariation its coefficient of variation.
	TickSpacing    float64 `json:"tick_spacing"`
	TickVariation  float64 `json:"tick_variation"`
	IrregularTicks bool    `json:"irregular_ticks"`

	// Manual is set when the anchors were supplied by the caller.
	Manual bool `json:"manual"`
}

// AxisFailure records an axis that could not be calibrated.
type AxisFailure struct {
	Axis   AxisID `json:"axis"`
	Reason string `json:"reason"`

	// Anchors holds whatever labels were recognized, for diagnosis.
	Anchors []TickAnchor `json:"anchors,omitempty"`

	Err error `json:"-"`
}

// AxisError is returned by Fit and wraps the sentinel describing why an
// axis was rejected.
type AxisError struct {
	Axis AxisID
	Err  error
}

func (e *AxisError) Error() string {
	return fmt.Sprintf("axis %s: %v", e.Axis, e.Err)
}

func (e *AxisError) Unwrap() error {
	return e.Err
}
