package digitizer

import (
	"github.com/ironsheep/pump-curve-digitizer/internal/calibrate"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/mapper"
)

// WarningCode classifies a degraded but non-fatal outcome.
type WarningCode string

const (
	WarnAxisCalibrationFailed WarningCode = "axis_calibration_failed"
	WarnIrregularTicks        WarningCode = "irregular_ticks"
	WarnCurveMissing          WarningCode = "curve_missing"
	WarnExtraTraces           WarningCode = "extra_traces"
	WarnLowConfidence         WarningCode = "low_confidence"
	WarnExtrapolatedSamples   WarningCode = "extrapolated_samples"
	WarnOscillation           WarningCode = "oscillation"
	WarnAxisUnavailable       WarningCode = "axis_unavailable"
	WarnStageTimeout          WarningCode = "stage_timeout"
	WarnStageFailed           WarningCode = "stage_failed"
	WarnDegenerateCurve       WarningCode = "degenerate_curve"
)

// Warning is one structured warning. Curve and Axis are set when the
// warning concerns a single curve or axis.
type Warning struct {
	Code    WarningCode      `json:"code"`
	Curve   string           `json:"curve,omitempty"`
	Axis    calibrate.AxisID `json:"axis,omitempty"`
	Stage   string           `json:"stage,omitempty"`
	Message string           `json:"message"`
}

// BestEfficiencyPoint is the flow at which the efficiency curve peaks.
type BestEfficiencyPoint struct {
	// Curve is the efficiency curve the point was taken from.
	Curve string `json:"curve"`

	Flow       float64 `json:"flow"`
	Efficiency float64 `json:"efficiency"`

	// Head is the head curve's value at Flow, when available.
	Head *float64 `json:"head,omitempty"`
}

// Result is the outcome of Digitize. It is never modified after Digitize
// returns it.
type Result struct {
	Source imaging.Info `json:"source"`

	Axes         []calibrate.AxisSpec    `json:"axes"`
	AxisFailures []calibrate.AxisFailure `json:"axis_failures"`

	Grid   []float64               `json:"grid"`
	Curves []mapper.DigitizedCurve `json:"curves"`

	// Traces is the number of traces the extractor found.
	Traces int `json:"traces"`

	Warnings []Warning `json:"warnings"`

	BEP *BestEfficiencyPoint `json:"best_efficiency_point,omitempty"`
}

// Curve returns the curve with the given id.
func (r *Result) Curve(id string) (*mapper.DigitizedCurve, bool) {
	for i := range r.Curves {
		if r.Curves[i].ID == id {
			return &r.Curves[i], true
		}
	}
	return nil, false
}

// Axis returns the calibrated axis with the given id.
func (r *Result) Axis(id calibrate.AxisID) (*calibrate.AxisSpec, bool) {
	for i := range r.Axes {
		if r.Axes[i].ID == id {
			return &r.Axes[i], true
		}
	}
	return nil, false
}

// HasWarning reports whether a warning with code exists, optionally
// restricted to one curve.
func (r *Result) HasWarning(code WarningCode, curve string) bool {
	for _, w := range r.Warnings {
		if w.Code == code && (curve == "" || w.Curve == curve) {
			return true
		}
	}
	return false
}
