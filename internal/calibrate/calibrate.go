// Package calibrate locates the plot frame of a chart, reads its tick
// labels and fits a pixel-to-value transform per axis.
//
// One axis failing never aborts calibration: Calibrate returns the axes it
// could fit in Result.Axes and the rest in Result.Failures.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/pump-curve-digitizer/internal/detection"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/logging"
	"github.com/ironsheep/pump-curve-digitizer/internal/ocr"
)

// Options configures Calibrate.
type Options struct {
	Frame detection.FrameOptions

	// Threshold overrides the Otsu ink threshold when non-zero.
	Threshold uint8

	// MinTickLength and MaxTickLength bound the length of a tick mark.
	MinTickLength int
	MaxTickLength int

	// LabelHeight is the height of x label windows; LabelWidth the width
	// of y label windows. MaxLabelHalfWidth caps x windows.
	LabelHeight       int
	LabelWidth        int
	MaxLabelHalfWidth int

	// IrregularTickVariation is the coefficient of variation of tick
	// spacing above which an axis is flagged as irregular.
	IrregularTickVariation float64

	// Units are attached to the resulting AxisSpecs.
	Units map[AxisID]string

	// Anchors supplies manual tick anchors per axis, bypassing tick
	// detection and OCR for that axis.
	Anchors map[AxisID][]TickAnchor

	// Require lists axes that must be reported even when no line or ticks
	// are found for them. x and y are always required.
	Require []AxisID

	Logger logging.Logger
}

// DefaultOptions returns the options used by the pipeline.
func DefaultOptions() Options {
	return Options{
		Frame:                  detection.DefaultFrameOptions(),
		MinTickLength:          3,
		MaxTickLength:          15,
		LabelHeight:            28,
		LabelWidth:             70,
		MaxLabelHalfWidth:      40,
		IrregularTickVariation: 0.1,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Frame.MinFraction <= 0 {
		o.Frame = def.Frame
	}
	if o.MinTickLength <= 0 {
		o.MinTickLength = def.MinTickLength
	}
	if o.MaxTickLength < o.MinTickLength {
		o.MaxTickLength = def.MaxTickLength
	}
	if o.LabelHeight <= 0 {
		o.LabelHeight = def.LabelHeight
	}
	if o.LabelWidth <= 0 {
		o.LabelWidth = def.LabelWidth
	}
	if o.MaxLabelHalfWidth <= 0 {
		o.MaxLabelHalfWidth = def.MaxLabelHalfWidth
	}
	if o.IrregularTickVariation <= 0 {
		o.IrregularTickVariation = def.IrregularTickVariation
	}
	if o.Logger == nil {
		o.Logger = logging.Nop{}
	}
	return o
}

// Result is the outcome of calibration.
type Result struct {
	Frame     *detection.Frame `json:"frame,omitempty"`
	Threshold uint8            `json:"threshold"`
	Axes      []AxisSpec       `json:"axes"`
	Failures  []AxisFailure    `json:"failures"`

	// Ticks holds the ticks detected per axis, for inspection.
	Ticks map[AxisID][]Tick `json:"ticks,omitempty"`
}

// Axis returns the calibrated axis with the given id.
func (r *Result) Axis(id AxisID) (*AxisSpec, bool) {
	for i := range r.Axes {
		if r.Axes[i].ID == id {
			return &r.Axes[i], true
		}
	}
	return nil, false
}

// Failure returns the failure recorded for id.
func (r *Result) Failure(id AxisID) (*AxisFailure, bool) {
	for i := range r.Failures {
		if r.Failures[i].Axis == id {
			return &r.Failures[i], true
		}
	}
	return nil, false
}

// axisPlan describes where one axis lives in the frame.
type axisPlan struct {
	id          AxisID
	band        *detection.Band
	horizontal  bool
	outwardSide int
	required    bool
}

// Calibrate detects the frame and calibrates every axis it finds.
//
// The reader is consulted once per tick; it may be nil when every axis has
// manual anchors. A cancelled or expired ctx fails the axis being read and
// all remaining ones with the context error.
func Calibrate(ctx context.Context, norm *imaging.Normalized, reader ocr.Reader, opts Options) (*Result, error) {
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

	frame, frameErr := detection.DetectFrame(mask, opts.Frame)
	if frameErr != nil {
		log.Warn("frame detection failed", logging.Err(frameErr))
	}

	res := &Result{Frame: frame, Threshold: th, Ticks: map[AxisID][]Tick{}}

	for _, p := range planAxes(frame, opts) {
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, failure(p.id, err, nil))
			continue
		}

		if manual, ok := opts.Anchors[p.id]; ok {
			spec, err := fitAxis(p, manual, nil, opts)
			if err != nil {
				res.Failures = append(res.Failures, failure(p.id, err, manual))
				continue
			}
			spec.Manual = true
			res.Axes = append(res.Axes, *spec)
			log.Debug("axis calibrated from manual anchors", logging.String("axis", string(p.id)))
			continue
		}

		if p.band == nil {
			err := ErrAxisNotFound
			if frameErr != nil {
				err = fmt.Errorf("%w: %v", ErrAxisNotFound, frameErr)
			}
			res.Failures = append(res.Failures, failure(p.id, err, nil))
			continue
		}

		// An optional right axis is only trusted with outward ticks: curves
		// ending on a closed frame look like inward ticks.
		ticks := detectTicks(mask, *p.band, p.horizontal, p.outwardSide, p.required, opts)
		res.Ticks[p.id] = ticks
		if len(ticks) == 0 {
			if p.required {
				res.Failures = append(res.Failures, failure(p.id, ErrNoTicks, nil))
			}
			continue
		}

		anchors, err := readLabels(ctx, norm.Gray, reader, p, ticks, opts, log)
		if err != nil {
			res.Failures = append(res.Failures, failure(p.id, err, anchors))
			continue
		}

		spec, err := fitAxis(p, anchors, ticks, opts)
		if err != nil {
			res.Failures = append(res.Failures, failure(p.id, err, anchors))
			continue
		}
		res.Axes = append(res.Axes, *spec)
		log.Debug("axis calibrated",
			logging.String("axis", string(p.id)),
			logging.Int("anchors", len(spec.Anchors)),
			logging.Float("residual", spec.Residual))
	}

	for _, f := range res.Failures {
		log.Warn("axis calibration failed", logging.String("axis", string(f.Axis)), logging.String("reason", f.Reason))
	}
	return res, nil
}

// planAxes lists the axes to calibrate in x, y, y2 order.
func planAxes(frame *detection.Frame, opts Options) []axisPlan {
	required := map[AxisID]bool{AxisX: true, AxisY: true}
	for _, id := range opts.Require {
		required[id] = true
	}

	x := axisPlan{id: AxisX, horizontal: true, outwardSide: 1, required: true}
	y := axisPlan{id: AxisY, outwardSide: -1, required: true}
	y2 := axisPlan{id: AxisY2, outwardSide: 1, required: required[AxisY2]}
	if frame != nil {
		x.band = &frame.XAxis
		y.band = &frame.YAxis
		y2.band = frame.Right
	}

	plans := []axisPlan{x, y}
	_, manualY2 := opts.Anchors[AxisY2]
	if y2.band != nil || y2.required || manualY2 {
		plans = append(plans, y2)
	}
	return plans
}

// readLabels recognizes the label of every tick and returns the anchors
// that parsed.
func readLabels(ctx context.Context, img image.Image, reader ocr.Reader, p axisPlan, ticks []Tick, opts Options, log logging.Logger) ([]TickAnchor, error) {
	if reader == nil {
		return nil, ocr.ErrUnavailable
	}

	spacing := medianSpacing(ticks, 2*float64(opts.MaxLabelHalfWidth))
	var anchors []TickAnchor
	for _, t := range ticks {
		region := labelRegion(p.id, p.band.Lo, p.band.Hi, t, spacing, opts, img.Bounds())
		if region.Empty() {
			continue
		}
		text, err := reader.ReadText(ctx, img, region)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return anchors, ctxErr
			}
			if errors.Is(err, ocr.ErrUnavailable) {
				return anchors, err
			}
			log.Debug("label read failed", logging.String("axis", string(p.id)), logging.Err(err))
			continue
		}
		v, err := ocr.ParseNumber(text)
		if err != nil {
			log.Debug("label not numeric", logging.String("axis", string(p.id)), logging.String("text", text))
			continue
		}
		anchors = append(anchors, TickAnchor{Pixel: t.Pos, Value: v, Text: text})
	}
	return anchors, nil
}

// fitAxis builds an AxisSpec from anchors. ticks may be nil for manual
// anchors.
func fitAxis(p axisPlan, anchors []TickAnchor, ticks []Tick, opts Options) (*AxisSpec, error) {
	sorted, t, residual, err := Fit(p.id, anchors)
	if err != nil {
		return nil, err
	}

	spec := &AxisSpec{
		ID:          p.id,
		Units:       opts.Units[p.id],
		Orientation: Vertical,
		Anchors:     sorted,
		Transform:   t,
		Residual:    residual,
	}
	if p.horizontal {
		spec.Orientation = Horizontal
	}
	if p.band != nil {
		spec.PixelStart, spec.PixelEnd = p.band.Start, p.band.End
	} else {
		spec.PixelStart = int(sorted[0].Pixel)
		spec.PixelEnd = int(sorted[len(sorted)-1].Pixel)
	}

	positions := make([]float64, 0, len(ticks))
	for _, tk := range ticks {
		positions = append(positions, tk.Pos)
	}
	if len(positions) == 0 {
		for _, a := range sorted {
			positions = append(positions, a.Pixel)
		}
	}
	spec.TickSpacing, spec.TickVariation = spacing(positions)
	spec.IrregularTicks = spec.TickVariation > opts.IrregularTickVariation
	return spec, nil
}

func failure(id AxisID, err error, anchors []TickAnchor) AxisFailure {
	var ae *AxisError
	if !errors.As(err, &ae) {
		err = &AxisError{Axis: id, Err: err}
	}
	return AxisFailure{Axis: id, Reason: errors.Unwrap(err).Error(), Anchors: anchors, Err: err}
}
