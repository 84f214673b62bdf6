// Package digitizer runs the full chart digitization pipeline: decode,
// normalize, calibrate the axes and extract the curves concurrently, then
// map each curve onto a shared grid.
//
// Digitize is a pure function of its inputs. It never touches the
// filesystem and keeps no state between calls.
package digitizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ironsheep/pump-curve-digitizer/internal/calibrate"
	"github.com/ironsheep/pump-curve-digitizer/internal/extract"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/logging"
	"github.com/ironsheep/pump-curve-digitizer/internal/mapper"
)

var (
	// ErrInvalidImage is returned when the input is not a usable image.
	ErrInvalidImage = imaging.ErrInvalidImage

	// ErrNoCurves is returned when extraction completed without finding a
	// single trace.
	ErrNoCurves = fmt.Errorf("no curves extracted: %w", mapper.ErrDegenerateCurve)
)

// Digitize converts chart image bytes into calibrated curves, one per
// label in labels and in that order. With no labels every extracted trace
// is returned as curve_1, curve_2, ...
//
// Only ErrInvalidImage, ErrNoCurves and ctx's own error are returned;
// every other problem is reported as a Warning on the result.
func Digitize(ctx context.Context, data []byte, labels []string, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)
	o := cfg.opts
	log := cfg.logger.With(logging.String("source", o.Name))
	start := time.Now()

	ci, err := imaging.Decode(data, o.Name)
	if err != nil {
		return nil, err
	}
	norm, err := imaging.Preprocess(ci, o.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	log.Debug("image normalized",
		logging.Int("width", ci.Width),
		logging.Int("height", ci.Height),
		logging.String("format", ci.Format))

	calOpts := o.Calibrate
	calOpts.Logger = log
	calOpts.Require = requiredAxes(calOpts.Require, labels, &o)
	extOpts := o.Extract
	extOpts.Logger = log

	var (
		wg     sync.WaitGroup
		cal    *calibrate.Result
		calErr error
		ext    *extract.Result
		extErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		cal, calErr = withTimeout(ctx, o.StageTimeout, func(ctx context.Context) (*calibrate.Result, error) {
			return calibrate.Calibrate(ctx, norm, cfg.reader, calOpts)
		})
	}()
	go func() {
		defer wg.Done()
		ext, extErr = withTimeout(ctx, o.StageTimeout, func(ctx context.Context) (*extract.Result, error) {
			return extract.Extract(ctx, norm, len(labels), extOpts)
		})
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Source: ci.Info()}
	var warnings []Warning

	if calErr != nil {
		log.Warn("calibration stage failed", logging.Err(calErr))
		warnings = append(warnings, stageWarning("calibrate", calErr))
		cal = &calibrate.Result{}
		for _, id := range calOpts.Require {
			cal.Failures = append(cal.Failures, calibrate.AxisFailure{Axis: id, Reason: calErr.Error(), Err: calErr})
		}
	}
	if extErr != nil {
		log.Warn("extraction stage failed", logging.Err(extErr))
		warnings = append(warnings, stageWarning("extract", extErr))
		ext = &extract.Result{Expected: len(labels), Missing: len(labels)}
	} else if len(ext.Traces) == 0 {
		return nil, ErrNoCurves
	}

	res.Axes = cal.Axes
	res.AxisFailures = cal.Failures
	res.Traces = len(ext.Traces) + ext.Discarded

	for _, f := range cal.Failures {
		warnings = append(warnings, Warning{
			Code:    WarnAxisCalibrationFailed,
			Axis:    f.Axis,
			Message: f.Reason,
		})
	}
	for _, a := range cal.Axes {
		if a.IrregularTicks {
			warnings = append(warnings, Warning{
				Code:    WarnIrregularTicks,
				Axis:    a.ID,
				Message: fmt.Sprintf("tick spacing varies by %.0f%%", a.TickVariation*100),
			})
		}
	}
	if ext.Discarded > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnExtraTraces,
			Message: fmt.Sprintf("%d weaker traces beyond the %d requested were discarded", ext.Discarded, len(labels)),
		})
	}

	if len(labels) == 0 {
		labels = make([]string, len(ext.Traces))
		for i := range labels {
			labels[i] = fmt.Sprintf("curve_%d", i+1)
		}
	}
	assign := o.Layout.Assign(labels, ext.Traces)

	res.Grid = o.Grid
	if len(res.Grid) == 0 {
		res.Grid = observedGrid(cal, ext.Traces, assign, labels, &o)
	}

	for i, label := range labels {
		axes := o.axesFor(label)
		curve, w := mapLabel(label, axes, assign[i], ext.Traces, cal, res.Grid, &o)
		res.Curves = append(res.Curves, curve)
		warnings = append(warnings, w...)
	}
	res.Warnings = warnings
	res.BEP = bestEfficiency(res, o.EfficiencyLabel, o.HeadLabel)

	log.Info("chart digitized",
		logging.Int("curves", len(res.Curves)),
		logging.Int("axes", len(res.Axes)),
		logging.Int("warnings", len(res.Warnings)),
		logging.Float("seconds", time.Since(start).Seconds()))
	return res, nil
}

// requiredAxes adds every y axis a label is mapped to.
func requiredAxes(base []calibrate.AxisID, labels []string, o *Options) []calibrate.AxisID {
	req := []calibrate.AxisID{calibrate.AxisX, calibrate.AxisY}
	seen := map[calibrate.AxisID]bool{calibrate.AxisX: true, calibrate.AxisY: true}
	add := func(id calibrate.AxisID) {
		if !seen[id] {
			seen[id] = true
			req = append(req, id)
		}
	}
	for _, id := range base {
		add(id)
	}
	for _, l := range labels {
		a := o.axesFor(l)
		add(a.X)
		add(a.Y)
	}
	return req
}

// observedGrid spreads GridPoints values over the union of the x ranges of
// the assigned traces. It returns nil when no x axis is calibrated.
func observedGrid(cal *calibrate.Result, traces []extract.CurveTrace, assign []int, labels []string, o *Options) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, ti := range assign {
		if ti < 0 {
			continue
		}
		ax, ok := cal.Axis(o.axesFor(labels[i]).X)
		if !ok {
			continue
		}
		t := &traces[ti]
		a := ax.Transform.Apply(float64(t.StartX()))
		b := ax.Transform.Apply(float64(t.EndX()))
		lo = math.Min(lo, math.Min(a, b))
		hi = math.Max(hi, math.Max(a, b))
	}
	if math.IsInf(lo, 1) {
		return nil
	}
	return mapper.Grid(lo, hi, o.GridPoints)
}

// mapLabel digitizes one label and returns the warnings it raises.
func mapLabel(label string, axes CurveAxes, ti int, traces []extract.CurveTrace, cal *calibrate.Result, grid []float64, o *Options) (mapper.DigitizedCurve, []Warning) {
	empty := mapper.DigitizedCurve{ID: label, XAxis: axes.X, YAxis: axes.Y, TraceIndex: -1}
	if ti < 0 {
		empty.Status = mapper.StatusMissing
		return empty, []Warning{{
			Code:    WarnCurveMissing,
			Curve:   label,
			Message: "no trace found for curve",
		}}
	}

	ax, _ := cal.Axis(axes.X)
	ay, _ := cal.Axis(axes.Y)
	c, err := mapper.MapCurve(&traces[ti], ax, ay, grid, o.Mapper)
	if err != nil {
		empty.Status = mapper.StatusDegenerate
		empty.TraceIndex = ti
		code := WarnDegenerateCurve
		if !errors.Is(err, mapper.ErrDegenerateCurve) {
			code = WarnCurveMissing
		}
		return empty, []Warning{{Code: code, Curve: label, Message: err.Error()}}
	}
	c.ID = label
	c.XAxis = axes.X
	c.YAxis = axes.Y

	var ws []Warning
	if c.Status == mapper.StatusAxisUnavailable {
		missing := axes.X
		if ax != nil {
			missing = axes.Y
		}
		ws = append(ws, Warning{
			Code:    WarnAxisUnavailable,
			Curve:   label,
			Axis:    missing,
			Message: fmt.Sprintf("axis %s is not calibrated; values withheld", missing),
		})
	}
	if c.Confidence < o.LowConfidence {
		ws = append(ws, Warning{
			Code:    WarnLowConfidence,
			Curve:   label,
			Message: fmt.Sprintf("trace confidence %.2f", c.Confidence),
		})
	}
	if n := c.Count(mapper.Extrapolated); n > 0 {
		ws = append(ws, Warning{
			Code:    WarnExtrapolatedSamples,
			Curve:   label,
			Message: fmt.Sprintf("%d of %d samples extrapolated", n, len(c.Samples)),
		})
	}
	if c.Oscillating {
		ws = append(ws, Warning{
			Code:    WarnOscillation,
			Curve:   label,
			Message: fmt.Sprintf("%d local extrema; the trace may have followed a neighbouring curve", c.Extrema),
		})
	}
	return *c, ws
}

// bestEfficiency finds the sample where the efficiency curve peaks. Only
// observed and interpolated samples are considered.
func bestEfficiency(res *Result, effLabel, headLabel string) *BestEfficiencyPoint {
	eff, ok := res.Curve(effLabel)
	if !ok {
		return nil
	}
	best := -1
	for i, s := range eff.Samples {
		if s.Y == nil || s.Flag == mapper.Extrapolated {
			continue
		}
		if best < 0 || *s.Y > *eff.Samples[best].Y {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	bep := &BestEfficiencyPoint{Curve: effLabel, Flow: eff.Samples[best].X, Efficiency: *eff.Samples[best].Y}
	if head, ok := res.Curve(headLabel); ok && best < len(head.Samples) && head.Samples[best].Y != nil {
		h := *head.Samples[best].Y
		bep.Head = &h
	}
	return bep
}
