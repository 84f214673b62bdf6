package calibrate

import (
	"context"
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/ocr"
	"github.com/ironsheep/pump-curve-digitizer/internal/testchart"
)

func normalize(t *testing.T, c *testchart.Chart) *imaging.Normalized {
	t.Helper()
	ci, err := imaging.FromImage(c.Render(), "synthetic")
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	norm, err := imaging.Preprocess(ci, imaging.DefaultPreprocessOptions())
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	return norm
}

func TestCalibrate_StandardChart(t *testing.T) {
	chart := testchart.Standard()
	res, err := Calibrate(context.Background(), normalize(t, chart), chart.Reader(), DefaultOptions())
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}

	x, ok := res.Axis(AxisX)
	if !ok {
		t.Fatal("x axis missing")
	}
	if len(x.Anchors) != 5 {
		t.Errorf("x anchors: got %d, want 5", len(x.Anchors))
	}
	for _, px := range []float64{60.5, 200, 380.5} {
		if got, want := x.Transform.Apply(px), testchart.XValue(px); math.Abs(got-want) > 1 {
			t.Errorf("x(%v) = %v, want %v", px, got, want)
		}
	}
	if x.IrregularTicks {
		t.Error("evenly spaced x ticks flagged irregular")
	}

	y, ok := res.Axis(AxisY)
	if !ok {
		t.Fatal("y axis missing")
	}
	if len(y.Anchors) != 4 {
		t.Errorf("y anchors: got %d, want 4", len(y.Anchors))
	}
	if y.Transform.Scale >= 0 {
		t.Errorf("y scale should be negative (values grow upward), got %v", y.Transform.Scale)
	}
	if got, want := y.Transform.Apply(100), testchart.YValue(100); math.Abs(got-want) > 1 {
		t.Errorf("y(100) = %v, want %v", got, want)
	}

	if _, ok := res.Axis(AxisY2); ok {
		t.Error("y2 reported on a chart without a secondary scale")
	}
}

func TestCalibrate_ManualAnchorsBypassOCR(t *testing.T) {
	chart := testchart.Standard()
	chart.Labels = false

	reader := ocr.ReaderFunc(func(context.Context, image.Image, image.Rectangle) (string, error) {
		t.Error("reader called although manual anchors were given")
		return "", nil
	})

	opts := DefaultOptions()
	opts.Anchors = map[AxisID][]TickAnchor{
		AxisX: {{Pixel: 60.5, Value: 0}, {Pixel: 380.5, Value: 400}},
		AxisY: {{Pixel: 250.5, Value: 0}, {Pixel: 70.5, Value: 150}},
	}
	opts.Units = map[AxisID]string{AxisX: "gpm", AxisY: "ft"}

	res, err := Calibrate(context.Background(), normalize(t, chart), reader, opts)
	if err != nil {
		t.Fatal(err)
	}
	x, ok := res.Axis(AxisX)
	if !ok || !x.Manual {
		t.Fatalf("x axis not calibrated manually: %+v", res)
	}
	if x.Units != "gpm" {
		t.Errorf("units: got %q", x.Units)
	}
	if got := x.Transform.Apply(220.5); math.Abs(got-200) > 1e-9 {
		t.Errorf("x(220.5) = %v, want 200", got)
	}
}

func TestCalibrate_SecondaryAxisSingleLabel(t *testing.T) {
	chart := testchart.Standard()
	chart.Y2Ticks = []testchart.Tick{{Pixel: 250, Label: "0"}, {Pixel: 130, Label: "n/a"}}

	opts := DefaultOptions()
	opts.Require = []AxisID{AxisY2}
	res, err := Calibrate(context.Background(), normalize(t, chart), chart.Reader(), opts)
	if err != nil {
		t.Fatal(err)
	}

	f, ok := res.Failure(AxisY2)
	if !ok {
		t.Fatalf("expected y2 failure, got axes %+v", res.Axes)
	}
	if !errors.Is(f.Err, ErrTooFewLabels) {
		t.Errorf("y2 failure: got %v, want ErrTooFewLabels", f.Err)
	}
	if _, ok := res.Axis(AxisX); !ok {
		t.Error("x axis should still calibrate")
	}
	if _, ok := res.Axis(AxisY); !ok {
		t.Error("y axis should still calibrate")
	}
}

func TestCalibrate_SecondaryAxis(t *testing.T) {
	chart := testchart.Standard()
	chart.Y2Ticks = []testchart.Tick{{Pixel: 250, Label: "0"}, {Pixel: 130, Label: "4"}, {Pixel: 70, Label: "6"}}

	res, err := Calibrate(context.Background(), normalize(t, chart), chart.Reader(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	y2, ok := res.Axis(AxisY2)
	if !ok {
		t.Fatalf("y2 not calibrated: %+v", res.Failures)
	}
	if got := y2.Transform.Apply(130.5); math.Abs(got-4) > 0.05 {
		t.Errorf("y2(130.5) = %v, want 4", got)
	}
}

func TestCalibrate_NonMonotonicLabels(t *testing.T) {
	chart := testchart.Standard()
	chart.XTicks[2].Label = "50"

	res, err := Calibrate(context.Background(), normalize(t, chart), chart.Reader(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	f, ok := res.Failure(AxisX)
	if !ok || !errors.Is(f.Err, ErrNotMonotonic) {
		t.Errorf("expected x failure with ErrNotMonotonic, got %+v", f)
	}
	if len(f.Anchors) != 5 {
		t.Errorf("failure should keep the recognized anchors, got %d", len(f.Anchors))
	}
}

func TestCalibrate_NoReader(t *testing.T) {
	res, err := Calibrate(context.Background(), normalize(t, testchart.Standard()), nil, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []AxisID{AxisX, AxisY} {
		f, ok := res.Failure(id)
		if !ok || !errors.Is(f.Err, ocr.ErrUnavailable) {
			t.Errorf("axis %s: expected ErrUnavailable failure, got %+v", id, f)
		}
	}
}

func TestCalibrate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chart := testchart.Standard()
	res, err := Calibrate(ctx, normalize(t, chart), chart.Reader(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Axes) != 0 {
		t.Errorf("no axis should calibrate after cancellation, got %d", len(res.Axes))
	}
	f, ok := res.Failure(AxisX)
	if !ok || !errors.Is(f.Err, context.Canceled) {
		t.Errorf("expected context.Canceled failure, got %+v", f)
	}
}

func TestCalibrate_NoFrame(t *testing.T) {
	chart := &testchart.Chart{Width: 200, Height: 150}
	res, err := Calibrate(context.Background(), normalize(t, chart), chart.Reader(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Frame != nil {
		t.Error("frame reported on a blank image")
	}
	f, ok := res.Failure(AxisX)
	if !ok || !errors.Is(f.Err, ErrAxisNotFound) {
		t.Errorf("expected ErrAxisNotFound, got %+v", f)
	}
}
