package calibrate

import (
	"errors"
	"math"
	"testing"
)

func TestFit_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		anchors []TickAnchor
	}{
		{"x axis increasing", []TickAnchor{{Pixel: 60.5, Value: 0}, {Pixel: 140.5, Value: 100}, {Pixel: 220.5, Value: 200}, {Pixel: 300.5, Value: 300}}},
		{"y axis decreasing", []TickAnchor{{Pixel: 250.5, Value: 0}, {Pixel: 190.5, Value: 50}, {Pixel: 130.5, Value: 100}, {Pixel: 70.5, Value: 150}}},
		{"two anchors", []TickAnchor{{Pixel: 10, Value: 5}, {Pixel: 90, Value: 85}}},
		{"unsorted input", []TickAnchor{{Pixel: 300, Value: 30}, {Pixel: 100, Value: 10}, {Pixel: 200, Value: 20}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sorted, tr, residual, err := Fit(AxisX, tt.anchors)
			if err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			for _, a := range tt.anchors {
				if got := tr.Apply(a.Pixel); math.Abs(got-a.Value) > 1e-9 {
					t.Errorf("Apply(%v) = %v, want %v", a.Pixel, got, a.Value)
				}
				if got := tr.Inverse(a.Value); math.Abs(got-a.Pixel) > 1e-9 {
					t.Errorf("Inverse(%v) = %v, want %v", a.Value, got, a.Pixel)
				}
			}
			if residual > 1e-9 {
				t.Errorf("residual %v for collinear anchors", residual)
			}
			for i := 1; i < len(sorted); i++ {
				if sorted[i].Pixel <= sorted[i-1].Pixel {
					t.Errorf("anchors not sorted by pixel: %v", sorted)
				}
			}
		})
	}
}

func TestFit_LeastSquares(t *testing.T) {
	// One label slightly off: the fit averages rather than interpolates.
	anchors := []TickAnchor{{Pixel: 0, Value: 0}, {Pixel: 100, Value: 10}, {Pixel: 200, Value: 21}, {Pixel: 300, Value: 30}}
	_, tr, residual, err := Fit(AxisY, anchors)
	if err != nil {
		t.Fatal(err)
	}
	if residual <= 0 {
		t.Error("expected a non-zero residual")
	}
	if math.Abs(tr.Scale-0.1) > 0.01 {
		t.Errorf("scale: got %v, want about 0.1", tr.Scale)
	}
}

func TestFit_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		anchors []TickAnchor
		want    error
	}{
		{"none", nil, ErrTooFewLabels},
		{"single", []TickAnchor{{Pixel: 10, Value: 1}}, ErrTooFewLabels},
		{"not monotonic", []TickAnchor{{Pixel: 10, Value: 0}, {Pixel: 20, Value: 50}, {Pixel: 30, Value: 40}}, ErrNotMonotonic},
		{"repeated value", []TickAnchor{{Pixel: 10, Value: 0}, {Pixel: 20, Value: 0}}, ErrNotMonotonic},
		{"same pixel", []TickAnchor{{Pixel: 10, Value: 0}, {Pixel: 10, Value: 5}}, ErrDegenerateAnchors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Fit(AxisY2, tt.anchors)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			var ae *AxisError
			if !errors.As(err, &ae) || ae.Axis != AxisY2 {
				t.Errorf("expected *AxisError for y2, got %#v", err)
			}
		})
	}
}

func TestSpacing(t *testing.T) {
	mean, cv := spacing([]float64{0, 80, 160, 240})
	if mean != 80 || cv != 0 {
		t.Errorf("regular: got mean %v cv %v", mean, cv)
	}
	_, cv = spacing([]float64{0, 40, 160, 170})
	if cv < 0.1 {
		t.Errorf("irregular spacing should have high variation, got %v", cv)
	}
	if m, c := spacing([]float64{5}); m != 0 || c != 0 {
		t.Errorf("single position: got %v %v", m, c)
	}
}
