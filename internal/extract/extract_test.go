package extract

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
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

func diagonal(from, to image.Point, c color.Color) testchart.Line {
	return testchart.Line{From: from, To: to, Color: c, Thickness: 3}
}

// lineY returns the y of the segment a-b at column x.
func lineY(a, b image.Point, x int) float64 {
	return float64(a.Y) + float64(x-a.X)*float64(b.Y-a.Y)/float64(b.X-a.X)
}

func TestExtract_ParallelDiagonals(t *testing.T) {
	chart := testchart.Standard()
	upperA, upperB := image.Pt(80, 150), image.Pt(360, 40)
	lowerA, lowerB := image.Pt(80, 230), image.Pt(360, 120)
	chart.Lines = []testchart.Line{
		diagonal(lowerA, lowerB, color.Black),
		diagonal(upperA, upperB, color.Black),
	}

	res, err := Extract(context.Background(), normalize(t, chart), 2, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !res.FrameFound {
		t.Error("frame not found")
	}
	if len(res.Traces) != 2 {
		t.Fatalf("got %d traces, want 2", len(res.Traces))
	}
	if res.Missing != 0 || res.Discarded != 0 {
		t.Errorf("missing=%d discarded=%d, want 0/0", res.Missing, res.Discarded)
	}

	want := [][2]image.Point{{upperA, upperB}, {lowerA, lowerB}}
	for i, tr := range res.Traces {
		if tr.Index != i {
			t.Errorf("trace %d has index %d", i, tr.Index)
		}
		if tr.Confidence < 0.95 {
			t.Errorf("trace %d confidence %.3f, want >= 0.95", i, tr.Confidence)
		}
		if tr.StartX() > 82 || tr.EndX() < 358 {
			t.Errorf("trace %d spans %d..%d, want about 80..360", i, tr.StartX(), tr.EndX())
		}
		for x := 90; x <= 350; x += 20 {
			y, ok := tr.YAt(x)
			if !ok {
				t.Fatalf("trace %d has no point at x=%d", i, x)
			}
			if d := math.Abs(y - lineY(want[i][0], want[i][1], x)); d > 1.5 {
				t.Errorf("trace %d at x=%d: y=%.1f, off by %.1f", i, x, y, d)
			}
		}
		for j := 1; j < len(tr.Points); j++ {
			if tr.Points[j].X != tr.Points[j-1].X+1 {
				t.Fatalf("trace %d: columns not contiguous at %d", i, j)
			}
		}
	}
}

func TestExtract_SplitsByHue(t *testing.T) {
	chart := testchart.Standard()
	red := color.NRGBA{255, 0, 0, 255}
	blue := color.NRGBA{0, 0, 255, 255}
	chart.Lines = []testchart.Line{
		diagonal(image.Pt(80, 200), image.Pt(360, 140), blue),
		diagonal(image.Pt(80, 100), image.Pt(360, 60), red),
	}

	res, err := Extract(context.Background(), normalize(t, chart), 0, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.Layers < 2 {
		t.Errorf("got %d layers, want at least 2", res.Layers)
	}
	if len(res.Traces) != 2 {
		t.Fatalf("got %d traces, want 2", len(res.Traces))
	}

	for i, want := range []struct {
		hex string
		hue color.Color
	}{{"#FF0000", red}, {"#0000FF", blue}} {
		tr := res.Traces[i]
		if tr.Color != want.hex {
			t.Errorf("trace %d color %s, want %s", i, tr.Color, want.hex)
		}
		if !tr.HasHue {
			t.Errorf("trace %d has no hue", i)
			continue
		}
		h, _, _ := imaging.InkHue(want.hue)
		if d := imaging.HueDistance(tr.Hue, h); d > 10 {
			t.Errorf("trace %d hue %.1f, want near %.1f", i, tr.Hue, h)
		}
	}
}

func TestExtract_RemovesDarkGridlines(t *testing.T) {
	chart := testchart.Standard()
	chart.Lines = []testchart.Line{
		{From: image.Pt(62, 200), To: image.Pt(379, 200), Thickness: 2},
		{From: image.Pt(300, 32), To: image.Pt(300, 249), Thickness: 2},
		diagonal(image.Pt(80, 150), image.Pt(260, 50), color.Black),
	}

	res, err := Extract(context.Background(), normalize(t, chart), 0, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(res.Traces) != 1 {
		t.Fatalf("got %d traces, want only the diagonal", len(res.Traces))
	}
	if y, ok := res.Traces[0].YAt(170); !ok || math.Abs(y-100) > 1.5 {
		t.Errorf("y at 170 = %.1f (%v), want about 100", y, ok)
	}
}

func TestExtract_KeepsFlatCurve(t *testing.T) {
	chart := testchart.Standard()
	chart.Lines = []testchart.Line{diagonal(image.Pt(80, 150), image.Pt(360, 150), color.Black)}

	res, err := Extract(context.Background(), normalize(t, chart), 1, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(res.Traces) != 1 {
		t.Fatalf("got %d traces, want the flat line", len(res.Traces))
	}
	tr := res.Traces[0]
	if tr.StartX() > 82 || tr.EndX() < 358 {
		t.Errorf("trace spans %d..%d, want 80..360", tr.StartX(), tr.EndX())
	}
	if y, ok := tr.YAt(220); !ok || math.Abs(y-150) > 1 {
		t.Errorf("y at 220 = %.1f (%v), want 150", y, ok)
	}
}

func TestExtract_SteepSegmentEnds(t *testing.T) {
	a, b := image.Pt(100, 60), image.Pt(160, 240)
	chart := testchart.Standard()
	chart.Lines = []testchart.Line{diagonal(a, b, color.Black)}

	res, err := Extract(context.Background(), normalize(t, chart), 1, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(res.Traces) != 1 {
		t.Fatalf("got %d traces, want 1", len(res.Traces))
	}
	tr := res.Traces[0]
	for _, p := range []Point{tr.Points[0], tr.Points[len(tr.Points)-1]} {
		if d := math.Abs(p.Y - lineY(a, b, p.X)); d > 1.5 {
			t.Errorf("end at x=%d: y=%.1f, off the line by %.1f", p.X, p.Y, d)
		}
	}
}

func TestExtract_ExpectedCount(t *testing.T) {
	chart := testchart.Standard()
	chart.Lines = []testchart.Line{
		diagonal(image.Pt(80, 100), image.Pt(360, 60), color.Black),
		diagonal(image.Pt(200, 200), image.Pt(300, 180), color.Black),
	}
	norm := normalize(t, chart)

	tests := []struct {
		name      string
		expected  int
		traces    int
		discarded int
		missing   int
	}{
		{"keep all", 0, 2, 0, 0},
		{"exact", 2, 2, 0, 0},
		{"fewer wanted", 1, 1, 1, 0},
		{"more wanted", 3, 2, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract(context.Background(), norm, tt.expected, DefaultOptions())
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if len(res.Traces) != tt.traces || res.Discarded != tt.discarded || res.Missing != tt.missing {
				t.Errorf("got traces=%d discarded=%d missing=%d, want %d/%d/%d",
					len(res.Traces), res.Discarded, res.Missing, tt.traces, tt.discarded, tt.missing)
			}
		})
	}

	res, _ := Extract(context.Background(), norm, 1, DefaultOptions())
	if len(res.Traces) == 1 && res.Traces[0].Span() < 250 {
		t.Errorf("kept the short trace (span %d)", res.Traces[0].Span())
	}
}

func TestExtract_NoFrame(t *testing.T) {
	chart := &testchart.Chart{Width: 200, Height: 120}
	norm := normalize(t, chart)
	// Render always draws the axes; paint over them to leave only the curve.
	for y := 0; y < norm.Height; y++ {
		for x := 0; x < norm.Width; x++ {
			norm.Gray.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	for x := 20; x < 180; x++ {
		yc := 30 + (x-20)*3/8
		for y := yc - 1; y <= yc+1; y++ {
			norm.Gray.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	res, err := Extract(context.Background(), norm, 1, DefaultOptions())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if res.FrameFound {
		t.Error("FrameFound = true on a frameless image")
	}
	if len(res.Traces) != 1 {
		t.Fatalf("got %d traces, want 1", len(res.Traces))
	}
	if y, _ := res.Traces[0].YAt(100); math.Abs(y-60) > 0.5 {
		t.Errorf("y = %.1f, want 60", y)
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	chart := testchart.Standard()
	chart.Lines = []testchart.Line{diagonal(image.Pt(80, 150), image.Pt(360, 40), color.Black)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Extract(ctx, normalize(t, chart), 1, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestExtract_NilImage(t *testing.T) {
	if _, err := Extract(context.Background(), nil, 1, DefaultOptions()); !errors.Is(err, imaging.ErrInvalidImage) {
		t.Errorf("got %v, want ErrInvalidImage", err)
	}
}
