package export

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ironsheep/pump-curve-digitizer/internal/calibrate"
	"github.com/ironsheep/pump-curve-digitizer/internal/digitizer"
	"github.com/ironsheep/pump-curve-digitizer/internal/mapper"
)

// ErrNothingToPlot means no curve has at least two values.
var ErrNothingToPlot = errors.New("no curve has values to plot")

// PreviewOptions sizes the preview image.
type PreviewOptions struct {
	Title  string
	Width  int
	Height int
}

// DefaultPreviewOptions returns an 800x500 preview.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{Title: "Digitized pump curves", Width: 800, Height: 500}
}

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	chart.ColorAlternateGray,
}

// WritePreviewPNG plots every curve with values. Curves on y2 use the
// secondary axis; the best efficiency point, when known, is annotated.
func WritePreviewPNG(w io.Writer, res *digitizer.Result, opts PreviewOptions) error {
	var series []chart.Series
	secondary := false

	for i, c := range res.Curves {
		xs, ys := values(c.Samples)
		if len(xs) < 2 {
			continue
		}
		col := palette[i%len(palette)]
		if c.Color != "" && c.Color != "#000000" {
			col = drawing.ColorFromHex(c.Color)
		}
		s := chart.ContinuousSeries{
			Name:    c.ID,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
			},
		}
		if c.YAxis == calibrate.AxisY2 {
			s.YAxis = chart.YAxisSecondary
			secondary = true
		}
		series = append(series, s)
	}
	if len(series) == 0 {
		return ErrNothingToPlot
	}

	if b := res.BEP; b != nil {
		ann := chart.AnnotationSeries{
			Name:        "BEP",
			Annotations: []chart.Value2{{XValue: b.Flow, YValue: b.Efficiency, Label: fmt.Sprintf("BEP %.4g", b.Flow)}},
		}
		if eff, ok := res.Curve(b.Curve); ok && eff.YAxis == calibrate.AxisY2 {
			ann.YAxis = chart.YAxisSecondary
		}
		series = append(series, ann)
	}

	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: axisName(res, calibrate.AxisX, "x")},
		YAxis:      chart.YAxis{Name: axisName(res, calibrate.AxisY, "y")},
		Series:     series,
	}
	if secondary {
		ch.YAxisSecondary = chart.YAxis{Name: axisName(res, calibrate.AxisY2, "y2")}
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return ch.Render(chart.PNG, w)
}

// values returns the samples that carry a y value.
func values(samples []mapper.Sample) (xs, ys []float64) {
	for _, s := range samples {
		if s.Y == nil {
			continue
		}
		xs = append(xs, s.X)
		ys = append(ys, *s.Y)
	}
	return xs, ys
}

func axisName(res *digitizer.Result, id calibrate.AxisID, fallback string) string {
	if a, ok := res.Axis(id); ok && a.Units != "" {
		return a.Units
	}
	return fallback
}
