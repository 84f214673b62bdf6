package digitizer

import (
	"time"

	"github.com/ironsheep/pump-curve-digitizer/internal/calibrate"
	"github.com/ironsheep/pump-curve-digitizer/internal/extract"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/logging"
	"github.com/ironsheep/pump-curve-digitizer/internal/mapper"
	"github.com/ironsheep/pump-curve-digitizer/internal/ocr"
)

// CurveAxes names the axis pair a curve is plotted against.
type CurveAxes struct {
	X calibrate.AxisID `json:"x"`
	Y calibrate.AxisID `json:"y"`
}

// DefaultAxes is the pair used for curves without an explicit entry.
var DefaultAxes = CurveAxes{X: calibrate.AxisX, Y: calibrate.AxisY}

// Options configures a digitization run.
type Options struct {
	// Name identifies the source in the result and in log messages.
	Name string

	Preprocess imaging.PreprocessOptions
	Calibrate  calibrate.Options
	Extract    extract.Options
	Mapper     mapper.Options

	// StageTimeout bounds calibration and extraction separately.
	StageTimeout time.Duration

	// Grid is the shared x grid. When empty, GridPoints values are spread
	// evenly over the union of the observed x ranges.
	Grid       []float64
	GridPoints int

	// Axes maps curve labels to their axis pair. Curves not listed use
	// DefaultAxes.
	Axes map[string]CurveAxes

	// Layout assigns extracted traces to labels; nil means VerticalOrder.
	Layout Layout

	// LowConfidence is the trace confidence below which a curve is
	// reported with a low_confidence warning.
	LowConfidence float64

	// EfficiencyLabel and HeadLabel name the curves used for the best
	// efficiency point.
	EfficiencyLabel string
	HeadLabel       string
}

// DefaultOptions returns the options Digitize uses when none are given.
func DefaultOptions() Options {
	return Options{
		Name:            "chart",
		Preprocess:      imaging.DefaultPreprocessOptions(),
		Calibrate:       calibrate.DefaultOptions(),
		Extract:         extract.DefaultOptions(),
		Mapper:          mapper.DefaultOptions(),
		StageTimeout:    5 * time.Second,
		GridPoints:      100,
		LowConfidence:   0.8,
		EfficiencyLabel: "efficiency",
		HeadLabel:       "head",
	}
}

// axesFor returns the axis pair of label.
func (o *Options) axesFor(label string) CurveAxes {
	a, ok := o.Axes[label]
	if !ok {
		return DefaultAxes
	}
	if a.X == "" {
		a.X = calibrate.AxisX
	}
	if a.Y == "" {
		a.Y = calibrate.AxisY
	}
	return a
}

type config struct {
	opts   Options
	logger logging.Logger
	reader ocr.Reader
}

// Option customizes a Digitize call.
type Option func(*config)

// WithLogger sets the logger for all stages.
func WithLogger(l logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithReader replaces the Tesseract tick label reader.
func WithReader(r ocr.Reader) Option {
	return func(c *config) {
		c.reader = r
	}
}

// WithOptions replaces the run options.
func WithOptions(o Options) Option {
	return func(c *config) {
		c.opts = o
	}
}

// WithName sets Options.Name.
func WithName(name string) Option {
	return func(c *config) {
		c.opts.Name = name
	}
}

func newConfig(opts []Option) *config {
	c := &config{opts: DefaultOptions(), logger: logging.Nop{}}
	for _, o := range opts {
		o(c)
	}
	if c.opts.StageTimeout <= 0 {
		c.opts.StageTimeout = DefaultOptions().StageTimeout
	}
	if c.opts.GridPoints <= 0 {
		c.opts.GridPoints = DefaultOptions().GridPoints
	}
	if c.opts.Layout == nil {
		c.opts.Layout = VerticalOrder{}
	}
	if c.reader == nil {
		c.reader = ocr.NewTesseract(ocr.DefaultConfig())
	}
	return c
}
