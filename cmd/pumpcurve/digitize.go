package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/pump-curve-digitizer/internal/calibrate"
	"github.com/ironsheep/pump-curve-digitizer/internal/digitizer"
	"github.com/ironsheep/pump-curve-digitizer/internal/export"
)

type digitizeFlags struct {
	curves     []string
	axes       []string
	gridPoints int
	timeout    time.Duration
	format     string
	pretty     bool
	output     string
	preview    string
	name       string
}

func newDigitizeCmd() *cobra.Command {
	f := &digitizeFlags{}

	cmd := &cobra.Command{
		Use:   "digitize <image>",
		Short: "Digitize a pump chart image",
		Long: `digitize extracts the curves of a pump performance chart and writes them
as JSON, as long-format samples CSV, or as fitted polynomial coefficients.

Curves are labelled top to bottom at the middle of the plot:

  pumpcurve digitize chart.png --curves head,efficiency --axis efficiency=x:y2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDigitize(cmd, args[0], f)
		},
	}

	cmd.Flags().StringSliceVar(&f.curves, "curves", nil, "Curve labels, top to bottom (default curve_1..n)")
	cmd.Flags().StringArrayVar(&f.axes, "axis", nil, "Axis pair of a curve as label=x:y2 (repeatable)")
	cmd.Flags().IntVar(&f.gridPoints, "grid-points", digitizer.DefaultOptions().GridPoints, "Number of shared grid points")
	cmd.Flags().DurationVar(&f.timeout, "timeout", digitizer.DefaultOptions().StageTimeout, "Per-stage timeout")
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format: json, csv, coefficients")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&f.preview, "preview", "", "Also write a PNG plot of the curves to this path")
	cmd.Flags().StringVar(&f.name, "name", "", "Pump name for the coefficients CSV (default: image file name)")
	return cmd
}

func runDigitize(cmd *cobra.Command, path string, f *digitizeFlags) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	axes, err := parseAxes(f.axes)
	if err != nil {
		return err
	}

	name := f.name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	opts := digitizer.DefaultOptions()
	opts.Name = name
	opts.Axes = axes
	opts.GridPoints = f.gridPoints
	opts.StageTimeout = f.timeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := digitizer.Digitize(ctx, data, f.curves,
		digitizer.WithOptions(opts),
		digitizer.WithReader(newReader()),
		digitizer.WithLogger(newLogger()))
	if err != nil {
		return fmt.Errorf("digitization failed: %w", err)
	}

	var buf bytes.Buffer
	if err := writeResult(&buf, res, f.format, f.pretty, name); err != nil {
		return err
	}
	if f.output != "" {
		if err := os.WriteFile(f.output, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
		return err
	}

	if f.preview != "" {
		if err := writePreview(f.preview, res, name); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
	}
	return nil
}

func writeResult(w io.Writer, res *digitizer.Result, format string, pretty bool, name string) error {
	switch format {
	case "json":
		var data []byte
		var err error
		if pretty {
			data, err = json.MarshalIndent(res, "", "  ")
		} else {
			data, err = json.Marshal(res)
		}
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "csv":
		return export.WriteSamplesCSV(w, res)
	case "coefficients":
		return export.WriteCoefficientsCSV(w, res, name)
	default:
		return fmt.Errorf("invalid format: %s (must be json, csv, or coefficients)", format)
	}
}

func writePreview(path string, res *digitizer.Result, title string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	opts := export.DefaultPreviewOptions()
	opts.Title = title
	if err := export.WritePreviewPNG(file, res, opts); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// parseAxes parses --axis values of the form label=x:y2. The x part may be
// omitted, as in label=y2.
func parseAxes(values []string) (map[string]digitizer.CurveAxes, error) {
	if len(values) == 0 {
		return nil, nil
	}
	axes := make(map[string]digitizer.CurveAxes, len(values))
	for _, v := range values {
		label, pair, ok := strings.Cut(v, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid --axis %q (want label=x:y2)", v)
		}

		a := digitizer.DefaultAxes
		x, y, hasX := strings.Cut(pair, ":")
		if !hasX {
			x, y = string(calibrate.AxisX), pair
		}
		a.X, a.Y = calibrate.AxisID(x), calibrate.AxisID(y)
		if a.X != calibrate.AxisX {
			return nil, fmt.Errorf("invalid --axis %q: x axis must be %q", v, calibrate.AxisX)
		}
		if a.Y != calibrate.AxisY && a.Y != calibrate.AxisY2 {
			return nil, fmt.Errorf("invalid --axis %q: y axis must be %q or %q", v, calibrate.AxisY, calibrate.AxisY2)
		}
		axes[label] = a
	}
	return axes, nil
}
