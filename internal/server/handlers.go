package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/pump-curve-digitizer/internal/calibrate"
	"github.com/ironsheep/pump-curve-digitizer/internal/digitizer"
	"github.com/ironsheep/pump-curve-digitizer/internal/export"
	"github.com/ironsheep/pump-curve-digitizer/internal/extract"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
	"github.com/ironsheep/pump-curve-digitizer/internal/logging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "chart_load", "chart_digitize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Undecodable charts return code -32000 with message "Invalid image"; any
// other tool failure returns -32000 "Tool execution failed".
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", logging.String("tool", params.Name), logging.Err(err))
		if errors.Is(err, imaging.ErrInvalidImage) {
			return s.errorResponse(req.ID, -32000, "Invalid image", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "chart_load":
		return s.handleChartLoad(args)
	case "chart_preprocess":
		return s.handleChartPreprocess(args)
	case "chart_edges":
		return s.handleChartEdges(args)

	// Pipeline stages
	case "chart_calibrate":
		return s.handleChartCalibrate(args)
	case "chart_extract_traces":
		return s.handleChartExtractTraces(args)

	// Full runs
	case "chart_digitize":
		return s.handleChartDigitize(args)
	case "chart_preview":
		return s.handleChartPreview(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// parseArgs decodes tool arguments and checks that a path was given.
func parseArgs(args json.RawMessage, dst interface{}, path *string) error {
	if len(args) > 0 {
		if err := json.Unmarshal(args, dst); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if *path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

var (
	frameColor = color.RGBA{0, 160, 0, 255}
	tickColor  = color.RGBA{255, 0, 255, 255}
)

// === Image Handlers ===

func (s *Server) handleChartLoad(args json.RawMessage) (interface{}, error) {
	var p struct {
		Path string `json:"path"`
	}
	if err := parseArgs(args, &p, &p.Path); err != nil {
		return nil, err
	}

	entry, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	return entry.image.Info(), nil
}

func (s *Server) handleChartPreprocess(args json.RawMessage) (interface{}, error) {
	opts := imaging.DefaultPreprocessOptions()
	p := struct {
		Path         string  `json:"path"`
		BlurSigma    float64 `json:"blur_sigma"`
		MedianRadius float64 `json:"median_radius"`
		IncludeImage bool    `json:"include_image"`
	}{BlurSigma: opts.BlurSigma}
	if err := parseArgs(args, &p, &p.Path); err != nil {
		return nil, err
	}

	entry, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}

	opts.BlurSigma = p.BlurSigma
	opts.MedianRadius = p.MedianRadius
	norm, err := imaging.Preprocess(entry.image, opts)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"width":     norm.Width,
		"height":    norm.Height,
		"chromatic": norm.Chromatic,
	}
	if p.IncludeImage {
		b64, err := imaging.EncodePNGBase64(norm.Gray)
		if err != nil {
			return nil, err
		}
		result["image_base64"] = b64
	}
	return result, nil
}

func (s *Server) handleChartEdges(args json.RawMessage) (interface{}, error) {
	p := struct {
		Path          string `json:"path"`
		ThresholdLow  int    `json:"threshold_low"`
		ThresholdHigh int    `json:"threshold_high"`
	}{ThresholdLow: 50, ThresholdHigh: 150}
	if err := parseArgs(args, &p, &p.Path); err != nil {
		return nil, err
	}
	if p.ThresholdLow >= p.ThresholdHigh {
		return nil, fmt.Errorf("threshold_low (%d) must be below threshold_high (%d)", p.ThresholdLow, p.ThresholdHigh)
	}

	entry, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	norm, err := entry.normalized()
	if err != nil {
		return nil, err
	}

	edges := imaging.EdgeDetect(norm.Gray, p.ThresholdLow, p.ThresholdHigh)
	b64, err := imaging.EncodePNGBase64(edges)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"width":        edges.Bounds().Dx(),
		"height":       edges.Bounds().Dy(),
		"image_base64": b64,
	}, nil
}

// === Pipeline Stage Handlers ===

func (s *Server) handleChartCalibrate(args json.RawMessage) (interface{}, error) {
	var p struct {
		Path      string `json:"path"`
		RequireY2 bool   `json:"require_y2"`
		Annotate  bool   `json:"annotate"`
	}
	if err := parseArgs(args, &p, &p.Path); err != nil {
		return nil, err
	}

	entry, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	norm, err := entry.normalized()
	if err != nil {
		return nil, err
	}

	opts := calibrate.DefaultOptions()
	opts.Logger = s.log.With(logging.String("source", entry.image.Name))
	if p.RequireY2 {
		opts.Require = append(opts.Require, calibrate.AxisY2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	res, err := calibrate.Calibrate(ctx, norm, s.reader, opts)
	if err != nil {
		return nil, err
	}

	failures := make([]map[string]interface{}, 0, len(res.Failures))
	for _, f := range res.Failures {
		failures = append(failures, map[string]interface{}{
			"axis":    f.Axis,
			"reason":  f.Reason,
			"anchors": f.Anchors,
		})
	}
	result := map[string]interface{}{
		"threshold": res.Threshold,
		"axes":      res.Axes,
		"failures":  failures,
	}
	if res.Frame != nil {
		result["interior"] = rectJSON(res.Frame.Interior())
	}

	if p.Annotate {
		ov := imaging.NewOverlay(entry.image.Pixels())
		if res.Frame != nil {
			ov.Rect(res.Frame.Interior(), frameColor)
			for id, ticks := range res.Ticks {
				for _, t := range ticks {
					ov.Cross(tickPoint(res, id, t.Pos), 4, tickColor)
				}
			}
		}
		b64, err := imaging.EncodePNGBase64(ov.Image())
		if err != nil {
			return nil, err
		}
		result["image_base64"] = b64
	}
	return result, nil
}

// tickPoint places a tick on its axis line.
func tickPoint(res *calibrate.Result, id calibrate.AxisID, pos float64) image.Point {
	f := res.Frame
	switch id {
	case calibrate.AxisX:
		return image.Pt(int(pos), (f.XAxis.Lo+f.XAxis.Hi)/2)
	case calibrate.AxisY2:
		if f.Right != nil {
			return image.Pt((f.Right.Lo+f.Right.Hi)/2, int(pos))
		}
	}
	return image.Pt((f.YAxis.Lo+f.YAxis.Hi)/2, int(pos))
}

func (s *Server) handleChartExtractTraces(args json.RawMessage) (interface{}, error) {
	var p struct {
		Path          string `json:"path"`
		Expected      int    `json:"expected"`
		IncludePoints bool   `json:"include_points"`
		Annotate      bool   `json:"annotate"`
	}
	if err := parseArgs(args, &p, &p.Path); err != nil {
		return nil, err
	}

	entry, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	norm, err := entry.normalized()
	if err != nil {
		return nil, err
	}

	opts := extract.DefaultOptions()
	opts.Logger = s.log.With(logging.String("source", entry.image.Name))

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	res, err := extract.Extract(ctx, norm, p.Expected, opts)
	if err != nil {
		return nil, err
	}

	traces := make([]map[string]interface{}, 0, len(res.Traces))
	for _, t := range res.Traces {
		tr := map[string]interface{}{
			"index":      t.Index,
			"start_x":    t.StartX(),
			"end_x":      t.EndX(),
			"confidence": t.Confidence,
			"observed":   t.Count(extract.Observed),
			"ambiguous":  t.Count(extract.Ambiguous),
			"bridged":    t.Count(extract.Bridged),
			"color":      t.Color,
		}
		if t.HasHue {
			tr["hue"] = t.Hue
		}
		if p.IncludePoints {
			tr["points"] = t.Points
		}
		traces = append(traces, tr)
	}

	result := map[string]interface{}{
		"interior":    rectJSON(res.Interior),
		"frame_found": res.FrameFound,
		"layers":      res.Layers,
		"traces":      traces,
		"expected":    res.Expected,
		"discarded":   res.Discarded,
		"missing":     res.Missing,
	}

	if p.Annotate {
		ov := imaging.NewOverlay(entry.image.Pixels())
		ov.Rect(res.Interior, frameColor)
		for _, t := range res.Traces {
			pts := make([]image.Point, len(t.Points))
			for i, pt := range t.Points {
				pts[i] = image.Pt(pt.X, int(pt.Y+0.5))
			}
			ov.Polyline(pts, traceColor(t))
			ov.Label(pts[0].X, pts[0].Y, fmt.Sprintf("%d", t.Index), color.White, color.Black)
		}
		b64, err := imaging.EncodePNGBase64(ov.Image())
		if err != nil {
			return nil, err
		}
		result["image_base64"] = b64
	}
	return result, nil
}

// traceColor picks a drawing color that stands out from the trace's own ink.
func traceColor(t extract.CurveTrace) color.Color {
	if t.HasHue {
		return imaging.HueColor(math.Mod(t.Hue+180, 360))
	}
	return color.RGBA{255, 0, 0, 255}
}

func rectJSON(r image.Rectangle) map[string]int {
	return map[string]int{
		"x":      r.Min.X,
		"y":      r.Min.Y,
		"width":  r.Dx(),
		"height": r.Dy(),
	}
}

// === Full Pipeline Handlers ===

type digitizeParams struct {
	Path       string            `json:"path"`
	Curves     []string          `json:"curves"`
	Axes       map[string]string `json:"axes"`
	GridPoints int               `json:"grid_points"`
}

func (s *Server) digitize(p digitizeParams, entry *chartEntry) (*digitizer.Result, error) {
	opts := digitizer.DefaultOptions()
	opts.Name = entry.image.Name
	opts.StageTimeout = s.timeout
	if p.GridPoints > 0 {
		opts.GridPoints = p.GridPoints
	}
	if len(p.Axes) > 0 {
		opts.Axes = make(map[string]digitizer.CurveAxes, len(p.Axes))
		for label, y := range p.Axes {
			id := calibrate.AxisID(y)
			if id != calibrate.AxisY && id != calibrate.AxisY2 {
				return nil, fmt.Errorf("curve %q: unknown y axis %q", label, y)
			}
			opts.Axes[label] = digitizer.CurveAxes{X: calibrate.AxisX, Y: id}
		}
	}

	return digitizer.Digitize(context.Background(), entry.data, p.Curves,
		digitizer.WithOptions(opts),
		digitizer.WithReader(s.reader),
		digitizer.WithLogger(s.log))
}

func (s *Server) handleChartDigitize(args json.RawMessage) (interface{}, error) {
	var p digitizeParams
	if err := parseArgs(args, &p, &p.Path); err != nil {
		return nil, err
	}

	entry, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	return s.digitize(p, entry)
}

func (s *Server) handleChartPreview(args json.RawMessage) (interface{}, error) {
	def := export.DefaultPreviewOptions()
	p := struct {
		digitizeParams
		Width  int `json:"width"`
		Height int `json:"height"`
	}{Width: def.Width, Height: def.Height}
	if err := parseArgs(args, &p, &p.Path); err != nil {
		return nil, err
	}

	entry, err := s.cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	res, err := s.digitize(p.digitizeParams, entry)
	if err != nil {
		return nil, err
	}

	def.Title = entry.image.Name
	def.Width, def.Height = p.Width, p.Height
	var buf bytes.Buffer
	if err := export.WritePreviewPNG(&buf, res, def); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"width":        p.Width,
		"height":       p.Height,
		"curves":       len(res.Curves),
		"warnings":     res.Warnings,
		"image_base64": base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}
