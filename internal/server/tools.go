package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the chart image file",
}

var curvesProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "string"},
	"description": "Curve labels in top-to-bottom order at the middle of the plot, e.g. [\"head\", \"efficiency\", \"bhp\"]",
}

var axesProperty = map[string]interface{}{
	"type":                 "object",
	"additionalProperties": map[string]interface{}{"type": "string", "enum": []string{"y", "y2"}},
	"description":          "Y axis per curve label; curves not listed use the primary y axis",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "chart_load",
			Description: "Load a chart image and return its dimensions, format and SHA-256. The file is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"path": pathProperty},
				"required":   []string{"path"},
			},
		},
		{
			Name:        "chart_preprocess",
			Description: "Normalize a chart to grayscale with denoising and contrast stretch. Returns the ink threshold and optionally the normalized image as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"blur_sigma": map[string]interface{}{
						"type":        "number",
						"description": "Gaussian blur sigma. Default 0.6",
					},
					"median_radius": map[string]interface{}{
						"type":        "number",
						"description": "Median despeckle radius; 0 disables. Default 0",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the normalized image. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_edges",
			Description: "Run Canny edge detection on the normalized chart and return the edge map as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Low hysteresis threshold (0-255). Default 50",
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "High hysteresis threshold (0-255). Default 150",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_calibrate",
			Description: "Detect the plot frame and tick marks, read the tick labels and fit a pixel-to-value transform per axis. Failed axes are reported with a reason.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"require_y2": map[string]interface{}{
						"type":        "boolean",
						"description": "Report the secondary y axis even when no right-hand axis line is found. Default false",
					},
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the chart with the frame and ticks drawn on it. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_extract_traces",
			Description: "Trace the plotted curves inside the frame, left to right, ordered top to bottom. Returns a summary per trace and optionally the points.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"expected": map[string]interface{}{
						"type":        "integer",
						"description": "Number of curves expected; 0 keeps every trace. Default 0",
					},
					"include_points": map[string]interface{}{
						"type":        "boolean",
						"description": "Include every pixel point of each trace. Default false",
					},
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the chart with the traces drawn on it. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_digitize",
			Description: "Run the full pipeline and return calibrated curves sampled on a shared flow grid, with per-sample provenance flags and warnings.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"curves": curvesProperty,
					"axes":   axesProperty,
					"grid_points": map[string]interface{}{
						"type":        "integer",
						"description": "Number of grid points. Default 100",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "chart_preview",
			Description: "Digitize the chart and plot the resulting curves, returned as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"curves": curvesProperty,
					"axes":   axesProperty,
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Preview width in pixels. Default 800",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Preview height in pixels. Default 500",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}
