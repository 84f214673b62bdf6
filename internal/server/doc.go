// Package server implements the MCP (Model Context Protocol) server that
// exposes the pump curve digitizer to AI assistants.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Inspection:
//   - chart_load: Load a chart and get its metadata
//   - chart_preprocess: Normalize a chart to grayscale
//   - chart_edges: Canny edge map of the normalized chart
//
// Pipeline stages:
//   - chart_calibrate: Frame, ticks and axis transforms
//   - chart_extract_traces: Pixel-space curve traces
//
// Full runs:
//   - chart_digitize: Calibrated curves on a shared flow grid
//   - chart_preview: Re-plot of the digitized curves
//
// # Caching
//
// Chart files are read once per path and kept with their normalized
// raster, so a client can call the stage tools one after another on the
// same chart without repeating the work.
//
// # Error Handling
//
// Errors are returned as JSON-RPC error responses:
//   - -32700: Parse error (invalid JSON)
//   - -32601: Method not found
//   - -32602: Invalid params
//   - -32000: Invalid image, or tool execution failed
package server
