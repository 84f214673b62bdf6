// Package main provides the pumpcurve command: a CLI that digitizes pump
// performance charts, plus the MCP and HTTP servers around the same core.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/pump-curve-digitizer/internal/logging"
	"github.com/ironsheep/pump-curve-digitizer/internal/ocr"
	"github.com/ironsheep/pump-curve-digitizer/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Logs go to stderr; stdout carries results and the MCP protocol.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	server.Version = Version

	rootCmd := &cobra.Command{
		Use:   "pumpcurve",
		Short: "Digitize pump performance charts",
		Long: `pumpcurve reads a raster pump performance chart (head, efficiency and
power against flow), calibrates its axes from the tick labels and returns the
curves as calibrated samples on a shared flow grid.

Environment variables:
  PUMPCURVE_LOG_LEVEL=debug        Enable debug logging
  PUMPCURVE_TESSDATA_PREFIX=<dir>  Tesseract traineddata directory
  PUMPCURVE_OCR_LANG=<code>        Tesseract language (default eng)`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newDigitizeCmd(), newMCPCmd(), newServeCmd(), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger returns the stderr logger, with debug output when
// PUMPCURVE_LOG_LEVEL=debug.
func newLogger() logging.Logger {
	return logging.NewStd(log.Default(), os.Getenv("PUMPCURVE_LOG_LEVEL") == "debug")
}

// newReader returns the Tesseract tick label reader configured from the
// environment.
func newReader() ocr.Reader {
	cfg := ocr.DefaultConfig()
	if lang := os.Getenv("PUMPCURVE_OCR_LANG"); lang != "" {
		cfg.Language = lang
	}
	cfg.TessdataPrefix = os.Getenv("PUMPCURVE_TESSDATA_PREFIX")
	return ocr.NewTesseract(cfg)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pumpcurve %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  OCR: %+v\n", ocr.NewTesseract(ocr.DefaultConfig()).Info())
		},
	}
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the chart tools over MCP on stdin/stdout",
		Long: `mcp runs the Model Context Protocol server. Configure it in your MCP
client (e.g., Claude Desktop); it communicates over stdin/stdout.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			logger := newLogger()
			logger.Debug("starting MCP server",
				logging.String("version", Version),
				logging.String("built", BuildTime),
				logging.String("commit", GitCommit))

			srv := server.New(newReader(), logger)
			if err := srv.Run(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}
