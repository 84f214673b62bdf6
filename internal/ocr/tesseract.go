//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	chartimg "github.com/ironsheep/pump-curve-digitizer/internal/imaging"
)

// Tesseract reads labels with the Tesseract engine.
//
// Every ReadText call uses its own gosseract client, so a single Tesseract
// value can be shared between goroutines.
type Tesseract struct {
	cfg Config
}

// NewTesseract returns a reader using cfg. Zero fields take their
// DefaultConfig values.
func NewTesseract(cfg Config) *Tesseract {
	def := DefaultConfig()
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Whitelist == "" {
		cfg.Whitelist = def.Whitelist
	}
	if cfg.Scale <= 0 {
		cfg.Scale = def.Scale
	}
	return &Tesseract{cfg: cfg}
}

type ocrResult struct {
	text string
	err  error
}

// ReadText crops region from img, enlarges it and recognizes a single line
// of text. It returns ctx.Err() if the deadline passes first; the engine
// call itself cannot be interrupted and finishes in the background.
func (t *Tesseract) ReadText(ctx context.Context, img image.Image, region image.Rectangle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	crop, err := chartimg.CropRegion(img, region, t.cfg.Scale)
	if err != nil {
		return "", err
	}
	data, err := chartimg.EncodePNG(crop)
	if err != nil {
		return "", err
	}

	done := make(chan ocrResult, 1)
	go func() {
		text, err := t.recognize(data)
		done <- ocrResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

func (t *Tesseract) recognize(png []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set page segmentation: %w", err)
	}
	if err := client.SetWhitelist(t.cfg.Whitelist); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Info reports the engine version, or why it is unusable.
func (t *Tesseract) Info() Info {
	info := Info{
		Backend:        "gosseract",
		Language:       t.cfg.Language,
		TessdataPrefix: t.cfg.TessdataPrefix,
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.cfg.TessdataPrefix); err != nil {
			info.Error = err.Error()
			return info
		}
	}
	info.Version = client.Version()
	info.Available = info.Version != ""
	if !info.Available {
		info.Error = ErrUnavailable.Error()
	}
	return info
}
