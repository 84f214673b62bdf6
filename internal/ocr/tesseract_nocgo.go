//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// Tesseract is a placeholder in builds without cgo; every call fails with
// ErrUnavailable.
type Tesseract struct {
	cfg Config
}

// NewTesseract returns a reader that is never available.
func NewTesseract(cfg Config) *Tesseract {
	if cfg.Language == "" {
		cfg.Language = DefaultConfig().Language
	}
	return &Tesseract{cfg: cfg}
}

// ReadText always fails with ErrUnavailable.
func (t *Tesseract) ReadText(ctx context.Context, _ image.Image, _ image.Rectangle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrUnavailable
}

// Info reports that the engine was not compiled in.
func (t *Tesseract) Info() Info {
	return Info{
		Backend:  "none (built without cgo)",
		Language: t.cfg.Language,
		Error:    ErrUnavailable.Error(),
	}
}
