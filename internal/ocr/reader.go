package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrUnavailable is returned when the OCR engine is not compiled in or
// cannot be initialized.
var ErrUnavailable = errors.New("ocr engine unavailable")

// Reader recognizes the text inside region of img.
//
// Implementations must honour ctx cancellation and must be safe for
// concurrent use.
type Reader interface {
	ReadText(ctx context.Context, img image.Image, region image.Rectangle) (string, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, img image.Image, region image.Rectangle) (string, error)

// ReadText calls f.
func (f ReaderFunc) ReadText(ctx context.Context, img image.Image, region image.Rectangle) (string, error) {
	return f(ctx, img, region)
}

// Config configures the Tesseract reader.
type Config struct {
	// Language is the Tesseract language code.
	Language string

	// TessdataPrefix overrides the traineddata directory when non-empty.
	TessdataPrefix string

	// Whitelist restricts recognized characters.
	Whitelist string

	// Scale enlarges label crops before recognition. Tesseract is most
	// accurate with glyphs around 30 px tall; chart labels are often 8-12.
	Scale float64
}

// DefaultConfig returns the configuration used for tick labels.
func DefaultConfig() Config {
	return Config{
		Language:  "eng",
		Whitelist: "0123456789.,-",
		Scale:     3,
	}
}

// Info describes the OCR backend.
type Info struct {
	Available      bool   `json:"available"`
	Backend        string `json:"backend"`
	Version        string `json:"version,omitempty"`
	Language       string `json:"language"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
	Error          string `json:"error,omitempty"`
}
