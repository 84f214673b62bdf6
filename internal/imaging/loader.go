package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// MinDimension is the smallest width or height, in pixels, a chart may have.
const MinDimension = 50

// ErrInvalidImage is returned when the input cannot be decoded or has
// degenerate dimensions.
var ErrInvalidImage = errors.New("invalid image")

// ChartImage is a decoded chart raster together with its provenance.
//
// A ChartImage is immutable after Decode returns: the pixel buffer is a
// private copy and Pixels hands out that buffer for reading only.
type ChartImage struct {
	pix *image.NRGBA

	// Name is the caller-supplied name of the source (usually a filename).
	Name string

	// Format is the decoder that recognized the bytes: "png", "jpeg", ...
	Format string

	// SHA256 is the hex digest of the raw input bytes.
	SHA256 string

	// Width and Height are the image dimensions in pixels.
	Width  int
	Height int

	// ChannelDepth is the bit depth per channel of the source (8 or 16).
	ChannelDepth int

	// HasAlpha indicates whether the source color model carries alpha.
	HasAlpha bool
}

// Decode decodes an in-memory image buffer.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The returned
// error wraps ErrInvalidImage when data is not a decodable image or when
// either dimension is smaller than MinDimension.
func Decode(data []byte, name string) (*ChartImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidImage)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinDimension || bounds.Dy() < MinDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d below minimum %dx%d",
			ErrInvalidImage, bounds.Dx(), bounds.Dy(), MinDimension, MinDimension)
	}

	depth := 8
	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		depth = 16
	case *image.Gray16:
		depth = 16
	}

	sum := sha256.Sum256(data)

	return &ChartImage{
		pix:          imaging.Clone(img),
		Name:         name,
		Format:       format,
		SHA256:       hex.EncodeToString(sum[:]),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		ChannelDepth: depth,
		HasAlpha:     hasAlpha,
	}, nil
}

// FromImage wraps an already decoded image. It applies the same dimension
// checks as Decode; provenance is limited to name.
func FromImage(img image.Image, name string) (*ChartImage, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() < MinDimension || b.Dy() < MinDimension {
		return nil, fmt.Errorf("%w: dimensions %dx%d below minimum %dx%d",
			ErrInvalidImage, b.Dx(), b.Dy(), MinDimension, MinDimension)
	}
	return &ChartImage{
		pix:          imaging.Clone(img),
		Name:         name,
		Format:       "memory",
		Width:        b.Dx(),
		Height:       b.Dy(),
		ChannelDepth: 8,
	}, nil
}

// Pixels returns the decoded pixels. The result must not be modified.
func (c *ChartImage) Pixels() *image.NRGBA {
	return c.pix
}

// Info is a JSON-friendly summary of a ChartImage.
type Info struct {
	Name         string `json:"name"`
	Format       string `json:"format"`
	SHA256       string `json:"sha256"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ChannelDepth int    `json:"channel_depth"`
	HasAlpha     bool   `json:"has_alpha"`
}

// Info returns the image metadata.
func (c *ChartImage) Info() Info {
	return Info{
		Name:         c.Name,
		Format:       c.Format,
		SHA256:       c.SHA256,
		Width:        c.Width,
		Height:       c.Height,
		ChannelDepth: c.ChannelDepth,
		HasAlpha:     c.HasAlpha,
	}
}
