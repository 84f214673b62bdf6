package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// encodeTestImage renders a solid image with a dark square in the middle
// and returns its PNG bytes.
func encodeTestImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if x > width/4 && x < 3*width/4 && y > height/4 && y < 3*height/4 {
				c = color.NRGBA{20, 20, 20, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_Valid(t *testing.T) {
	data := encodeTestImage(t, 120, 80)

	ci, err := Decode(data, "chart.png")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ci.Width != 120 || ci.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 120x80", ci.Width, ci.Height)
	}
	if ci.Format != "png" {
		t.Errorf("Format: got %q, want png", ci.Format)
	}
	if ci.Name != "chart.png" {
		t.Errorf("Name: got %q", ci.Name)
	}
	if len(ci.SHA256) != 64 {
		t.Errorf("SHA256 should be 64 hex chars, got %q", ci.SHA256)
	}
	if ci.Pixels().Bounds() != image.Rect(0, 0, 120, 80) {
		t.Errorf("pixel bounds: got %v", ci.Pixels().Bounds())
	}
}

func TestDecode_Invalid(t *testing.T) {
	valid := encodeTestImage(t, 100, 100)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not an image")},
		{"truncated", valid[:len(valid)/3]},
		{"too small", encodeTestImage(t, 20, 20)},
		{"too narrow", encodeTestImage(t, 49, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci, err := Decode(tt.data, tt.name)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidImage) {
				t.Errorf("error should wrap ErrInvalidImage, got %v", err)
			}
			if ci != nil {
				t.Error("expected nil ChartImage on failure")
			}
		})
	}
}

func TestDecode_SameBytesSameDigest(t *testing.T) {
	data := encodeTestImage(t, 64, 64)
	a, err := Decode(data, "a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Decode(data, "b")
	if err != nil {
		t.Fatal(err)
	}
	if a.SHA256 != b.SHA256 {
		t.Errorf("digests differ for identical input: %s vs %s", a.SHA256, b.SHA256)
	}
}

func TestFromImage_RebasesBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 90, 90))
	ci, err := FromImage(img, "offset")
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if ci.Pixels().Bounds().Min != (image.Point{}) {
		t.Errorf("expected origin-based bounds, got %v", ci.Pixels().Bounds())
	}
	if _, err := FromImage(image.NewRGBA(image.Rect(0, 0, 10, 10)), "tiny"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage for tiny image, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	ci, err := Decode(encodeTestImage(t, 60, 70), "x.png")
	if err != nil {
		t.Fatal(err)
	}
	info := ci.Info()
	if info.Width != 60 || info.Height != 70 || info.Format != "png" || info.Name != "x.png" {
		t.Errorf("unexpected info %+v", info)
	}
}
