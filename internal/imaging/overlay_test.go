package imaging

import (
	"image"
	"image/color"
	"testing"
)

func blankCanvas() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 80, 60))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

func TestOverlay_RectAndCross(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	o := NewOverlay(blankCanvas())
	o.Rect(image.Rect(10, 10, 40, 30), red)
	o.Cross(image.Pt(60, 40), 3, red)

	img := o.Image()
	for _, p := range []image.Point{{10, 10}, {39, 10}, {10, 29}, {39, 29}, {60, 40}, {63, 40}, {60, 37}} {
		if img.RGBAAt(p.X, p.Y) != red {
			t.Errorf("expected red at %v, got %v", p, img.RGBAAt(p.X, p.Y))
		}
	}
	if img.RGBAAt(20, 20) == red {
		t.Error("Rect should only draw the outline")
	}
}

func TestOverlay_Polyline(t *testing.T) {
	blue := color.RGBA{0, 0, 255, 255}
	o := NewOverlay(blankCanvas())
	o.Polyline([]image.Point{{0, 0}, {20, 20}, {40, 20}}, blue)

	img := o.Image()
	for _, p := range []image.Point{{0, 0}, {10, 10}, {20, 20}, {30, 20}, {40, 20}} {
		if img.RGBAAt(p.X, p.Y) != blue {
			t.Errorf("expected blue at %v", p)
		}
	}
}

func TestOverlay_ClipsOutside(t *testing.T) {
	o := NewOverlay(blankCanvas())
	o.Polyline([]image.Point{{-10, -10}, {200, 200}}, color.Black)
	o.Label(70, 55, "1234", color.White, color.Black)
}

func TestOverlay_Label(t *testing.T) {
	o := NewOverlay(blankCanvas())
	o.Label(5, 5, "42", color.White, color.Black)

	dark := 0
	img := o.Image()
	for y := 5; y < 18; y++ {
		for x := 5; x < 19; x++ {
			if img.RGBAAt(x, y).R < 64 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("label background not drawn")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00ff00", color.RGBA{0, 255, 0, 255}, false},
		{"#0000FF80", color.RGBA{0, 0, 255, 128}, false},
		{"", color.RGBA{}, true},
		{"#FFF", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseHexColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
