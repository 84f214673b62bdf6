package imaging

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// InkHue returns the HCL hue (degrees, 0-360) and chroma of c.
//
// ok is false for fully transparent pixels, which carry no color.
// Achromatic pixels (black, white, grays) report a chroma near zero and an
// arbitrary hue.
func InkHue(c color.Color) (hue, chroma float64, ok bool) {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 0, 0, false
	}
	h, ch, _ := cf.Hcl()
	return h, ch, true
}

// HueDistance returns the angular distance between two hues in degrees (0-180).
func HueDistance(a, b float64) float64 {
	d := a - b
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

// HueColor returns an opaque, saturated color for a hue, used when
// rendering curves that were separated by hue.
func HueColor(hue float64) color.RGBA {
	c := colorful.Hcl(hue, 0.8, 0.55).Clamped()
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// HexColor formats c as #RRGGBB.
func HexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
