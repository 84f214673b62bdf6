package extract

import (
	"image"

	"github.com/ironsheep/pump-curve-digitizer/internal/detection"
	"github.com/ironsheep/pump-curve-digitizer/internal/imaging"
)

const hueBins = 36

// layer is a subset of the ink traced independently.
type layer struct {
	mask   *detection.Mask
	hue    float64
	hasHue bool
}

// splitLayers separates the ink of m by hue when most of it is chromatic.
// colors holds the source pixels; off maps m's coordinates onto it.
func splitLayers(m *detection.Mask, colors *image.NRGBA, off image.Point, opts Options) []layer {
	single := []layer{{mask: m}}
	if colors == nil {
		return single
	}

	hues := make([]float64, len(m.Pix))
	chromatic := make([]bool, len(m.Pix))
	var hist [hueBins]int
	ink, nChroma := 0, 0

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if !m.Pix[i] {
				continue
			}
			ink++
			h, c, ok := imaging.InkHue(colors.NRGBAAt(x+off.X, y+off.Y))
			if !ok || c < opts.ChromaThreshold {
				continue
			}
			hues[i] = h
			chromatic[i] = true
			nChroma++
			hist[hueBin(h)]++
		}
	}
	if ink == 0 || nChroma*2 < ink {
		return single
	}

	peaks := huePeaks(hist, int(opts.MinHueShare*float64(nChroma)))
	if len(peaks) == 0 {
		return single
	}

	layers := make([]layer, len(peaks))
	for k, h := range peaks {
		layers[k] = layer{mask: detection.NewMask(m.Width, m.Height), hue: h, hasHue: true}
	}
	gray := detection.NewMask(m.Width, m.Height)
	nGray := 0

	for i, isInk := range m.Pix {
		if !isInk {
			continue
		}
		if !chromatic[i] {
			gray.Pix[i] = true
			nGray++
			continue
		}
		best, dist := 0, 181.0
		for k, h := range peaks {
			if d := imaging.HueDistance(hues[i], h); d < dist {
				best, dist = k, d
			}
		}
		layers[best].mask.Pix[i] = true
	}

	if nGray*10 >= ink {
		layers = append(layers, layer{mask: gray})
	}
	return layers
}

func hueBin(h float64) int {
	b := int(h / (360.0 / hueBins))
	if b < 0 {
		b = 0
	}
	if b >= hueBins {
		b = hueBins - 1
	}
	return b
}

// huePeaks returns the centre hue of every local maximum of the smoothed
// circular histogram whose raw count reaches minCount.
func huePeaks(hist [hueBins]int, minCount int) []float64 {
	if minCount < 1 {
		minCount = 1
	}
	var smooth [hueBins]int
	for i := range hist {
		smooth[i] = hist[(i+hueBins-1)%hueBins] + 2*hist[i] + hist[(i+1)%hueBins]
	}

	var peaks []float64
	for i := range smooth {
		l := smooth[(i+hueBins-1)%hueBins]
		r := smooth[(i+1)%hueBins]
		if smooth[i] > l && smooth[i] >= r && hist[i]+hist[(i+hueBins-1)%hueBins]+hist[(i+1)%hueBins] >= minCount {
			peaks = append(peaks, (float64(i)+0.5)*(360.0/hueBins))
		}
	}
	return peaks
}
