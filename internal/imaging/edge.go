package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// cannySigma is the smoothing applied before the gradient.
const cannySigma = 1.4

// EdgeDetect runs Canny edge detection on a normalized chart and returns
// a mask of the same size: 255 on edge pixels, 0 elsewhere.
//
// thresholdLow and thresholdHigh are gradient magnitudes on a 0-255 scale.
// Pixels above thresholdHigh seed edges; pixels above thresholdLow join an
// edge only when connected to a seed through other such pixels. 50/150
// suits printed line art.
func EdgeDetect(gray *image.Gray, thresholdLow, thresholdHigh int) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w < 3 || h < 3 {
		return out
	}

	smooth := toGray(imaging.Blur(gray, cannySigma))
	mag, dir := sobel(smooth, w, h)
	thin := suppress(mag, dir, w, h)

	lo := float64(thresholdLow) / 255
	hi := float64(thresholdHigh) / 255

	// Hysteresis: flood from strong pixels through weak ones.
	var stack []int
	for i, v := range thin {
		if v >= hi {
			out.Pix[i/w*out.Stride+i%w] = 255
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				p := ny*out.Stride + nx
				if out.Pix[p] == 0 && thin[j] >= lo {
					out.Pix[p] = 255
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// sobel returns the gradient magnitude (intensities scaled to 0..1) and
// its direction in 45 degree bins, 0 being a gradient along +x.
func sobel(g *image.Gray, w, h int) ([]float64, []uint8) {
	at := func(x, y int) float64 {
		x = clamp(x, 0, w-1)
		y = clamp(y, 0, h-1)
		return float64(g.Pix[y*g.Stride+x]) / 255
	}

	mag := make([]float64, w*h)
	dir := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			i := y*w + x
			mag[i] = math.Hypot(gx, gy)

			// Fold the angle into [0, 180) and bin it in 45 degree steps.
			deg := math.Atan2(gy, gx) * 180 / math.Pi
			if deg < 0 {
				deg += 180
			}
			dir[i] = uint8(int((deg+22.5)/45) % 4)
		}
	}
	return mag, dir
}

// suppress keeps only pixels that are local maxima across the edge.
func suppress(mag []float64, dir []uint8, w, h int) []float64 {
	// Neighbour offsets along the gradient for each direction bin.
	step := [4][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}}

	out := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			s := step[dir[i]]
			a := mag[(y+s[1])*w+x+s[0]]
			b := mag[(y-s[1])*w+x-s[0]]
			if mag[i] >= a && mag[i] >= b {
				out[i] = mag[i]
			}
		}
	}
	return out
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
