package detection

import (
	"image"
	"image/color"
)

// createGray creates a white grayscale image.
func createGray(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// fillRect paints the inclusive rectangle (x0,y0)-(x1,y1) black.
func fillRect(img *image.Gray, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetGray(x, y, color.Gray{0})
		}
	}
}

// createChartFrame draws a 2 px plot frame with left x=60, bottom y=250,
// right x=380 and top y=30 on a 400x300 canvas, plus outward ticks.
func createChartFrame(closed bool) *image.Gray {
	img := createGray(400, 300)
	fillRect(img, 60, 30, 61, 251)   // left
	fillRect(img, 60, 250, 381, 251) // bottom
	if closed {
		fillRect(img, 380, 30, 381, 251) // right
		fillRect(img, 60, 30, 381, 31)   // top
	}
	for _, x := range []int{60, 140, 220, 300, 380} {
		fillRect(img, x, 252, x+1, 257)
	}
	for _, y := range []int{250, 190, 130, 70} {
		fillRect(img, 54, y, 59, y+1)
	}
	return img
}
