package detection

import (
	"image"
	"image/color"
	"testing"
)

func TestOtsuThreshold_Bimodal(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			v := uint8(220)
			if x < 30 {
				v = 40
			}
			img.SetGray(x, y, color.Gray{v})
		}
	}

	th := OtsuThreshold(img)
	if th <= 40 || th > 220 {
		t.Errorf("threshold %d should separate 40 from 220", th)
	}
}

func TestInkThreshold_Clamped(t *testing.T) {
	img := createGray(60, 60)
	fillRect(img, 10, 10, 12, 50)

	th := InkThreshold(img)
	if th < MinInkThreshold || th > MaxInkThreshold {
		t.Errorf("threshold %d outside [%d, %d]", th, MinInkThreshold, MaxInkThreshold)
	}

	// Uniform images have no class split and still produce a usable value.
	if th := InkThreshold(createGray(60, 60)); th < MinInkThreshold || th > MaxInkThreshold {
		t.Errorf("uniform threshold %d outside clamp range", th)
	}
}

func TestBinarize(t *testing.T) {
	img := createGray(20, 10)
	fillRect(img, 5, 2, 7, 4)
	img.SetGray(15, 5, color.Gray{100})

	m := Binarize(img, 128)
	if m.Width != 20 || m.Height != 10 {
		t.Fatalf("size: got %dx%d", m.Width, m.Height)
	}
	if got := m.Count(); got != 10 {
		t.Errorf("ink count: got %d, want 10", got)
	}
	if !m.At(6, 3) || !m.At(15, 5) {
		t.Error("expected ink at (6,3) and (15,5)")
	}
	if m.At(0, 0) || m.At(-1, 3) || m.At(25, 3) {
		t.Error("unexpected ink at background or out-of-range pixel")
	}
}

func TestMask_CloneAndCrop(t *testing.T) {
	m := NewMask(10, 10)
	m.Set(3, 4, true)
	m.Set(8, 8, true)

	c := m.Clone()
	c.Set(3, 4, false)
	if !m.At(3, 4) {
		t.Error("Clone shares storage with the original")
	}

	sub, off := m.Crop(image.Rect(2, 3, 6, 7))
	if off != image.Pt(2, 3) {
		t.Errorf("offset: got %v", off)
	}
	if sub.Width != 4 || sub.Height != 4 {
		t.Errorf("crop size: got %dx%d", sub.Width, sub.Height)
	}
	if !sub.At(1, 1) || sub.Count() != 1 {
		t.Error("crop lost or gained ink")
	}
}
