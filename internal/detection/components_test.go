package detection

import (
	"image"
	"testing"
)

func TestComponents(t *testing.T) {
	m := NewMask(30, 30)
	// 2x2 block
	m.Set(5, 5, true)
	m.Set(6, 5, true)
	m.Set(5, 6, true)
	m.Set(6, 6, true)
	// Diagonal chain, connected only through corners
	for i := 0; i < 10; i++ {
		m.Set(15+i, 10+i, true)
	}
	// Isolated pixel
	m.Set(2, 25, true)

	comps := Components(m, 0)
	if len(comps) != 3 {
		t.Fatalf("got %d components, want 3", len(comps))
	}
	if comps[0].Size() != 4 || comps[0].Bounds != image.Rect(5, 5, 7, 7) {
		t.Errorf("block component: size %d bounds %v", comps[0].Size(), comps[0].Bounds)
	}
	if comps[1].Size() != 10 || comps[1].Bounds != image.Rect(15, 10, 25, 20) {
		t.Errorf("diagonal component: size %d bounds %v", comps[1].Size(), comps[1].Bounds)
	}

	if got := Components(m, 5); len(got) != 1 {
		t.Errorf("minSize 5: got %d components, want 1", len(got))
	}
}

func TestRemoveSmall(t *testing.T) {
	m := NewMask(40, 40)
	for x := 0; x < 30; x++ {
		m.Set(x, 20, true)
	}
	m.Set(5, 5, true)
	m.Set(6, 5, true)
	// A compact 5x5 blob, as a digit would be.
	for y := 30; y < 35; y++ {
		for x := 30; x < 35; x++ {
			m.Set(x, y, true)
		}
	}

	cleared := RemoveSmall(m, 3, image.Pt(6, 6))
	if cleared != 27 {
		t.Errorf("cleared %d pixels, want 27", cleared)
	}
	if m.Count() != 30 {
		t.Errorf("remaining ink %d, want 30", m.Count())
	}
}

func TestLargest(t *testing.T) {
	comps := []Component{
		{Pixels: make([]image.Point, 2)},
		{Pixels: make([]image.Point, 9)},
		{Pixels: make([]image.Point, 5)},
	}
	got := Largest(comps)
	if got[0].Size() != 9 || got[2].Size() != 2 {
		t.Errorf("unexpected order: %d %d %d", got[0].Size(), got[1].Size(), got[2].Size())
	}
	if comps[0].Size() != 2 {
		t.Error("Largest modified its input")
	}
}
