package detection

import (
	"image"
	"sort"
)

// Component is a set of 8-connected ink pixels.
type Component struct {
	Bounds image.Rectangle
	Pixels []image.Point
}

// Size returns the number of pixels in the component.
func (c Component) Size() int { return len(c.Pixels) }

// Components finds the 8-connected ink components of m, ordered by the
// position of their first pixel in row-major order. Components smaller than
// minSize pixels are skipped.
func Components(m *Mask, minSize int) []Component {
	visited := make([]bool, len(m.Pix))
	var comps []Component

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if !m.Pix[i] || visited[i] {
				continue
			}
			c := floodFill(m, visited, x, y)
			if c.Size() >= minSize {
				comps = append(comps, c)
			}
		}
	}
	return comps
}

// RemoveSmall clears every component whose pixel count is below minSize or
// whose bounding box fits inside maxBox (when maxBox is non-zero). It
// returns the number of pixels cleared.
func RemoveSmall(m *Mask, minSize int, maxBox image.Point) int {
	cleared := 0
	for _, c := range Components(m, 0) {
		small := c.Size() < minSize
		boxed := maxBox != (image.Point{}) && c.Bounds.Dx() <= maxBox.X && c.Bounds.Dy() <= maxBox.Y
		if !small && !boxed {
			continue
		}
		for _, p := range c.Pixels {
			m.Set(p.X, p.Y, false)
		}
		cleared += c.Size()
	}
	return cleared
}

// Largest returns the components sorted by size, largest first. Equal sizes
// keep their scan order.
func Largest(comps []Component) []Component {
	out := make([]Component, len(comps))
	copy(out, comps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Size() > out[j].Size()
	})
	return out
}

// floodFill performs an iterative 8-connected flood fill from (startX,
// startY), marking visited pixels and collecting them into a component.
func floodFill(m *Mask, visited []bool, startX, startY int) Component {
	stack := []image.Point{{X: startX, Y: startY}}
	c := Component{Bounds: image.Rect(startX, startY, startX+1, startY+1)}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
			continue
		}
		i := p.Y*m.Width + p.X
		if visited[i] || !m.Pix[i] {
			continue
		}

		visited[i] = true
		c.Pixels = append(c.Pixels, p)
		c.Bounds = c.Bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return c
}
