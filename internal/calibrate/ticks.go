package calibrate

import (
	"sort"

	"github.com/ironsheep/pump-curve-digitizer/internal/detection"
)

// Tick is a tick mark detected along an axis line.
type Tick struct {
	// Pos is the tick centre along the axis (column for horizontal axes,
	// row for vertical ones).
	Pos float64 `json:"pos"`

	// Length is how far the tick extends from the axis line.
	Length int `json:"length"`

	// Outward is false for ticks found on the plot side of the line.
	Outward bool `json:"outward"`
}

// maxTickWidth is the widest run of adjacent tick columns accepted as one
// tick; wider groups are label glyphs or curves touching the line.
const maxTickWidth = 5

// findTicks returns the ticks on one side of an axis band. horizontal says
// the band is a horizontal line; side is +1 for ticks below/right of it and
// -1 for above/left.
func findTicks(m *detection.Mask, band detection.Band, horizontal bool, side, minLen, maxLen int, outward bool) []Tick {
	start := band.Hi + 1
	if side < 0 {
		start = band.Lo - 1
	}

	var ticks []Tick
	groupStart, groupLen := -1, 0
	flush := func(end int) {
		if groupStart < 0 {
			return
		}
		if end-groupStart+1 <= maxTickWidth {
			ticks = append(ticks, Tick{
				Pos:     float64(groupStart+end) / 2,
				Length:  groupLen,
				Outward: outward,
			})
		}
		groupStart, groupLen = -1, 0
	}

	for a := band.Start; a <= band.End; a++ {
		l := perpendicularRun(m, a, start, side, horizontal, maxLen+1)
		if l >= minLen && l <= maxLen {
			if groupStart < 0 {
				groupStart = a
			}
			if l > groupLen {
				groupLen = l
			}
			continue
		}
		flush(a - 1)
	}
	flush(band.End)
	return ticks
}

// perpendicularRun counts consecutive ink pixels starting at start and
// moving in direction dir across the axis, stopping after limit pixels.
func perpendicularRun(m *detection.Mask, along, start, dir int, horizontal bool, limit int) int {
	n := 0
	for k := 0; k < limit; k++ {
		p := start + k*dir
		var ink bool
		if horizontal {
			ink = m.At(along, p)
		} else {
			ink = m.At(p, along)
		}
		if !ink {
			break
		}
		n++
	}
	return n
}

// detectTicks prefers outward ticks and, when allowed, falls back to
// inward ticks if fewer than two outward ones exist.
func detectTicks(m *detection.Mask, band detection.Band, horizontal bool, outwardSide int, allowInward bool, opts Options) []Tick {
	ticks := findTicks(m, band, horizontal, outwardSide, opts.MinTickLength, opts.MaxTickLength, true)
	if len(ticks) >= 2 || !allowInward {
		return ticks
	}
	inward := findTicks(m, band, horizontal, -outwardSide, opts.MinTickLength, opts.MaxTickLength, false)
	if len(inward) > len(ticks) {
		return inward
	}
	return ticks
}

// medianSpacing returns the median gap between tick centres, or fallback
// when there are fewer than two ticks.
func medianSpacing(ticks []Tick, fallback float64) float64 {
	if len(ticks) < 2 {
		return fallback
	}
	gaps := make([]float64, len(ticks)-1)
	for i := 1; i < len(ticks); i++ {
		gaps[i-1] = ticks[i].Pos - ticks[i-1].Pos
	}
	sort.Float64s(gaps)
	return gaps[len(gaps)/2]
}
