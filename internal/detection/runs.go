package detection

// Run is a contiguous stretch of ink along a row or column. Start and End
// are inclusive.
type Run struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of pixels in the run.
func (r Run) Len() int { return r.End - r.Start + 1 }

// Center returns the midpoint of the run.
func (r Run) Center() float64 { return float64(r.Start+r.End) / 2 }

// RowRuns returns the ink runs of row y between x0 and x1 inclusive.
func RowRuns(m *Mask, y, x0, x1 int) []Run {
	var runs []Run
	inRun := false
	start := 0
	for x := x0; x <= x1; x++ {
		if m.At(x, y) {
			if !inRun {
				start = x
				inRun = true
			}
		} else if inRun {
			runs = append(runs, Run{Start: start, End: x - 1})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, Run{Start: start, End: x1})
	}
	return runs
}

// ColumnRuns returns the ink runs of column x between y0 and y1 inclusive.
func ColumnRuns(m *Mask, x, y0, y1 int) []Run {
	var runs []Run
	inRun := false
	start := 0
	for y := y0; y <= y1; y++ {
		if m.At(x, y) {
			if !inRun {
				start = y
				inRun = true
			}
		} else if inRun {
			runs = append(runs, Run{Start: start, End: y - 1})
			inRun = false
		}
	}
	if inRun {
		runs = append(runs, Run{Start: start, End: y1})
	}
	return runs
}

// longest returns the longest run, preferring the first on ties.
func longest(runs []Run) (Run, bool) {
	if len(runs) == 0 {
		return Run{}, false
	}
	best := runs[0]
	for _, r := range runs[1:] {
		if r.Len() > best.Len() {
			best = r
		}
	}
	return best, true
}
