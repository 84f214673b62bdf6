package extract

import (
	"context"
	"math"
	"sort"

	"github.com/ironsheep/pump-curve-digitizer/internal/detection"
)

// ctxCheckColumns is how often, in columns, the tracker polls ctx.
const ctxCheckColumns = 64

type track struct {
	points []Point
	lastX  int
}

// predict extrapolates the track's recent slope to column x.
func (t *track) predict(x int) float64 {
	last := t.points[len(t.points)-1]
	return last.Y + endSlope(t.points)*float64(x-last.X)
}

func (t *track) add(p Point) {
	t.points = append(t.points, p)
	t.lastX = p.X
}

// candidate is a possible track/run assignment in one column.
type candidate struct {
	track, run int
	cost, pred float64
}

// trackColumns follows curves left to right through m and returns the
// resulting fragments in the order they were closed.
//
// Every column's vertical runs are matched to the active tracks in global
// order of prediction error, so a track takes the run that best continues
// it rather than the nearest pixel. Runs taller than tallRun may be claimed
// by several tracks; those columns become Ambiguous points for each of them.
func trackColumns(ctx context.Context, m *detection.Mask, opts Options) ([][]Point, error) {
	tallRun := opts.ThickRunFactor * typicalThickness(m)

	var (
		active []*track
		done   [][]Point
	)
	for x := 0; x < m.Width; x++ {
		if x%ctxCheckColumns == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		kept := active[:0]
		for _, t := range active {
			if x-t.lastX-1 > opts.MaxGap {
				done = append(done, t.points)
				continue
			}
			kept = append(kept, t)
		}
		active = kept

		runs := detection.ColumnRuns(m, x, 0, m.Height-1)
		if len(runs) == 0 {
			continue
		}

		var cands []candidate
		for ti, t := range active {
			pred := t.predict(x)
			limit := opts.MaxJump + float64(x-t.lastX-1)/2
			for ri, r := range runs {
				var cost float64
				if float64(r.Len()) > tallRun {
					cost = distToRun(pred, r)
				} else {
					cost = math.Abs(pred - r.Center())
				}
				if cost <= limit {
					cands = append(cands, candidate{track: ti, run: ri, cost: cost, pred: pred})
				}
			}
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].cost != cands[j].cost {
				return cands[i].cost < cands[j].cost
			}
			if cands[i].track != cands[j].track {
				return cands[i].track < cands[j].track
			}
			return cands[i].run < cands[j].run
		})

		assigned := make([]int, len(active))
		preds := make([]float64, len(active))
		for i := range assigned {
			assigned[i] = -1
		}
		claims := make([]int, len(runs))
		for _, c := range cands {
			if assigned[c.track] >= 0 {
				continue
			}
			if claims[c.run] > 0 && float64(runs[c.run].Len()) <= tallRun {
				continue
			}
			assigned[c.track] = c.run
			preds[c.track] = c.pred
			claims[c.run]++
		}

		for ti, t := range active {
			ri := assigned[ti]
			if ri < 0 {
				continue
			}
			r := runs[ri]
			if claims[ri] > 1 {
				y := math.Max(float64(r.Start), math.Min(float64(r.End), preds[ti]))
				t.add(Point{X: x, Y: y, Kind: Ambiguous})
			} else {
				t.add(Point{X: x, Y: r.Center(), Kind: Observed})
			}
		}
		for ri, r := range runs {
			if claims[ri] == 0 {
				active = append(active, &track{
					points: []Point{{X: x, Y: r.Center(), Kind: Observed}},
					lastX:  x,
				})
			}
		}
	}
	for _, t := range active {
		done = append(done, t.points)
	}
	return done, nil
}

// typicalThickness is the median vertical run length in m, at least 1.
func typicalThickness(m *detection.Mask) float64 {
	var lens []int
	for x := 0; x < m.Width; x++ {
		for _, r := range detection.ColumnRuns(m, x, 0, m.Height-1) {
			lens = append(lens, r.Len())
		}
	}
	if len(lens) == 0 {
		return 1
	}
	sort.Ints(lens)
	return math.Max(1, float64(lens[len(lens)/2]))
}

func distToRun(y float64, r detection.Run) float64 {
	switch {
	case y < float64(r.Start):
		return float64(r.Start) - y
	case y > float64(r.End):
		return y - float64(r.End)
	}
	return 0
}
