package digitizer

import "github.com/ironsheep/pump-curve-digitizer/internal/extract"

// Layout matches extracted traces to the requested curve labels.
type Layout interface {
	// Assign returns, for every label, the index into traces of the trace
	// it gets, or -1 when it gets none. A trace is assigned at most once.
	Assign(labels []string, traces []extract.CurveTrace) []int
}

// VerticalOrder assigns traces to labels in the order the extractor
// returns them: top to bottom at the middle of the plot. Labels must be
// listed in that order; surplus labels get no trace.
type VerticalOrder struct{}

func (VerticalOrder) Assign(labels []string, traces []extract.CurveTrace) []int {
	out := make([]int, len(labels))
	for i := range out {
		out[i] = -1
		if i < len(traces) {
			out[i] = i
		}
	}
	return out
}
