package signal

import "fmt"

// Window is the closed time range [Start, End] signals are clipped to.
type Window struct {
	Start float64
	End   float64
}

func (w Window) String() string {
	return fmt.Sprintf("[%g, %g]", w.Start, w.End)
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}

// Extrude clips s to w. Rows inside the window are kept; when the first kept
// row is later than w.Start (or nothing is kept) a row is synthesized at
// w.Start, and likewise at w.End. Synthesized rows take the value in effect
// at that time in the unclipped signal, so a state entered before the window
// still shows at its start.
func (s *Signal[K]) Extrude(w Window) *Signal[K] {
	first, last := -1, -1
	for i, t := range s.times {
		if !w.Contains(t) {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}

	out := &Signal[K]{keys: s.keys, cols: make([][]float64, len(s.keys))}

	addRow := func(t float64, vals []float64) {
		out.times = append(out.times, t)
		for c := range out.cols {
			out.cols[c] = append(out.cols[c], vals[c])
		}
	}

	if first < 0 || s.times[first] > w.Start {
		addRow(w.Start, s.At(w.Start))
	}
	if first >= 0 {
		for i := first; i <= last; i++ {
			addRow(s.times[i], s.Row(i))
		}
	}
	if (first < 0 && w.End != w.Start) || (first >= 0 && s.times[last] < w.End) {
		addRow(w.End, s.At(w.End))
	}

	return out
}

