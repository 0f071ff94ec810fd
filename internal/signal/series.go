package signal

import (
	"math"
	"slices"
)

// Series is a single-column signal.
type Series struct {
	Times  []float64
	Values []float64
}

func (s *Series) Len() int {
	return len(s.Times)
}

// DropNaN returns the points whose value is known.
func (s *Series) DropNaN() *Series {
	out := &Series{}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Times = append(out.Times, s.Times[i])
		out.Values = append(out.Values, v)
	}

	return out
}

// DropConsecutiveDuplicates keeps the first point of every run of equal
// values. NaN never equals anything, so NaN points are always kept.
func (s *Series) DropConsecutiveDuplicates() *Series {
	out := &Series{}
	for i, v := range s.Values {
		if i > 0 && s.Values[i-1] == v {
			continue
		}
		out.Times = append(out.Times, s.Times[i])
		out.Values = append(out.Values, v)
	}

	return out
}

// Align reindexes a and b onto the union of their timestamps, forward-filling
// each from its own latest earlier point.
func Align(a, b *Series) (times, av, bv []float64) {
	times = make([]float64, 0, len(a.Times)+len(b.Times))
	times = append(times, a.Times...)
	times = append(times, b.Times...)
	slices.Sort(times)
	times = slices.Compact(times)

	return times, reindex(a, times), reindex(b, times)
}

func reindex(s *Series, times []float64) []float64 {
	out := make([]float64, len(times))
	j := -1
	for i, t := range times {
		for j+1 < len(s.Times) && s.Times[j+1] <= t {
			j++
		}
		if j < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = s.Values[j]
	}

	return out
}
