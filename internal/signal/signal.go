// Package signal reconstructs dense, forward-filled per-entity time series
// from sparse trace events and integrates them over time.
package signal

import (
	"cmp"
	"math"
	"slices"
	"sort"
)

// Point is one raw observation of an entity.
type Point[K cmp.Ordered] struct {
	Time  float64
	Seq   int
	Key   K
	Value float64
}

// Signal is a dense table: one row per timestamp at which any entity changed,
// one column per entity. Unknown values are NaN.
type Signal[K cmp.Ordered] struct {
	times []float64
	keys  []K
	cols  [][]float64 // cols[column][row]
}

// New builds a Signal from already dense data; cols[i] belongs to keys[i].
// Columns are reordered so that keys are ascending.
func New[K cmp.Ordered](times []float64, keys []K, cols [][]float64) *Signal[K] {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	s := &Signal[K]{
		times: slices.Clone(times),
		keys:  make([]K, len(keys)),
		cols:  make([][]float64, len(keys)),
	}
	for i, o := range order {
		s.keys[i] = keys[o]
		s.cols[i] = slices.Clone(cols[o])
	}

	return s
}

// Build pivots points into a Signal. For equal (Time, Key) the point with the
// highest Seq wins. Each column is forward-filled, and every entity in known
// that has no point gets an all-NaN column.
func Build[K cmp.Ordered](points []Point[K], known []K) *Signal[K] {
	pts := slices.Clone(points)
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].Time != pts[j].Time {
			return pts[i].Time < pts[j].Time
		}
		return pts[i].Seq < pts[j].Seq
	})

	var times []float64
	for _, p := range pts {
		if len(times) == 0 || times[len(times)-1] != p.Time {
			times = append(times, p.Time)
		}
	}

	keySet := make(map[K]struct{}, len(known))
	for _, k := range known {
		keySet[k] = struct{}{}
	}
	for _, p := range pts {
		keySet[p.Key] = struct{}{}
	}
	keys := make([]K, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	colOf := make(map[K]int, len(keys))
	cols := make([][]float64, len(keys))
	for i, k := range keys {
		colOf[k] = i
		cols[i] = nanSlice(len(times))
	}

	row := -1
	for i, p := range pts {
		if i == 0 || pts[i-1].Time != p.Time {
			row++
		}
		cols[colOf[p.Key]][row] = p.Value
	}

	for _, c := range cols {
		forwardFill(c)
	}

	return &Signal[K]{times: times, keys: keys, cols: cols}
}

// Len returns the number of rows.
func (s *Signal[K]) Len() int {
	return len(s.times)
}

// Times returns the row timestamps. The slice must not be modified.
func (s *Signal[K]) Times() []float64 {
	return s.times
}

// Keys returns the column entities in ascending order.
func (s *Signal[K]) Keys() []K {
	return s.keys
}

// Column returns the series of one entity.
func (s *Signal[K]) Column(k K) (*Series, bool) {
	i, ok := slices.BinarySearch(s.keys, k)
	if !ok {
		return nil, false
	}

	return &Series{Times: slices.Clone(s.times), Values: slices.Clone(s.cols[i])}, true
}

// Row returns the values of row i in column order.
func (s *Signal[K]) Row(i int) []float64 {
	out := make([]float64, len(s.keys))
	for c := range s.cols {
		out[c] = s.cols[c][i]
	}

	return out
}

// At returns the row in effect at time t: the latest row at or before t.
// Before the first row every value is NaN.
func (s *Signal[K]) At(t float64) []float64 {
	i := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t }) - 1
	if i < 0 {
		return nanSlice(len(s.keys))
	}

	return s.Row(i)
}

// Select returns a Signal restricted to the given entities. Entities that are
// not columns of s come back as all-NaN columns.
func (s *Signal[K]) Select(keys []K) *Signal[K] {
	cols := make([][]float64, len(keys))
	for i, k := range keys {
		if c, ok := slices.BinarySearch(s.keys, k); ok {
			cols[i] = s.cols[c]
		} else {
			cols[i] = nanSlice(len(s.times))
		}
	}

	return New(s.times, keys, cols)
}

// Map applies fn to every known value; NaN stays NaN.
func (s *Signal[K]) Map(fn func(float64) float64) *Signal[K] {
	cols := make([][]float64, len(s.cols))
	for c, col := range s.cols {
		cols[c] = make([]float64, len(col))
		for i, v := range col {
			if math.IsNaN(v) {
				cols[c][i] = v
				continue
			}
			cols[c][i] = fn(v)
		}
	}

	return &Signal[K]{times: slices.Clone(s.times), keys: slices.Clone(s.keys), cols: cols}
}

// Reduce folds every row into a single value.
func (s *Signal[K]) Reduce(fn func(row []float64) float64) *Series {
	out := &Series{Times: slices.Clone(s.times), Values: make([]float64, len(s.times))}
	for i := range s.times {
		out.Values[i] = fn(s.Row(i))
	}

	return out
}

func forwardFill(vals []float64) {
	last := math.NaN()
	for i, v := range vals {
		if math.IsNaN(v) {
			vals[i] = last
			continue
		}
		last = v
	}
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}
