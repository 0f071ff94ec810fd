package signal

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// IntegrateSquareWave integrates s as a step function: each value holds until
// the next sample, so the last sample contributes nothing. Intervals starting
// on a NaN value contribute nothing either.
func IntegrateSquareWave(s *Series) float64 {
	n := s.Len()
	if n < 2 {
		return 0
	}

	widths := make([]float64, n-1)
	heights := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		widths[i] = s.Times[i+1] - s.Times[i]
		if !math.IsNaN(s.Values[i]) {
			heights[i] = s.Values[i]
		}
	}

	return floats.Dot(heights, widths)
}

// Average returns the time-weighted mean of s under the trapezoidal rule,
// ignoring NaN samples. It is NaN when the known samples span no time.
func Average(s *Series) float64 {
	known := s.DropNaN()
	if known.Len() < 2 {
		return math.NaN()
	}

	span := known.Times[known.Len()-1] - known.Times[0]
	if span == 0 {
		return math.NaN()
	}

	return integrate.Trapezoidal(known.Times, known.Values) / span
}

// Residency accumulates, per distinct value of state, the time state spends
// at that value and the time it does so while active is 1. Both series are
// stepped on their union of timestamps; NaN intervals are skipped.
func Residency(state, active *Series) (total, busy map[float64]float64) {
	total = make(map[float64]float64)
	busy = make(map[float64]float64)

	times, sv, av := Align(state, active)
	for i := 0; i+1 < len(times); i++ {
		v := sv[i]
		if math.IsNaN(v) {
			continue
		}
		dt := times[i+1] - times[i]
		total[v] += dt
		if av[i] == 1 {
			busy[v] += dt
		} else if _, ok := busy[v]; !ok {
			busy[v] = 0
		}
	}
	// A value observed only at the final sample still shows up with no time.
	if n := len(times); n > 0 && !math.IsNaN(sv[n-1]) {
		if _, ok := total[sv[n-1]]; !ok {
			total[sv[n-1]] = 0
			busy[sv[n-1]] = 0
		}
	}

	return total, busy
}
