package analyzer_test

import (
	"math"
	"testing"

	"codeberg.org/mutker/powertrace/internal/analyzer"
	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two CPUs switching frequency together; both run until 150, CPU 0 runs
// again from 200 to 350.
const residencyTrace = `
<idle>-0     [000]   0.000000: cpu_frequency:        state=100000 cpu_id=0
<idle>-0     [000]   0.000000: cpu_frequency:        state=100000 cpu_id=1
<idle>-0     [000]   0.000000: cpu_idle:             state=4294967295 cpu_id=0
<idle>-0     [001]   0.000000: cpu_idle:             state=4294967295 cpu_id=1
<idle>-0     [000]   50.000000: cpu_frequency:       state=200000 cpu_id=0
<idle>-0     [000]   50.000000: cpu_frequency:       state=200000 cpu_id=1
<idle>-0     [000]   150.000000: cpu_frequency:      state=250000 cpu_id=0
<idle>-0     [000]   150.000000: cpu_frequency:      state=250000 cpu_id=1
<idle>-0     [000]   150.000000: cpu_idle:           state=0 cpu_id=0
<idle>-0     [001]   150.000000: cpu_idle:           state=0 cpu_id=1
<idle>-0     [000]   200.000000: cpu_frequency:      state=300000 cpu_id=0
<idle>-0     [000]   200.000000: cpu_frequency:      state=300000 cpu_id=1
<idle>-0     [000]   200.000000: cpu_idle:           state=4294967295 cpu_id=0
<idle>-0     [000]   300.000000: cpu_frequency:      state=400000 cpu_id=0
<idle>-0     [000]   300.000000: cpu_frequency:      state=400000 cpu_id=1
<idle>-0     [000]   350.000000: cpu_frequency:      state=300000 cpu_id=0
<idle>-0     [000]   350.000000: cpu_frequency:      state=300000 cpu_id=1
<idle>-0     [000]   350.000000: cpu_idle:           state=0 cpu_id=0
<idle>-0     [001]   450.000000: cpu_idle:           state=0 cpu_id=1
`

const incoherentTrace = `
<idle>-0     [000]   0.000000: cpu_idle:             state=4294967295 cpu_id=0
<idle>-0     [001]   0.000000: cpu_idle:             state=4294967295 cpu_id=1
<idle>-0     [000]   1.000000: cpu_frequency:        state=100000 cpu_id=0
<idle>-0     [000]   1.000000: cpu_frequency:        state=100000 cpu_id=1
<idle>-0     [000]   10.000000: cpu_frequency:       state=200000 cpu_id=0
<idle>-0     [000]   10.000000: cpu_frequency:       state=300000 cpu_id=1
<idle>-0     [000]   20.000000: cpu_idle:            state=0 cpu_id=0
`

const devlibTrace = `
<idle>-0     [000]   1.000000: cpu_frequency_devlib: state=500 cpu_id=0
<idle>-0     [000]   1.000000: cpu_frequency_devlib: state=500 cpu_id=1
<idle>-0     [000]   1.000000: cpu_frequency_devlib: state=500 cpu_id=2
<idle>-0     [000]   1.000000: cpu_frequency_devlib: state=500 cpu_id=3
<idle>-0     [000]   10.000000: cpu_frequency:       state=700 cpu_id=0
<idle>-0     [000]   10.000000: cpu_frequency:       state=700 cpu_id=1
<idle>-0     [000]   100.000000: cpu_frequency_devlib: state=600 cpu_id=0
<idle>-0     [000]   100.000000: cpu_frequency_devlib: state=600 cpu_id=1
<idle>-0     [000]   100.000000: cpu_frequency_devlib: state=600 cpu_id=2
<idle>-0     [000]   100.000000: cpu_frequency_devlib: state=600 cpu_id=3
<idle>-0     [000]   150.000000: cpu_frequency:      state=800 cpu_id=0
<idle>-0     [000]   150.000000: cpu_frequency:      state=800 cpu_id=1
`

func TestFrequencySignalColumns(t *testing.T) {
	a := analyze(t, `
          <idle>-0     [000]   000.000000: cpu_idle:             state=4294967295 cpu_id=0
          <idle>-0     [004]   004.000000: cpu_idle:             state=4294967295 cpu_id=4
          <idle>-0     [004]   519.022147: cpu_frequency:        state=200000 cpu_id=4
          <idle>-0     [001]   519.022642: cpu_frequency:        state=100000 cpu_id=1
`)

	sig, err := a.Frequency.CPUFrequency()
	require.NoError(t, err)
	assert.Equal(t, a.CPUs(), sig.Keys())
}

func TestFrequencyResidency(t *testing.T) {
	a := analyze(t, residencyTrace, analyzer.WithFrequencyDomains([]int{0, 1}))

	res, err := a.Frequency.FrequencyResidency()
	require.NoError(t, err)
	require.Len(t, res, 1)

	r := res[0]
	assert.Equal(t, []int{0, 1}, r.CPUs)
	assert.Equal(t, []float64{100000, 200000, 250000, 300000, 400000}, r.Frequencies)

	wantTotal := map[float64]float64{100000: 50, 200000: 100, 250000: 50, 300000: 200, 400000: 50}
	wantActive := map[float64]float64{100000: 50, 200000: 100, 250000: 0, 300000: 100, 400000: 50}
	for f, want := range wantTotal {
		assert.InDelta(t, want, r.Total[f], 1e-9, "total at %v", f)
		assert.InDelta(t, wantActive[f], r.Active[f], 1e-9, "active at %v", f)
	}

	tbl, err := a.Call("cpufreq", analyzer.NamespaceStats, "frequency_residency")
	require.NoError(t, err)
	assert.Equal(t, "frequency", tbl.Index)
	assert.Equal(t, []string{"0/total", "0/active"}, tbl.Columns)
	assert.InDelta(t, 200, cell(t, tbl, "300000", "0/total"), 1e-9)
	assert.InDelta(t, 100, cell(t, tbl, "300000", "0/active"), 1e-9)
}

func TestFrequencyResidencyPerCPU(t *testing.T) {
	a := analyze(t, residencyTrace)

	res, err := a.Frequency.FrequencyResidency()
	require.NoError(t, err)
	require.Len(t, res, 2)

	// CPU 1 is idle from 150 onwards.
	cpu1 := res[1]
	assert.Equal(t, []int{1}, cpu1.CPUs)
	assert.InDelta(t, 200, cpu1.Total[300000], 1e-9)
	assert.InDelta(t, 0, cpu1.Active[300000], 1e-9)
	assert.InDelta(t, 100, cpu1.Active[200000], 1e-9)
}

func TestGroupResidencyCoherency(t *testing.T) {
	a := analyze(t, incoherentTrace, analyzer.WithFrequencyDomains([]int{0, 1}))

	_, err := a.Frequency.FrequencyResidency()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrIncoherentGroupFrequency))

	_, err = a.Call("cpufreq", analyzer.NamespaceStats, "group_residency", 0, 1)
	assert.True(t, errors.HasCode(err, errors.ErrIncoherentGroupFrequency))

	for _, cpu := range []int{0, 1} {
		res, err := a.Frequency.GroupResidency([]int{cpu})
		require.NoError(t, err, "cpu %d", cpu)
		assert.InDelta(t, 9, res.Total[100000], 1e-9)
	}

	_, err = a.Frequency.GroupResidency(nil)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
}

func TestFrequencyTransitions(t *testing.T) {
	a := analyze(t, windowTrace)

	counts, err := a.Frequency.FrequencyTransitions()
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 2, 3: 2}, counts)
}

func TestDevlibInjection(t *testing.T) {
	a := analyze(t, devlibTrace, analyzer.WithFrequencyDomains([]int{0, 1}, []int{2, 3}))

	sig, err := a.Frequency.CPUFrequency()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 10, 100, 150}, sig.Times())
	assertValues(t, []float64{500, 500, 500, 500}, sig.Row(0))
	assertValues(t, []float64{700, 700, 500, 500}, sig.Row(1))
	// Domain 0-1 already has a later kernel event, so its final snapshot is dropped.
	assertValues(t, []float64{700, 700, 600, 600}, sig.Row(2))
	assertValues(t, []float64{800, 800, 600, 600}, sig.Row(3))
}

func TestDevlibOnly(t *testing.T) {
	const snapshots = `
<idle>-0     [000]   1.000000: cpu_frequency_devlib: state=500 cpu_id=0
<idle>-0     [000]   1.000000: cpu_frequency_devlib: state=500 cpu_id=1
<idle>-0     [000]   9.000000: cpu_frequency_devlib: state=600 cpu_id=0
<idle>-0     [000]   9.000000: cpu_frequency_devlib: state=600 cpu_id=1
`
	src := parse(t, snapshots, "cpu_frequency", "cpu_frequency_devlib")

	a, err := analyzer.New(src, analyzer.WithLogger(logger.Nop()), analyzer.WithFrequencyDomains([]int{0, 1}))
	require.NoError(t, err)
	assert.True(t, a.HasEvents("cpu_frequency"))

	sig, err := a.Frequency.CPUFrequency()
	require.NoError(t, err)
	assertValues(t, []float64{500, 500}, sig.Row(0))
	assertValues(t, []float64{600, 600}, sig.Row(1))

	// Without domains the snapshots are left alone.
	a, err = analyzer.New(src, analyzer.WithLogger(logger.Nop()))
	require.NoError(t, err)
	_, err = a.Frequency.CPUFrequency()
	assert.True(t, errors.HasCode(err, errors.ErrMissingTraceEvents))
}

func TestGroupResidencyNormalizesGroup(t *testing.T) {
	a := analyze(t, residencyTrace)

	res, err := a.Frequency.GroupResidency([]int{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.CPUs)
	assert.InDelta(t, 200, res.Total[300000], 1e-9)
	assert.InDelta(t, 100, res.Active[300000], 1e-9)

	single, err := a.Frequency.GroupResidency([]int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, single.CPUs)
}

func TestGroupResidencyUnknownCPU(t *testing.T) {
	a := analyze(t, residencyTrace)

	_, err := a.Frequency.GroupResidency([]int{7})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = a.Call("cpufreq", analyzer.NamespaceStats, "group_residency", 0, 7)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))
}

func TestFrequencyResidencyDomainOutsideTrace(t *testing.T) {
	a := analyze(t, residencyTrace, analyzer.WithFrequencyDomains([]int{0, 1, 7}, []int{8, 9}))

	res, err := a.Frequency.FrequencyResidency()
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, []int{0, 1}, res[0].CPUs)
}

func TestFrequencyColumnFallback(t *testing.T) {
	a := analyze(t, `
<idle>-0     [000]   1.000000: cpu_frequency:        cpu=0 frequency=100
<idle>-0     [000]   1.000000: cpu_frequency:        cpu=0 frequency=200
<idle>-0     [001]   2.000000: cpu_frequency:        cpu=1 frequency=300
`)

	sig, err := a.Frequency.CPUFrequency()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, sig.Keys())
	assert.Equal(t, []float64{1, 2}, sig.Times())

	// The last record of a duplicated (time, CPU) pair wins.
	assertValues(t, []float64{200, math.NaN()}, sig.Row(0))
	assertValues(t, []float64{200, 300}, sig.Row(1))
}

func TestFrequencySkipsMalformedValues(t *testing.T) {
	a := analyze(t, `
<idle>-0     [000]   1.000000: cpu_frequency:        state=100 cpu_id=0
<idle>-0     [000]   2.000000: cpu_frequency:        state=n/a cpu_id=0
<idle>-0     [000]   3.000000: cpu_frequency:        state=200 cpu_id=0
`)

	sig, err := a.Frequency.CPUFrequency()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, sig.Times())
	col, ok := sig.Column(0)
	require.True(t, ok)
	assert.Equal(t, []float64{100, 200}, col.Values)
}

func TestFrequencyIgnoresImplausibleCPUs(t *testing.T) {
	a := analyze(t, `
<idle>-0     [000]   1.000000: cpu_frequency:        state=100 cpu_id=0
<idle>-0     [000]   1.000000: cpu_frequency:        state=300 cpu_id=-1
<idle>-0     [000]   2.000000: cpu_frequency:        state=400 cpu_id=4294967295
<idle>-0     [000]   3.000000: cpu_frequency:        state=200 cpu_id=0
`)

	assert.Equal(t, []int{0}, a.CPUs())

	sig, err := a.Frequency.CPUFrequency()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, sig.Keys())
	assert.Equal(t, []float64{1, 3}, sig.Times())
}
