package analyzer_test

import (
	"math"
	"slices"
	"strings"
	"testing"

	"codeberg.org/mutker/powertrace/internal/analyzer"
	"codeberg.org/mutker/powertrace/internal/errors"
	"codeberg.org/mutker/powertrace/internal/logger"
	"codeberg.org/mutker/powertrace/internal/table"
	"codeberg.org/mutker/powertrace/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const windowTrace = `
<idle>-0     [001]   100.000000: cpu_frequency:             state=1000 cpu_id=0
<idle>-0     [002]   100.000000: cpu_frequency:             state=1000 cpu_id=1
<idle>-0     [003]   100.000000: cpu_frequency:             state=1000 cpu_id=2
<idle>-0     [003]   100.000000: cpu_frequency:             state=1000 cpu_id=3
<idle>-0     [001]   200.000000: cpu_frequency:             state=3000 cpu_id=0
<idle>-0     [002]   200.000000: cpu_frequency:             state=3000 cpu_id=1
<idle>-0     [003]   200.000000: cpu_frequency:             state=2000 cpu_id=2
<idle>-0     [003]   200.000000: cpu_frequency:             state=2000 cpu_id=3
<idle>-0     [001]   300.000000: cpu_frequency:             state=3000 cpu_id=0
<idle>-0     [002]   300.000000: cpu_frequency:             state=3000 cpu_id=1
<idle>-0     [003]   300.000000: cpu_frequency:             state=3000 cpu_id=2
<idle>-0     [003]   300.000000: cpu_frequency:             state=3000 cpu_id=3
`

func parse(t *testing.T, text string, only ...string) *trace.Trace {
	t.Helper()

	tr, err := trace.Parse(strings.NewReader(text), only...)
	require.NoError(t, err)

	return tr
}

func analyze(t *testing.T, text string, opts ...analyzer.Option) *analyzer.Analyzer {
	t.Helper()

	opts = append([]analyzer.Option{analyzer.WithLogger(logger.Nop())}, opts...)
	a, err := analyzer.New(parse(t, text), opts...)
	require.NoError(t, err)

	return a
}

func ptr(f float64) *float64 {
	return &f
}

func labels(tbl *table.Table) []string {
	out := make([]string, 0, len(tbl.Rows))
	for _, r := range tbl.Rows {
		out = append(out, r.Label)
	}

	return out
}

// column returns one column of tbl in row order.
func column(t *testing.T, tbl *table.Table, name string) []float64 {
	t.Helper()

	c := slices.Index(tbl.Columns, name)
	require.GreaterOrEqual(t, c, 0, "no column %q", name)
	out := make([]float64, 0, len(tbl.Rows))
	for _, r := range tbl.Rows {
		out = append(out, r.Values[c])
	}

	return out
}

// cell returns the value at (label, name) in tbl.
func cell(t *testing.T, tbl *table.Table, label, name string) float64 {
	t.Helper()

	i := slices.Index(labels(tbl), label)
	require.GreaterOrEqual(t, i, 0, "no row %q", label)

	return column(t, tbl, name)[i]
}

func assertValues(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func TestNew(t *testing.T) {
	a := analyze(t, windowTrace)

	assert.Equal(t, []string{"cpu_frequency"}, a.AvailableEvents())
	assert.Equal(t, []int{0, 1, 2, 3}, a.CPUs())
	assert.Equal(t, 100.0, a.Window().Start)
	assert.Equal(t, 300.0, a.Window().End)
	assert.True(t, a.HasEvents("cpu_frequency"))
	assert.False(t, a.HasEvents("cpu_frequency", "cpu_idle"))

	names := []string{}
	for _, m := range a.Modules() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"cpufreq", "cpuidle", "thermal"}, names)
}

func TestNewEmptyTrace(t *testing.T) {
	_, err := analyzer.New(parse(t, "# tracer: nop\n", "cpu_idle", "cpu_frequency"),
		analyzer.WithLogger(logger.Nop()))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrEmptyTrace))
}

func TestNewInvalidWindow(t *testing.T) {
	_, err := analyzer.New(parse(t, windowTrace),
		analyzer.WithLogger(logger.Nop()),
		analyzer.WithWindow(ptr(300), ptr(200)))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidWindow))
}

func TestCPUsFromCPUIDField(t *testing.T) {
	a := analyze(t, `
<idle>-0     [000]   1.000000: cpu_idle:             state=0 cpu_id=5
`)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, a.CPUs())
}

func TestWindow(t *testing.T) {
	all3000 := []float64{3000, 3000, 3000, 3000}
	nan := math.NaN()

	tests := []struct {
		name       string
		start, end *float64
		times      []float64
		rows       [][]float64
	}{
		{
			name:  "no window",
			times: []float64{100, 200, 300},
			rows:  [][]float64{{1000, 1000, 1000, 1000}, {3000, 3000, 2000, 2000}, all3000},
		},
		{
			name:  "after",
			start: ptr(400), end: ptr(500),
			times: []float64{400, 500},
			rows:  [][]float64{all3000, all3000},
		},
		{
			name:  "before",
			start: ptr(10), end: ptr(20),
			times: []float64{10, 20},
			rows:  [][]float64{{nan, nan, nan, nan}, {nan, nan, nan, nan}},
		},
		{
			name:  "end",
			start: ptr(250), end: ptr(300),
			times: []float64{250, 300},
			rows:  [][]float64{{3000, 3000, 2000, 2000}, all3000},
		},
		{
			name:  "end overlap",
			start: ptr(150), end: ptr(350),
			times: []float64{150, 200, 300, 350},
			rows:  [][]float64{{1000, 1000, 1000, 1000}, {3000, 3000, 2000, 2000}, all3000, all3000},
		},
		{
			name:  "open start",
			end:   ptr(250),
			times: []float64{100, 200, 250},
			rows:  [][]float64{{1000, 1000, 1000, 1000}, {3000, 3000, 2000, 2000}, {3000, 3000, 2000, 2000}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := analyze(t, windowTrace, analyzer.WithWindow(tt.start, tt.end))

			sig, err := a.Frequency.CPUFrequency()
			require.NoError(t, err)
			assert.Equal(t, tt.times, sig.Times())
			assert.Equal(t, []int{0, 1, 2, 3}, sig.Keys())
			for i, want := range tt.rows {
				assertValues(t, want, sig.Row(i))
			}
		})
	}
}

func TestMissingEvents(t *testing.T) {
	a := analyze(t, thermalTrace)

	_, err := a.Idle.CPUIdleState()
	require.Error(t, err)
	missing, ok := errors.MissingEvents(err)
	require.True(t, ok)
	assert.Equal(t, []string{"cpu_idle"}, missing)

	_, err = a.Frequency.FrequencyResidency()
	missing, ok = errors.MissingEvents(err)
	require.True(t, ok)
	assert.Equal(t, []string{"cpu_frequency", "cpu_idle"}, missing)

	_, err = a.Call("cpuidle", analyzer.NamespaceSignal, "cluster_active")
	assert.True(t, errors.HasCode(err, errors.ErrMissingTraceEvents))

	_, err = a.Idle.ClusterTime()
	assert.True(t, errors.HasCode(err, errors.ErrMissingTraceEvents))
}

func TestRegistry(t *testing.T) {
	a := analyze(t, windowTrace)

	idle, err := a.Module("cpuidle")
	require.NoError(t, err)
	assert.Equal(t, []string{"cluster_active", "cpu_active", "cpu_idle_state"}, idle.Accessors(analyzer.NamespaceSignal))
	assert.Equal(t, []string{"cpu_wakeup"}, idle.Accessors(analyzer.NamespaceEvent))
	assert.Equal(t, []string{"cluster_time", "cpu_time", "wakeup_count"}, idle.Accessors(analyzer.NamespaceStats))
	assert.Equal(t, []string{"cpu_idle"}, idle.RequiredEvents())

	freq, err := a.Module("cpufreq")
	require.NoError(t, err)
	req, err := freq.Requires(analyzer.NamespaceStats, "frequency_residency")
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu_idle", "cpu_frequency"}, req)
	req, err = freq.Requires(analyzer.NamespaceSignal, "cpu_frequency")
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu_frequency"}, req)

	tbl, err := a.Call("cpufreq", analyzer.NamespaceSignal, "cpu_frequency")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3"}, tbl.Columns)
	assert.Equal(t, []string{"100", "200", "300"}, labels(tbl))
	assert.Equal(t, 2000.0, cell(t, tbl, "200", "2"))

	_, err = a.Call("cpufreq", analyzer.NamespaceSignal, "cpu_frequency", 3)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = a.Call("cpuidle", analyzer.NamespaceSignal, "nope")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrUnknownAccessor))
	assert.Contains(t, err.Error(), "cluster_active, cpu_active, cpu_idle_state")

	_, err = a.Call("gpu", analyzer.NamespaceSignal, "power")
	assert.True(t, errors.HasCode(err, errors.ErrUnknownModule))
}
