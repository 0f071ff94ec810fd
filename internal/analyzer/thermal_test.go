package analyzer_test

import (
	"math"
	"testing"

	"codeberg.org/mutker/powertrace/internal/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const thermalTrace = `
kworker/5:1-28858 [005]  100.000000: thermal_temperature:  thermal_zone=cls0 id=0 temp_prev=10000 temp=20000
kworker/5:1-28858 [005]  200.000000: thermal_temperature:  thermal_zone=cls0 id=0 temp_prev=20000 temp=30000
kworker/5:1-28858 [005]  300.000000: thermal_temperature:  thermal_zone=cls0 id=0 temp_prev=30000 temp=10000
`

func TestTemperature(t *testing.T) {
	a := analyze(t, thermalTrace)

	sig, err := a.Thermal.Temperature()
	require.NoError(t, err)
	assert.Equal(t, []string{"cls0"}, sig.Keys())

	col, ok := sig.Column("cls0")
	require.True(t, ok)
	assert.Equal(t, []float64{20000, 30000, 10000}, col.Values)
}

func TestAvgTemperature(t *testing.T) {
	a := analyze(t, thermalTrace)

	want := ((100 * 20000) + (100 * 10000. / 2) + (100 * 10000) + (100 * 20000. / 2)) / 200

	avg, err := a.Thermal.AvgTemperature()
	require.NoError(t, err)
	assert.InDelta(t, want, avg["cls0"], 1e-9)

	tbl, err := a.Call("thermal", analyzer.NamespaceStats, "avg_temperature")
	require.NoError(t, err)
	assert.InDelta(t, 22500, cell(t, tbl, "cls0", "avg_temperature"), 1e-9)
}

func TestAvgTemperatureZeroSpan(t *testing.T) {
	a := analyze(t, `
kworker/5:1-28858 [005]  100.000000: thermal_temperature:  thermal_zone=cls0 id=0 temp_prev=10000 temp=20000
kworker/5:1-28858 [005]  100.000000: thermal_temperature:  thermal_zone=gpu id=1 temp_prev=10000 temp=40000
`)

	avg, err := a.Thermal.AvgTemperature()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(avg["cls0"]))
	assert.True(t, math.IsNaN(avg["gpu"]))
}
