package analyzer

import (
	"cmp"
	"math"

	"codeberg.org/mutker/powertrace/internal/signal"
	"codeberg.org/mutker/powertrace/internal/table"
)

const indexTime = "time"

func signalTable[K cmp.Ordered](name string, sig *signal.Signal[K], label func(K) string) *table.Table {
	cols := make([]string, len(sig.Keys()))
	for i, k := range sig.Keys() {
		cols[i] = label(k)
	}

	tbl := table.New(name, indexTime, cols...)
	for i, t := range sig.Times() {
		tbl.Append(formatFloat(t), sig.Row(i)...)
	}

	return tbl
}

func cpuSignalTable(name string, sig *signal.Signal[int]) *table.Table {
	return signalTable(name, sig, formatInt)
}

func zoneSignalTable(name string, sig *signal.Signal[string]) *table.Table {
	return signalTable(name, sig, func(z string) string { return z })
}

func seriesTable(name, column string, s *signal.Series) *table.Table {
	tbl := table.New(name, indexTime, column)
	for i, t := range s.Times {
		tbl.Append(formatFloat(t), s.Values[i])
	}

	return tbl
}

func cpuEventTable(name string, events []signal.Event[int]) *table.Table {
	tbl := table.New(name, indexTime, "cpu")
	for _, e := range events {
		tbl.Append(formatFloat(e.Time), float64(e.Key))
	}

	return tbl
}

// perCPUTable has one row per CPU; CPUs absent from vals are NaN.
func perCPUTable(name, column string, cpus []int, vals map[int]float64) *table.Table {
	tbl := table.New(name, "cpu", column)
	for _, cpu := range cpus {
		v, ok := vals[cpu]
		if !ok {
			v = math.NaN()
		}
		tbl.Append(formatInt(cpu), v)
	}

	return tbl
}
