package analyzer

import (
	"slices"
	"strconv"

	"codeberg.org/mutker/powertrace/internal/signal"
	"codeberg.org/mutker/powertrace/internal/trace"
)

// columns names the fields a per-CPU event table is read through.
type columns struct {
	key   string // empty when rows only carry the emitting CPU
	value string
}

// resolveColumns picks the first present key and value field of tbl. It
// fails when the table has none of the value fields.
func resolveColumns(tbl *trace.Table, keys, values []string) (columns, bool) {
	value, ok := tbl.Column(values...)
	if !ok {
		return columns{}, false
	}
	key, _ := tbl.Column(keys...)

	return columns{key: key, value: value}, true
}

// rows returns the table rows with duplicate (timestamp, CPU) records
// collapsed onto the last one.
func (c columns) rows(tbl *trace.Table) []trace.Row {
	if c.key == "" {
		return tbl.Rows()
	}

	return tbl.Resolve(c.key)
}

// cpu returns the CPU a row describes, falling back to the emitting CPU.
func (c columns) cpu(r trace.Row) int {
	if c.key != "" {
		if v, ok := r.Field(c.key); ok && v.IsNumeric() {
			return int(v.Float())
		}
	}

	return r.CPU
}

// rowCPU is columns.cpu for rows of mixed origin, where the key field has to
// be looked up per row.
func rowCPU(r trace.Row, names ...string) int {
	for _, n := range names {
		if _, ok := r.Field(n); ok {
			return columns{key: n}.cpu(r)
		}
	}

	return r.CPU
}

// pivotCPU turns per-CPU records into a signal with one column per known
// CPU. Records with a non-numeric value or naming a CPU outside cpus are
// skipped. norm, when set, is applied to every raw value.
func pivotCPU(tbl *trace.Table, keys, values []string, cpus []int, norm func(float64) float64) *signal.Signal[int] {
	cols, ok := resolveColumns(tbl, keys, values)
	if !ok {
		return signal.Build[int](nil, cpus)
	}

	rows := cols.rows(tbl)
	points := make([]signal.Point[int], 0, len(rows))
	for _, r := range rows {
		v, ok := r.Field(cols.value)
		if !ok || !v.IsNumeric() {
			continue
		}
		cpu := cols.cpu(r)
		if _, known := slices.BinarySearch(cpus, cpu); !known {
			continue
		}
		val := v.Float()
		if norm != nil {
			val = norm(val)
		}
		points = append(points, signal.Point[int]{Time: r.Time, Seq: r.Seq, Key: cpu, Value: val})
	}

	return signal.Build(points, cpus)
}

// pivotZone is pivotCPU for string keyed entities; only observed keys
// become columns.
func pivotZone(tbl *trace.Table, key, value string) *signal.Signal[string] {
	if !tbl.HasColumn(key) || !tbl.HasColumn(value) {
		return signal.Build[string](nil, nil)
	}

	rows := tbl.Resolve(key)
	points := make([]signal.Point[string], 0, len(rows))
	for _, r := range rows {
		v, ok := r.Field(value)
		if !ok || !v.IsNumeric() {
			continue
		}
		k, _ := r.Field(key)
		points = append(points, signal.Point[string]{Time: r.Time, Seq: r.Seq, Key: k.String(), Value: v.Float()})
	}

	return signal.Build(points, nil)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
