// Package trace holds the parsed form of a kernel trace: one Table of
// timestamped rows per event type.
package trace

import (
	"math"
	"sort"
	"strconv"
)

// Value is a single field of a trace row, either numeric or categorical.
type Value struct {
	num     float64
	str     string
	numeric bool
}

// Str returns a categorical Value.
func Str(s string) Value {
	return Value{str: s}
}

// ParseValue returns a numeric Value when s parses as a number.
func ParseValue(s string) Value {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{num: f, str: s, numeric: true}
	}

	return Str(s)
}

// Float returns the numeric value, or NaN for categorical values.
func (v Value) Float() float64 {
	if !v.numeric {
		return math.NaN()
	}

	return v.num
}

// IsNumeric reports whether the value was numeric.
func (v Value) IsNumeric() bool {
	return v.numeric
}

func (v Value) String() string {
	return v.str
}

// Row is one trace record.
type Row struct {
	Time   float64
	CPU    int // CPU the record was emitted on
	Seq    int // record index in file order
	Fields map[string]Value
}

// Field returns a named field of the row.
func (r Row) Field(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Table is the set of rows recorded for one event type, ordered by time and
// then by record index.
type Table struct {
	name    string
	rows    []Row
	columns map[string]struct{}
}

// NewTable builds a Table; rows are stably sorted by (Time, Seq).
func NewTable(name string, rows []Row) *Table {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Time != sorted[j].Time {
			return sorted[i].Time < sorted[j].Time
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	columns := make(map[string]struct{})
	for _, r := range sorted {
		for k := range r.Fields {
			columns[k] = struct{}{}
		}
	}

	return &Table{name: name, rows: sorted, columns: columns}
}

func (t *Table) Name() string {
	return t.name
}

// Len returns the number of rows; a nil Table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.rows)
}

// Rows returns the rows in time order. The slice must not be modified.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}

	return t.rows
}

// HasColumn reports whether any row carries the named field.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.columns[name]

	return ok
}

// Column returns the first of names present in the table.
func (t *Table) Column(names ...string) (string, bool) {
	for _, n := range names {
		if t.HasColumn(n) {
			return n, true
		}
	}

	return "", false
}

// Resolve returns the rows with duplicate (timestamp, key) pairs collapsed
// onto the last recorded one. Rows missing the key field are dropped.
func (t *Table) Resolve(key string) []Row {
	type slot struct {
		time float64
		key  string
	}

	rows := t.Rows()
	last := make(map[slot]int, len(rows))
	for i, r := range rows {
		v, ok := r.Fields[key]
		if !ok {
			continue
		}
		last[slot{r.Time, v.String()}] = i
	}

	out := make([]Row, 0, len(last))
	for i, r := range rows {
		v, ok := r.Fields[key]
		if !ok {
			continue
		}
		if last[slot{r.Time, v.String()}] == i {
			out = append(out, r)
		}
	}

	return out
}

// Bounds returns the first and last timestamps of the table.
func (t *Table) Bounds() (first, last float64, ok bool) {
	if t.Len() == 0 {
		return 0, 0, false
	}

	return t.rows[0].Time, t.rows[len(t.rows)-1].Time, true
}

// MaxCPUID is the highest CPU id accepted from a record, the kernel's
// NR_CPUS ceiling.
const MaxCPUID = 8191

// MaxCPU returns the highest CPU seen in the table, either as the emitting
// CPU or in one of the given CPU-id fields. Ids outside [0, MaxCPUID] are
// ignored. It returns -1 for an empty table.
func (t *Table) MaxCPU(fields ...string) int {
	highest := -1
	for _, r := range t.Rows() {
		if r.CPU <= MaxCPUID {
			highest = max(highest, r.CPU)
		}
		for _, f := range fields {
			v, ok := r.Fields[f]
			if !ok || !v.IsNumeric() {
				continue
			}
			if id := v.Float(); id >= 0 && id <= MaxCPUID {
				highest = max(highest, int(id))
			}
		}
	}

	return highest
}
