// Package table is the tabular form every analyzer result converts to: an
// index column of labels plus named numeric columns.
package table

type Row struct {
	Label  string
	Values []float64
}

type Table struct {
	Name    string
	Index   string
	Columns []string
	Rows    []Row
}

func New(name, index string, columns ...string) *Table {
	return &Table{Name: name, Index: index, Columns: columns}
}

// Append adds a row. Missing trailing values are left at zero, extra ones
// are dropped.
func (t *Table) Append(label string, values ...float64) {
	row := Row{Label: label, Values: make([]float64, len(t.Columns))}
	copy(row.Values, values)
	t.Rows = append(t.Rows, row)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.Rows)
}
