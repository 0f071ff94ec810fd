package trace

import "sort"

// Source is what the analyzer consumes from a trace parser.
type Source interface {
	// EventNames lists every event type the source knows, with or without rows.
	EventNames() []string
	// Table returns the rows of an event type; unknown names yield an empty table.
	Table(name string) *Table
}

// Trace is an in-memory Source.
type Trace struct {
	tables map[string]*Table
}

// New builds a Trace from tables.
func New(tables ...*Table) *Trace {
	t := &Trace{tables: make(map[string]*Table, len(tables))}
	for _, tbl := range tables {
		t.tables[tbl.Name()] = tbl
	}

	return t
}

// EventNames returns the event names in sorted order.
func (t *Trace) EventNames() []string {
	names := make([]string, 0, len(t.tables))
	for n := range t.tables {
		names = append(names, n)
	}
	sort.Strings(names)

	return names
}

func (t *Trace) Table(name string) *Table {
	if tbl, ok := t.tables[name]; ok {
		return tbl
	}

	return NewTable(name, nil)
}
