package report

import (
	"context"
	"time"

	"codeberg.org/mutker/powertrace/internal/table"
)

// Recorder persists accessor results of one analysis run
type Recorder interface {
	Record(ctx context.Context, ref Ref, tbl *table.Table) error
	Close() error
}

// Run describes one analysis of one trace
type Run struct {
	Trace     string
	Start     float64
	End       float64
	CreatedAt time.Time
}

// Ref names the accessor a result came from
type Ref struct {
	Module    string
	Namespace string
	Accessor  string
}

// cell is one value of a result table, the unit rows are buffered in
type cell struct {
	ref    Ref
	label  string
	column string
	value  float64
}
