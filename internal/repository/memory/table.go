package memory

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/paulmach/orb"
)

// Table is a SourceTable held in memory
type Table struct {
	columns []string

	mu   sync.Mutex
	rows []*repository.SourceRow
	pos  int
}

// NewTable creates a table over rows. Columns should list every key used in
// the row values.
func NewTable(columns []string, rows ...*repository.SourceRow) *Table {
	return &Table{columns: columns, rows: rows}
}

// SingleRow creates a one-row table whose columns are the keys of values
func SingleRow(id int64, values map[string]any, geom orb.Geometry) *Table {
	columns := make([]string, 0, len(values))
	for k := range values {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return NewTable(columns, &repository.SourceRow{ID: id, Values: values, Geometry: geom})
}

func (t *Table) Columns() []string {
	return t.columns
}

func (t *Table) Next(ctx context.Context) (*repository.SourceRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pos >= len(t.rows) {
		return nil, io.EOF
	}
	row := t.rows[t.pos]
	t.pos++
	return row, nil
}
