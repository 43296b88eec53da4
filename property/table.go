package property

import (
	"github.com/hupe1980/distgraph/value"
)

// Table stores property rows column by column. Row i belongs to the local
// vertex (or locally minted edge) with index i.
//
// Table is not safe for concurrent use; the owning rank's dispatch path
// serializes all appends.
type Table struct {
	schema Schema
	cols   [][]value.Value
	rows   int64
}

// NewTable creates an empty table for schema.
func NewTable(schema Schema) *Table {
	return &Table{
		schema: schema,
		cols:   make([][]value.Value, schema.Len()),
	}
}

// Schema returns the table schema.
func (t *Table) Schema() Schema { return t.schema }

// Len returns the number of rows.
func (t *Table) Len() int64 { return t.rows }

// Append validates row and appends it.
// A rejected row leaves the table unchanged.
func (t *Table) Append(row []value.Value) error {
	if err := t.schema.Validate(row); err != nil {
		return err
	}
	for i := range t.cols {
		t.cols[i] = append(t.cols[i], row[i])
	}
	t.rows++
	return nil
}

// AppendEmpty appends a row of absent values, keeping row indices aligned
// with local indices when no bundle was supplied.
func (t *Table) AppendEmpty() {
	for i := range t.cols {
		t.cols[i] = append(t.cols[i], value.Value{})
	}
	t.rows++
}

// Row returns a copy of row i.
func (t *Table) Row(i int64) ([]value.Value, bool) {
	if i < 0 || i >= t.rows {
		return nil, false
	}
	row := make([]value.Value, len(t.cols))
	for c := range t.cols {
		row[c] = t.cols[c][i]
	}
	return row, true
}

// Get returns the named cell of row i.
func (t *Table) Get(i int64, column string) (value.Value, bool) {
	c := t.schema.Index(column)
	if c < 0 || i < 0 || i >= t.rows {
		return value.Value{}, false
	}
	return t.cols[c][i], true
}
