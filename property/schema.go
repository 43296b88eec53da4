// Package property holds the column-oriented vertex and edge property tables
// of a distributed graph.
//
// Tables are owned by the graph; the coordinator only appends to them while
// applying a request. A property bundle is an ordered []value.Value whose
// length must equal the table's column count.
package property

import (
	"errors"
	"fmt"

	"github.com/hupe1980/distgraph/value"
)

// ErrSchemaMismatch is matched by every *MismatchError via errors.Is.
var ErrSchemaMismatch = errors.New("property schema mismatch")

// MismatchError reports a property bundle that does not fit the table schema.
type MismatchError struct {
	// Expected is the number of registered columns.
	Expected int
	// Actual is the number of values supplied.
	Actual int
	// Column is set when a value has the wrong kind.
	Column string
	// Kind is the offending value kind when Column is set.
	Kind value.Kind
}

func (e *MismatchError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("property schema mismatch: column %q does not accept %s", e.Column, e.Kind)
	}
	return fmt.Sprintf("property schema mismatch: expected %d values, got %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrSchemaMismatch) succeed.
func (e *MismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// Column describes one property column.
type Column struct {
	Name string
	// Kind restricts the accepted values. KindInvalid accepts any kind.
	Kind value.Kind
}

// Schema is the ordered column list of a table.
type Schema struct {
	Columns []Column
	// PedigreeColumn names the column that carries the vertex pedigree.
	// Empty means bundles carry no pedigree.
	PedigreeColumn string
}

// NewSchema builds a schema from columns.
func NewSchema(columns ...Column) Schema {
	return Schema{Columns: columns}
}

// WithPedigree returns a copy of s declaring name as the pedigree column.
func (s Schema) WithPedigree(name string) Schema {
	cols := make([]Column, len(s.Columns))
	copy(cols, s.Columns)
	return Schema{Columns: cols, PedigreeColumn: name}
}

// Len returns the column count.
func (s Schema) Len() int { return len(s.Columns) }

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that row fits the schema.
//
// Invalid (absent) values are accepted in every column.
func (s Schema) Validate(row []value.Value) error {
	if len(row) != len(s.Columns) {
		return &MismatchError{Expected: len(s.Columns), Actual: len(row)}
	}
	for i, c := range s.Columns {
		v := row[i]
		if !v.IsValid() || c.Kind == value.KindInvalid {
			continue
		}
		if !checkKind(v.Kind, c.Kind) {
			return &MismatchError{Expected: len(s.Columns), Actual: len(row), Column: c.Name, Kind: v.Kind}
		}
	}
	return nil
}

// Pedigree extracts the declared pedigree value from row.
func (s Schema) Pedigree(row []value.Value) (value.Value, bool) {
	if s.PedigreeColumn == "" {
		return value.Value{}, false
	}
	i := s.Index(s.PedigreeColumn)
	if i < 0 || i >= len(row) || !row[i].IsValid() {
		return value.Value{}, false
	}
	return row[i], true
}

func checkKind(k, expected value.Kind) bool {
	if k == expected {
		return true
	}
	// Allow upgrading integers to float columns.
	return expected == value.KindFloat && (k == value.KindInt || k == value.KindUint)
}
