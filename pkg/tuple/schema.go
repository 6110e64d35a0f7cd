// Package tuple defines table schemas, typed rows, and the codec that
// moves rows in and out of page bytes.
package tuple

import (
	"fmt"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/types"
)

// Column describes one column of a table: its name, declared type,
// optional VARCHAR length cap, and constraints.
type Column struct {
	Name       string
	Type       types.Type
	MaxSize    int // VARCHAR(n) cap in bytes; 0 for every other type
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

// Schema is the ordered column layout of a table. Rows are never
// interpreted without their schema.
type Schema struct {
	Columns []Column
}

// NewSchema builds a schema from ordered column definitions. Column
// names must be unique and at most one column may be the primary key.
func NewSchema(columns []Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("schema must have at least one column")
	}

	seen := make(map[string]bool, len(columns))
	pkCount := 0
	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column name cannot be empty")
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[col.Name] = true
		if col.PrimaryKey {
			pkCount++
		}
	}
	if pkCount > 1 {
		return nil, fmt.Errorf("at most one primary key column is supported, got %d", pkCount)
	}

	return &Schema{Columns: columns}, nil
}

// NumColumns returns the number of columns.
func (s *Schema) NumColumns() int {
	return len(s.Columns)
}

// ColumnIndex returns the position of the named column.
func (s *Schema) ColumnIndex(name string) (int, error) {
	for i, col := range s.Columns {
		if col.Name == name {
			return i, nil
		}
	}
	return 0, gerr.ColumnNotFound(name)
}

// PrimaryKey returns the index of the primary-key column, if declared.
func (s *Schema) PrimaryKey() (int, bool) {
	for i, col := range s.Columns {
		if col.PrimaryKey {
			return i, true
		}
	}
	return 0, false
}

// ColumnNames returns the column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// FixedSize returns the byte length of the null bitmap plus the
// fixed-width region of an encoded row for this schema.
func (s *Schema) FixedSize() int {
	size := s.BitmapSize()
	for _, col := range s.Columns {
		size += col.Type.FixedWidth()
	}
	return size
}

// BitmapSize returns the byte length of the per-row null bitmap.
func (s *Schema) BitmapSize() int {
	return (len(s.Columns) + 7) / 8
}
