package tuple

import (
	"fmt"
	"strings"

	"github.com/gopu-inc/gsql/pkg/gerr"
	"github.com/gopu-inc/gsql/pkg/types"
)

// Row is an ordered sequence of typed values aligned to a schema's
// column order.
type Row struct {
	Schema   *Schema
	fields   []types.Field
	RecordID *RecordID // where this row is stored; nil until placed
}

// NewRow creates an empty row for the given schema. Fields default to
// NULL until set.
func NewRow(schema *Schema) *Row {
	fields := make([]types.Field, schema.NumColumns())
	for i := range fields {
		fields[i] = types.Null
	}
	return &Row{Schema: schema, fields: fields}
}

// SetField assigns the ith column's value. The field's runtime kind
// must match the column's declared type; NULL is accepted for any
// column (NOT NULL is enforced at insert time, not here).
func (r *Row) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(r.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(r.fields))
	}

	col := r.Schema.Columns[i]
	if field.Kind() != types.NullKind && field.Kind() != col.Type.Kind() {
		return gerr.TypeMismatch("column %s expects %s, got %s",
			col.Name, col.Type, field.Kind())
	}

	r.fields[i] = field
	return nil
}

// GetField returns the ith column's value.
func (r *Row) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(r.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(r.fields))
	}
	return r.fields[i], nil
}

// Fields returns the row's values in schema order.
func (r *Row) Fields() []types.Field {
	return r.fields
}

// Equals reports whether other has the same values in every column.
func (r *Row) Equals(other *Row) bool {
	if other == nil || len(r.fields) != len(other.fields) {
		return false
	}
	for i, f := range r.fields {
		if !f.Equals(other.fields[i]) {
			return false
		}
	}
	return true
}

// String renders the row as tab-separated field values.
func (r *Row) String() string {
	parts := make([]string, len(r.fields))
	for i, field := range r.fields {
		parts[i] = field.String()
	}
	return strings.Join(parts, "\t")
}
