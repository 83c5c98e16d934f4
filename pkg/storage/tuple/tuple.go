package tuple

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
)

// Tuple is a positional row bound to a schema. Values are stored in
// column order; nil marks SQL NULL.
type Tuple struct {
	schema *domain.Schema
	values []interface{}
}

// NewTuple creates an empty tuple for the given schema.
func NewTuple(schema *domain.Schema) *Tuple {
	return &Tuple{
		schema: schema,
		values: make([]interface{}, schema.ColumnCount()),
	}
}

// NewTupleWithValues creates a tuple and sets all column values in order.
func NewTupleWithValues(schema *domain.Schema, values ...interface{}) (*Tuple, error) {
	if len(values) != schema.ColumnCount() {
		return nil, domain.NewErrSchemaMismatch(schema.ColumnCount(), len(values))
	}
	t := NewTuple(schema)
	for i, v := range values {
		if err := t.SetValue(i, v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Schema returns the schema the tuple is bound to.
func (t *Tuple) Schema() *domain.Schema {
	return t.schema
}

// ColumnCount returns the number of columns.
func (t *Tuple) ColumnCount() int {
	return len(t.values)
}

// GetValue returns the value at the given column.
func (t *Tuple) GetValue(column int) interface{} {
	if column < 0 || column >= len(t.values) {
		return nil
	}
	return t.values[column]
}

// SetValue coerces the value to the column's declared type and stores it.
func (t *Tuple) SetValue(column int, value interface{}) error {
	if column < 0 || column >= len(t.values) {
		return fmt.Errorf("column %d out of range [0, %d)", column, len(t.values))
	}
	if value == nil {
		t.values[column] = nil
		return nil
	}

	coerced, err := coerce(t.schema.Columns[column].Type, value)
	if err != nil {
		return fmt.Errorf("column %s: %w", t.schema.Columns[column].Name, err)
	}
	t.values[column] = coerced
	return nil
}

// IsNull reports whether the column holds NULL.
func (t *Tuple) IsNull(column int) bool {
	return t.GetValue(column) == nil
}

// ProjectInto copies the named column offsets into dest in order. dest
// must have exactly len(columns) columns.
func (t *Tuple) ProjectInto(dest *Tuple, columns []int) error {
	if dest.ColumnCount() != len(columns) {
		return domain.NewErrSchemaMismatch(len(columns), dest.ColumnCount())
	}
	for i, col := range columns {
		if col < 0 || col >= len(t.values) {
			return fmt.Errorf("projected column %d out of range [0, %d)", col, len(t.values))
		}
		dest.values[i] = t.values[col]
	}
	return nil
}

// EqualsKey reports whether both tuples hold identical values on the
// given column offsets of this tuple versus the first len(columns)
// columns of other.
func (t *Tuple) EqualsKey(other *Tuple, columns []int) bool {
	if other.ColumnCount() < len(columns) {
		return false
	}
	for i, col := range columns {
		if t.GetValue(col) != other.GetValue(i) {
			return false
		}
	}
	return true
}

// String returns the tuple values in parenthesized form.
func (t *Tuple) String() string {
	parts := make([]string, len(t.values))
	for i, v := range t.values {
		if v == nil {
			parts[i] = "NULL"
		} else {
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// coerce converts a value to the canonical Go representation of a column
// type: int64 for integers, float64 for floating point, string for
// character types, bool for booleans. Unknown types pass through.
func coerce(columnType string, value interface{}) (interface{}, error) {
	typ := strings.ToUpper(columnType)
	if i := strings.IndexByte(typ, '('); i >= 0 {
		typ = typ[:i]
	}

	switch typ {
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT":
		return cast.ToInt64E(value)
	case "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC":
		return cast.ToFloat64E(value)
	case "VARCHAR", "CHAR", "TEXT", "STRING":
		return cast.ToStringE(value)
	case "BOOL", "BOOLEAN":
		return cast.ToBoolE(value)
	default:
		return value, nil
	}
}
