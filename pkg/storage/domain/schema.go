package domain

import (
	"errors"
	"fmt"
)

// Schema business methods

// NewSchema builds a schema from an ordered column list.
func NewSchema(columns ...Column) *Schema {
	return &Schema{Columns: columns}
}

// ColumnCount returns the number of columns.
func (s *Schema) ColumnCount() int {
	return len(s.Columns)
}

// HasColumn checks if a column exists.
func (s *Schema) HasColumn(name string) bool {
	for _, col := range s.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// GetColumn retrieves a column by name.
func (s *Schema) GetColumn(name string) (Column, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// ColumnOffset returns the position of a named column.
func (s *Schema) ColumnOffset(name string) (int, bool) {
	for i, col := range s.Columns {
		if col.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ColumnNames returns all column names in order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.Name
	}
	return names
}

// AttachForeignKey marks a named column as constrained by the given
// foreign key. The caller serializes this against readers.
func (s *Schema) AttachForeignKey(columnName string, fk *ForeignKeyInfo) error {
	for i := range s.Columns {
		if s.Columns[i].Name == columnName {
			s.Columns[i].ForeignKey = fk.Clone()
			return nil
		}
	}
	return NewErrColumnNotFound(columnName)
}

// DetachForeignKey removes a foreign-key constraint from a named column.
func (s *Schema) DetachForeignKey(columnName, fkName string) {
	for i := range s.Columns {
		if s.Columns[i].Name == columnName && s.Columns[i].ForeignKey != nil &&
			s.Columns[i].ForeignKey.Name == fkName {
			s.Columns[i].ForeignKey = nil
		}
	}
}

// Validate validates the schema structure.
func (s *Schema) Validate() error {
	if len(s.Columns) == 0 {
		return errors.New("schema must have at least one column")
	}

	seen := make(map[string]bool)
	for _, col := range s.Columns {
		if col.Name == "" {
			return errors.New("column name cannot be empty")
		}
		if col.Type == "" {
			return fmt.Errorf("column %s has no type", col.Name)
		}
		if seen[col.Name] {
			return fmt.Errorf("duplicate column name: %s", col.Name)
		}
		seen[col.Name] = true
	}
	return nil
}

// Clone creates a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	clone := &Schema{Columns: make([]Column, len(s.Columns))}
	for i, col := range s.Columns {
		c := col
		c.ForeignKey = col.ForeignKey.Clone()
		clone.Columns[i] = c
	}
	return clone
}

// IsNullable reports whether the column allows null values. Primary key
// columns are never nullable.
func (c Column) IsNullable() bool {
	if c.Primary {
		return false
	}
	return c.Nullable
}
