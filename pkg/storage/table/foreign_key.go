package table

import (
	"fmt"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
)

// ForeignKeyBuilder assembles a foreign-key descriptor. Build validates
// the descriptor; AddForeignKey attaches it to the table.
type ForeignKeyBuilder struct {
	fk *domain.ForeignKeyInfo
}

// NewForeignKeyBuilder starts a descriptor with the given constraint name.
func NewForeignKeyBuilder(name string) *ForeignKeyBuilder {
	return &ForeignKeyBuilder{fk: &domain.ForeignKeyInfo{Name: name}}
}

// Source names the constrained columns of the owning table.
func (b *ForeignKeyBuilder) Source(columns ...string) *ForeignKeyBuilder {
	b.fk.SourceColumns = columns
	return b
}

// References names the referenced table and columns.
func (b *ForeignKeyBuilder) References(table string, columns ...string) *ForeignKeyBuilder {
	b.fk.RefTable = table
	b.fk.RefColumns = columns
	return b
}

// OnDelete sets the delete policy (CASCADE, SET NULL, NO ACTION).
func (b *ForeignKeyBuilder) OnDelete(policy string) *ForeignKeyBuilder {
	b.fk.OnDelete = policy
	return b
}

// OnUpdate sets the update policy.
func (b *ForeignKeyBuilder) OnUpdate(policy string) *ForeignKeyBuilder {
	b.fk.OnUpdate = policy
	return b
}

// Build validates and returns the descriptor.
func (b *ForeignKeyBuilder) Build() (*domain.ForeignKeyInfo, error) {
	if b.fk.Name == "" {
		return nil, fmt.Errorf("foreign key name cannot be empty")
	}
	if len(b.fk.SourceColumns) == 0 {
		return nil, fmt.Errorf("foreign key %s has no source columns", b.fk.Name)
	}
	if b.fk.RefTable == "" {
		return nil, fmt.Errorf("foreign key %s has no referenced table", b.fk.Name)
	}
	if len(b.fk.RefColumns) != len(b.fk.SourceColumns) {
		return nil, fmt.Errorf("foreign key %s: %d source columns vs %d referenced columns",
			b.fk.Name, len(b.fk.SourceColumns), len(b.fk.RefColumns))
	}
	return b.fk, nil
}

// ==================== Table foreign-key management ====================

// AddForeignKey deep-copies the descriptor into the table and attaches a
// constraint to each named source column of the schema. This is the only
// write-through from foreign-key metadata into the schema, and it happens
// under the table mutex.
func (t *Table) AddForeignKey(fk *domain.ForeignKeyInfo) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	owned := fk.Clone()
	for _, col := range owned.SourceColumns {
		if err := t.schema.AttachForeignKey(col, owned); err != nil {
			return err
		}
	}
	t.foreignKeys = append(t.foreignKeys, owned)
	return nil
}

// DropForeignKey removes a descriptor by name and detaches its column
// constraints from the schema.
func (t *Table) DropForeignKey(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, fk := range t.foreignKeys {
		if fk.Name != name {
			continue
		}
		for _, col := range fk.SourceColumns {
			t.schema.DetachForeignKey(col, name)
		}
		t.foreignKeys = append(t.foreignKeys[:i], t.foreignKeys[i+1:]...)
		return nil
	}
	return domain.NewErrForeignKeyNotFound(name)
}

// GetForeignKeyByOffset returns the descriptor at a list offset.
func (t *Table) GetForeignKeyByOffset(offset int) (*domain.ForeignKeyInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if offset < 0 || offset >= len(t.foreignKeys) {
		return nil, false
	}
	return t.foreignKeys[offset], true
}

// ForeignKeyCount returns the number of descriptors.
func (t *Table) ForeignKeyCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.foreignKeys)
}
