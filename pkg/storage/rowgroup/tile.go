package rowgroup

import (
	"sync"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
)

// Tile is a column group: the values of a contiguous subset of columns
// for every slot of a row group, stored column-major.
type Tile struct {
	schema []domain.Column // columns in tile-offset order
	values [][]interface{} // [column offset][slot]
	mu     sync.RWMutex
}

// NewTile creates a tile for the given per-tile schema and slot capacity.
func NewTile(schema []domain.Column, capacity uint32) *Tile {
	values := make([][]interface{}, len(schema))
	for i := range values {
		values[i] = make([]interface{}, capacity)
	}
	return &Tile{
		schema: schema,
		values: values,
	}
}

// Schema returns the tile's column schema in offset order.
func (t *Tile) Schema() []domain.Column {
	return t.schema
}

// ColumnCount returns the number of columns in the tile.
func (t *Tile) ColumnCount() int {
	return len(t.schema)
}

// GetValue returns the value at (column offset, slot).
func (t *Tile) GetValue(columnOffset int, slot uint32) interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if columnOffset < 0 || columnOffset >= len(t.values) || slot >= uint32(len(t.values[columnOffset])) {
		return nil
	}
	return t.values[columnOffset][slot]
}

// SetValue stores a value at (column offset, slot).
func (t *Tile) SetValue(columnOffset int, slot uint32, value interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if columnOffset < 0 || columnOffset >= len(t.values) || slot >= uint32(len(t.values[columnOffset])) {
		return
	}
	t.values[columnOffset][slot] = value
}

// release drops the value arrays. Called through RowGroup.Release when a
// reorganization with cleanup or Directory.Destroy discards the group.
func (t *Tile) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = nil
}
