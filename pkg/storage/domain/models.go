package domain

import (
	"fmt"
	"math"
)

// Column describes a single table column.
type Column struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Nullable   bool            `json:"nullable"`
	Primary    bool            `json:"primary,omitempty"`
	Unique     bool            `json:"unique,omitempty"`
	Default    string          `json:"default,omitempty"`
	ForeignKey *ForeignKeyInfo `json:"foreign_key,omitempty"`
}

// Schema is the ordered column layout of a table. It is immutable after
// construction except for foreign-key constraint attachment, which the
// owning table performs under its mutex.
type Schema struct {
	Columns []Column `json:"columns"`
}

// ForeignKeyInfo is a foreign-key descriptor. The table owns its
// descriptors (deep-copied on add) and writes a per-column constraint
// through to the schema.
type ForeignKeyInfo struct {
	Name          string   `json:"name"`
	SourceColumns []string `json:"source_columns"`
	RefTable      string   `json:"ref_table"`
	RefColumns    []string `json:"ref_columns"`
	OnDelete      string   `json:"on_delete,omitempty"` // CASCADE, SET NULL, NO ACTION
	OnUpdate      string   `json:"on_update,omitempty"`
}

// Clone returns a deep copy of the descriptor.
func (fk *ForeignKeyInfo) Clone() *ForeignKeyInfo {
	if fk == nil {
		return nil
	}
	clone := &ForeignKeyInfo{
		Name:     fk.Name,
		RefTable: fk.RefTable,
		OnDelete: fk.OnDelete,
		OnUpdate: fk.OnUpdate,
	}
	clone.SourceColumns = make([]string, len(fk.SourceColumns))
	copy(clone.SourceColumns, fk.SourceColumns)
	clone.RefColumns = make([]string, len(fk.RefColumns))
	copy(clone.RefColumns, fk.RefColumns)
	return clone
}

// ==================== ItemPointer ====================

// ItemPointer identifies a physical tuple location: the row group that
// holds the slot, and the slot offset within it.
type ItemPointer struct {
	RowGroupID uint64 `json:"row_group_id"`
	Offset     uint32 `json:"offset"`
}

// InvalidItemPointer is the reserved sentinel returned by failed
// insert/update operations.
var InvalidItemPointer = ItemPointer{RowGroupID: 0, Offset: math.MaxUint32}

// IsValid reports whether the pointer refers to a real slot.
func (p ItemPointer) IsValid() bool {
	return p.RowGroupID != 0 && p.Offset != math.MaxUint32
}

// String returns the pointer in (group, offset) form.
func (p ItemPointer) String() string {
	if !p.IsValid() {
		return "(invalid)"
	}
	return fmt.Sprintf("(%d, %d)", p.RowGroupID, p.Offset)
}

// ==================== Column map ====================

// TileLocation is the physical address of a column within a row group:
// the tile it lives in and its offset inside that tile's schema.
type TileLocation struct {
	Tile   int `json:"tile"`
	Offset int `json:"offset"`
}

// ColumnMap maps a logical column index to its tile location.
type ColumnMap map[int]TileLocation

// DefaultColumnMap builds the single-tile identity mapping: every column
// lives in tile 0 at its own offset (row layout).
func DefaultColumnMap(columnCount int) ColumnMap {
	m := make(ColumnMap, columnCount)
	for i := 0; i < columnCount; i++ {
		m[i] = TileLocation{Tile: 0, Offset: i}
	}
	return m
}

// Locate returns the tile location for a logical column.
func (m ColumnMap) Locate(column int) (TileLocation, bool) {
	loc, ok := m[column]
	return loc, ok
}

// TileCount returns the number of tiles the map spans.
func (m ColumnMap) TileCount() int {
	count := 0
	for _, loc := range m {
		if loc.Tile+1 > count {
			count = loc.Tile + 1
		}
	}
	return count
}

// Clone returns a copy of the column map.
func (m ColumnMap) Clone() ColumnMap {
	clone := make(ColumnMap, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Validate checks that the map covers exactly the columns [0, columnCount)
// and that no two columns share a tile location.
func (m ColumnMap) Validate(columnCount int) error {
	if len(m) != columnCount {
		return fmt.Errorf("column map covers %d columns, schema has %d", len(m), columnCount)
	}
	seen := make(map[TileLocation]int, len(m))
	for col := 0; col < columnCount; col++ {
		loc, ok := m[col]
		if !ok {
			return fmt.Errorf("column map is missing column %d", col)
		}
		if loc.Tile < 0 || loc.Offset < 0 {
			return fmt.Errorf("column %d maps to negative location (%d, %d)", col, loc.Tile, loc.Offset)
		}
		if prev, dup := seen[loc]; dup {
			return fmt.Errorf("columns %d and %d both map to tile %d offset %d", prev, col, loc.Tile, loc.Offset)
		}
		seen[loc] = col
	}
	return nil
}
