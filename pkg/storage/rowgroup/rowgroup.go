package rowgroup

import (
	"fmt"
	"sort"

	"github.com/kasuganosora/tilestore/pkg/mvcc"
	"github.com/kasuganosora/tilestore/pkg/storage/backend"
	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

// RowGroup is a fixed-capacity container of tuple slots backed by one or
// more tiles. It is the unit of allocation and of physical reorganization.
type RowGroup struct {
	id         uint64
	databaseID uint64
	tableID    uint64

	schema      *domain.Schema
	columnMap   domain.ColumnMap
	tileSchemas [][]domain.Column
	tiles       []*Tile
	header      *Header
	backend     backend.Backend
}

// NewRowGroup constructs a row group with the given layout. The backend
// handle is retained opaquely; metadata persistence happens at directory
// registration, not here, so discarded growth candidates leave no trace.
func NewRowGroup(be backend.Backend, id, databaseID, tableID uint64, schema *domain.Schema, columnMap domain.ColumnMap, capacity uint32) (*RowGroup, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("row group capacity must be positive")
	}
	if err := columnMap.Validate(schema.ColumnCount()); err != nil {
		return nil, err
	}

	tileSchemas, err := DeriveTileSchemas(schema, columnMap)
	if err != nil {
		return nil, err
	}

	tiles := make([]*Tile, len(tileSchemas))
	for i, ts := range tileSchemas {
		tiles[i] = NewTile(ts, capacity)
	}

	return &RowGroup{
		id:          id,
		databaseID:  databaseID,
		tableID:     tableID,
		schema:      schema,
		columnMap:   columnMap.Clone(),
		tileSchemas: tileSchemas,
		tiles:       tiles,
		header:      NewHeader(capacity),
		backend:     be,
	}, nil
}

// DeriveTileSchemas computes one schema per tile from a column map: each
// column's descriptor is placed in its target tile at its target offset,
// tiles emitted in ascending tile order, columns in ascending offset order.
func DeriveTileSchemas(schema *domain.Schema, columnMap domain.ColumnMap) ([][]domain.Column, error) {
	if err := columnMap.Validate(schema.ColumnCount()); err != nil {
		return nil, err
	}

	type placement struct {
		offset int
		column domain.Column
	}
	byTile := make(map[int][]placement)
	for col := 0; col < schema.ColumnCount(); col++ {
		loc := columnMap[col]
		byTile[loc.Tile] = append(byTile[loc.Tile], placement{offset: loc.Offset, column: schema.Columns[col]})
	}

	tileCount := columnMap.TileCount()
	schemas := make([][]domain.Column, tileCount)
	for t := 0; t < tileCount; t++ {
		placements := byTile[t]
		if len(placements) == 0 {
			return nil, fmt.Errorf("column map leaves tile %d empty", t)
		}
		sort.Slice(placements, func(i, j int) bool {
			return placements[i].offset < placements[j].offset
		})
		cols := make([]domain.Column, len(placements))
		for i, p := range placements {
			if p.offset != i {
				return nil, fmt.Errorf("tile %d has a gap at offset %d", t, i)
			}
			cols[i] = p.column
		}
		schemas[t] = cols
	}
	return schemas, nil
}

// ID returns the row group id.
func (g *RowGroup) ID() uint64 {
	return g.id
}

// DatabaseID returns the owning database id.
func (g *RowGroup) DatabaseID() uint64 {
	return g.databaseID
}

// TableID returns the owning table id.
func (g *RowGroup) TableID() uint64 {
	return g.tableID
}

// Schema returns the full table schema the group stores.
func (g *RowGroup) Schema() *domain.Schema {
	return g.schema
}

// Header returns the MVCC header.
func (g *RowGroup) Header() *Header {
	return g.header
}

// NextSlot returns the allocation high-water mark.
func (g *RowGroup) NextSlot() uint32 {
	return g.header.NextSlot()
}

// AllocatedCount returns the fixed slot capacity.
func (g *RowGroup) AllocatedCount() uint32 {
	return g.header.AllocatedCount()
}

// ColumnMap returns a copy of the column map.
func (g *RowGroup) ColumnMap() domain.ColumnMap {
	return g.columnMap.Clone()
}

// TileSchemas returns the per-tile schemas.
func (g *RowGroup) TileSchemas() [][]domain.Column {
	return g.tileSchemas
}

// TileCount returns the number of tiles.
func (g *RowGroup) TileCount() int {
	return len(g.tiles)
}

// Tile returns the tile at the given index.
func (g *RowGroup) Tile(t int) *Tile {
	if t < 0 || t >= len(g.tiles) {
		return nil
	}
	return g.tiles[t]
}

// LocateTileAndColumn resolves a logical column to its (tile, offset).
func (g *RowGroup) LocateTileAndColumn(column int) (int, int, bool) {
	loc, ok := g.columnMap.Locate(column)
	if !ok {
		return 0, 0, false
	}
	return loc.Tile, loc.Offset, true
}

// InsertTuple claims a slot, writes the tuple's values into the tiles and
// publishes the slot as an uncommitted insert owned by txnID. Returns
// false when the group is full.
func (g *RowGroup) InsertTuple(txnID mvcc.TxnID, tup *tuple.Tuple) (uint32, bool) {
	slot, ok := g.header.ClaimSlot()
	if !ok {
		return 0, false
	}

	for col := 0; col < g.schema.ColumnCount(); col++ {
		loc := g.columnMap[col]
		g.tiles[loc.Tile].SetValue(loc.Offset, slot, tup.GetValue(col))
	}
	g.header.InitSlot(slot, txnID)
	return slot, true
}

// DeleteTuple latches the slot for deletion. See Header.DeleteTuple.
func (g *RowGroup) DeleteTuple(txnID mvcc.TxnID, slot uint32, lastCID mvcc.CommitID) bool {
	return g.header.DeleteTuple(txnID, slot, lastCID)
}

// IsVisible answers the MVCC visibility predicate for one slot.
func (g *RowGroup) IsVisible(slot uint32, txnID mvcc.TxnID, lastCID mvcc.CommitID) bool {
	return g.header.IsVisible(slot, txnID, lastCID)
}

// GetValue reads a logical column value from a slot.
func (g *RowGroup) GetValue(slot uint32, column int) interface{} {
	loc, ok := g.columnMap.Locate(column)
	if !ok {
		return nil
	}
	return g.tiles[loc.Tile].GetValue(loc.Offset, slot)
}

// SetValue writes a logical column value into a slot.
func (g *RowGroup) SetValue(slot uint32, column int, value interface{}) {
	loc, ok := g.columnMap.Locate(column)
	if !ok {
		return
	}
	g.tiles[loc.Tile].SetValue(loc.Offset, slot, value)
}

// Meta builds the catalog view of the group for backend persistence.
func (g *RowGroup) Meta() *backend.GroupMeta {
	return &backend.GroupMeta{
		RowGroupID:     g.id,
		DatabaseID:     g.databaseID,
		TableID:        g.tableID,
		AllocatedCount: g.header.AllocatedCount(),
		ColumnMap:      g.columnMap.Clone(),
		TileSchemas:    g.tileSchemas,
	}
}

// Release drops tile storage. Called on groups replaced by a
// reorganization with cleanup and on groups removed by Directory.Destroy;
// holders that resolved the group earlier must not be reading it anymore
// (steady-state policy).
func (g *RowGroup) Release() {
	for _, t := range g.tiles {
		t.release()
	}
}

// String returns a short description of the group.
func (g *RowGroup) String() string {
	return fmt.Sprintf("RowGroup{id=%d, tiles=%d, slots=%d/%d}",
		g.id, len(g.tiles), g.NextSlot(), g.AllocatedCount())
}
