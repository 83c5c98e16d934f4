package table

import (
	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/rowgroup"
)

// TransformRowGroup rewrites a row group under a new column-to-tile
// mapping: a replacement group with the same id and capacity is built, the
// values are copied column at a time, the MVCC header is copied bitwise
// and the directory entry is rebound. Readers that already resolved the
// old group keep seeing consistent state: slot indices are stable and the
// header carries over.
//
// Transformation is only safe on row groups at steady state: the group
// must not be the insertion tail. The caller selects such a group.
func (t *Table) TransformRowGroup(rowGroupID uint64, newColumnMap domain.ColumnMap, cleanup bool) (*rowgroup.RowGroup, error) {
	t.mu.Lock()
	owned := false
	for _, id := range t.rowGroups {
		if id == rowGroupID {
			owned = true
			break
		}
	}
	t.mu.Unlock()
	if !owned {
		return nil, domain.NewErrRowGroupNotFound(rowGroupID)
	}

	old, ok := t.directory.Lookup(rowGroupID)
	if !ok {
		return nil, domain.NewErrRowGroupNotFound(rowGroupID)
	}

	fresh, err := rowgroup.NewRowGroup(t.backend, rowGroupID, t.databaseID, t.tableID,
		old.Schema(), newColumnMap, old.AllocatedCount())
	if err != nil {
		return nil, err
	}

	// Column-at-a-time copy across the old and new tile layouts.
	columnCount := old.Schema().ColumnCount()
	allocated := old.AllocatedCount()
	for col := 0; col < columnCount; col++ {
		oldTile, oldOffset, _ := old.LocateTileAndColumn(col)
		newTile, newOffset, _ := fresh.LocateTileAndColumn(col)
		src := old.Tile(oldTile)
		dst := fresh.Tile(newTile)
		for slot := uint32(0); slot < allocated; slot++ {
			dst.SetValue(newOffset, slot, src.GetValue(oldOffset, slot))
		}
	}

	// Visibility metadata carries over unchanged.
	fresh.Header().CopyFrom(old.Header())

	if err := t.directory.Rebind(rowGroupID, fresh); err != nil {
		return nil, err
	}

	if cleanup {
		old.Release()
	}
	t.logger.Info("table %s: row group %d transformed to %d tiles (cleanup=%v)",
		t.name, rowGroupID, fresh.TileCount(), cleanup)
	return fresh, nil
}
