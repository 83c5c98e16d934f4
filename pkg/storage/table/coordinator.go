package table

import (
	"fmt"

	"github.com/kasuganosora/tilestore/pkg/mvcc"
	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/index"
	"github.com/kasuganosora/tilestore/pkg/storage/rowgroup"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

// projectKey builds the key tuple for an index from a full-width tuple.
func projectKey(idx index.Index, tup *tuple.Tuple) (*tuple.Tuple, error) {
	info := idx.Info()
	key := tuple.NewTuple(info.KeySchema)
	if err := tup.ProjectInto(key, info.ColumnOffsets); err != nil {
		return nil, err
	}
	return key, nil
}

// InsertTuple claims a slot, enforces primary/unique constraints against
// visible index entries, inserts into every index and bumps the stats.
// Returns the invalid pointer with a typed error on constraint or
// uniqueness failure.
func (t *Table) InsertTuple(txn *mvcc.Transaction, tup *tuple.Tuple) (domain.ItemPointer, error) {
	ptr, err := t.GetTupleSlot(txn, tup)
	if err != nil {
		return domain.InvalidItemPointer, err
	}

	indexes := t.snapshotIndexes()

	// Uniqueness gate, newest index first. Any pointer visible to txn for
	// the same key aborts the whole insert. The check and the inserts
	// below are not atomic across indexes; concurrent same-key inserters
	// may both pass; serializability belongs to the layer above.
	for i := len(indexes) - 1; i >= 0; i-- {
		idx := indexes[i]
		if !idx.Info().Constraint.IsUniqueLike() {
			continue
		}
		key, err := projectKey(idx, tup)
		if err != nil {
			t.reclaimSlot(ptr)
			return domain.InvalidItemPointer, err
		}
		for _, cand := range idx.Scan(key) {
			if cand == ptr {
				continue
			}
			group, ok := t.directory.Lookup(cand.RowGroupID)
			if !ok {
				continue
			}
			if group.IsVisible(cand.Offset, txn.TransactionID(), txn.LastCommitID()) {
				t.reclaimSlot(ptr)
				t.logger.Warn("table %s: unique violation on index %s, slot %s reclaimed",
					t.name, idx.Info().Name, ptr)
				return domain.InvalidItemPointer, domain.NewErrUniqueViolation(idx.Info().Name, key.String())
			}
		}
	}

	t.insertInIndexes(indexes, tup, ptr)

	t.stats.IncreaseRowCount(1)
	return ptr, nil
}

// insertInIndexes inserts (key, ptr) into every index, without any
// visibility check. A failure here, after the uniqueness gate has passed,
// is an invariant violation.
func (t *Table) insertInIndexes(indexes []index.Index, tup *tuple.Tuple, ptr domain.ItemPointer) {
	for _, idx := range indexes {
		key, err := projectKey(idx, tup)
		if err != nil {
			panic(fmt.Sprintf("table %s: key projection for index %s failed after constraint check: %v",
				t.name, idx.Info().Name, err))
		}
		if err := idx.Insert(key, ptr); err != nil {
			panic(fmt.Sprintf("table %s: index %s insert failed after uniqueness check: %v",
				t.name, idx.Info().Name, err))
		}
		idx.Info().IncreaseRowCount(1)
	}
}

// reclaimSlot kills a claimed heap slot that will never get an index
// entry. The slot stays allocated but can never become visible.
func (t *Table) reclaimSlot(ptr domain.ItemPointer) {
	group, ok := t.directory.Lookup(ptr.RowGroupID)
	if !ok {
		return
	}
	group.Header().AbortInsert(ptr.Offset)
}

// UpdateTuple installs a new version of a row: a fresh slot is always
// claimed, then every index is asked for a same-key repoint. When all
// repoint, the previous visible version is delete-latched so it expires
// with the transaction. When any index reports no same-key entry, the
// pointers are freshly inserted instead, without the visibility
// pre-check, which would self-conflict against the new version's own key.
func (t *Table) UpdateTuple(txn *mvcc.Transaction, tup *tuple.Tuple) (domain.ItemPointer, error) {
	ptr, err := t.GetTupleSlot(txn, tup)
	if err != nil {
		return domain.InvalidItemPointer, err
	}

	indexes := t.snapshotIndexes()
	if len(indexes) == 0 {
		return ptr, nil
	}

	// Capture the previous visible version before any index mutates.
	var oldPtrs []domain.ItemPointer
	firstKey, err := projectKey(indexes[0], tup)
	if err != nil {
		t.reclaimSlot(ptr)
		return domain.InvalidItemPointer, err
	}
	for _, cand := range indexes[0].Scan(firstKey) {
		if cand == ptr {
			continue
		}
		group, ok := t.directory.Lookup(cand.RowGroupID)
		if !ok {
			continue
		}
		if group.IsVisible(cand.Offset, txn.TransactionID(), txn.LastCommitID()) {
			oldPtrs = append(oldPtrs, cand)
		}
	}

	sameKey := true
	for _, idx := range indexes {
		key, err := projectKey(idx, tup)
		if err != nil {
			t.reclaimSlot(ptr)
			return domain.InvalidItemPointer, err
		}
		if !idx.Update(key, ptr) {
			sameKey = false
			break
		}
	}

	if sameKey {
		for _, old := range oldPtrs {
			group, ok := t.directory.Lookup(old.RowGroupID)
			if !ok {
				continue
			}
			if group.DeleteTuple(txn.TransactionID(), old.Offset, txn.LastCommitID()) {
				txn.Record(rowgroup.NewDeleteAction(group, old.Offset))
			}
		}
		return ptr, nil
	}

	t.insertInIndexes(indexes, tup, ptr)
	return ptr, nil
}

// DeleteTuple marks the slot deleted through its row group's header.
// Indexes are left untouched: stale pointers remain and downstream
// scanners filter them by visibility.
func (t *Table) DeleteTuple(txn *mvcc.Transaction, ptr domain.ItemPointer) bool {
	group, ok := t.directory.Lookup(ptr.RowGroupID)
	if !ok {
		return false
	}
	if !group.DeleteTuple(txn.TransactionID(), ptr.Offset, txn.LastCommitID()) {
		return false
	}
	txn.Record(rowgroup.NewDeleteAction(group, ptr.Offset))
	t.stats.DecreaseRowCount(1)
	return true
}
