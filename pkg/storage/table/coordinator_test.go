package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tilestore/pkg/mvcc"
	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/index"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

func keyFor(t *testing.T, idx index.Index, values ...interface{}) *tuple.Tuple {
	t.Helper()
	key, err := tuple.NewTupleWithValues(idx.Info().KeySchema, values...)
	require.NoError(t, err)
	return key
}

func commit(t *testing.T, mgr *mvcc.Manager, txn *mvcc.Transaction) {
	t.Helper()
	_, err := mgr.Commit(txn)
	require.NoError(t, err)
}

// A single insert is readable back through heap, index and stats.
func TestInsertTuple_SingleInsertReadBack(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	pk := addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	txn := begin(t, mgr)
	ptr := mustInsert(t, tbl, txn, 1, "a")

	assert.Equal(t, int64(1), tbl.GetRowCount())
	assert.Equal(t, 1, tbl.RowGroupCount())
	assert.True(t, tbl.IsDirty())
	assert.Equal(t, int64(1), pk.Info().RowCount())

	ptrs := pk.Scan(keyFor(t, pk, 1))
	require.Len(t, ptrs, 1)
	assert.Equal(t, ptr, ptrs[0])

	group, ok := tbl.Directory().Lookup(ptr.RowGroupID)
	require.True(t, ok)
	assert.True(t, group.IsVisible(ptr.Offset, txn.TransactionID(), txn.LastCommitID()))
	assert.Equal(t, int64(1), group.GetValue(ptr.Offset, 0))
	assert.Equal(t, "a", group.GetValue(ptr.Offset, 1))
}

// Every index on the tuple's key returns the new pointer.
func TestInsertTuple_RoundTripAllIndexes(t *testing.T) {
	tbl, mgr := newTestTable(t, 8)
	pk := addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)
	nameIdx := addIndex(t, tbl, "idx_users_name", index.ConstraintNone, 1)

	txn := begin(t, mgr)
	for i := 1; i <= 5; i++ {
		ptr := mustInsert(t, tbl, txn, i, "user")
		assert.Contains(t, pk.Scan(keyFor(t, pk, i)), ptr)
		assert.Contains(t, nameIdx.Scan(keyFor(t, nameIdx, "user")), ptr)
	}
}

// Inserting a key that is already visible on a primary index fails.
func TestInsertTuple_UniqueViolation(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	pk := addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	txn1 := begin(t, mgr)
	mustInsert(t, tbl, txn1, 1, "a")
	commit(t, mgr, txn1)

	txn2 := begin(t, mgr)
	ptr, err := tbl.InsertTuple(txn2, mustTuple(t, tbl, 1, "b"))
	assert.False(t, ptr.IsValid())
	var uv *domain.ErrUniqueViolation
	require.ErrorAs(t, err, &uv)
	assert.Equal(t, "pk_users", uv.IndexName)

	assert.Equal(t, int64(1), tbl.GetRowCount())
	assert.Len(t, pk.Scan(keyFor(t, pk, 1)), 1)

	// The losing slot is consumed but reclaimed: allocated, never visible.
	group, _ := tbl.Directory().Lookup(tbl.RowGroupIDs()[0])
	assert.Equal(t, uint32(2), group.NextSlot())
	assert.False(t, group.IsVisible(1, txn2.TransactionID(), txn2.LastCommitID()))

	// Committing the failed transaction must not resurrect the slot.
	commit(t, mgr, txn2)
	txn3 := begin(t, mgr)
	assert.False(t, group.IsVisible(1, txn3.TransactionID(), txn3.LastCommitID()))
}

// Uncommitted same-key inserts are not visible, so they do not block.
func TestInsertTuple_UncommittedEntryDoesNotBlock(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	txn1 := begin(t, mgr)
	mustInsert(t, tbl, txn1, 1, "a")

	// txn1 never committed: its entry is invisible to txn2. This is the
	// documented check-then-insert race surface.
	txn2 := begin(t, mgr)
	ptr, err := tbl.InsertTuple(txn2, mustTuple(t, tbl, 1, "b"))
	require.NoError(t, err)
	assert.True(t, ptr.IsValid())
}

// A committed delete frees the key for a later transaction.
func TestDeleteTuple_ThenReinsert(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	pk := addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	txn0 := begin(t, mgr)
	oldPtr := mustInsert(t, tbl, txn0, 5, "x")
	commit(t, mgr, txn0)

	txn1 := begin(t, mgr)
	require.True(t, tbl.DeleteTuple(txn1, oldPtr))
	assert.Equal(t, int64(0), tbl.GetRowCount())
	commit(t, mgr, txn1)

	txn2 := begin(t, mgr)
	newPtr := mustInsert(t, tbl, txn2, 5, "y")
	assert.Equal(t, int64(1), tbl.GetRowCount())

	// Stale index entry remains (delete never touches indexes); only the
	// new pointer is visible to txn2.
	ptrs := pk.Scan(keyFor(t, pk, 5))
	assert.Len(t, ptrs, 2)
	group, _ := tbl.Directory().Lookup(oldPtr.RowGroupID)
	assert.False(t, group.IsVisible(oldPtr.Offset, txn2.TransactionID(), txn2.LastCommitID()))
	newGroup, _ := tbl.Directory().Lookup(newPtr.RowGroupID)
	assert.True(t, newGroup.IsVisible(newPtr.Offset, txn2.TransactionID(), txn2.LastCommitID()))
}

func TestDeleteTuple_Failures(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)

	txn0 := begin(t, mgr)
	ptr := mustInsert(t, tbl, txn0, 1, "a")
	commit(t, mgr, txn0)

	// Unknown row group.
	txn1 := begin(t, mgr)
	assert.False(t, tbl.DeleteTuple(txn1, domain.ItemPointer{RowGroupID: 999, Offset: 0}))

	// First deleter latches, second is refused; the count drops once.
	txn2 := begin(t, mgr)
	require.True(t, tbl.DeleteTuple(txn1, ptr))
	assert.False(t, tbl.DeleteTuple(txn2, ptr))
	assert.Equal(t, int64(0), tbl.GetRowCount())

	// After the latch owner aborts, the tuple is live again.
	require.NoError(t, mgr.Abort(txn1))
	txn3 := begin(t, mgr)
	assert.True(t, tbl.DeleteTuple(txn3, ptr))
}

// Row count tracks successful inserts minus successful deletes.
func TestRowCount_InsertDelete(t *testing.T) {
	tbl, mgr := newTestTable(t, 8)

	txn := begin(t, mgr)
	ptrs := make([]domain.ItemPointer, 0, 6)
	for i := 0; i < 6; i++ {
		ptrs = append(ptrs, mustInsert(t, tbl, txn, i, "v"))
	}
	commit(t, mgr, txn)

	txn2 := begin(t, mgr)
	for _, p := range ptrs[:2] {
		require.True(t, tbl.DeleteTuple(txn2, p))
	}
	assert.Equal(t, int64(4), tbl.GetRowCount())

	tbl.ResetDirty()
	assert.False(t, tbl.IsDirty())
}

// A same-key update repoints the index and expires the old version.
func TestUpdateTuple_SameKey(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	pk := addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	txn := begin(t, mgr)
	oldPtr := mustInsert(t, tbl, txn, 7, "p")

	newPtr, err := tbl.UpdateTuple(txn, mustTuple(t, tbl, 7, "q"))
	require.NoError(t, err)
	require.True(t, newPtr.IsValid())
	assert.NotEqual(t, oldPtr, newPtr)

	// The index now points at the new version only.
	ptrs := pk.Scan(keyFor(t, pk, 7))
	require.Len(t, ptrs, 1)
	assert.Equal(t, newPtr, ptrs[0])

	// Old slot is expired by header policy; new one is live.
	group, _ := tbl.Directory().Lookup(oldPtr.RowGroupID)
	assert.False(t, group.IsVisible(oldPtr.Offset, txn.TransactionID(), txn.LastCommitID()))
	newGroup, _ := tbl.Directory().Lookup(newPtr.RowGroupID)
	assert.True(t, newGroup.IsVisible(newPtr.Offset, txn.TransactionID(), txn.LastCommitID()))

	// Update does not change the row count.
	assert.Equal(t, int64(1), tbl.GetRowCount())

	// After commit the new version stays the only visible one.
	commit(t, mgr, txn)
	reader := begin(t, mgr)
	assert.False(t, group.IsVisible(oldPtr.Offset, reader.TransactionID(), reader.LastCommitID()))
	assert.True(t, newGroup.IsVisible(newPtr.Offset, reader.TransactionID(), reader.LastCommitID()))

	newGroupRead, _ := tbl.Directory().Lookup(newPtr.RowGroupID)
	assert.Equal(t, "q", newGroupRead.GetValue(newPtr.Offset, 1))
}

// Same-key update across committed versions: the old committed version
// expires at commit time, not before, so concurrent readers keep seeing it.
func TestUpdateTuple_CommittedOldVersion(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	txn0 := begin(t, mgr)
	oldPtr := mustInsert(t, tbl, txn0, 7, "p")
	commit(t, mgr, txn0)

	reader := begin(t, mgr)

	txn1 := begin(t, mgr)
	_, err := tbl.UpdateTuple(txn1, mustTuple(t, tbl, 7, "q"))
	require.NoError(t, err)

	group, _ := tbl.Directory().Lookup(oldPtr.RowGroupID)
	// Reader still sees the old version while the update is in flight.
	assert.True(t, group.IsVisible(oldPtr.Offset, reader.TransactionID(), reader.LastCommitID()))

	commit(t, mgr, txn1)
	// A snapshot taken before the update commit keeps the old version.
	assert.True(t, group.IsVisible(oldPtr.Offset, reader.TransactionID(), reader.LastCommitID()))
	// A fresh snapshot does not.
	late := begin(t, mgr)
	assert.False(t, group.IsVisible(oldPtr.Offset, late.TransactionID(), late.LastCommitID()))
}

// Key-changing update falls back to fresh index insertion, skipping the
// visibility pre-check, so the new version's own key cannot self-conflict.
func TestUpdateTuple_KeyChangeFallback(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	pk := addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	txn := begin(t, mgr)
	mustInsert(t, tbl, txn, 1, "a")

	newPtr, err := tbl.UpdateTuple(txn, mustTuple(t, tbl, 2, "a"))
	require.NoError(t, err)
	require.True(t, newPtr.IsValid())

	ptrs := pk.Scan(keyFor(t, pk, 2))
	require.Len(t, ptrs, 1)
	assert.Equal(t, newPtr, ptrs[0])
}

func TestUpdateTuple_NoIndexes(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)

	txn := begin(t, mgr)
	mustInsert(t, tbl, txn, 1, "a")
	ptr, err := tbl.UpdateTuple(txn, mustTuple(t, tbl, 1, "b"))
	require.NoError(t, err)
	assert.True(t, ptr.IsValid())
}

func TestUpdateTuple_ConstraintViolation(t *testing.T) {
	tbl, mgr := newTestTable(t, 4)
	txn := begin(t, mgr)

	tup := tuple.NewTuple(tbl.Schema()) // id NULL
	ptr, err := tbl.UpdateTuple(txn, tup)
	assert.False(t, ptr.IsValid())
	var cv *domain.ErrConstraintViolation
	assert.ErrorAs(t, err, &cv)
}
