package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

func testInfo(kind IndexKind, constraint ConstraintType) *IndexInfo {
	return &IndexInfo{
		OID:           1,
		Name:          "idx_users_id",
		TableName:     "users",
		ColumnOffsets: []int{0},
		KeySchema:     intKeySchema(),
		Constraint:    constraint,
		Kind:          kind,
	}
}

func intKey(t *testing.T, v int) *tuple.Tuple {
	t.Helper()
	key, err := tuple.NewTupleWithValues(intKeySchema(), v)
	require.NoError(t, err)
	return key
}

func ptr(group uint64, offset uint32) domain.ItemPointer {
	return domain.ItemPointer{RowGroupID: group, Offset: offset}
}

func TestNew_Factory(t *testing.T) {
	hash, err := New(testInfo(IndexKindHash, ConstraintNone))
	require.NoError(t, err)
	assert.IsType(t, &HashIndex{}, hash)

	ordered, err := New(testInfo(IndexKindOrdered, ConstraintNone))
	require.NoError(t, err)
	assert.IsType(t, &OrderedIndex{}, ordered)

	_, err = New(testInfo(IndexKind("btree"), ConstraintNone))
	assert.Error(t, err)
}

func TestConstraintType(t *testing.T) {
	assert.True(t, ConstraintPrimary.IsUniqueLike())
	assert.True(t, ConstraintUnique.IsUniqueLike())
	assert.False(t, ConstraintNone.IsUniqueLike())
	assert.Equal(t, "PRIMARY", ConstraintPrimary.String())
	assert.Equal(t, "UNIQUE", ConstraintUnique.String())
	assert.Equal(t, "NONE", ConstraintNone.String())
}

// runIndexContract exercises the shared Index contract on both kinds.
func runIndexContract(t *testing.T, build func() Index) {
	t.Run("insert and scan", func(t *testing.T) {
		idx := build()
		require.NoError(t, idx.Insert(intKey(t, 1), ptr(1, 0)))
		require.NoError(t, idx.Insert(intKey(t, 1), ptr(1, 1)))
		require.NoError(t, idx.Insert(intKey(t, 2), ptr(1, 2)))

		assert.ElementsMatch(t,
			[]domain.ItemPointer{ptr(1, 0), ptr(1, 1)},
			idx.Scan(intKey(t, 1)))
		assert.Empty(t, idx.Scan(intKey(t, 9)))
		assert.Equal(t, 3, idx.Len())
	})

	t.Run("duplicate insert is idempotent", func(t *testing.T) {
		idx := build()
		require.NoError(t, idx.Insert(intKey(t, 1), ptr(1, 0)))
		require.NoError(t, idx.Insert(intKey(t, 1), ptr(1, 0)))
		assert.Equal(t, 1, idx.Len())
	})

	t.Run("update repoints", func(t *testing.T) {
		idx := build()
		assert.False(t, idx.Update(intKey(t, 1), ptr(2, 0)))

		require.NoError(t, idx.Insert(intKey(t, 1), ptr(1, 0)))
		assert.True(t, idx.Update(intKey(t, 1), ptr(2, 0)))
		assert.Equal(t, []domain.ItemPointer{ptr(2, 0)}, idx.Scan(intKey(t, 1)))
	})

	t.Run("delete removes entry", func(t *testing.T) {
		idx := build()
		require.NoError(t, idx.Insert(intKey(t, 1), ptr(1, 0)))
		require.NoError(t, idx.Insert(intKey(t, 1), ptr(1, 1)))

		assert.True(t, idx.Delete(intKey(t, 1), ptr(1, 0)))
		assert.Equal(t, []domain.ItemPointer{ptr(1, 1)}, idx.Scan(intKey(t, 1)))
		assert.False(t, idx.Delete(intKey(t, 1), ptr(1, 0)))
		assert.True(t, idx.Delete(intKey(t, 1), ptr(1, 1)))
		assert.Equal(t, 0, idx.Len())
	})
}

func TestHashIndex_Contract(t *testing.T) {
	runIndexContract(t, func() Index {
		return NewHashIndex(testInfo(IndexKindHash, ConstraintPrimary))
	})
}

func TestOrderedIndex_Contract(t *testing.T) {
	runIndexContract(t, func() Index {
		return NewOrderedIndex(testInfo(IndexKindOrdered, ConstraintPrimary))
	})
}

func TestOrderedIndex_ScanRange(t *testing.T) {
	idx := NewOrderedIndex(testInfo(IndexKindOrdered, ConstraintNone))
	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Insert(intKey(t, i), ptr(1, uint32(i))))
	}

	result := idx.ScanRange(intKey(t, 3), intKey(t, 6))
	assert.Equal(t, []domain.ItemPointer{ptr(1, 3), ptr(1, 4), ptr(1, 5), ptr(1, 6)}, result)

	assert.Empty(t, idx.ScanRange(intKey(t, 50), intKey(t, 60)))
}

func TestOrderedIndex_ScanRangeAfterDelete(t *testing.T) {
	idx := NewOrderedIndex(testInfo(IndexKindOrdered, ConstraintNone))
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Insert(intKey(t, i), ptr(1, uint32(i))))
	}
	require.True(t, idx.Delete(intKey(t, 2), ptr(1, 2)))

	result := idx.ScanRange(intKey(t, 0), intKey(t, 4))
	assert.Equal(t, []domain.ItemPointer{ptr(1, 0), ptr(1, 1), ptr(1, 3), ptr(1, 4)}, result)
}

func TestIndexInfo_RowCount(t *testing.T) {
	info := testInfo(IndexKindHash, ConstraintNone)
	assert.Equal(t, int64(0), info.RowCount())
	info.IncreaseRowCount(2)
	info.IncreaseRowCount(1)
	assert.Equal(t, int64(3), info.RowCount())
}
