package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
)

func sampleMeta(id uint64) *GroupMeta {
	return &GroupMeta{
		RowGroupID:     id,
		DatabaseID:     1,
		TableID:        2,
		AllocatedCount: 16,
		ColumnMap:      domain.DefaultColumnMap(2),
		TileSchemas: [][]domain.Column{{
			{Name: "id", Type: "INT"},
			{Name: "name", Type: "VARCHAR", Nullable: true},
		}},
	}
}

func TestKeyEncoder_RoundTrip(t *testing.T) {
	enc := NewKeyEncoder()

	key := enc.EncodeGroupMetaKey(42)
	assert.Equal(t, "meta:rowgroup:42", string(key))

	id, ok := enc.DecodeGroupMetaKey(key)
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)

	_, ok = enc.DecodeGroupMetaKey([]byte("row:users:1"))
	assert.False(t, ok)
	_, ok = enc.DecodeGroupMetaKey([]byte("meta:rowgroup:abc"))
	assert.False(t, ok)
}

func TestMemoryBackend_SaveDelete(t *testing.T) {
	be := NewMemoryBackend()
	defer be.Close()

	assert.Equal(t, "memory", be.Name())
	assert.NotEmpty(t, be.ID())

	require.NoError(t, be.SaveGroupMeta(sampleMeta(1)))
	require.NoError(t, be.SaveGroupMeta(sampleMeta(2)))
	assert.Equal(t, 2, be.Len())

	meta, ok := be.GetGroupMeta(1)
	require.True(t, ok)
	assert.Equal(t, be.ID(), meta.BackendID)
	assert.Equal(t, uint32(16), meta.AllocatedCount)
	assert.False(t, meta.UpdatedAt.IsZero())

	require.NoError(t, be.DeleteGroupMeta(1))
	_, ok = be.GetGroupMeta(1)
	assert.False(t, ok)
	assert.Equal(t, 1, be.Len())

	// Deleting a missing id is not an error.
	require.NoError(t, be.DeleteGroupMeta(99))
}

func TestBadgerBackend_RoundTrip(t *testing.T) {
	be, err := NewBadgerBackend(t.TempDir())
	require.NoError(t, err)
	defer be.Close()

	assert.Equal(t, "badger", be.Name())

	require.NoError(t, be.SaveGroupMeta(sampleMeta(7)))

	meta, ok := be.GetGroupMeta(7)
	require.True(t, ok)
	assert.Equal(t, uint64(7), meta.RowGroupID)
	assert.Equal(t, be.ID(), meta.BackendID)
	assert.Equal(t, domain.DefaultColumnMap(2), meta.ColumnMap)
	require.Len(t, meta.TileSchemas, 1)
	assert.Equal(t, "id", meta.TileSchemas[0][0].Name)

	// Overwrite on rebind keeps a single entry per id.
	updated := sampleMeta(7)
	updated.ColumnMap = domain.ColumnMap{0: {Tile: 0, Offset: 0}, 1: {Tile: 1, Offset: 0}}
	require.NoError(t, be.SaveGroupMeta(updated))

	ids, err := be.ListGroupIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{7}, ids)

	meta, ok = be.GetGroupMeta(7)
	require.True(t, ok)
	assert.Equal(t, 2, meta.ColumnMap.TileCount())

	require.NoError(t, be.DeleteGroupMeta(7))
	_, ok = be.GetGroupMeta(7)
	assert.False(t, ok)

	require.NoError(t, be.DeleteGroupMeta(7)) // idempotent
}

func TestBadgerBackend_InMemory(t *testing.T) {
	be, err := NewBadgerBackend("")
	require.NoError(t, err)
	defer be.Close()

	require.NoError(t, be.SaveGroupMeta(sampleMeta(3)))
	_, ok := be.GetGroupMeta(3)
	assert.True(t, ok)
}
