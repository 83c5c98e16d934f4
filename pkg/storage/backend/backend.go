package backend

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
)

// GroupMeta is the catalog view of one row group: enough to describe its
// physical layout without the tuple data itself.
type GroupMeta struct {
	RowGroupID     uint64            `json:"row_group_id"`
	DatabaseID     uint64            `json:"database_id"`
	TableID        uint64            `json:"table_id"`
	AllocatedCount uint32            `json:"allocated_count"`
	ColumnMap      domain.ColumnMap  `json:"column_map"`
	TileSchemas    [][]domain.Column `json:"tile_schemas"`
	BackendID      string            `json:"backend_id"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Backend is the storage handle threaded through row-group construction
// and directory mutation. It keeps the catalog view of row-group layouts
// current; tuple data itself stays in the row groups.
type Backend interface {
	// Name identifies the backend kind.
	Name() string

	// SaveGroupMeta persists (or overwrites) a row group's layout metadata.
	SaveGroupMeta(meta *GroupMeta) error

	// DeleteGroupMeta removes a row group's layout metadata.
	DeleteGroupMeta(rowGroupID uint64) error

	// Close releases backend resources.
	Close() error
}

// ==================== Memory backend ====================

// MemoryBackend keeps group metadata in a process-local map. It is the
// default backend for tables that need no catalog persistence.
type MemoryBackend struct {
	id    string
	metas map[uint64]*GroupMeta
	mu    sync.RWMutex
}

// NewMemoryBackend creates a memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		id:    uuid.NewString(),
		metas: make(map[uint64]*GroupMeta),
	}
}

// Name identifies the backend kind.
func (b *MemoryBackend) Name() string {
	return "memory"
}

// ID returns the backend instance id.
func (b *MemoryBackend) ID() string {
	return b.id
}

// SaveGroupMeta stores the metadata, stamping it with the backend id.
func (b *MemoryBackend) SaveGroupMeta(meta *GroupMeta) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	meta.BackendID = b.id
	meta.UpdatedAt = time.Now()
	b.metas[meta.RowGroupID] = meta
	return nil
}

// DeleteGroupMeta removes the metadata for a row group.
func (b *MemoryBackend) DeleteGroupMeta(rowGroupID uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.metas, rowGroupID)
	return nil
}

// GetGroupMeta returns the stored metadata for a row group.
func (b *MemoryBackend) GetGroupMeta(rowGroupID uint64) (*GroupMeta, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta, ok := b.metas[rowGroupID]
	return meta, ok
}

// Len returns the number of stored group metas.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.metas)
}

// Close releases backend resources.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metas = make(map[uint64]*GroupMeta)
	return nil
}
