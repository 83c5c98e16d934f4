package rowgroup

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kasuganosora/tilestore/pkg/storage/backend"
	"github.com/kasuganosora/tilestore/pkg/storage/domain"
)

// Directory is the process-wide row-group registry: it maps row-group ids
// to live objects, mints fresh object ids, and mirrors layout metadata to
// the storage backend. Its lifetime must outlive every table built on it.
type Directory struct {
	groups  map[uint64]*RowGroup
	nextOID atomic.Uint64
	backend backend.Backend
	mu      sync.RWMutex
}

// NewDirectory creates a directory over the given backend.
func NewDirectory(be backend.Backend) *Directory {
	return &Directory{
		groups:  make(map[uint64]*RowGroup),
		backend: be,
	}
}

// Backend returns the backend handle the directory mirrors into.
func (d *Directory) Backend() backend.Backend {
	return d.backend
}

// MintOID allocates a fresh, never-reused object id. Ids start at 1 so
// that 0 stays reserved for the invalid pointer sentinel.
func (d *Directory) MintOID() uint64 {
	return d.nextOID.Add(1)
}

// Register installs a freshly constructed row group under its id and
// persists its layout metadata. Registering an id twice is an error;
// growth-race losers discard their candidates without registering.
func (d *Directory) Register(g *RowGroup) error {
	d.mu.Lock()
	if _, exists := d.groups[g.ID()]; exists {
		d.mu.Unlock()
		return fmt.Errorf("row group %d is already registered", g.ID())
	}
	d.groups[g.ID()] = g
	d.mu.Unlock()

	return d.backend.SaveGroupMeta(g.Meta())
}

// Lookup resolves a row group by id.
func (d *Directory) Lookup(id uint64) (*RowGroup, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	g, ok := d.groups[id]
	return g, ok
}

// Rebind atomically replaces the row group bound to an id. Readers that
// already resolved the old group keep using it; the replacement preserves
// all MVCC state, so slot indices remain stable.
func (d *Directory) Rebind(id uint64, g *RowGroup) error {
	if g.ID() != id {
		return fmt.Errorf("cannot rebind id %d to row group %d", id, g.ID())
	}

	d.mu.Lock()
	if _, exists := d.groups[id]; !exists {
		d.mu.Unlock()
		return domain.NewErrRowGroupNotFound(id)
	}
	d.groups[id] = g
	d.mu.Unlock()

	return d.backend.SaveGroupMeta(g.Meta())
}

// Destroy removes a row group from the directory and deletes its
// persisted metadata.
func (d *Directory) Destroy(id uint64) error {
	d.mu.Lock()
	g, exists := d.groups[id]
	if !exists {
		d.mu.Unlock()
		return domain.NewErrRowGroupNotFound(id)
	}
	delete(d.groups, id)
	d.mu.Unlock()

	g.Release()
	return d.backend.DeleteGroupMeta(id)
}

// Len returns the number of registered row groups.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.groups)
}

// Close destroys every registered group and closes the backend.
func (d *Directory) Close() error {
	d.mu.Lock()
	ids := make([]uint64, 0, len(d.groups))
	for id := range d.groups {
		ids = append(ids, id)
	}
	d.groups = make(map[uint64]*RowGroup)
	d.mu.Unlock()

	for _, id := range ids {
		if err := d.backend.DeleteGroupMeta(id); err != nil {
			return err
		}
	}
	return d.backend.Close()
}
