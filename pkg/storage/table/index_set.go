package table

import (
	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/index"
)

// indexSet is the ordered index collection plus its derived metadata. It
// has no lock of its own: the owning table's mutex guards every mutation
// and read of the slice.
type indexSet struct {
	indexes               []index.Index
	hasPrimaryKey         bool
	uniqueConstraintCount int
}

func (s *indexSet) add(idx index.Index) {
	s.indexes = append(s.indexes, idx)
	s.recompute()
}

func (s *indexSet) dropByOID(oid uint64) (index.Index, bool) {
	for i, idx := range s.indexes {
		if idx.Info().OID == oid {
			s.indexes = append(s.indexes[:i], s.indexes[i+1:]...)
			s.recompute()
			return idx, true
		}
	}
	return nil, false
}

// recompute rebuilds the derived flags from the index list.
func (s *indexSet) recompute() {
	s.hasPrimaryKey = false
	s.uniqueConstraintCount = 0
	for _, idx := range s.indexes {
		switch idx.Info().Constraint {
		case index.ConstraintPrimary:
			s.hasPrimaryKey = true
		case index.ConstraintUnique:
			s.uniqueConstraintCount++
		}
	}
}

// snapshot copies the index slice for use outside the table mutex.
func (s *indexSet) snapshot() []index.Index {
	out := make([]index.Index, len(s.indexes))
	copy(out, s.indexes)
	return out
}

// ==================== Table index management ====================

// AddIndex appends an index and refreshes the derived constraint flags.
func (t *Table) AddIndex(idx index.Index) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indexSet.add(idx)
}

// GetIndexByOffset returns the index at a list offset.
func (t *Table) GetIndexByOffset(offset int) (index.Index, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if offset < 0 || offset >= len(t.indexSet.indexes) {
		return nil, false
	}
	return t.indexSet.indexes[offset], true
}

// GetIndexByOID returns the index with the given object id.
func (t *Table) GetIndexByOID(oid uint64) (index.Index, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, idx := range t.indexSet.indexes {
		if idx.Info().OID == oid {
			return idx, true
		}
	}
	return nil, false
}

// DropIndexByOID removes the index with the given object id from the
// table's list. The index object itself stays alive for its holders.
func (t *Table) DropIndexByOID(oid uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.indexSet.dropByOID(oid); !ok {
		return domain.NewErrIndexNotFound(oid, "")
	}
	return nil
}

// IndexCount returns the number of indexes.
func (t *Table) IndexCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.indexSet.indexes)
}

// HasPrimaryKey reports whether any index carries the primary constraint.
func (t *Table) HasPrimaryKey() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexSet.hasPrimaryKey
}

// UniqueConstraintCount returns the number of unique (non-primary)
// indexes.
func (t *Table) UniqueConstraintCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexSet.uniqueConstraintCount
}

// snapshotIndexes copies the index list for work outside the mutex.
func (t *Table) snapshotIndexes() []index.Index {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.indexSet.snapshot()
}
