package index

import (
	"sync"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

// HashIndex is a hash-table index: encoded key → pointer list. Multiple
// pointers per key are expected even on unique indexes, because old MVCC
// versions and tombstoned slots stay listed until filtered by visibility.
type HashIndex struct {
	info    *IndexInfo
	codec   *KeyCodec
	entries map[string][]domain.ItemPointer
	mu      sync.RWMutex
}

// NewHashIndex creates a hash index.
func NewHashIndex(info *IndexInfo) *HashIndex {
	return &HashIndex{
		info:    info,
		codec:   NewKeyCodec(),
		entries: make(map[string][]domain.ItemPointer),
	}
}

// Info returns the index metadata.
func (idx *HashIndex) Info() *IndexInfo {
	return idx.info
}

// Insert adds an entry for the key. An exactly duplicate (key, ptr) pair
// is skipped so the update fallback path stays idempotent over indexes a
// failed same-key attempt already repointed.
func (idx *HashIndex) Insert(key *tuple.Tuple, ptr domain.ItemPointer) error {
	k := idx.codec.Encode(key)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, existing := range idx.entries[k] {
		if existing == ptr {
			return nil
		}
	}
	idx.entries[k] = append(idx.entries[k], ptr)
	return nil
}

// Update repoints an existing key to ptr: the key's pointer list collapses
// to the single new pointer. Returns false when the key has no entry.
func (idx *HashIndex) Update(key *tuple.Tuple, ptr domain.ItemPointer) bool {
	k := idx.codec.Encode(key)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.entries[k]) == 0 {
		return false
	}
	idx.entries[k] = []domain.ItemPointer{ptr}
	return true
}

// Delete removes the entry for (key, ptr).
func (idx *HashIndex) Delete(key *tuple.Tuple, ptr domain.ItemPointer) bool {
	k := idx.codec.Encode(key)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ptrs := idx.entries[k]
	for i, existing := range ptrs {
		if existing == ptr {
			idx.entries[k] = append(ptrs[:i], ptrs[i+1:]...)
			if len(idx.entries[k]) == 0 {
				delete(idx.entries, k)
			}
			return true
		}
	}
	return false
}

// Scan returns every pointer recorded for the key.
func (idx *HashIndex) Scan(key *tuple.Tuple) []domain.ItemPointer {
	k := idx.codec.Encode(key)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ptrs := idx.entries[k]
	result := make([]domain.ItemPointer, len(ptrs))
	copy(result, ptrs)
	return result
}

// Len returns the number of live entries.
func (idx *HashIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, ptrs := range idx.entries {
		n += len(ptrs)
	}
	return n
}
