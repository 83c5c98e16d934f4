package index

import (
	"sort"
	"sync"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

// OrderedIndex keeps encoded keys in a sorted slice over the same
// key → pointer-list map as HashIndex, adding range scans. The key codec
// is order-preserving, so bytewise key order equals value order.
type OrderedIndex struct {
	info    *IndexInfo
	codec   *KeyCodec
	keys    []string // sorted
	entries map[string][]domain.ItemPointer
	mu      sync.RWMutex
}

// NewOrderedIndex creates an ordered index.
func NewOrderedIndex(info *IndexInfo) *OrderedIndex {
	return &OrderedIndex{
		info:    info,
		codec:   NewKeyCodec(),
		entries: make(map[string][]domain.ItemPointer),
	}
}

// Info returns the index metadata.
func (idx *OrderedIndex) Info() *IndexInfo {
	return idx.info
}

// Insert adds an entry for the key, keeping the key slice sorted.
func (idx *OrderedIndex) Insert(key *tuple.Tuple, ptr domain.ItemPointer) error {
	k := idx.codec.Encode(key)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ptrs, exists := idx.entries[k]
	if !exists {
		pos := sort.SearchStrings(idx.keys, k)
		idx.keys = append(idx.keys, "")
		copy(idx.keys[pos+1:], idx.keys[pos:])
		idx.keys[pos] = k
	}
	for _, existing := range ptrs {
		if existing == ptr {
			return nil
		}
	}
	idx.entries[k] = append(ptrs, ptr)
	return nil
}

// Update repoints an existing key to ptr.
func (idx *OrderedIndex) Update(key *tuple.Tuple, ptr domain.ItemPointer) bool {
	k := idx.codec.Encode(key)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.entries[k]) == 0 {
		return false
	}
	idx.entries[k] = []domain.ItemPointer{ptr}
	return true
}

// Delete removes the entry for (key, ptr), dropping the key from the
// sorted slice when its list empties.
func (idx *OrderedIndex) Delete(key *tuple.Tuple, ptr domain.ItemPointer) bool {
	k := idx.codec.Encode(key)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	ptrs := idx.entries[k]
	for i, existing := range ptrs {
		if existing != ptr {
			continue
		}
		idx.entries[k] = append(ptrs[:i], ptrs[i+1:]...)
		if len(idx.entries[k]) == 0 {
			delete(idx.entries, k)
			pos := sort.SearchStrings(idx.keys, k)
			if pos < len(idx.keys) && idx.keys[pos] == k {
				idx.keys = append(idx.keys[:pos], idx.keys[pos+1:]...)
			}
		}
		return true
	}
	return false
}

// Scan returns every pointer recorded for the key.
func (idx *OrderedIndex) Scan(key *tuple.Tuple) []domain.ItemPointer {
	k := idx.codec.Encode(key)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ptrs := idx.entries[k]
	result := make([]domain.ItemPointer, len(ptrs))
	copy(result, ptrs)
	return result
}

// ScanRange returns the pointers for every key in [low, high], both
// inclusive, in key order.
func (idx *OrderedIndex) ScanRange(low, high *tuple.Tuple) []domain.ItemPointer {
	lo := idx.codec.Encode(low)
	hi := idx.codec.Encode(high)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	start := sort.SearchStrings(idx.keys, lo)
	var result []domain.ItemPointer
	for i := start; i < len(idx.keys) && idx.keys[i] <= hi; i++ {
		result = append(result, idx.entries[idx.keys[i]]...)
	}
	return result
}

// Len returns the number of live entries.
func (idx *OrderedIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, ptrs := range idx.entries {
		n += len(ptrs)
	}
	return n
}
