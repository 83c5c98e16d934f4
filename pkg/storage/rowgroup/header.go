package rowgroup

import (
	"sync"
	"sync/atomic"

	"github.com/kasuganosora/tilestore/pkg/mvcc"
)

// slotHeader carries the MVCC state of one tuple slot.
//
// State machine:
//
//	empty:              txnID=0       begin=0    end=0
//	uncommitted insert: txnID=owner   begin=MAX  end=MAX
//	committed:          txnID=0       begin=cid  end=MAX
//	delete-latched:     txnID=deleter begin=cid  end=MAX
//	deleted:            txnID=0       begin=cid  end=cid'
//	dead (aborted):     end=InvalidCommitID
type slotHeader struct {
	txnID    mvcc.TxnID
	beginCID mvcc.CommitID
	endCID   mvcc.CommitID
}

// Header is the MVCC header of a row group: per-slot visibility state plus
// the allocation high-water mark.
type Header struct {
	capacity uint32
	nextSlot atomic.Uint32 // high-water mark; may overshoot capacity
	slots    []slotHeader
	mu       sync.RWMutex
}

// NewHeader creates a header for the given slot capacity.
func NewHeader(capacity uint32) *Header {
	return &Header{
		capacity: capacity,
		slots:    make([]slotHeader, capacity),
	}
}

// AllocatedCount returns the fixed slot capacity.
func (h *Header) AllocatedCount() uint32 {
	return h.capacity
}

// NextSlot returns the allocation high-water mark, clamped to capacity.
func (h *Header) NextSlot() uint32 {
	n := h.nextSlot.Load()
	if n > h.capacity {
		return h.capacity
	}
	return n
}

// ClaimSlot atomically claims the next free slot. Returns false when the
// header is full. Losers of a concurrent claim on the last slot leave the
// counter overshot, which NextSlot clamps.
func (h *Header) ClaimSlot() (uint32, bool) {
	n := h.nextSlot.Add(1)
	if n > h.capacity {
		return 0, false
	}
	return n - 1, true
}

// InitSlot publishes a freshly claimed slot as an uncommitted insert owned
// by txnID. The caller must have written the tuple values first.
func (h *Header) InitSlot(slot uint32, txnID mvcc.TxnID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.slots[slot] = slotHeader{
		txnID:    txnID,
		beginCID: mvcc.MaxCommitID,
		endCID:   mvcc.MaxCommitID,
	}
}

// IsVisible reports whether the slot holds a live tuple from the point of
// view of txnID reading at lastCID.
func (h *Header) IsVisible(slot uint32, txnID mvcc.TxnID, lastCID mvcc.CommitID) bool {
	if slot >= h.capacity {
		return false
	}

	h.mu.RLock()
	s := h.slots[slot]
	h.mu.RUnlock()

	// Dead or never initialized.
	if s.endCID == mvcc.InvalidCommitID {
		return false
	}

	if s.txnID != mvcc.InvalidTxnID && s.txnID == txnID {
		if s.beginCID == mvcc.MaxCommitID {
			// Own uncommitted insert.
			return true
		}
		// Own pending delete.
		return false
	}

	// Someone else's uncommitted insert.
	if s.beginCID == mvcc.MaxCommitID {
		return false
	}

	return s.beginCID <= lastCID && lastCID < s.endCID
}

// DeleteTuple latches the slot for deletion by txnID. Returns false when
// the slot is already deleted or dead, latched by another transaction, or
// not yet visible at lastCID. Deleting one's own uncommitted insert kills
// the slot outright.
func (h *Header) DeleteTuple(txnID mvcc.TxnID, slot uint32, lastCID mvcc.CommitID) bool {
	if slot >= h.capacity {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s := &h.slots[slot]
	if s.endCID != mvcc.MaxCommitID {
		// Dead, empty, or already deleted.
		return false
	}
	if s.txnID != mvcc.InvalidTxnID {
		if s.txnID != txnID {
			// Latched by another writer.
			return false
		}
		if s.beginCID == mvcc.MaxCommitID {
			// Own uncommitted insert: kill it.
			s.endCID = mvcc.InvalidCommitID
			return true
		}
		// Already delete-latched by this transaction.
		return false
	}
	if s.beginCID == mvcc.MaxCommitID || s.beginCID > lastCID {
		// Not visible at this read point.
		return false
	}

	s.txnID = txnID
	return true
}

// CommitInsert finalizes an insert at the given commit id.
func (h *Header) CommitInsert(slot uint32, cid mvcc.CommitID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &h.slots[slot]
	if s.endCID == mvcc.InvalidCommitID {
		// Killed before commit (unique reclaim or self-delete); keep dead.
		return
	}
	s.txnID = mvcc.InvalidTxnID
	s.beginCID = cid
}

// AbortInsert kills a claimed slot. The slot stays allocated but can never
// become visible.
func (h *Header) AbortInsert(slot uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &h.slots[slot]
	s.txnID = mvcc.InvalidTxnID
	s.endCID = mvcc.InvalidCommitID
}

// CommitDelete finalizes a delete latch at the given commit id.
func (h *Header) CommitDelete(slot uint32, cid mvcc.CommitID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &h.slots[slot]
	if s.endCID != mvcc.MaxCommitID {
		// Insert-kill path already finalized the slot.
		return
	}
	s.txnID = mvcc.InvalidTxnID
	s.endCID = cid
}

// AbortDelete releases a delete latch, leaving the tuple live.
func (h *Header) AbortDelete(slot uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &h.slots[slot]
	if s.endCID != mvcc.MaxCommitID {
		return
	}
	s.txnID = mvcc.InvalidTxnID
}

// CopyFrom overwrites this header with a bitwise copy of other. Used by
// reorganization to carry visibility state to the rewritten row group.
func (h *Header) CopyFrom(other *Header) {
	other.mu.RLock()
	snapshot := make([]slotHeader, len(other.slots))
	copy(snapshot, other.slots)
	next := other.nextSlot.Load()
	other.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	copy(h.slots, snapshot)
	h.nextSlot.Store(next)
}
