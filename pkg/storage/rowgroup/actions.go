package rowgroup

import (
	"github.com/kasuganosora/tilestore/pkg/mvcc"
)

// InsertAction finalizes an insert on commit and kills the slot on abort.
type InsertAction struct {
	group *RowGroup
	slot  uint32
}

// NewInsertAction records a pending insert for transaction finalization.
func NewInsertAction(group *RowGroup, slot uint32) *InsertAction {
	return &InsertAction{group: group, slot: slot}
}

// Commit publishes the insert at the given commit id.
func (a *InsertAction) Commit(cid mvcc.CommitID) {
	a.group.header.CommitInsert(a.slot, cid)
}

// Abort kills the claimed slot.
func (a *InsertAction) Abort() {
	a.group.header.AbortInsert(a.slot)
}

// DeleteAction finalizes a delete latch on commit and releases it on abort.
type DeleteAction struct {
	group *RowGroup
	slot  uint32
}

// NewDeleteAction records a pending delete for transaction finalization.
func NewDeleteAction(group *RowGroup, slot uint32) *DeleteAction {
	return &DeleteAction{group: group, slot: slot}
}

// Commit expires the tuple at the given commit id.
func (a *DeleteAction) Commit(cid mvcc.CommitID) {
	a.group.header.CommitDelete(a.slot, cid)
}

// Abort releases the delete latch, leaving the tuple live.
func (a *DeleteAction) Abort() {
	a.group.header.AbortDelete(a.slot)
}
