package table

import (
	"fmt"
	"sync"

	"github.com/kasuganosora/tilestore/pkg/log"
	"github.com/kasuganosora/tilestore/pkg/mvcc"
	"github.com/kasuganosora/tilestore/pkg/storage/backend"
	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/rowgroup"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

// Table owns a table's physical layout: an append-ordered list of
// row-group ids whose tail is the active insertion target, the index set,
// the foreign-key set and the stats counters. One mutex guards exactly the
// three lists; header and index work happens outside it.
type Table struct {
	databaseID uint64
	tableID    uint64
	name       string

	schema            *domain.Schema
	tuplesPerRowGroup uint32

	directory *rowgroup.Directory
	backend   backend.Backend
	logger    log.Logger

	mu          sync.Mutex // guards rowGroups, indexSet, foreignKeys
	rowGroups   []uint64
	indexSet    indexSet
	foreignKeys []*domain.ForeignKeyInfo

	stats Stats
}

// NewTable creates a table with a seed row group.
func NewTable(dir *rowgroup.Directory, databaseID, tableID uint64, name string, schema *domain.Schema, tuplesPerRowGroup uint32, logger log.Logger) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if tuplesPerRowGroup == 0 {
		return nil, fmt.Errorf("tuples per row group must be positive")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	t := &Table{
		databaseID:        databaseID,
		tableID:           tableID,
		name:              name,
		schema:            schema,
		tuplesPerRowGroup: tuplesPerRowGroup,
		directory:         dir,
		backend:           dir.Backend(),
		logger:            logger,
	}

	if t.addDefaultRowGroup() == 0 {
		return nil, fmt.Errorf("failed to create seed row group for table %s", name)
	}
	return t, nil
}

// DatabaseID returns the owning database id.
func (t *Table) DatabaseID() uint64 {
	return t.databaseID
}

// TableID returns the table id.
func (t *Table) TableID() uint64 {
	return t.tableID
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Schema returns the table schema.
func (t *Table) Schema() *domain.Schema {
	return t.schema
}

// TuplesPerRowGroup returns the configured row-group capacity.
func (t *Table) TuplesPerRowGroup() uint32 {
	return t.tuplesPerRowGroup
}

// RowGroupCount returns the number of row groups.
func (t *Table) RowGroupCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rowGroups)
}

// RowGroupIDs returns a copy of the row-group id list in append order.
func (t *Table) RowGroupIDs() []uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]uint64, len(t.rowGroups))
	copy(ids, t.rowGroups)
	return ids
}

// GetTupleSlot claims a heap slot for the tuple, growing the table when
// the tail row group is full. No index work happens here.
func (t *Table) GetTupleSlot(txn *mvcc.Transaction, tup *tuple.Tuple) (domain.ItemPointer, error) {
	if err := t.checkConstraints(tup); err != nil {
		return domain.InvalidItemPointer, err
	}

	for {
		// Snapshot the tail under the mutex; the snapshot may go stale
		// before the insert below, which is benign: inserting into a full
		// group fails and the loop retries against the new tail.
		t.mu.Lock()
		tailID := t.rowGroups[len(t.rowGroups)-1]
		t.mu.Unlock()

		group, ok := t.directory.Lookup(tailID)
		if !ok {
			return domain.InvalidItemPointer, domain.NewErrRowGroupNotFound(tailID)
		}

		slot, ok := group.InsertTuple(txn.TransactionID(), tup)
		if ok {
			txn.Record(rowgroup.NewInsertAction(group, slot))
			return domain.ItemPointer{RowGroupID: tailID, Offset: slot}, nil
		}

		if t.addDefaultRowGroup() == 0 {
			// Either another writer grew (retry against the new tail) or
			// construction/registration failed. Only the latter leaves the
			// full tail in place; bail out instead of spinning.
			t.mu.Lock()
			sameTail := t.rowGroups[len(t.rowGroups)-1] == tailID
			t.mu.Unlock()
			if sameTail && group.NextSlot() == group.AllocatedCount() {
				return domain.InvalidItemPointer, fmt.Errorf("table %s: failed to grow beyond row group %d", t.name, tailID)
			}
		}
	}
}

// checkConstraints verifies schema conformance and non-null constraints.
// No slot is claimed on violation.
func (t *Table) checkConstraints(tup *tuple.Tuple) error {
	if tup.ColumnCount() != t.schema.ColumnCount() {
		return domain.NewErrSchemaMismatch(t.schema.ColumnCount(), tup.ColumnCount())
	}
	for i, col := range t.schema.Columns {
		if !col.IsNullable() && tup.IsNull(i) {
			return domain.NewErrConstraintViolation(col.Name, "null value in non-nullable column")
		}
	}
	return nil
}

// addDefaultRowGroup grows the table by one row group with the default
// single-tile column map. The candidate is pre-minted outside the mutex;
// under the mutex it is appended only if the tail is still full, so at
// most one growth wins per full tail. Losers discard their candidates and
// return 0.
func (t *Table) addDefaultRowGroup() uint64 {
	id := t.directory.MintOID()
	columnMap := domain.DefaultColumnMap(t.schema.ColumnCount())

	candidate, err := rowgroup.NewRowGroup(t.backend, id, t.databaseID, t.tableID, t.schema, columnMap, t.tuplesPerRowGroup)
	if err != nil {
		t.logger.Error("table %s: failed to construct row group candidate: %v", t.name, err)
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.rowGroups) > 0 {
		tailID := t.rowGroups[len(t.rowGroups)-1]
		tail, ok := t.directory.Lookup(tailID)
		if ok && tail.NextSlot() < tail.AllocatedCount() {
			// Another writer already grew; discard the candidate.
			t.logger.Debug("table %s: growth race lost, discarding candidate %d", t.name, id)
			return 0
		}
	}

	if err := t.directory.Register(candidate); err != nil {
		t.logger.Error("table %s: failed to register row group %d: %v", t.name, id, err)
		return 0
	}
	t.rowGroups = append(t.rowGroups, id)
	return id
}

// Directory returns the row-group directory the table resolves through.
func (t *Table) Directory() *rowgroup.Directory {
	return t.directory
}

// Drop destroys every row group owned by the table via the directory.
func (t *Table) Drop() error {
	t.mu.Lock()
	ids := make([]uint64, len(t.rowGroups))
	copy(ids, t.rowGroups)
	t.rowGroups = nil
	t.mu.Unlock()

	for _, id := range ids {
		if err := t.directory.Destroy(id); err != nil {
			return err
		}
	}
	return nil
}
