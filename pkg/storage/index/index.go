package index

import (
	"fmt"
	"sync/atomic"

	"github.com/kasuganosora/tilestore/pkg/storage/domain"
	"github.com/kasuganosora/tilestore/pkg/storage/tuple"
)

// IndexKind 索引类型
type IndexKind string

const (
	IndexKindHash    IndexKind = "hash"
	IndexKindOrdered IndexKind = "ordered"
)

// ConstraintType is the closed constraint enum driving the coordinator's
// visibility check.
type ConstraintType int

const (
	ConstraintNone ConstraintType = iota
	ConstraintUnique
	ConstraintPrimary
)

// String 返回约束类型的字符串表示
func (c ConstraintType) String() string {
	switch c {
	case ConstraintPrimary:
		return "PRIMARY"
	case ConstraintUnique:
		return "UNIQUE"
	case ConstraintNone:
		return "NONE"
	default:
		return "Unknown"
	}
}

// IsUniqueLike reports whether the constraint requires a visible-entry
// uniqueness check on insert.
func (c ConstraintType) IsUniqueLike() bool {
	return c == ConstraintPrimary || c == ConstraintUnique
}

// IndexInfo carries index metadata plus the approximate row counter the
// coordinator maintains.
type IndexInfo struct {
	OID           uint64
	Name          string
	TableName     string
	ColumnOffsets []int // offsets into the table schema
	KeySchema     *domain.Schema
	Constraint    ConstraintType
	Kind          IndexKind

	rows atomic.Int64
}

// IncreaseRowCount bumps the approximate row counter.
func (info *IndexInfo) IncreaseRowCount(n int64) {
	info.rows.Add(n)
}

// RowCount returns the approximate row counter.
func (info *IndexInfo) RowCount() int64 {
	return info.rows.Load()
}

// Index is the secondary index contract consumed by the table coordinator.
// Keys are tuples projected onto the index's source columns.
type Index interface {
	// Info returns the index metadata.
	Info() *IndexInfo

	// Insert adds an entry for the key.
	Insert(key *tuple.Tuple, ptr domain.ItemPointer) error

	// Update repoints an existing key to ptr. Returns true iff a same-key
	// entry existed and was repointed.
	Update(key *tuple.Tuple, ptr domain.ItemPointer) bool

	// Delete removes the entry for (key, ptr). Returns true iff it existed.
	Delete(key *tuple.Tuple, ptr domain.ItemPointer) bool

	// Scan returns every pointer recorded for the key, in insertion order.
	Scan(key *tuple.Tuple) []domain.ItemPointer

	// Len returns the number of live entries.
	Len() int
}

// New creates an index of the given kind.
func New(info *IndexInfo) (Index, error) {
	switch info.Kind {
	case IndexKindHash:
		return NewHashIndex(info), nil
	case IndexKindOrdered:
		return NewOrderedIndex(info), nil
	default:
		return nil, fmt.Errorf("unsupported index kind: %s", info.Kind)
	}
}
