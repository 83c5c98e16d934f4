package table

import "sync/atomic"

// Stats carries the table's approximate row count and dirty flag. The
// counter is a running tally, not a transactional truth: inserts bump it,
// deletes drop it, reorganization leaves it alone. Nothing here is
// persisted.
type Stats struct {
	rowCount atomic.Int64
	dirty    atomic.Bool
}

// IncreaseRowCount adds n rows and marks the stats dirty.
func (s *Stats) IncreaseRowCount(n int64) {
	s.rowCount.Add(n)
	s.dirty.Store(true)
}

// DecreaseRowCount removes n rows and marks the stats dirty.
func (s *Stats) DecreaseRowCount(n int64) {
	s.rowCount.Add(-n)
	s.dirty.Store(true)
}

// RowCount returns the approximate row count.
func (s *Stats) RowCount() int64 {
	return s.rowCount.Load()
}

// IsDirty reports whether any mutating call happened since the last reset.
func (s *Stats) IsDirty() bool {
	return s.dirty.Load()
}

// ResetDirty clears the dirty flag.
func (s *Stats) ResetDirty() {
	s.dirty.Store(false)
}

// ==================== Table stats surface ====================

// GetRowCount returns the table's approximate row count.
func (t *Table) GetRowCount() int64 {
	return t.stats.RowCount()
}

// IsDirty reports whether the stats changed since the last reset.
func (t *Table) IsDirty() bool {
	return t.stats.IsDirty()
}

// ResetDirty clears the stats dirty flag.
func (t *Table) ResetDirty() {
	t.stats.ResetDirty()
}
