package table

import (
	"fmt"
	"io"
	"strings"
)

// DebugDump writes a human-readable description of the table's physical
// state: identity, schema, row groups, indexes, foreign keys and stats.
func (t *Table) DebugDump(w io.Writer) {
	fmt.Fprintf(w, "TABLE %s (database=%d, table=%d)\n", t.name, t.databaseID, t.tableID)

	fmt.Fprintf(w, "  schema:\n")
	for i, col := range t.schema.Columns {
		flags := make([]string, 0, 3)
		if col.Primary {
			flags = append(flags, "PRIMARY")
		}
		if col.Unique {
			flags = append(flags, "UNIQUE")
		}
		if !col.IsNullable() {
			flags = append(flags, "NOT NULL")
		}
		if col.ForeignKey != nil {
			flags = append(flags, fmt.Sprintf("FK:%s", col.ForeignKey.Name))
		}
		fmt.Fprintf(w, "    [%d] %s %s %s\n", i, col.Name, col.Type, strings.Join(flags, " "))
	}

	t.mu.Lock()
	ids := make([]uint64, len(t.rowGroups))
	copy(ids, t.rowGroups)
	indexes := t.indexSet.snapshot()
	fks := make([]string, 0, len(t.foreignKeys))
	for _, fk := range t.foreignKeys {
		fks = append(fks, fmt.Sprintf("%s (%s) -> %s (%s)",
			fk.Name, strings.Join(fk.SourceColumns, ","), fk.RefTable, strings.Join(fk.RefColumns, ",")))
	}
	t.mu.Unlock()

	fmt.Fprintf(w, "  row groups (%d):\n", len(ids))
	for i, id := range ids {
		group, ok := t.directory.Lookup(id)
		if !ok {
			fmt.Fprintf(w, "    [%d] id=%d (missing from directory)\n", i, id)
			continue
		}
		fmt.Fprintf(w, "    [%d] id=%d slots=%d/%d tiles=%d\n",
			i, id, group.NextSlot(), group.AllocatedCount(), group.TileCount())
	}

	fmt.Fprintf(w, "  indexes (%d):\n", len(indexes))
	for i, idx := range indexes {
		info := idx.Info()
		fmt.Fprintf(w, "    [%d] %s oid=%d constraint=%s kind=%s rows=%d\n",
			i, info.Name, info.OID, info.Constraint, info.Kind, info.RowCount())
	}

	fmt.Fprintf(w, "  foreign keys (%d):\n", len(fks))
	for i, fk := range fks {
		fmt.Fprintf(w, "    [%d] %s\n", i, fk)
	}

	fmt.Fprintf(w, "  row count: %d (dirty=%v)\n", t.stats.RowCount(), t.stats.IsDirty())
}
