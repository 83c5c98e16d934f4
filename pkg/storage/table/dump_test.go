package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/tilestore/pkg/storage/index"
)

func TestDebugDump(t *testing.T) {
	tbl, mgr := newTestTable(t, 2)
	addIndex(t, tbl, "pk_users", index.ConstraintPrimary, 0)

	fk, err := NewForeignKeyBuilder("fk_users_name").
		Source("name").
		References("nicknames", "value").
		Build()
	require.NoError(t, err)
	require.NoError(t, tbl.AddForeignKey(fk))

	txn := begin(t, mgr)
	mustInsert(t, tbl, txn, 1, "a")
	mustInsert(t, tbl, txn, 2, "b")
	mustInsert(t, tbl, txn, 3, "c")

	var sb strings.Builder
	tbl.DebugDump(&sb)
	out := sb.String()

	assert.Contains(t, out, "TABLE users")
	assert.Contains(t, out, "id INT")
	assert.Contains(t, out, "row groups (2)")
	assert.Contains(t, out, "pk_users")
	assert.Contains(t, out, "constraint=PRIMARY")
	assert.Contains(t, out, "fk_users_name")
	assert.Contains(t, out, "row count: 3")
}
