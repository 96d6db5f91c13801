package transaction

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/MaestroDelFuego/MaestroDatabase/internal/domain/data"
)

func TestSnapshotIsDeepCopy(t *testing.T) {
	rows := []data.Row{data.RowOf("id", int64(1), "name", "ada")}
	snap := NewSnapshot("users", rows)

	rows[0].Set("name", "changed")

	restored := snap.Restore()
	assert.Equal(t, len(restored), 1)
	assert.Equal(t, restored[0].Value("name"), "ada")

	// Restore hands out a fresh copy every time
	restored[0].Set("name", "again")
	assert.Equal(t, snap.Restore()[0].Value("name"), "ada")
}

func TestSnapshotIDs(t *testing.T) {
	a := NewSnapshot("t", nil)
	b := NewSnapshot("t", nil)

	assert.Assert(t, a.ID != "")
	assert.Assert(t, a.ID != b.ID)
	assert.Assert(t, b.TxID > a.TxID)
	assert.Assert(t, !a.StartTime.IsZero())
	assert.Equal(t, len(a.Restore()), 0)
}

func TestStatusApplied(t *testing.T) {
	assert.Assert(t, StatusCommitted.Applied())
	assert.Assert(t, StatusRolledBack.Applied())
	assert.Assert(t, !StatusNoActive.Applied())
}
