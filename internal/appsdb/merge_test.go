package appsdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/apps"
	"hopper/internal/appsdb"
)

func app(name string) apps.App {
	return apps.New(name, name+".png", []string{name, "--flag"}, false)
}

func rescanned(a apps.App) apps.App {
	return apps.New(a.Name, a.Icon, append([]string(nil), a.Exec...), a.Terminal)
}

func TestMergeIdempotent(t *testing.T) {
	list := []apps.App{app("A"), app("B"), app("C")}
	list[1].Score = 4

	merged := appsdb.Merge(list, list)
	assert.Equal(t, list, merged)

	again := appsdb.Merge(merged, merged)
	assert.Equal(t, list, again)
}

func TestMergeRemoval(t *testing.T) {
	a, b := app("A"), app("B")
	b.Score = 2.5

	merged := appsdb.Merge([]apps.App{a, b}, []apps.App{rescanned(b)})

	require.Len(t, merged, 1)
	assert.Equal(t, b.ID, merged[0].ID)
	assert.Equal(t, 2.5, merged[0].Score)
}

func TestMergeAddition(t *testing.T) {
	a := app("A")
	a.Score = 1.5
	b := app("B")
	b.Score = 9

	merged := appsdb.Merge([]apps.App{a}, []apps.App{rescanned(a), b})

	require.Len(t, merged, 2)
	assert.Equal(t, a.ID, merged[0].ID)
	assert.Equal(t, 1.5, merged[0].Score)
	assert.Equal(t, "B", merged[1].Name)
	assert.Equal(t, b.ID, merged[1].ID)
	assert.Zero(t, merged[1].Score)
}

func TestMergeStructuralIdentity(t *testing.T) {
	a := app("A")
	changedExec := a
	changedExec.Exec = []string{"A", "--other"}
	changedIcon := a
	changedIcon.Icon = "other.png"

	merged := appsdb.Merge([]apps.App{a}, []apps.App{changedExec, changedIcon})

	require.Len(t, merged, 2)
	for _, rec := range merged {
		assert.NotEqual(t, a.ID, rec.ID, "changed identity must get a new record")
	}
	assert.NotEqual(t, merged[0].ID, merged[1].ID)
}

func TestMergeRefreshesTerminalFlag(t *testing.T) {
	a := app("A")
	a.Score = 3
	incoming := rescanned(a)
	incoming.Terminal = true

	merged := appsdb.Merge([]apps.App{a}, []apps.App{incoming})

	require.Len(t, merged, 1)
	assert.Equal(t, a.ID, merged[0].ID)
	assert.True(t, merged[0].Terminal)
	assert.Equal(t, 3.0, merged[0].Score)
}

func TestMergeDeduplicatesIncoming(t *testing.T) {
	b := app("B")
	merged := appsdb.Merge(nil, []apps.App{b, rescanned(b), rescanned(b)})
	require.Len(t, merged, 1)
	assert.Equal(t, b.ID, merged[0].ID)
}

func TestMergeAssignsMissingAndCollidingIDs(t *testing.T) {
	a := app("A")
	collide := app("B")
	collide.ID = a.ID
	blank := app("C")
	blank.ID = ""

	merged := appsdb.Merge([]apps.App{a}, []apps.App{rescanned(a), collide, blank})

	require.Len(t, merged, 3)
	ids := map[string]struct{}{}
	for _, rec := range merged {
		require.NotEmpty(t, rec.ID)
		ids[rec.ID] = struct{}{}
	}
	assert.Len(t, ids, 3)
	assert.Equal(t, a.ID, merged[0].ID)
}

func TestMergeDoesNotReuseDroppedID(t *testing.T) {
	removed := app("A")
	replacement := app("B")
	replacement.ID = removed.ID

	merged := appsdb.Merge([]apps.App{removed}, []apps.App{replacement})

	require.Len(t, merged, 1)
	assert.Equal(t, "B", merged[0].Name)
	assert.NotEmpty(t, merged[0].ID)
	assert.NotEqual(t, removed.ID, merged[0].ID)
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	existing := []apps.App{app("A")}
	incoming := []apps.App{rescanned(existing[0])}
	incoming[0].Terminal = true
	incoming[0].Score = 7
	snapshotExisting := append([]apps.App(nil), existing...)
	snapshotIncoming := append([]apps.App(nil), incoming...)

	merged := appsdb.Merge(existing, incoming)
	merged[0].Exec[0] = "mutated"

	assert.Equal(t, snapshotExisting, existing)
	assert.Equal(t, snapshotIncoming, incoming)
	assert.Equal(t, "A", existing[0].Exec[0])
}
