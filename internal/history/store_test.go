package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/apps"
	"hopper/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	firefox := apps.New("Firefox", "firefox", []string{"firefox", "--new-window"}, false)
	htop := apps.New("htop", "htop", []string{"htop"}, true)

	first, err := store.Record(ctx, history.NewEntry(firefox, 100, base))
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	_, err = store.Record(ctx, history.NewEntry(htop, 101, base.Add(500*time.Millisecond)))
	require.NoError(t, err)
	_, err = store.Record(ctx, history.NewEntry(firefox, 102, base.Add(2*time.Second)))
	require.NoError(t, err)

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 102, entries[0].PID)
	assert.Equal(t, 101, entries[1].PID)
	assert.Equal(t, 100, entries[2].PID)

	assert.Equal(t, firefox.ID, entries[0].AppID)
	assert.Equal(t, []string{"firefox", "--new-window"}, entries[0].Exec)
	assert.True(t, entries[1].Terminal)
	assert.True(t, entries[2].LaunchedAt.Equal(base))

	limited, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 102, limited[0].PID)
}

func TestRecordRequiresAppID(t *testing.T) {
	store := openStore(t)
	_, err := store.Record(context.Background(), history.Entry{Name: "anonymous"})
	require.Error(t, err)
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	store := openStore(t)
	before := time.Now().Add(-time.Second)
	entry, err := store.Record(context.Background(), history.Entry{AppID: "a", Name: "A"})
	require.NoError(t, err)
	assert.True(t, entry.LaunchedAt.After(before))
}

func TestCounts(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := apps.New("Alpha", "", []string{"alpha"}, false)
	b := apps.New("Beta", "", []string{"beta"}, false)
	for i, app := range []apps.App{a, b, b, a, b} {
		_, err := store.Record(ctx, history.NewEntry(app, i, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, b.ID, counts[0].AppID)
	assert.Equal(t, 3, counts[0].Launches)
	assert.True(t, counts[0].Last.Equal(base.Add(4*time.Minute)))
	assert.Equal(t, a.ID, counts[1].AppID)
	assert.Equal(t, 2, counts[1].Launches)
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	app := apps.New("Alpha", "", []string{"alpha"}, false)

	for i := range 4 {
		_, err := store.Record(ctx, history.NewEntry(app, i, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	removed, err := store.Prune(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	entries, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].PID)
	assert.Equal(t, 2, entries[1].PID)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	require.NoError(t, err)
	_, err = store.Record(context.Background(), history.Entry{AppID: "a", Name: "A"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := history.Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	entries, err := reopened.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, path, reopened.Path())
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := history.Open("")
	require.Error(t, err)
}

func TestCloseNilStore(t *testing.T) {
	var store *history.Store
	assert.NoError(t, store.Close())
}
