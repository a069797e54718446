package daemon_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/apps"
	"hopper/internal/config"
	"hopper/internal/daemon"
	"hopper/internal/history"
	"hopper/internal/logging"
	"hopper/internal/testsupport"
)

type fakeLauncher struct {
	mu       sync.Mutex
	launched []apps.App
	err      error
}

func (f *fakeLauncher) Run(app apps.App) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.launched = append(f.launched, app)
	return 4242, nil
}

func (f *fakeLauncher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.launched)
}

type fixture struct {
	cfg      *config.Config
	appDir   string
	launcher *fakeLauncher
	daemon   *daemon.Daemon
}

func newFixture(t *testing.T, opts ...daemon.Option) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	appDir := cfg.Apps.Dirs[0]
	require.NoError(t, os.MkdirAll(appDir, 0o755))
	testsupport.WriteDesktopEntry(t, appDir, "firefox.desktop", "Firefox", "firefox")
	testsupport.WriteDesktopEntry(t, appDir, "gimp.desktop", "GIMP", "gimp")
	writeConfigFile(t, cfg, cfg.Apps.Dirs)

	hist, err := history.Open(cfg.Paths.HistoryPath)
	require.NoError(t, err)

	launcher := &fakeLauncher{}
	opts = append([]daemon.Option{daemon.WithLauncher(launcher)}, opts...)
	d, err := daemon.New(cfg, hist, logging.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return &fixture{cfg: cfg, appDir: appDir, launcher: launcher, daemon: d}
}

func writeConfigFile(t *testing.T, cfg *config.Config, dirs []string) {
	t.Helper()
	next := *cfg
	next.Apps.Dirs = dirs
	data, err := next.Encode()
	require.NoError(t, err)
	testsupport.WriteFile(t, cfg.Path, string(data))
}

func findByName(list []apps.App, name string) (apps.App, bool) {
	for _, app := range list {
		if app.Name == name {
			return app, true
		}
	}
	return apps.App{}, false
}

func TestDaemonStartStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.daemon.Start(ctx))
	status := f.daemon.Status(ctx)
	assert.True(t, status.Running)
	assert.Equal(t, 2, status.AppCount)
	assert.Equal(t, []string{f.appDir}, status.Watched)
	assert.Equal(t, f.cfg.Paths.DBPath, status.DBPath)
	assert.Equal(t, os.Getpid(), status.PID)

	require.Error(t, f.daemon.Start(ctx), "second start on the same daemon")

	other, err := daemon.New(f.cfg, nil, logging.NewNop(), daemon.WithLauncher(&fakeLauncher{}))
	require.NoError(t, err)
	assert.ErrorIs(t, other.Start(ctx), daemon.ErrAlreadyRunning)

	f.daemon.Stop()
	select {
	case <-f.daemon.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Stop")
	}
	assert.False(t, f.daemon.Status(ctx).Running)
	f.daemon.Stop()

	// The lock is free again.
	require.NoError(t, other.Start(ctx))
	other.Stop()
}

func TestDaemonRequiresStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.daemon.Query(ctx, "", 0)
	assert.ErrorIs(t, err, daemon.ErrNotRunning)
	_, _, err = f.daemon.Launch(ctx, "nope")
	assert.ErrorIs(t, err, daemon.ErrNotRunning)
	_, _, err = f.daemon.Rescan(ctx)
	assert.ErrorIs(t, err, daemon.ErrNotRunning)
}

func TestDaemonLaunchRecordsUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	all, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	gimp, ok := findByName(all, "GIMP")
	require.True(t, ok)

	launched, pid, err := f.daemon.Launch(ctx, gimp.ID)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
	assert.Equal(t, gimp.ID, launched.ID)
	assert.Equal(t, 1, f.launcher.count())

	ranked, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "GIMP", ranked[0].Name)
	assert.Greater(t, ranked[0].Score, 0.0)

	entries, counts, err := f.daemon.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, gimp.ID, entries[0].AppID)
	assert.Equal(t, 4242, entries[0].PID)
	require.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Launches)
}

func TestDaemonLaunchUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	_, _, err := f.daemon.Launch(ctx, "does-not-exist")
	assert.ErrorIs(t, err, daemon.ErrUnknownApp)
	assert.Zero(t, f.launcher.count())
}

func TestDaemonLaunchFailureKeepsScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.launcher.err = errors.New("exec failed")
	require.NoError(t, f.daemon.Start(ctx))

	all, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	firefox, ok := findByName(all, "Firefox")
	require.True(t, ok)

	_, _, err = f.daemon.Launch(ctx, firefox.ID)
	require.Error(t, err)

	after, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	for _, app := range after {
		assert.Zero(t, app.Score, app.Name)
	}
	assert.Equal(t, "exec failed", f.daemon.Status(ctx).LastError)

	entries, _, err := f.daemon.History(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDaemonRescansOnDirectoryChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	testsupport.WriteDesktopEntry(t, f.appDir, "htop.desktop", "htop", "htop")

	require.Eventually(t, func() bool {
		all, err := f.daemon.Query(ctx, "", 0)
		if err != nil {
			return false
		}
		_, ok := findByName(all, "htop")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDaemonManualRescan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	require.NoError(t, os.Remove(filepath.Join(f.appDir, "gimp.desktop")))
	count, scanErrs, err := f.daemon.Rescan(ctx)
	require.NoError(t, err)
	assert.Empty(t, scanErrs)
	assert.Equal(t, 1, count)
}

func TestDaemonReloadsConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	all, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	firefox, ok := findByName(all, "Firefox")
	require.True(t, ok)
	_, _, err = f.daemon.Launch(ctx, firefox.ID)
	require.NoError(t, err)

	extra := filepath.Join(testsupport.BaseDir(f.cfg), "extra")
	require.NoError(t, os.MkdirAll(extra, 0o755))
	testsupport.WriteDesktopEntry(t, extra, "vim.desktop", "Vim", "vim")
	writeConfigFile(t, f.cfg, []string{f.appDir, extra})

	require.Eventually(t, func() bool {
		status := f.daemon.Status(ctx)
		return status.AppCount == 3 && len(status.Watched) == 2
	}, 5*time.Second, 20*time.Millisecond)

	after, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	kept, ok := findByName(after, "Firefox")
	require.True(t, ok)
	assert.Equal(t, firefox.ID, kept.ID)
	assert.Greater(t, kept.Score, 0.0, "usage survives a directory change")
	assert.Equal(t, []string{f.appDir, extra}, f.daemon.Config().Apps.Dirs)
}

func TestDaemonHalfLifeChangeRebuildsRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	all, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	firefox, ok := findByName(all, "Firefox")
	require.True(t, ok)
	_, _, err = f.daemon.Launch(ctx, firefox.ID)
	require.NoError(t, err)

	next := *f.cfg
	next.Apps.HalfLifeDays = 30
	writeConfigFile(t, &next, next.Apps.Dirs)

	require.Eventually(t, func() bool {
		return f.daemon.Status(ctx).HalfLife == 30*24*60*60
	}, 5*time.Second, 20*time.Millisecond)

	after, err := f.daemon.Query(ctx, "", 0)
	require.NoError(t, err)
	for _, app := range after {
		assert.Zero(t, app.Score, app.Name)
	}
}

func TestDaemonKeepsConfigOnReloadError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	testsupport.WriteFile(t, f.cfg.Path, "[apps\nthis is not toml")

	require.Eventually(t, func() bool {
		return f.daemon.Status(ctx).LastError != ""
	}, 5*time.Second, 20*time.Millisecond)
	assert.Same(t, f.cfg, f.daemon.Config())
	assert.Equal(t, 2, f.daemon.Status(ctx).AppCount)
}

func TestDaemonCustomConfigLoader(t *testing.T) {
	loads := make(chan string, 4)
	f := newFixture(t, daemon.WithConfigLoader(func(path string) (*config.Config, error) {
		loads <- path
		return nil, errors.New("loader unavailable")
	}))
	ctx := context.Background()
	require.NoError(t, f.daemon.Start(ctx))

	testsupport.WriteFile(t, f.cfg.Path, "# touched\n")

	select {
	case path := <-loads:
		assert.Equal(t, f.cfg.Path, path)
	case <-time.After(5 * time.Second):
		t.Fatal("config loader not called")
	}
}
