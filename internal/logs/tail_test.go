package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hopperd.log")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestLastReturnsFinalLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2, logs.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lines)
	assert.EqualValues(t, 6, offset)
}

func TestLastShortFile(t *testing.T) {
	path := writeLog(t, "only\n")

	lines, _, err := logs.Last(path, 10, logs.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, lines)
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5, logs.Filter{})
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Zero(t, offset)
}

func TestLastLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "done\npart")

	lines, offset, err := logs.Last(path, 5, logs.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, lines)
	assert.EqualValues(t, 5, offset)
}

func TestFilterMatchesBothFormats(t *testing.T) {
	console := "2026-01-02T10:00:00Z INFO daemon: registry rescanned app_count=3"
	jsonLine := `{"ts":"2026-01-02T10:00:00Z","level":"warn","msg":"reload failed","component":"daemon"}`

	assert.True(t, logs.Filter{Component: "daemon"}.Match(console))
	assert.True(t, logs.Filter{Component: "daemon"}.Match(jsonLine))
	assert.False(t, logs.Filter{Component: "runner"}.Match(console))

	assert.True(t, logs.Filter{Level: "info"}.Match(console))
	assert.False(t, logs.Filter{Level: "info"}.Match(jsonLine))
	assert.True(t, logs.Filter{Level: "warn"}.Match(jsonLine))

	assert.True(t, logs.Filter{Search: "RESCANNED"}.Match(console))
	assert.False(t, logs.Filter{Search: "launch"}.Match(console))
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 1, logs.Filter{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, logs.Filter{Search: "keep"}, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	time.Sleep(100 * time.Millisecond)
	appendLog(t, path, "skip me\nkeep me\n")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"keep me"}, got)
}

func TestFollowRestartsAfterTruncate(t *testing.T) {
	path := writeLog(t, "old line that is long\n")
	_, offset, err := logs.Last(path, 1, logs.Filter{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := make(chan string, 4)
	go func() {
		_ = logs.Follow(ctx, path, offset, logs.Filter{}, func(line string) { lines <- line })
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("new\n"), 0o644))

	select {
	case line := <-lines:
		assert.Equal(t, "new", line)
	case <-time.After(5 * time.Second):
		t.Fatal("no line after truncation")
	}
}
