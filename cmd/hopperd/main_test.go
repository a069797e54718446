package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/ipc"
	"hopper/internal/testsupport"
)

func TestRunRejectsExtraArguments(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"extra"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected arguments")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	var stderr bytes.Buffer
	err := run(context.Background(), []string{"--bogus"}, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "bogus")
}

func TestRunServesOverrideSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	data, err := cfg.Encode()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Path), 0o755))
	require.NoError(t, os.WriteFile(cfg.Path, data, 0o644))
	socket := filepath.Join(testsupport.BaseDir(cfg), "override.sock")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"-c", cfg.Path, "-socket", socket, "-quiet"}, os.Stderr)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(socket)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	client, err := ipc.Dial(socket)
	require.NoError(t, err)
	status, err := client.Status()
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, cfg.Paths.DBPath, status.DBPath)
	require.NoError(t, client.Close())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not exit")
	}
	_, err = os.Stat(socket)
	assert.True(t, os.IsNotExist(err))
}
