package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hopper/internal/apps"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present")

	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	})
	require.Len(t, results, 3)

	assert.True(t, results[0].Available)
	assert.Equal(t, present, results[0].Path)
	assert.Empty(t, results[0].Detail)

	assert.False(t, results[1].Available)
	assert.Contains(t, results[1].Detail, "not found")

	assert.False(t, results[2].Available)
	assert.Equal(t, "command not configured", results[2].Detail)
}

func TestCheckBinariesUsesPath(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "firefox")
	t.Setenv("PATH", binDir)

	results := CheckBinaries([]Requirement{{Name: "Firefox", Command: "firefox"}})
	require.Len(t, results, 1)
	assert.True(t, results[0].Available)
	assert.Equal(t, filepath.Join(binDir, "firefox"), results[0].Path)
}

func TestFromAppsAndMissing(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "firefox")
	t.Setenv("PATH", binDir)

	list := []apps.App{
		apps.New("Firefox", "firefox", []string{"firefox", "--new-window"}, false),
		apps.New("Gone", "gone", []string{"gone-binary"}, false),
		apps.New("Empty", "", nil, false),
	}
	reqs := FromApps(list)
	require.Len(t, reqs, 2)
	assert.Equal(t, Requirement{Name: "Firefox", Command: "firefox"}, reqs[0])

	missing := Missing(CheckBinaries(reqs))
	require.Len(t, missing, 1)
	assert.Equal(t, "Gone", missing[0].Name)
}
