package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteDesktopEntry writes a minimal application entry named file into dir
// and returns its path.
func WriteDesktopEntry(t testing.TB, dir, file, name, exec string) string {
	t.Helper()

	path := filepath.Join(dir, file)
	WriteFile(t, path, DesktopEntry(name, exec))
	return path
}

// DesktopEntry renders a minimal application entry.
func DesktopEntry(name, exec string) string {
	return fmt.Sprintf("[Desktop Entry]\nType=Application\nName=%s\nExec=%s\nIcon=%s\n", name, exec, name)
}
