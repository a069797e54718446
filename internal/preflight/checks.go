package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"hopper/internal/config"
	"hopper/internal/dbfile"
	"hopper/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckWritableLocation passes when path is a writable directory or when it
// does not exist yet but its nearest existing ancestor is writable, so that
// it can be created on first use.
func CheckWritableLocation(name, path string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}

	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckAppDirectory verifies that an application directory can be scanned.
// Missing directories pass: they are skipped by the scanner and watcher.
func CheckAppDirectory(path string) Result {
	name := "Applications " + path
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: "does not exist (skipped)"}
		}
		return Result{Name: name, Detail: fmt.Sprintf("error: stat: %v", err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: "error: is not a directory"}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("error: not readable: %v", err)}
	}
	return Result{Name: name, Passed: true, Detail: "readable"}
}

// CheckRegistryFile reports whether the registry file is absent, readable or
// corrupt.
func CheckRegistryFile(path string) Result {
	const name = "Registry file"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	state, err := dbfile.New(path).Load()
	switch {
	case err == nil:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d apps)", path, len(state.Apps))}
	case errors.Is(err, dbfile.ErrNotFound):
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
	case errors.Is(err, dbfile.ErrCorrupt):
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: corrupt, delete it to rebuild)", path)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
}

// CheckTerminal verifies that terminal applications can be wrapped. An empty
// termCmd falls back to $TERM the same way the runner does.
func CheckTerminal(termCmd []string) Result {
	const name = "Terminal"
	command := ""
	source := "apps.term_cmd"
	if len(termCmd) > 0 {
		command = termCmd[0]
	} else {
		command = os.Getenv("TERM")
		source = "$TERM"
	}
	if strings.TrimSpace(command) == "" {
		return Result{Name: name, Detail: "no terminal configured; set apps.term_cmd"}
	}

	status := deps.CheckBinaries([]deps.Requirement{{Name: name, Command: command}})[0]
	if !status.Available {
		return Result{Name: name, Detail: fmt.Sprintf("%s from %s", status.Detail, source)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (from %s)", status.Path, source)}
}

// CheckAppCommands reports registry entries whose program is not on PATH.
// Stale entries do not fail the check; they are listed in the detail.
func CheckAppCommands(registryPath string) Result {
	const name = "Application commands"
	state, err := dbfile.New(registryPath).Load()
	if err != nil {
		if errors.Is(err, dbfile.ErrNotFound) {
			return Result{Name: name, Passed: true, Detail: "registry not created yet"}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("skipped (%v)", err)}
	}
	reqs := deps.FromApps(state.Apps)
	missing := deps.Missing(deps.CheckBinaries(reqs))
	if len(missing) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("all %d resolvable", len(reqs))}
	}
	names := make([]string, 0, len(missing))
	for _, m := range missing {
		names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.Command))
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%d of %d not found: %s", len(missing), len(reqs), strings.Join(names, ", ")),
	}
}

func socketDir(cfg *config.Config) string {
	if strings.TrimSpace(cfg.Paths.SocketPath) == "" {
		return ""
	}
	return filepath.Dir(cfg.Paths.SocketPath)
}
