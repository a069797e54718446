package hotreload

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/fsnotify/fsnotify"

	"hopper/internal/logging"
)

const relevantOps = fsnotify.Write | fsnotify.Remove | fsnotify.Rename | fsnotify.Create

// group is one watcher with its relay state.
type group struct {
	name      string
	watcher   *fsnotify.Watcher
	pulses    chan struct{}
	debounce  time.Duration
	recursive bool
	match     func(name string) bool
	logger    *slog.Logger

	mu      sync.Mutex
	rootSet []string
	tracked map[string]struct{}
}

func newGroup(name string, debounce time.Duration, recursive bool, logger *slog.Logger) (*group, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create %s watcher: %w", name, err)
	}
	return &group{
		name:      name,
		watcher:   watcher,
		pulses:    make(chan struct{}, 1),
		debounce:  debounce,
		recursive: recursive,
		logger:    logger.With(logging.String("group", name)),
		tracked:   make(map[string]struct{}),
	}, nil
}

// relay turns raw events into debounced pulses until the watcher is closed.
// The pulse channel holds at most one pending pulse; further pulses are
// dropped while it is full.
func (g *group) relay() {
	defer close(g.pulses)

	timer := time.NewTimer(g.debounce)
	timer.Stop()
	defer timer.Stop()

	events, errs := g.watcher.Events, g.watcher.Errors
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&relevantOps == 0 {
				continue
			}
			if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				g.forget(event.Name)
			}
			if g.match != nil && !g.match(event.Name) {
				continue
			}
			if g.recursive && event.Op.Has(fsnotify.Create) {
				g.followNewDir(event.Name)
			}
			timer.Reset(g.debounce)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.WarnWithContext(g.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some changes may be missed until the next event"))
		case <-timer.C:
			select {
			case g.pulses <- struct{}{}:
			default:
			}
		}
	}
}

// subscribeRoots adds each existing root, and for recursive groups every
// directory below it. Missing roots are skipped with a warning; other
// failures are logged and returned together.
func (g *group) subscribeRoots(roots []string) error {
	var errs []error
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			if err == nil {
				err = fmt.Errorf("not a directory")
			}
			logging.WarnWithContext(g.logger, "skipping watch directory", "watch_dir_missing",
				logging.String("path", root),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "create the directory or remove it from the configuration"),
				logging.String(logging.FieldImpact, "changes in this directory are not detected"))
			continue
		}

		// The root is registered first so directories created while the
		// walk runs are followed.
		g.mu.Lock()
		registered := !slices.Contains(g.rootSet, root)
		if registered {
			g.rootSet = append(g.rootSet, root)
		}
		g.mu.Unlock()

		dirs := []string{root}
		if g.recursive {
			dirs = g.walkDirs(root)
		}
		for _, dir := range dirs {
			err := g.add(dir)
			if err == nil {
				continue
			}
			errs = append(errs, err)
			if dir == root && registered {
				g.mu.Lock()
				g.rootSet = slices.DeleteFunc(g.rootSet, func(r string) bool { return r == root })
				g.mu.Unlock()
			}
		}
	}
	return errors.Join(errs...)
}

// followNewDir subscribes a directory created below a watched root, together
// with anything created inside it before the watch was in place.
func (g *group) followNewDir(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return
	}
	for _, dir := range g.walkDirs(path) {
		_ = g.addUnderRoot(dir)
	}
}

func (g *group) walkDirs(root string) []string {
	var (
		mu   sync.Mutex
		dirs []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			mu.Lock()
			dirs = append(dirs, path)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		g.logger.Debug("walk watch directory failed", logging.String("path", root), logging.Error(err))
	}
	if !slices.Contains(dirs, root) {
		dirs = append(dirs, root)
	}
	slices.Sort(dirs)
	return dirs
}

func (g *group) add(dir string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addLocked(dir)
}

// addUnderRoot adds dir only while it lies below a subscribed root, so an
// event from a tree that was just unsubscribed cannot bring it back.
func (g *group) addUnderRoot(dir string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.underRootLocked(dir) {
		g.logger.Debug("ignoring directory outside watched roots", logging.String("path", dir))
		return nil
	}
	return g.addLocked(dir)
}

func (g *group) underRootLocked(path string) bool {
	for _, root := range g.rootSet {
		if within(root, path) {
			return true
		}
	}
	return false
}

// forget drops path and everything tracked below it. The kernel has already
// released watches on removed directories; renamed ones are released here.
func (g *group) forget(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for dir := range g.tracked {
		if within(path, dir) {
			_ = g.watcher.Remove(dir)
			delete(g.tracked, dir)
		}
	}
}

// within reports whether path is base or lies below it.
func within(base, path string) bool {
	base, path = filepath.Clean(base), filepath.Clean(path)
	if path == base {
		return true
	}
	rel, err := filepath.Rel(base, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (g *group) addLocked(dir string) error {
	if _, ok := g.tracked[dir]; ok {
		return nil
	}
	if err := g.watcher.Add(dir); err != nil {
		logging.WarnWithContext(g.logger, "watch directory failed", "watch_add_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check fs.inotify.max_user_watches and directory permissions"),
			logging.String(logging.FieldImpact, "changes in this directory are not detected"))
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	g.tracked[dir] = struct{}{}
	return nil
}

// unsubscribeAll removes every tracked path. Paths that vanished already are
// ignored.
func (g *group) unsubscribeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for dir := range g.tracked {
		_ = g.watcher.Remove(dir)
	}
	clear(g.tracked)
	g.rootSet = nil
}

func (g *group) roots() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.rootSet)
}
