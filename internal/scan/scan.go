package scan

import (
	"cmp"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"golang.org/x/sync/errgroup"

	"hopper/internal/apps"
	"hopper/internal/desktopentry"
	"hopper/internal/logging"
)

// DefaultPatterns selects desktop entry files.
var DefaultPatterns = []string{"*.desktop"}

// Source produces candidate applications from a list of directories. It must
// be safe to call repeatedly and must not modify dirs.
type Source interface {
	Scan(dirs []string) ([]apps.App, []error)
}

// ErrorKind classifies a scan error.
type ErrorKind string

const (
	KindDirectory ErrorKind = "directory"
	KindEntry     ErrorKind = "entry"
)

// Error is a non-fatal problem found while scanning.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindDirectory {
		return fmt.Sprintf("scan directory %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parse entry: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Scanner is the filesystem Source.
type Scanner struct {
	patterns []string
	logger   *slog.Logger
	limit    int
}

// NewScanner returns a scanner matching file names against patterns
// (doublestar syntax). Empty patterns fall back to DefaultPatterns.
func NewScanner(patterns []string, logger *slog.Logger) *Scanner {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Scanner{
		patterns: slices.Clone(patterns),
		logger:   logging.NewComponentLogger(logger, "scan"),
		limit:    4,
	}
}

// Scan walks dirs and parses every matching entry.
func (s *Scanner) Scan(dirs []string) ([]apps.App, []error) {
	var (
		mu    sync.Mutex
		found []apps.App
		errs  []*Error
	)
	collect := func(app *apps.App, err *Error) {
		mu.Lock()
		defer mu.Unlock()
		if app != nil {
			found = append(found, *app)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.limit)
	for _, dir := range dirs {
		g.Go(func() error {
			s.scanDir(dir, collect)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(errs, func(a, b *Error) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Kind, b.Kind))
	})
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = err
	}

	found = apps.SortAndDedup(found)
	s.logger.Debug("scan finished",
		logging.Int("dir_count", len(dirs)),
		logging.Int("app_count", len(found)),
		logging.Int("error_count", len(out)))
	return found, out
}

func (s *Scanner) scanDir(dir string, collect func(*apps.App, *Error)) {
	info, err := os.Stat(dir)
	if err != nil {
		collect(nil, &Error{Kind: KindDirectory, Path: dir, Err: err})
		return
	}
	if !info.IsDir() {
		collect(nil, &Error{Kind: KindDirectory, Path: dir, Err: fmt.Errorf("not a directory")})
		return
	}

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			collect(nil, &Error{Kind: KindDirectory, Path: path, Err: err})
			return nil
		}
		if d.IsDir() || !s.matches(dir, path) {
			return nil
		}
		app, ok, parseErr := desktopentry.ParseFile(path)
		switch {
		case parseErr != nil:
			collect(nil, &Error{Kind: KindEntry, Path: path, Err: parseErr})
		case ok:
			collect(&app, nil)
		}
		return nil
	})
	if walkErr != nil {
		collect(nil, &Error{Kind: KindDirectory, Path: dir, Err: walkErr})
	}
}

// matches checks the base name against plain patterns and the slash-separated
// relative path against patterns containing a separator.
func (s *Scanner) matches(root, path string) bool {
	base := filepath.Base(path)
	rel := ""
	for _, pattern := range s.patterns {
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, base); ok {
				return true
			}
			continue
		}
		if rel == "" {
			r, err := filepath.Rel(root, path)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(r)
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
