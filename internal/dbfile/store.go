package dbfile

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/vmihailenco/msgpack/v5"

	"hopper/internal/apps"
	"hopper/internal/fileutil"
)

// State is the durable registry content.
type State struct {
	Apps          []apps.App `msgpack:"apps"`
	ReferenceTime float64    `msgpack:"reference_time"`
	HalfLife      float64    `msgpack:"half_life"`
}

// Store reads and writes State at Path.
type Store struct {
	Path string
}

// New returns a store for path.
func New(path string) *Store {
	return &Store{Path: path}
}

// LockPath returns the sidecar lock file guarding Path.
func (s *Store) LockPath() string {
	return s.Path + ".lock"
}

// Exists reports whether the registry file is present.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path)
	return err == nil && !info.IsDir()
}

// Load reads and decodes the registry under a shared lock.
func (s *Store) Load() (State, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return State{}, &Error{Op: OpRead, Path: s.Path, Err: err}
	}

	lock := flock.New(s.LockPath())
	if err := lock.RLock(); err != nil {
		return State{}, &Error{Op: OpLock, Path: s.LockPath(), Err: err}
	}
	defer func() {
		_ = lock.Unlock()
	}()

	f, err := os.Open(s.Path)
	if err != nil {
		return State{}, &Error{Op: OpRead, Path: s.Path, Err: err}
	}
	defer f.Close()

	var state State
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&state); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return State{}, &Error{Op: OpDecode, Path: s.Path, Err: err}
	}
	return state, nil
}

// Save encodes state and atomically replaces the registry file while holding
// the exclusive lock. The parent directory is created when missing.
func (s *Store) Save(state State) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Op: OpCreateDirectory, Path: dir, Err: err}
	}

	data, err := msgpack.Marshal(&state)
	if err != nil {
		return &Error{Op: OpEncode, Path: s.Path, Err: err}
	}

	lock := flock.New(s.LockPath())
	if err := lock.Lock(); err != nil {
		return &Error{Op: OpLock, Path: s.LockPath(), Err: err}
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := fileutil.WriteFileAtomic(s.Path, data, 0o644); err != nil {
		return &Error{Op: OpWrite, Path: s.Path, Err: err}
	}
	return nil
}
