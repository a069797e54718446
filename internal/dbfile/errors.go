package dbfile

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound reports a registry file that does not exist.
	ErrNotFound = fmt.Errorf("registry file not found: %w", fs.ErrNotExist)
	// ErrCorrupt reports a registry file that could not be decoded.
	ErrCorrupt = errors.New("registry file corrupt")
)

// Operation names used in Error.Op.
const (
	OpCreateDirectory = "create directory"
	OpLock            = "lock"
	OpWrite           = "write"
	OpRead            = "read"
	OpDecode          = "decode"
	OpEncode          = "encode"
)

// Error describes a failed persistence operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets decode failures match ErrCorrupt and missing files match
// ErrNotFound without the caller digging through the chain.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCorrupt:
		return e.Op == OpDecode
	case ErrNotFound:
		return e.Op == OpRead && errors.Is(e.Err, fs.ErrNotExist)
	}
	return false
}
