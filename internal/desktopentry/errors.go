package desktopentry

import "fmt"

// ErrorKind classifies a parse failure.
type ErrorKind string

const (
	KindRead           ErrorKind = "read"
	KindMissingSection ErrorKind = "missing_section"
	KindMissingKey     ErrorKind = "missing_key"
	KindInvalidValue   ErrorKind = "invalid_value"
)

// ParseError describes why a desktop entry could not be turned into an app.
type ParseError struct {
	Path  string
	Kind  ErrorKind
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindRead:
		return fmt.Sprintf("read desktop file %s: %v", e.Path, e.Err)
	case KindMissingSection:
		return fmt.Sprintf("desktop file %s is missing the [%s] group", e.Path, groupName)
	case KindMissingKey:
		return fmt.Sprintf("desktop file %s is missing the %s key", e.Path, e.Key)
	case KindInvalidValue:
		return fmt.Sprintf("desktop file %s: %s has invalid value %q", e.Path, e.Key, e.Value)
	default:
		return fmt.Sprintf("desktop file %s: %s", e.Path, e.Kind)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
