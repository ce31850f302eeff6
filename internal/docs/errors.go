package docs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested id or path is not in the index.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument means the caller supplied an unusable argument.
	ErrInvalidArgument = errors.New("invalid argument")
)

// InvalidArgument builds an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound builds an error wrapping ErrNotFound for the given id or path.
func NotFound(what string) error {
	return fmt.Errorf("document %q %w", what, ErrNotFound)
}
