package content

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("content: not found")

// Kind classifies a content failure so callers can apply one policy to every
// collection: Malformed data degrades to an empty collection, IO is fatal.
type Kind int

const (
	// IO covers read, write and permission failures.
	IO Kind = iota
	// Malformed means the file exists but could not be parsed.
	Malformed
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	default:
		return "io"
	}
}

// Error describes a failed content operation on a file.
type Error struct {
	Op   string
	Path string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsMalformed reports whether err wraps a Malformed content error.
func IsMalformed(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == Malformed
}
