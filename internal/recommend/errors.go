package recommend

import (
	"errors"
	"fmt"
)

// ErrNoProfile is returned by personalized variants when the student has no
// academic profile. Callers should fall back to Generic.
var ErrNoProfile = errors.New("academic profile not found")

type Kind int

const (
	KindInternal Kind = iota + 1
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error wraps a collaborator failure at the engine boundary.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Op + ": internal error"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Kind() Kind { return KindInternal }

// IsInternal reports whether err carries an engine internal failure.
func IsInternal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind() == KindInternal
}

func internalError(op string, err error) error {
	return &Error{Op: op, Err: err}
}
