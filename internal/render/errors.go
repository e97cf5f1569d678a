package render

import (
	"errors"
	"fmt"
)

// ErrMissingContext is matched by every MissingContextError through errors.Is
var ErrMissingContext = errors.New("missing context")

// MissingContextError reports that a required upstream element was not resolvable from the
// context visible when a renderer ran. The engine retries the node on a later pass.
type MissingContextError struct {
	Reason string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("missing context: %s", e.Reason)
}

// Is makes errors.Is(err, ErrMissingContext) hold for every MissingContextError
func (e *MissingContextError) Is(target error) bool {
	return target == ErrMissingContext
}

// MissingContext builds a MissingContextError
func MissingContext(format string, args ...any) error {
	return &MissingContextError{Reason: fmt.Sprintf(format, args...)}
}

// IsMissingContext reports whether err (or anything it wraps) is a MissingContextError
func IsMissingContext(err error) bool {
	return errors.Is(err, ErrMissingContext)
}
