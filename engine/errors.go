package engine

import (
	"errors"
	"fmt"
)

var errSearchTimeout = errors.New("engine: search timed out")

// InvariantError reports an internal bookkeeping defect or a broken host
// contract. It never describes a recoverable condition.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string {
	return "engine: invariant violated: " + e.msg
}

func invariantf(format string, args ...any) error {
	return &InvariantError{msg: fmt.Sprintf(format, args...)}
}

// IsInvariant reports whether err carries an InvariantError.
func IsInvariant(err error) bool {
	var inv *InvariantError
	return errors.As(err, &inv)
}
