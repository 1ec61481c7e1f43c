package lower

import "fmt"

// InvariantError is the panic payload for broken internal invariants in the
// lowering code. The driver recovers it at the per-item boundary and degrades
// to an internal-error diagnostic instead of killing the whole run.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "lowering invariant violated: " + e.Msg
}

func invariantf(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}
