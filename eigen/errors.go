package eigen

import (
	"errors"
	"fmt"
)

// ErrNoConvergence is wrapped by every ConvergenceError
var ErrNoConvergence = errors.New("eigen: no convergence")

// ConvergenceError carries the spectral parameters of a failed solve
type ConvergenceError struct {
	Mode   Mode
	NEq    int
	Reason string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("eigen: %v on %d equations: %s", e.Mode, e.NEq, e.Reason)
}

func (e *ConvergenceError) Unwrap() error { return ErrNoConvergence }
