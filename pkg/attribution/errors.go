package attribution

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig  = errors.New("invalid attribution configuration")
	ErrIllConditioned = errors.New("regression ill-conditioned")
	ErrUnknownMethod  = errors.New("unknown attribution method")
	ErrNoMethods      = errors.New("no attribution method enabled")
	ErrEmptyRound     = errors.New("round has no active participants")
)

// RegressionError reports a lambda regression whose normal equations could
// not be solved reliably. It matches ErrIllConditioned with errors.Is.
type RegressionError struct {
	Cond    float64
	Samples int
	Groups  int
	Err     error
}

func (e *RegressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: condition number %g over %d samples and %d groups: %s", ErrIllConditioned, e.Cond, e.Samples, e.Groups, e.Err)
	}

	return fmt.Sprintf("%s: condition number %g over %d samples and %d groups", ErrIllConditioned, e.Cond, e.Samples, e.Groups)
}

func (e *RegressionError) Unwrap() error {
	return ErrIllConditioned
}
