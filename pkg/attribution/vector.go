package attribution

import (
	"fmt"
)

// Method names an attribution method. The names double as storage keys.
type Method string

const (
	MethodExact         Method = "exact"
	MethodConstLambda   Method = "const_lambda"
	MethodOptimalLambda Method = "optimal_lambda"
)

func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodExact, MethodConstLambda, MethodOptimalLambda:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

func (m Method) String() string { return string(m) }

// Vector holds one score per participant id. Entries for participants that
// were not active in the round are 0.
type Vector []float64

func (v Vector) Sum() float64 {
	var s float64
	for _, x := range v {
		s += x
	}

	return s
}

// Add accumulates scale * o into v.
func (v Vector) Add(o Vector, scale float64) {
	for i := range v {
		if i < len(o) {
			v[i] += scale * o[i]
		}
	}
}
