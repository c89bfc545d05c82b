// Package utility defines the coalition utility contract consumed by the
// attribution engine, the empty coalition policy and the per-round cache.
package utility

import (
	"context"
	"errors"

	"github.com/absmach/shapley/pkg/coalition"
)

var (
	ErrUnknownCoalition = errors.New("no utility recorded for coalition")
	ErrInvalidUtility   = errors.New("utility is NaN or infinite")
)

// Evaluator scores a coalition. Implementations must be deterministic for the
// lifetime of a round; they are assumed expensive and are always consulted
// through a Cache by the engine.
type Evaluator interface {
	Evaluate(ctx context.Context, c coalition.Coalition) (float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, c coalition.Coalition) (float64, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, c coalition.Coalition) (float64, error) {
	return f(ctx, c)
}

// EmptyPolicy decides the value of the empty coalition. The utility function
// is never evaluated for the empty set: it is either the previous round's
// global accuracy or zero.
type EmptyPolicy struct {
	UseBaseline bool    `json:"use_baseline"`
	Baseline    float64 `json:"baseline"`
}

func (p EmptyPolicy) Value() float64 {
	if p.UseBaseline {
		return p.Baseline
	}

	return 0
}

// WithEmptyPolicy short-circuits the empty coalition according to p and
// delegates every other coalition to eval.
func WithEmptyPolicy(eval Evaluator, p EmptyPolicy) Evaluator {
	return EvaluatorFunc(func(ctx context.Context, c coalition.Coalition) (float64, error) {
		if c.IsEmpty() {
			return p.Value(), nil
		}

		return eval.Evaluate(ctx, c)
	})
}
