package attribution

import (
	"context"
	"fmt"
	"math"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/partition"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Approximation is a partition based estimate of the full coalition vector.
type Approximation struct {
	Vector  Vector    `json:"vector"`
	Lambdas []float64 `json:"lambdas"`
	Samples int       `json:"samples,omitempty"`
}

// Attributor combines exact Shapley values computed inside each group of a
// partition into an estimate for the whole active set.
type Attributor struct {
	engine  *Engine
	samples int
	seed    int64
	maxCond float64
	workers int
}

// NewAttributor creates an attributor on top of engine. samples is the
// optimal lambda sample budget, seed drives the subset order (0 selects a
// fixed default) and maxCond bounds the condition number of the normal
// equations (0 selects DefaultMaxCondition).
func NewAttributor(engine *Engine, samples int, seed int64, maxCond float64, workers int) *Attributor {
	if maxCond <= 0 {
		maxCond = DefaultMaxCondition
	}

	return &Attributor{
		engine:  engine,
		samples: samples,
		seed:    seed,
		maxCond: maxCond,
		workers: workers,
	}
}

// Within returns, for every group, the exact Shapley vector restricted to
// that group. Participants outside a group are 0 in its vector.
func (a *Attributor) Within(ctx context.Context, p partition.Partition, n int) ([]Vector, error) {
	out := make([]Vector, len(p))

	if a.workers <= 1 || len(p) == 1 {
		for m, group := range p {
			v, err := a.engine.ExactVector(ctx, group, n)
			if err != nil {
				return nil, fmt.Errorf("failed to compute shapley values within group %d: %w", m, err)
			}
			out[m] = v
		}

		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for m, group := range p {
		g.Go(func() error {
			v, err := a.engine.ExactVector(gctx, group, n)
			if err != nil {
				return fmt.Errorf("failed to compute shapley values within group %d: %w", m, err)
			}
			out[m] = v

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// ConstLambda sums the within-group vectors, i.e. every group weight is 1.
func (a *Attributor) ConstLambda(ctx context.Context, p partition.Partition, n int) (Approximation, error) {
	within, err := a.Within(ctx, p, n)
	if err != nil {
		return Approximation{}, err
	}

	lambdas := make([]float64, len(p))
	for m := range lambdas {
		lambdas[m] = 1
	}

	return Approximation{Vector: combine(n, within, lambdas), Lambdas: lambdas}, nil
}

// OptimalLambda fits one weight per group by least squares so that
// sum_m lambda_m U(S ∩ P_m) approximates U(S) over sampled subsets S of
// active, then weights the within-group vectors by the fitted lambdas.
//
// A single group needs no regression: lambda = 1 fits exactly and the result
// is the exact vector over active.
func (a *Attributor) OptimalLambda(ctx context.Context, active coalition.Coalition, p partition.Partition, n int) (Approximation, error) {
	if err := p.Validate(active); err != nil {
		return Approximation{}, err
	}
	if len(p) == 1 {
		return a.ConstLambda(ctx, p, n)
	}

	lambdas, samples, err := a.fitLambdas(ctx, active, p)
	if err != nil {
		return Approximation{}, err
	}

	within, err := a.Within(ctx, p, n)
	if err != nil {
		return Approximation{}, err
	}

	return Approximation{Vector: combine(n, within, lambdas), Lambdas: lambdas, Samples: samples}, nil
}

// fitLambdas accumulates the normal equations A lambda = b with
// A[i][j] = mean(u_i(S) u_j(S)) and b[i] = mean(u_i(S) U(S)), where
// u_m(S) = U(S ∩ P_m), and solves them.
func (a *Attributor) fitLambdas(ctx context.Context, active coalition.Coalition, p partition.Partition) ([]float64, int, error) {
	k := len(p)
	samples := sampleCount(a.samples, active.Size())
	if samples == 0 {
		return nil, 0, fmt.Errorf("%w: optimal lambda needs at least one sample", ErrInvalidConfig)
	}

	A := mat.NewSymDense(k, nil)
	b := mat.NewVecDense(k, nil)
	u := make([]float64, k)

	sampler := newSubsetSampler(active, newRNG(a.seed))
	for range samples {
		s, ok := sampler.Next()
		if !ok {
			break
		}

		total, err := a.engine.Utility(ctx, s)
		if err != nil {
			return nil, 0, err
		}
		for m, group := range p {
			if u[m], err = a.engine.Utility(ctx, s.Intersect(group)); err != nil {
				return nil, 0, err
			}
		}

		for i := range k {
			b.SetVec(i, b.AtVec(i)+u[i]*total)
			for j := i; j < k; j++ {
				A.SetSym(i, j, A.At(i, j)+u[i]*u[j])
			}
		}
	}

	A.ScaleSym(1/float64(samples), A)
	b.ScaleVec(1/float64(samples), b)

	cond := mat.Cond(A, 2)
	if math.IsNaN(cond) || math.IsInf(cond, 0) || cond > a.maxCond {
		return nil, samples, &RegressionError{Cond: cond, Samples: samples, Groups: k}
	}

	var lambda mat.VecDense
	if err := lambda.SolveVec(A, b); err != nil {
		return nil, samples, &RegressionError{Cond: cond, Samples: samples, Groups: k, Err: err}
	}

	out := make([]float64, k)
	for m := range out {
		out[m] = lambda.AtVec(m)
		if math.IsNaN(out[m]) || math.IsInf(out[m], 0) {
			return nil, samples, &RegressionError{Cond: cond, Samples: samples, Groups: k}
		}
	}

	return out, samples, nil
}

func combine(n int, within []Vector, lambdas []float64) Vector {
	out := make(Vector, n)
	for m, v := range within {
		out.Add(v, lambdas[m])
	}

	return out
}
