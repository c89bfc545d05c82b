// Package attribution computes per-participant contribution scores from a
// coalition utility: exact Shapley values and two partition based
// approximations (constant and least-squares fitted group weights).
package attribution

import (
	"context"
	"fmt"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/utility"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/combin"
)

// Engine computes exact Shapley values. Every utility is read through the
// round cache, so a coalition is evaluated at most once no matter how many
// marginals need it.
//
// Exact computation enumerates every subset of the coalition: O(2^(m)) utility
// lookups per participant and O(n 2^(n-1)) for a whole vector over n
// participants. It is only tractable for small coalitions; the partition
// approximations exist for everything else.
type Engine struct {
	cache   *utility.Cache
	eval    utility.Evaluator
	workers int
}

// NewEngine creates an engine that evaluates eval through cache. A nil cache
// gets a fresh one. workers > 1 computes vector entries concurrently.
func NewEngine(eval utility.Evaluator, cache *utility.Cache, workers int) *Engine {
	if cache == nil {
		cache = utility.NewCache()
	}

	return &Engine{
		cache:   cache,
		eval:    eval,
		workers: workers,
	}
}

func (e *Engine) Cache() *utility.Cache {
	return e.cache
}

// Utility returns the cached utility of c.
func (e *Engine) Utility(ctx context.Context, c coalition.Coalition) (float64, error) {
	return e.cache.GetOrCompute(ctx, c, e.eval)
}

// Exact returns the Shapley value of participant within c, or 0 when the
// participant is not a member. For every subset size k of the remaining
// members the marginal contributions are averaged over all C(m, k) subsets;
// the per-size averages are then summed and divided by |c|.
func (e *Engine) Exact(ctx context.Context, participant coalition.ParticipantID, c coalition.Coalition) (float64, error) {
	if !c.Contains(participant) {
		return 0, nil
	}

	rest := c.Remove(participant).Members()
	m := len(rest)
	self := coalition.Of(participant)

	var total float64
	for k := 0; k <= m; k++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var sum float64
		if k == 0 {
			d, err := e.marginal(ctx, coalition.Empty, self)
			if err != nil {
				return 0, err
			}
			total += d

			continue
		}

		positions := make([]int, k)
		gen := combin.NewCombinationGenerator(m, k)
		for gen.Next() {
			s := coalition.Select(rest, gen.Combination(positions))
			d, err := e.marginal(ctx, s, self)
			if err != nil {
				return 0, err
			}
			sum += d
		}
		total += sum / float64(combin.Binomial(m, k))
	}

	return total / float64(c.Size()), nil
}

// ExactVector computes Exact for every member of c. The result has length n
// and is 0 outside c.
func (e *Engine) ExactVector(ctx context.Context, c coalition.Coalition, n int) (Vector, error) {
	full, err := coalition.Full(n)
	if err != nil {
		return nil, err
	}
	if !c.IsSubsetOf(full) {
		return nil, fmt.Errorf("%w: coalition {%s} exceeds %d participants", coalition.ErrParticipantOutOfRange, c, n)
	}

	vec := make(Vector, n)
	members := c.Members()

	if e.workers <= 1 {
		for _, i := range members {
			v, err := e.Exact(ctx, i, c)
			if err != nil {
				return nil, err
			}
			vec[i] = v
		}

		return vec, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, i := range members {
		g.Go(func() error {
			v, err := e.Exact(gctx, i, c)
			if err != nil {
				return err
			}
			vec[i] = v

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vec, nil
}

func (e *Engine) marginal(ctx context.Context, s, self coalition.Coalition) (float64, error) {
	with, err := e.Utility(ctx, s.Union(self))
	if err != nil {
		return 0, err
	}
	without, err := e.Utility(ctx, s)
	if err != nil {
		return 0, err
	}

	return with - without, nil
}
