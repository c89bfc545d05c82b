package utility

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/absmach/shapley/pkg/coalition"
	"golang.org/x/sync/singleflight"
)

// Stats reports cache effectiveness for one round.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// Cache memoizes coalition utilities for a single round. Keys are written at
// most once; concurrent requests for the same missing key share a single
// computation, so no subset is evaluated twice and readers never observe a
// partial write.
type Cache struct {
	mu     sync.RWMutex
	values map[coalition.Coalition]float64
	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewCache() *Cache {
	return &Cache{
		values: make(map[coalition.Coalition]float64),
	}
}

// GetOrCompute returns the stored utility of c, computing and storing it with
// compute on a miss. Failed computations are not stored.
//
// Callers waiting on an in-flight computation share its result, including
// its error. A waiter whose own context is still live and that received the
// leader's cancellation retries once as leader, so one cancelled caller does
// not fail callers with other contexts.
func (uc *Cache) GetOrCompute(ctx context.Context, c coalition.Coalition, compute Evaluator) (float64, error) {
	if v, ok := uc.lookup(c); ok {
		uc.hits.Add(1)

		return v, nil
	}

	v, err := uc.compute(ctx, c, compute)
	if err != nil && ctx.Err() == nil && isContextErr(err) {
		v, err = uc.compute(ctx, c, compute)
	}

	return v, err
}

func (uc *Cache) compute(ctx context.Context, c coalition.Coalition, compute Evaluator) (float64, error) {
	res, err, _ := uc.group.Do(strconv.FormatUint(c.Key(), 16), func() (any, error) {
		if v, ok := uc.lookup(c); ok {
			uc.hits.Add(1)

			return v, nil
		}
		uc.misses.Add(1)

		v, err := compute.Evaluate(ctx, c)
		if err != nil {
			return 0.0, fmt.Errorf("failed to evaluate coalition {%s}: %w", c, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0.0, fmt.Errorf("%w: coalition {%s}", ErrInvalidUtility, c)
		}

		uc.mu.Lock()
		uc.values[c] = v
		uc.mu.Unlock()

		return v, nil
	})
	if err != nil {
		return 0, err
	}

	return res.(float64), nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Wrap returns an Evaluator that routes every call to eval through the cache.
func (uc *Cache) Wrap(eval Evaluator) Evaluator {
	return EvaluatorFunc(func(ctx context.Context, c coalition.Coalition) (float64, error) {
		return uc.GetOrCompute(ctx, c, eval)
	})
}

func (uc *Cache) Len() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	return len(uc.values)
}

func (uc *Cache) Stats() Stats {
	return Stats{
		Hits:   uc.hits.Load(),
		Misses: uc.misses.Load(),
		Size:   uc.Len(),
	}
}

func (uc *Cache) lookup(c coalition.Coalition) (float64, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	v, ok := uc.values[c]

	return v, ok
}
