package utility_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetOrCompute(t *testing.T) {
	var calls atomic.Int64
	eval := utility.EvaluatorFunc(func(_ context.Context, c coalition.Coalition) (float64, error) {
		calls.Add(1)

		return float64(c.Size()), nil
	})

	cache := utility.NewCache()
	ctx := context.Background()

	v, err := cache.GetOrCompute(ctx, coalition.Of(0, 1), eval)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = cache.GetOrCompute(ctx, coalition.Of(1, 0), eval)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, utility.Stats{Hits: 1, Misses: 1, Size: 1}, cache.Stats())
}

func TestCacheConcurrentMissComputesOnce(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	eval := utility.EvaluatorFunc(func(_ context.Context, _ coalition.Coalition) (float64, error) {
		calls.Add(1)
		<-release

		return 0.5, nil
	})

	cache := utility.NewCache()
	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := cache.GetOrCompute(context.Background(), coalition.Of(3), eval)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, v := range results {
		assert.Equal(t, 0.5, v)
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	errBoom := errors.New("boom")
	fail := true
	eval := utility.EvaluatorFunc(func(_ context.Context, _ coalition.Coalition) (float64, error) {
		if fail {
			return 0, errBoom
		}

		return 1, nil
	})

	cache := utility.NewCache()
	_, err := cache.GetOrCompute(context.Background(), coalition.Of(1), eval)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, cache.Len())

	fail = false
	v, err := cache.GetOrCompute(context.Background(), coalition.Of(1), eval)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestCacheRejectsNaN(t *testing.T) {
	eval := utility.EvaluatorFunc(func(_ context.Context, _ coalition.Coalition) (float64, error) {
		return math.NaN(), nil
	})

	_, err := utility.NewCache().GetOrCompute(context.Background(), coalition.Of(0), eval)
	assert.ErrorIs(t, err, utility.ErrInvalidUtility)
}

func TestWithEmptyPolicy(t *testing.T) {
	var calls int
	eval := utility.EvaluatorFunc(func(_ context.Context, _ coalition.Coalition) (float64, error) {
		calls++

		return 0.9, nil
	})

	cases := []struct {
		desc   string
		policy utility.EmptyPolicy
		want   float64
	}{
		{desc: "zero", policy: utility.EmptyPolicy{}, want: 0},
		{desc: "previous round accuracy", policy: utility.EmptyPolicy{UseBaseline: true, Baseline: 0.42}, want: 0.42},
		{desc: "baseline ignored when disabled", policy: utility.EmptyPolicy{Baseline: 0.42}, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			v, err := utility.WithEmptyPolicy(eval, tc.policy).Evaluate(context.Background(), coalition.Empty)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}
	assert.Zero(t, calls)

	v, err := utility.WithEmptyPolicy(eval, utility.EmptyPolicy{}).Evaluate(context.Background(), coalition.Of(2))
	require.NoError(t, err)
	assert.Equal(t, 0.9, v)
}

func TestLoadTable(t *testing.T) {
	table, err := utility.LoadTable(strings.NewReader(`{"": 0, "0": 0.2, "0,1": 0.6}`))
	require.NoError(t, err)

	v, err := table.Evaluate(context.Background(), coalition.Of(1, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.6, v)

	_, err = table.Evaluate(context.Background(), coalition.Of(2))
	assert.ErrorIs(t, err, utility.ErrUnknownCoalition)

	_, err = utility.LoadTable(strings.NewReader(`{"a,b": 1}`))
	assert.Error(t, err)
}

func TestCacheCancelledLeaderDoesNotFailWaiters(t *testing.T) {
	cache := utility.NewCache()
	c := coalition.Of(0, 1)

	started := make(chan struct{})
	blocking := utility.EvaluatorFunc(func(ctx context.Context, _ coalition.Coalition) (float64, error) {
		close(started)
		<-ctx.Done()

		return 0, ctx.Err()
	})
	live := utility.EvaluatorFunc(func(_ context.Context, _ coalition.Coalition) (float64, error) {
		return 0.5, nil
	})

	leaderCtx, cancel := context.WithCancel(context.Background())
	var (
		wg        sync.WaitGroup
		leaderErr error
		waiterV   float64
		waiterErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, leaderErr = cache.GetOrCompute(leaderCtx, c, blocking)
	}()
	<-started
	go func() {
		defer wg.Done()
		waiterV, waiterErr = cache.GetOrCompute(context.Background(), c, live)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	wg.Wait()

	assert.ErrorIs(t, leaderErr, context.Canceled)
	require.NoError(t, waiterErr)
	assert.Equal(t, 0.5, waiterV)

	v, err := cache.GetOrCompute(context.Background(), c, blocking)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}
