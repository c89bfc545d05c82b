package attribution_test

import (
	"context"
	"errors"
	"testing"

	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/partition"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// additive gives every participant a fixed worth; Shapley values equal the
// worths and the group decomposition is exact with lambda = 1.
func additive(worth map[coalition.ParticipantID]float64) utility.Evaluator {
	return utility.EvaluatorFunc(func(_ context.Context, c coalition.Coalition) (float64, error) {
		var v float64
		for _, m := range c.Members() {
			v += worth[m]
		}

		return v, nil
	})
}

func TestSinglePartitionReduction(t *testing.T) {
	ctx := context.Background()
	active := coalition.Of(0, 1, 2, 3)
	table := randomTable(5, 4)

	engine := attribution.NewEngine(table, nil, 0)
	exact, err := engine.ExactVector(ctx, active, 4)
	require.NoError(t, err)

	att := attribution.NewAttributor(engine, 10, 0, 0, 0)
	p := partition.Partition{active}

	constant, err := att.ConstLambda(ctx, p, 4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, exact, constant.Vector, tolerance)
	assert.Equal(t, []float64{1}, constant.Lambdas)

	optimal, err := att.OptimalLambda(ctx, active, p, 4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, exact, optimal.Vector, tolerance)
	assert.Equal(t, []float64{1}, optimal.Lambdas)
}

func TestConstLambdaSumsWithinGroups(t *testing.T) {
	ctx := context.Background()
	engine := attribution.NewEngine(workedExample(), nil, 0)
	att := attribution.NewAttributor(engine, 10, 0, 0, 0)

	got, err := att.ConstLambda(ctx, partition.Partition{coalition.Of(0, 1), coalition.Of(2)}, 3)
	require.NoError(t, err)

	// Within {0,1}: phi0 = (0.2 + 0.3) / 2, phi1 = (0.3 + 0.4) / 2. Within {2}: 0.1.
	assert.InDeltaSlice(t, attribution.Vector{0.25, 0.35, 0.1}, got.Vector, tolerance)
	assert.Equal(t, []float64{1, 1}, got.Lambdas)
}

func TestOptimalLambdaAdditiveUtility(t *testing.T) {
	ctx := context.Background()
	worth := map[coalition.ParticipantID]float64{0: 0.1, 1: 0.4, 2: 0.2, 3: 0.3, 4: 0.05}
	active := coalition.Of(0, 1, 2, 3, 4)
	p := partition.Partition{coalition.Of(0, 1, 4), coalition.Of(2, 3)}

	cases := []struct {
		desc    string
		samples int
		seed    int64
	}{
		{desc: "all subsets", samples: 1000},
		{desc: "sampled subsets", samples: 12, seed: 42},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			engine := attribution.NewEngine(additive(worth), nil, 0)
			att := attribution.NewAttributor(engine, tc.samples, tc.seed, 0, 0)

			got, err := att.OptimalLambda(ctx, active, p, 5)
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float64{1, 1}, got.Lambdas, 1e-6)
			assert.InDeltaSlice(t, attribution.Vector{0.1, 0.4, 0.2, 0.3, 0.05}, got.Vector, 1e-6)
			assert.Equal(t, min(tc.samples, 31), got.Samples)
		})
	}
}

func TestOptimalLambdaIllConditioned(t *testing.T) {
	ctx := context.Background()
	zero := utility.EvaluatorFunc(func(context.Context, coalition.Coalition) (float64, error) {
		return 0, nil
	})
	active := coalition.Of(0, 1, 2, 3)

	att := attribution.NewAttributor(attribution.NewEngine(zero, nil, 0), 15, 0, 0, 0)
	_, err := att.OptimalLambda(ctx, active, partition.Partition{coalition.Of(0, 1), coalition.Of(2, 3)}, 4)
	require.ErrorIs(t, err, attribution.ErrIllConditioned)

	var regErr *attribution.RegressionError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, 2, regErr.Groups)
	assert.Equal(t, 15, regErr.Samples)
}

func TestOptimalLambdaRejectsInvalidPartition(t *testing.T) {
	att := attribution.NewAttributor(attribution.NewEngine(randomTable(2, 3), nil, 0), 7, 0, 0, 0)

	_, err := att.OptimalLambda(context.Background(), coalition.Of(0, 1, 2), partition.Partition{coalition.Of(0), coalition.Of(1)}, 3)
	assert.ErrorIs(t, err, partition.ErrContractViolation)
}

func TestOptimalLambdaIsReproducible(t *testing.T) {
	ctx := context.Background()
	table := randomTable(21, 6)
	active := coalition.Of(0, 1, 2, 3, 4, 5)
	p := partition.Partition{coalition.Of(0, 1, 2), coalition.Of(3, 4, 5)}

	run := func(workers int) attribution.Approximation {
		att := attribution.NewAttributor(attribution.NewEngine(table, nil, workers), 20, 7, 1e18, workers)
		got, err := att.OptimalLambda(ctx, active, p, 6)
		require.NoError(t, err)

		return got
	}

	first, second := run(0), run(4)
	assert.InDeltaSlice(t, first.Lambdas, second.Lambdas, tolerance)
	assert.InDeltaSlice(t, first.Vector, second.Vector, tolerance)
}

func TestWithinGroupsIsZeroOutsideGroup(t *testing.T) {
	att := attribution.NewAttributor(attribution.NewEngine(randomTable(4, 4), nil, 0), 1, 0, 0, 2)
	p := partition.Partition{coalition.Of(0, 3), coalition.Of(1, 2)}

	within, err := att.Within(context.Background(), p, 4)
	require.NoError(t, err)
	require.Len(t, within, 2)
	assert.Zero(t, within[0][1])
	assert.Zero(t, within[0][2])
	assert.Zero(t, within[1][0])
	assert.Zero(t, within[1][3])
}
