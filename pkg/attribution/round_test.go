package attribution_test

import (
	"context"
	"testing"

	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/fl"
	"github.com/absmach/shapley/pkg/partition"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		desc   string
		modify func(*attribution.Config)
		err    error
	}{
		{desc: "default", modify: func(*attribution.Config) {}},
		{desc: "zero partitions", modify: func(c *attribution.Config) { c.NumPartitions = 0 }, err: attribution.ErrInvalidConfig},
		{desc: "negative partitions", modify: func(c *attribution.Config) { c.NumPartitions = -2 }, err: attribution.ErrInvalidConfig},
		{desc: "zero samples", modify: func(c *attribution.Config) { c.OptimalLambdaSamples = 0 }, err: attribution.ErrInvalidConfig},
		{desc: "negative workers", modify: func(c *attribution.Config) { c.Workers = -1 }, err: attribution.ErrInvalidConfig},
		{desc: "zero scale", modify: func(c *attribution.Config) { c.Scale = 0 }, err: attribution.ErrInvalidConfig},
		{
			desc: "no methods",
			modify: func(c *attribution.Config) {
				c.Exact, c.ConstLambda, c.OptimalLambda = false, false, false
			},
			err: attribution.ErrNoMethods,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := attribution.DefaultConfig()
			tc.modify(&cfg)

			err := cfg.Validate()
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			assert.NoError(t, err)

			_, err = attribution.NewRunner(cfg, nil, nil)
			assert.NoError(t, err)
		})
	}

	_, err := attribution.NewRunner(attribution.Config{}, nil, nil)
	assert.ErrorIs(t, err, attribution.ErrInvalidConfig)
}

func TestParseMethod(t *testing.T) {
	m, err := attribution.ParseMethod("optimal_lambda")
	require.NoError(t, err)
	assert.Equal(t, attribution.MethodOptimalLambda, m)

	_, err = attribution.ParseMethod("banzhaf")
	assert.ErrorIs(t, err, attribution.ErrUnknownMethod)
}

func TestRunnerRun(t *testing.T) {
	ctx := context.Background()
	cfg := attribution.DefaultConfig()
	runner, err := attribution.NewRunner(cfg, nil, nil)
	require.NoError(t, err)

	rd, err := runner.NewRound(attribution.RoundInput{
		Index:   3,
		N:       3,
		Active:  coalition.Of(0, 1, 2),
		Utility: workedExample(),
	})
	require.NoError(t, err)

	results, err := runner.Run(ctx, rd)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, attribution.MethodExact, results[0].Method)
	assert.InDelta(t, 0.9, results[0].Vector.Sum(), tolerance)
	assert.Nil(t, results[0].Distances)

	for _, res := range results[1:] {
		require.NoError(t, res.Err)
		assert.EqualValues(t, 3, res.Round)
		assert.Len(t, res.Partition, 2)
		assert.NoError(t, res.Partition.Validate(rd.Active))
		assert.Len(t, res.Lambdas, 2)
	}
	assert.Equal(t, results[1].Partition, results[2].Partition)
	assert.Equal(t, 7, results[2].Samples)
	assert.Equal(t, 8, rd.Cache.Len())
}

func TestRunnerEmptyCoalitionPolicy(t *testing.T) {
	cfg := attribution.DefaultConfig()
	cfg.ConstLambda, cfg.OptimalLambda = false, false
	cfg.PreviousRoundAccForEmptySubset = true
	runner, err := attribution.NewRunner(cfg, nil, nil)
	require.NoError(t, err)

	table := workedExample()
	delete(table, coalition.Empty)
	rd, err := runner.NewRound(attribution.RoundInput{
		Index:    1,
		N:        3,
		Active:   coalition.Of(0, 1, 2),
		Utility:  table,
		Baseline: 0.15,
	})
	require.NoError(t, err)

	results, err := runner.Run(context.Background(), rd)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.75, results[0].Vector.Sum(), tolerance)
}

func TestRunnerMethodFailure(t *testing.T) {
	zero := utility.EvaluatorFunc(func(context.Context, coalition.Coalition) (float64, error) {
		return 0, nil
	})
	in := attribution.RoundInput{Index: 2, N: 4, Active: coalition.Of(0, 1, 2, 3), Utility: zero}

	cases := []struct {
		desc  string
		abort bool
	}{
		{desc: "skip failed method"},
		{desc: "abort on failed method", abort: true},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := attribution.DefaultConfig()
			cfg.AbortOnError = tc.abort
			runner, err := attribution.NewRunner(cfg, nil, nil)
			require.NoError(t, err)
			rd, err := runner.NewRound(in)
			require.NoError(t, err)

			results, err := runner.Run(context.Background(), rd)
			if tc.abort {
				assert.ErrorIs(t, err, attribution.ErrIllConditioned)
				assert.Len(t, results, 2)

				return
			}
			require.NoError(t, err)
			require.Len(t, results, 3)
			assert.NoError(t, results[0].Err)
			assert.NoError(t, results[1].Err)
			assert.ErrorIs(t, results[2].Err, attribution.ErrIllConditioned)
			assert.Nil(t, results[2].Vector)
		})
	}
}

func TestRunnerContractViolationAborts(t *testing.T) {
	cfg := attribution.DefaultConfig()
	cfg.Exact = false
	bad := partition.OracleFunc(func(_ context.Context, nodes []coalition.ParticipantID, _ []partition.Edge, _ int) (map[coalition.ParticipantID]int, error) {
		return map[coalition.ParticipantID]int{nodes[0]: 0}, nil
	})
	runner, err := attribution.NewRunner(cfg, bad, nil)
	require.NoError(t, err)

	rd, err := runner.NewRound(attribution.RoundInput{Index: 1, N: 4, Active: coalition.Of(0, 1, 2, 3), Utility: randomTable(1, 4)})
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), rd)
	assert.ErrorIs(t, err, partition.ErrContractViolation)
}

func TestNewRound(t *testing.T) {
	runner, err := attribution.NewRunner(attribution.DefaultConfig(), nil, nil)
	require.NoError(t, err)

	cases := []struct {
		desc string
		in   attribution.RoundInput
		err  error
	}{
		{desc: "valid", in: attribution.RoundInput{N: 3, Active: coalition.Of(0, 2), Utility: workedExample()}},
		{desc: "missing utility", in: attribution.RoundInput{N: 3, Active: coalition.Of(0, 2)}, err: attribution.ErrInvalidConfig},
		{desc: "active outside participants", in: attribution.RoundInput{N: 2, Active: coalition.Of(0, 2), Utility: workedExample()}, err: coalition.ErrParticipantOutOfRange},
		{desc: "empty active set", in: attribution.RoundInput{N: 2, Utility: workedExample()}, err: attribution.ErrEmptyRound},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			rd, err := runner.NewRound(tc.in)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Zero(t, rd.Cache.Len())
			assert.Equal(t, attribution.DefaultConfig().Scale, rd.Scale)
		})
	}
}

func TestRoundDistances(t *testing.T) {
	runner, err := attribution.NewRunner(attribution.DefaultConfig(), nil, nil)
	require.NoError(t, err)

	prev := fl.Model{Weights: [][]float64{{0, 0}}, Bias: []float64{0}}
	rd, err := runner.NewRound(attribution.RoundInput{
		N:       3,
		Active:  coalition.Of(0, 2),
		Utility: workedExample(),
		Models: map[coalition.ParticipantID]fl.Model{
			0: {Weights: [][]float64{{1, -1}}, Bias: []float64{0.5}},
			2: {Weights: [][]float64{{0, 2}}, Bias: []float64{-1}},
		},
		PreviousGlobal: &prev,
	})
	require.NoError(t, err)

	dist, err := rd.Distances()
	require.NoError(t, err)
	assert.InDeltaSlice(t, attribution.Vector{2.5, 0, 3}, dist, tolerance)
}
