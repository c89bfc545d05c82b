package fl_test

import (
	"context"
	"testing"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linear(w0, w1, b0, b1 float64) fl.Model {
	return fl.Model{
		Weights: [][]float64{{w0}, {w1}},
		Bias:    []float64{b0, b1},
	}
}

func TestFedAvgAggregator(t *testing.T) {
	agg := fl.NewFedAvgAggregator()

	cases := []struct {
		desc    string
		updates []fl.Update
		want    fl.Model
		err     error
	}{
		{
			desc: "weighted by sample count",
			updates: []fl.Update{
				{ParticipantID: 0, NumSamples: 1, Model: linear(1, 0, 0, 4)},
				{ParticipantID: 1, NumSamples: 3, Model: linear(5, 4, 4, 0)},
			},
			want: linear(4, 3, 3, 1),
		},
		{
			desc:    "no updates",
			updates: nil,
			err:     fl.ErrNoUpdates,
		},
		{
			desc: "no samples",
			updates: []fl.Update{
				{ParticipantID: 0, Model: linear(1, 1, 1, 1)},
			},
			err: fl.ErrNoSamples,
		},
		{
			desc: "shape mismatch",
			updates: []fl.Update{
				{ParticipantID: 0, NumSamples: 1, Model: linear(1, 1, 1, 1)},
				{ParticipantID: 1, NumSamples: 1, Model: fl.Model{Weights: [][]float64{{1, 2}}, Bias: []float64{0}}},
			},
			err: fl.ErrShapeMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := agg.Aggregate(tc.updates)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tc.want.Bias, got.Bias, 1e-12)
			for i := range tc.want.Weights {
				assert.InDeltaSlice(t, tc.want.Weights[i], got.Weights[i], 1e-12)
			}
			assert.Equal(t, "FedAvg", got.Metadata["algorithm"])
		})
	}
}

func TestAccuracy(t *testing.T) {
	// class 1 iff x > 0
	m := linear(-1, 1, 0, 0)
	ds := fl.Dataset{
		Features: [][]float64{{-2}, {-1}, {1}, {3}},
		Labels:   []int{0, 0, 1, 0},
	}

	acc, err := fl.Accuracy(m, ds)
	require.NoError(t, err)
	assert.Equal(t, 0.75, acc)

	_, err = fl.Accuracy(m, fl.Dataset{})
	assert.ErrorIs(t, err, fl.ErrEmptyDataset)
}

func TestL1Distance(t *testing.T) {
	d, err := fl.L1Distance(linear(1, 2, 3, 4), linear(0, 4, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 4.0, d)

	_, err = fl.L1Distance(linear(1, 2, 3, 4), fl.Model{})
	assert.ErrorIs(t, err, fl.ErrShapeMismatch)
}

func TestNewUtility(t *testing.T) {
	good := linear(-1, 1, 0, 0)
	bad := linear(1, -1, 0, 0)
	updates := map[coalition.ParticipantID]fl.Update{
		0: {ParticipantID: 0, NumSamples: 10, Model: good},
		1: {ParticipantID: 1, NumSamples: 1, Model: bad},
	}
	ds := fl.Dataset{
		Features: [][]float64{{-1}, {2}},
		Labels:   []int{0, 1},
	}
	eval := fl.NewUtility(updates, ds, nil)
	ctx := context.Background()

	v, err := eval.Evaluate(ctx, coalition.Of(0))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = eval.Evaluate(ctx, coalition.Of(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = eval.Evaluate(ctx, coalition.Of(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	_, err = eval.Evaluate(ctx, coalition.Of(2))
	assert.ErrorIs(t, err, fl.ErrMissingUpdate)
}
