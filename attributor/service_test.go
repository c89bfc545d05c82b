package attributor_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	pkgerrors "github.com/absmach/shapley/pkg/errors"
	"github.com/absmach/shapley/pkg/fl"
	"github.com/absmach/shapley/pkg/mqtt"
	"github.com/absmach/shapley/pkg/mqtt/mocks"
	"github.com/absmach/shapley/pkg/storage"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

var baseTopic = mqtt.BaseTopic("domain", "channel")

func workedExample() utility.Table {
	return utility.Table{
		coalition.Empty:       0,
		coalition.Of(0):       0.2,
		coalition.Of(1):       0.3,
		coalition.Of(2):       0.1,
		coalition.Of(0, 1):    0.6,
		coalition.Of(0, 2):    0.35,
		coalition.Of(1, 2):    0.42,
		coalition.Of(0, 1, 2): 0.9,
	}
}

func zeroTable(n int) utility.Table {
	full, _ := coalition.Full(n)
	table := make(utility.Table)
	for idx := uint64(0); idx < 1<<uint(n); idx++ {
		table[full.Expand(idx)] = 0
	}

	return table
}

func newService(t *testing.T, cfg attribution.Config) (attributor.Service, storage.RecordRepository, *mocks.PubSub) {
	t.Helper()

	runner, err := attribution.NewRunner(cfg, nil, nil)
	require.NoError(t, err)
	repo := storage.NewInMemoryRecordRepository()
	ps := mocks.NewPubSub()
	logger := slog.New(slog.DiscardHandler)

	return attributor.NewService(runner, repo, ps, baseTopic, logger), repo, ps
}

func TestAttribute(t *testing.T) {
	ctx := context.Background()
	svc, repo, ps := newService(t, attribution.DefaultConfig())

	res, err := svc.Attribute(ctx, attributor.RoundRequest{
		Round:   4,
		N:       3,
		Utility: attributor.UtilitySource{Table: workedExample()},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.EqualValues(t, 4, res.Round)
	assert.Len(t, res.Partition, 2)

	exact := res.Records[0]
	assert.Equal(t, attribution.MethodExact, exact.Method)
	assert.InDelta(t, 0.9, exact.Vector.Sum(), tolerance)
	assert.Empty(t, exact.Error)
	assert.False(t, exact.CreatedAt.IsZero())

	stored, err := repo.Get(ctx, 4, attribution.MethodOptimalLambda)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Samples)
	assert.Len(t, stored.Lambdas, 2)

	published := ps.Published()
	require.Len(t, published, 1)
	assert.Equal(t, baseTopic+"/"+mqtt.ResultsTopic, published[0].Topic)
	assert.Equal(t, res, published[0].Payload)
}

func TestAttributeValidation(t *testing.T) {
	svc, _, ps := newService(t, attribution.DefaultConfig())

	cases := []struct {
		desc string
		req  attributor.RoundRequest
		err  error
	}{
		{
			desc: "no participants",
			req:  attributor.RoundRequest{Utility: attributor.UtilitySource{Table: workedExample()}},
			err:  coalition.ErrParticipantOutOfRange,
		},
		{
			desc: "too many participants",
			req:  attributor.RoundRequest{N: 65, Utility: attributor.UtilitySource{Table: workedExample()}},
			err:  coalition.ErrParticipantOutOfRange,
		},
		{
			desc: "no utility",
			req:  attributor.RoundRequest{N: 3},
			err:  attributor.ErrMissingUtility,
		},
		{
			desc: "two utilities",
			req: attributor.RoundRequest{N: 3, Utility: attributor.UtilitySource{
				Table: workedExample(),
				Wasm:  []byte{0x00, 0x61, 0x73, 0x6d},
			}},
			err: attributor.ErrAmbiguousUtility,
		},
		{
			desc: "updates without test set",
			req: attributor.RoundRequest{N: 1, Utility: attributor.UtilitySource{
				Updates: []fl.Update{{ParticipantID: 0, NumSamples: 1}},
			}},
			err: attributor.ErrMissingTestSet,
		},
		{
			desc: "active outside participants",
			req: attributor.RoundRequest{
				N:       2,
				Active:  []coalition.ParticipantID{0, 2},
				Utility: attributor.UtilitySource{Table: workedExample()},
			},
			err: coalition.ErrParticipantOutOfRange,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := svc.Attribute(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.err)
		})
	}
	assert.Empty(t, ps.Published())
}

func TestAttributeSkipsFailedMethod(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newService(t, attribution.DefaultConfig())

	res, err := svc.Attribute(ctx, attributor.RoundRequest{
		Round:   1,
		N:       4,
		Utility: attributor.UtilitySource{Table: zeroTable(4)},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	rec, err := repo.Get(ctx, 1, attribution.MethodOptimalLambda)
	require.NoError(t, err)
	assert.Contains(t, rec.Error, attribution.ErrIllConditioned.Error())
	assert.Nil(t, rec.Vector)

	round, err := svc.GetRound(ctx, 1)
	require.NoError(t, err)
	var skipped int
	for _, r := range round.Records {
		if r.Error != "" {
			skipped++
			assert.Equal(t, attribution.MethodOptimalLambda, r.Method)
		}
	}
	assert.Equal(t, 1, skipped)
}

func TestAttributeAbortKeepsCompletedRecords(t *testing.T) {
	ctx := context.Background()
	cfg := attribution.DefaultConfig()
	cfg.AbortOnError = true
	svc, repo, ps := newService(t, cfg)

	res, err := svc.Attribute(ctx, attributor.RoundRequest{
		Round:   1,
		N:       4,
		Utility: attributor.UtilitySource{Table: zeroTable(4)},
	})
	assert.ErrorIs(t, err, attribution.ErrIllConditioned)
	assert.Len(t, res.Records, 2)

	_, err = repo.Get(ctx, 1, attribution.MethodOptimalLambda)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)
	assert.Empty(t, ps.Published())
}

func TestAttributeModelUtility(t *testing.T) {
	ctx := context.Background()
	cfg := attribution.DefaultConfig()
	cfg.ConstLambda, cfg.OptimalLambda = false, false
	svc, _, _ := newService(t, cfg)

	model := func(w0, w1 float64) fl.Model {
		return fl.Model{Weights: [][]float64{{w0}, {w1}}, Bias: []float64{0, 0}}
	}
	prev := model(0, 0)

	res, err := svc.Attribute(ctx, attributor.RoundRequest{
		Round: 2,
		N:     2,
		Utility: attributor.UtilitySource{
			Updates: []fl.Update{
				{ParticipantID: 0, NumSamples: 3, Model: model(-1, 1)},
				{ParticipantID: 1, NumSamples: 1, Model: model(1, -1)},
			},
			TestSet: &fl.Dataset{
				Features: [][]float64{{-1}, {1}},
				Labels:   []int{0, 1},
			},
		},
		PreviousGlobal: &prev,
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	exact := res.Records[0]
	// FedAvg of both models still separates the classes.
	assert.InDelta(t, 1.0, exact.Vector.Sum(), tolerance)
	assert.InDeltaSlice(t, attribution.Vector{2, 2}, exact.Distances, tolerance)
}

func TestAttributePublishFailure(t *testing.T) {
	svc, repo, ps := newService(t, attribution.DefaultConfig())
	ps.PubErr = errors.New("broker unavailable")

	_, err := svc.Attribute(context.Background(), attributor.RoundRequest{
		Round:   9,
		N:       3,
		Utility: attributor.UtilitySource{Table: workedExample()},
	})
	require.NoError(t, err)

	records, err := repo.ListByRound(context.Background(), 9)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestGetRoundAndRecord(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, attribution.DefaultConfig())

	for _, round := range []uint64{1, 2} {
		_, err := svc.Attribute(ctx, attributor.RoundRequest{
			Round:   round,
			N:       3,
			Utility: attributor.UtilitySource{Table: workedExample()},
		})
		require.NoError(t, err)
	}

	res, err := svc.GetRound(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.Len(t, res.Partition, 2)

	_, err = svc.GetRound(ctx, 7)
	assert.ErrorIs(t, err, pkgerrors.ErrNotFound)

	cases := []struct {
		desc   string
		round  uint64
		method attribution.Method
		err    error
	}{
		{desc: "exact", round: 1, method: attribution.MethodExact},
		{desc: "const lambda", round: 2, method: attribution.MethodConstLambda},
		{desc: "unknown method", round: 1, method: "banzhaf", err: attribution.ErrUnknownMethod},
		{desc: "missing round", round: 5, method: attribution.MethodExact, err: pkgerrors.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			rec, err := svc.GetRecord(ctx, tc.round, tc.method)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.round, rec.Round)
			assert.Equal(t, tc.method, rec.Method)
		})
	}

	page, err := svc.ListRecords(ctx, 0, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 6, page.Total)
	assert.Len(t, page.Records, 4)
	assert.EqualValues(t, 1, page.Records[0].Round)

	page, err = svc.ListRecords(ctx, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 100, page.Limit)
	assert.Len(t, page.Records, 6)
}

// countingService stands in for the middleware chain wrapped around the
// service.
type countingService struct {
	attributor.Service
	attributes int
}

func (cs *countingService) Attribute(ctx context.Context, req attributor.RoundRequest) (attributor.RoundResult, error) {
	cs.attributes++

	return cs.Service.Attribute(ctx, req)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	inner, repo, ps := newService(t, attribution.DefaultConfig())
	svc := &countingService{Service: inner}
	require.NoError(t, attributor.Subscribe(ctx, svc, ps, baseTopic, slog.New(slog.DiscardHandler)))

	topic := baseTopic + "/" + mqtt.RequestsTopic
	payload, err := json.Marshal(attributor.RoundRequest{
		Round:   3,
		N:       3,
		Utility: attributor.UtilitySource{Table: workedExample()},
	})
	require.NoError(t, err)

	require.NoError(t, ps.Deliver(topic, payload))
	records, err := repo.ListByRound(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1, svc.attributes)

	err = ps.Deliver(topic, []byte("{"))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidData)

	err = ps.Deliver(topic, []byte(`{"round":4,"n":3}`))
	assert.ErrorIs(t, err, attributor.ErrMissingUtility)
	assert.Equal(t, 2, svc.attributes)
}

func TestSubscribeWithoutPubSub(t *testing.T) {
	svc, _, _ := newService(t, attribution.DefaultConfig())
	err := attributor.Subscribe(context.Background(), svc, nil, baseTopic, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
