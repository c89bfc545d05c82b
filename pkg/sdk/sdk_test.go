package sdk_test

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/attributor/api"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/sdk"
	"github.com/absmach/shapley/pkg/storage"
	"github.com/absmach/shapley/pkg/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSDK(t *testing.T) sdk.SDK {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	runner, err := attribution.NewRunner(attribution.DefaultConfig(), nil, logger)
	require.NoError(t, err)
	svc := attributor.NewService(runner, storage.NewInMemoryRecordRepository(), nil, "", logger)

	ts := httptest.NewServer(api.MakeHandler(svc, logger, "sdk-test"))
	t.Cleanup(ts.Close)

	return sdk.NewSDK(sdk.Config{AttributorURL: ts.URL})
}

func table() utility.Table {
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

func TestAttributeAndFetch(t *testing.T) {
	s := newSDK(t)

	res, err := s.Attribute(attributor.RoundRequest{
		Round:   1,
		N:       3,
		Utility: attributor.UtilitySource{Table: table()},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.InDelta(t, 0.9, res.Records[0].Vector.Sum(), 1e-9)

	round, err := s.GetRound(1)
	require.NoError(t, err)
	assert.Len(t, round.Records, 3)
	assert.NoError(t, round.Partition.Validate(coalition.Of(0, 1, 2)))

	rec, err := s.GetRecord(1, attribution.MethodOptimalLambda)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Samples)

	page, err := s.ListRecords(1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Records, 2)
}

func TestErrors(t *testing.T) {
	s := newSDK(t)

	cases := []struct {
		desc string
		call func() error
	}{
		{
			desc: "missing round",
			call: func() error {
				_, err := s.GetRound(42)

				return err
			},
		},
		{
			desc: "unknown method",
			call: func() error {
				_, err := s.GetRecord(1, "banzhaf")

				return err
			},
		},
		{
			desc: "request without utility",
			call: func() error {
				_, err := s.Attribute(attributor.RoundRequest{Round: 1, N: 3})

				return err
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Error(t, tc.call())
		})
	}
}
