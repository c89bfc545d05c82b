package mocks

import (
	"context"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/stretchr/testify/mock"
)

var _ attributor.Service = (*Service)(nil)

// Service is a testify mock of attributor.Service.
type Service struct {
	mock.Mock
}

func (m *Service) Attribute(ctx context.Context, req attributor.RoundRequest) (attributor.RoundResult, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(attributor.RoundResult), args.Error(1)
}

func (m *Service) GetRound(ctx context.Context, round uint64) (attributor.RoundResult, error) {
	args := m.Called(ctx, round)

	return args.Get(0).(attributor.RoundResult), args.Error(1)
}

func (m *Service) GetRecord(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	args := m.Called(ctx, round, method)

	return args.Get(0).(attribution.Record), args.Error(1)
}

func (m *Service) ListRecords(ctx context.Context, offset, limit uint64) (attributor.RecordPage, error) {
	args := m.Called(ctx, offset, limit)

	return args.Get(0).(attributor.RecordPage), args.Error(1)
}
