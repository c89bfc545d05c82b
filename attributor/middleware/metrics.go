package middleware

import (
	"context"
	"time"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
	"github.com/go-kit/kit/metrics"
)

var _ attributor.Service = (*metricsMiddleware)(nil)

type metricsMiddleware struct {
	counter metrics.Counter
	latency metrics.Histogram
	svc     attributor.Service
}

func Metrics(counter metrics.Counter, latency metrics.Histogram, svc attributor.Service) attributor.Service {
	return &metricsMiddleware{
		counter: counter,
		latency: latency,
		svc:     svc,
	}
}

func (mm *metricsMiddleware) Attribute(ctx context.Context, req attributor.RoundRequest) (attributor.RoundResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "attribute").Add(1)
		mm.latency.With("method", "attribute").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.Attribute(ctx, req)
}

func (mm *metricsMiddleware) GetRound(ctx context.Context, round uint64) (attributor.RoundResult, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-round").Add(1)
		mm.latency.With("method", "get-round").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRound(ctx, round)
}

func (mm *metricsMiddleware) GetRecord(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "get-record").Add(1)
		mm.latency.With("method", "get-record").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.GetRecord(ctx, round, method)
}

func (mm *metricsMiddleware) ListRecords(ctx context.Context, offset, limit uint64) (attributor.RecordPage, error) {
	defer func(begin time.Time) {
		mm.counter.With("method", "list-records").Add(1)
		mm.latency.With("method", "list-records").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mm.svc.ListRecords(ctx, offset, limit)
}
