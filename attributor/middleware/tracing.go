package middleware

import (
	"context"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ attributor.Service = (*tracing)(nil)

type tracing struct {
	tracer trace.Tracer
	svc    attributor.Service
}

func Tracing(tracer trace.Tracer, svc attributor.Service) attributor.Service {
	return &tracing{tracer, svc}
}

func (tm *tracing) Attribute(ctx context.Context, req attributor.RoundRequest) (res attributor.RoundResult, err error) {
	ctx, span := tm.tracer.Start(ctx, "attribute", trace.WithAttributes(
		attribute.Int64("round", int64(req.Round)),
		attribute.Int("participants", req.N),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return tm.svc.Attribute(ctx, req)
}

func (tm *tracing) GetRound(ctx context.Context, round uint64) (attributor.RoundResult, error) {
	ctx, span := tm.tracer.Start(ctx, "get-round", trace.WithAttributes(
		attribute.Int64("round", int64(round)),
	))
	defer span.End()

	return tm.svc.GetRound(ctx, round)
}

func (tm *tracing) GetRecord(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	ctx, span := tm.tracer.Start(ctx, "get-record", trace.WithAttributes(
		attribute.Int64("round", int64(round)),
		attribute.String("method", string(method)),
	))
	defer span.End()

	return tm.svc.GetRecord(ctx, round, method)
}

func (tm *tracing) ListRecords(ctx context.Context, offset, limit uint64) (attributor.RecordPage, error) {
	ctx, span := tm.tracer.Start(ctx, "list-records", trace.WithAttributes(
		attribute.Int64("offset", int64(offset)),
		attribute.Int64("limit", int64(limit)),
	))
	defer span.End()

	return tm.svc.ListRecords(ctx, offset, limit)
}
