package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/absmach/shapley/attributor"
	"github.com/absmach/shapley/pkg/attribution"
)

var _ attributor.Service = (*loggingMiddleware)(nil)

type loggingMiddleware struct {
	logger *slog.Logger
	svc    attributor.Service
}

func Logging(logger *slog.Logger, svc attributor.Service) attributor.Service {
	return &loggingMiddleware{
		logger: logger,
		svc:    svc,
	}
}

func (lm *loggingMiddleware) Attribute(ctx context.Context, req attributor.RoundRequest) (res attributor.RoundResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("round",
				slog.Uint64("index", req.Round),
				slog.Int("participants", req.N),
				slog.Int("records", len(res.Records)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Attribute round failed", args...)

			return
		}
		lm.logger.Info("Attribute round completed successfully", args...)
	}(time.Now())

	return lm.svc.Attribute(ctx, req)
}

func (lm *loggingMiddleware) GetRound(ctx context.Context, round uint64) (res attributor.RoundResult, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("round", round),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get round failed", args...)

			return
		}
		lm.logger.Info("Get round completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRound(ctx, round)
}

func (lm *loggingMiddleware) GetRecord(ctx context.Context, round uint64, method attribution.Method) (rec attribution.Record, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Group("record",
				slog.Uint64("round", round),
				slog.String("method", string(method)),
			),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("Get record failed", args...)

			return
		}
		lm.logger.Info("Get record completed successfully", args...)
	}(time.Now())

	return lm.svc.GetRecord(ctx, round, method)
}

func (lm *loggingMiddleware) ListRecords(ctx context.Context, offset, limit uint64) (page attributor.RecordPage, err error) {
	defer func(begin time.Time) {
		args := []any{
			slog.String("duration", time.Since(begin).String()),
			slog.Uint64("offset", offset),
			slog.Uint64("limit", limit),
		}
		if err != nil {
			args = append(args, slog.Any("error", err))
			lm.logger.Warn("List records failed", args...)

			return
		}
		lm.logger.Info("List records completed successfully", args...)
	}(time.Now())

	return lm.svc.ListRecords(ctx, offset, limit)
}
