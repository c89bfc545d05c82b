package attributor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	pkgerrors "github.com/absmach/shapley/pkg/errors"
	"github.com/absmach/shapley/pkg/fl"
	"github.com/absmach/shapley/pkg/mqtt"
	"github.com/absmach/shapley/pkg/storage"
	"github.com/absmach/shapley/pkg/utility/wasm"
)

const defLimit = 100

type service struct {
	runner    *attribution.Runner
	repo      storage.RecordRepository
	pubsub    mqtt.PubSub
	baseTopic string
	logger    *slog.Logger
}

// NewService wires the runner to persistence and publication. pubsub may be
// nil, in which case results are only persisted.
func NewService(runner *attribution.Runner, repo storage.RecordRepository, pubsub mqtt.PubSub, baseTopic string, logger *slog.Logger) Service {
	return &service{
		runner:    runner,
		repo:      repo,
		pubsub:    pubsub,
		baseTopic: baseTopic,
		logger:    logger,
	}
}

func (svc *service) Attribute(ctx context.Context, req RoundRequest) (RoundResult, error) {
	if err := req.Validate(); err != nil {
		return RoundResult{}, err
	}
	active, err := req.ActiveSet()
	if err != nil {
		return RoundResult{}, err
	}

	in := attribution.RoundInput{
		Index:          req.Round,
		N:              req.N,
		Active:         active,
		Baseline:       req.Baseline,
		PreviousGlobal: req.PreviousGlobal,
		Scale:          req.Scale,
	}
	closeEval, err := svc.evaluator(ctx, req, &in)
	if err != nil {
		return RoundResult{}, err
	}
	defer closeEval()

	rd, err := svc.runner.NewRound(in)
	if err != nil {
		return RoundResult{}, err
	}

	results, runErr := svc.runner.Run(ctx, rd)

	res := RoundResult{Round: req.Round, Partition: rd.Partition}
	now := time.Now().UTC()
	for _, r := range results {
		rec := r.Record(now)
		if r.Err != nil {
			svc.logger.WarnContext(ctx, "Attribution method skipped",
				slog.Uint64("round", req.Round),
				slog.String("method", string(r.Method)),
				slog.String("error", r.Err.Error()))
		}
		if err := svc.repo.Save(ctx, rec); err != nil {
			return RoundResult{}, fmt.Errorf("failed to save %s record for round %d: %w", r.Method, req.Round, err)
		}
		res.Records = append(res.Records, rec)
	}
	if runErr != nil {
		return res, runErr
	}

	svc.publish(ctx, res)

	return res, nil
}

// evaluator fills in the utility of in from the request source and returns
// a release function for resources held by the evaluator.
func (svc *service) evaluator(ctx context.Context, req RoundRequest, in *attribution.RoundInput) (func(), error) {
	src := req.Utility
	switch {
	case len(src.Table) > 0:
		in.Utility = src.Table
	case len(src.Wasm) > 0:
		ev, err := wasm.New(ctx, src.Wasm, src.Function)
		if err != nil {
			return nil, err
		}
		in.Utility = ev

		return func() {
			if err := ev.Close(context.Background()); err != nil {
				svc.logger.Warn("Failed to close wasm utility", slog.String("error", err.Error()))
			}
		}, nil
	case len(src.Updates) > 0:
		updates := make(map[coalition.ParticipantID]fl.Update, len(src.Updates))
		models := make(map[coalition.ParticipantID]fl.Model, len(src.Updates))
		for _, u := range src.Updates {
			updates[u.ParticipantID] = u
			models[u.ParticipantID] = u.Model
		}
		in.Utility = fl.NewUtility(updates, *src.TestSet, fl.NewFedAvgAggregator())
		in.Models = models
		if in.Scale <= 0 {
			in.Scale = float64(src.TestSet.Len())
		}
	default:
		return nil, ErrMissingUtility
	}

	return func() {}, nil
}

func (svc *service) publish(ctx context.Context, res RoundResult) {
	if svc.pubsub == nil {
		return
	}

	topic := svc.baseTopic + "/" + mqtt.ResultsTopic
	if err := svc.pubsub.Publish(ctx, topic, res); err != nil {
		svc.logger.WarnContext(ctx, "Failed to publish round result",
			slog.Uint64("round", res.Round),
			slog.String("topic", topic),
			slog.String("error", err.Error()))
	}
}

func (svc *service) GetRound(ctx context.Context, round uint64) (RoundResult, error) {
	records, err := svc.repo.ListByRound(ctx, round)
	if err != nil {
		return RoundResult{}, err
	}
	if len(records) == 0 {
		return RoundResult{}, pkgerrors.ErrNotFound
	}

	res := RoundResult{Round: round, Records: records}
	for _, r := range records {
		if len(r.Partition) > 0 {
			res.Partition = r.Partition

			break
		}
	}

	return res, nil
}

func (svc *service) GetRecord(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	if _, err := attribution.ParseMethod(string(method)); err != nil {
		return attribution.Record{}, err
	}

	return svc.repo.Get(ctx, round, method)
}

func (svc *service) ListRecords(ctx context.Context, offset, limit uint64) (RecordPage, error) {
	if limit == 0 {
		limit = defLimit
	}
	records, total, err := svc.repo.List(ctx, offset, limit)
	if err != nil {
		return RecordPage{}, err
	}

	return RecordPage{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		Records: records,
	}, nil
}
