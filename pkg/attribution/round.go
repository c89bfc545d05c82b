package attribution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/fl"
	"github.com/absmach/shapley/pkg/partition"
	"github.com/absmach/shapley/pkg/utility"
)

// RoundInput is everything the orchestrator knows about a round before
// attribution starts.
type RoundInput struct {
	Index   uint64
	N       int
	Active  coalition.Coalition
	Utility utility.Evaluator
	// Baseline is the previous round's global accuracy, used for the empty
	// coalition when configured.
	Baseline float64
	// Models and PreviousGlobal feed the distance vector; both are optional.
	Models         map[coalition.ParticipantID]fl.Model
	PreviousGlobal *fl.Model
	// Scale overrides the configured synergy scale when positive.
	Scale float64
}

// Round holds the state of one attribution round. It is owned by a single
// Run call and must not be reused for another round.
type Round struct {
	Index          uint64
	N              int
	Active         coalition.Coalition
	Models         map[coalition.ParticipantID]fl.Model
	PreviousGlobal *fl.Model
	Baseline       float64
	Cache          *utility.Cache
	Partition      partition.Partition
	Scale          float64

	eval   utility.Evaluator
	engine *Engine
}

// Result is the outcome of one method for one round. Err is set instead of
// Vector when the method failed and the runner was told to skip it.
type Result struct {
	Round     uint64              `json:"round"`
	Method    Method              `json:"method"`
	Vector    Vector              `json:"vector,omitempty"`
	Distances Vector              `json:"distances,omitempty"`
	Lambdas   []float64           `json:"lambdas,omitempty"`
	Partition partition.Partition `json:"partition,omitempty"`
	Samples   int                 `json:"samples,omitempty"`
	Duration  time.Duration       `json:"duration"`
	Err       error               `json:"-"`
}

// Runner runs the configured methods over rounds.
type Runner struct {
	cfg    Config
	oracle partition.Oracle
	logger *slog.Logger
}

// NewRunner validates cfg and prepares a runner. oracle may be nil, in which
// case partitions come from the greedy local search.
func NewRunner(cfg Config, oracle partition.Oracle, logger *slog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Runner{
		cfg:    cfg,
		oracle: oracle,
		logger: logger,
	}, nil
}

func (r *Runner) Config() Config {
	return r.cfg
}

// NewRound creates the state for one round with a fresh cache. The empty
// coalition is never evaluated: it is worth the baseline when
// PreviousRoundAccForEmptySubset is set and 0 otherwise.
func (r *Runner) NewRound(in RoundInput) (*Round, error) {
	if in.Utility == nil {
		return nil, fmt.Errorf("%w: round %d has no utility", ErrInvalidConfig, in.Index)
	}
	full, err := coalition.Full(in.N)
	if err != nil {
		return nil, err
	}
	if !in.Active.IsSubsetOf(full) {
		return nil, fmt.Errorf("%w: active set {%s} exceeds %d participants", coalition.ErrParticipantOutOfRange, in.Active, in.N)
	}
	if in.Active.IsEmpty() {
		return nil, ErrEmptyRound
	}

	scale := r.cfg.Scale
	if in.Scale > 0 {
		scale = in.Scale
	}

	eval := utility.WithEmptyPolicy(in.Utility, utility.EmptyPolicy{
		UseBaseline: r.cfg.PreviousRoundAccForEmptySubset,
		Baseline:    in.Baseline,
	})
	cache := utility.NewCache()

	return &Round{
		Index:          in.Index,
		N:              in.N,
		Active:         in.Active,
		Models:         in.Models,
		PreviousGlobal: in.PreviousGlobal,
		Baseline:       in.Baseline,
		Cache:          cache,
		Scale:          scale,
		eval:           eval,
		engine:         NewEngine(eval, cache, r.cfg.Workers),
	}, nil
}

// Engine exposes the round's cached Shapley engine.
func (rd *Round) Engine() *Engine {
	return rd.engine
}

// Distances returns, per active participant, the L1 distance between the
// previous global model and the participant's local model. It is nil when
// no models were supplied.
func (rd *Round) Distances() (Vector, error) {
	if rd.PreviousGlobal == nil || len(rd.Models) == 0 {
		return nil, nil
	}

	out := make(Vector, rd.N)
	for _, id := range rd.Active.Members() {
		m, ok := rd.Models[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", fl.ErrMissingUpdate, id)
		}
		d, err := fl.L1Distance(*rd.PreviousGlobal, m)
		if err != nil {
			return nil, fmt.Errorf("failed to compute distance for participant %d: %w", id, err)
		}
		out[id] = d
	}

	return out, nil
}

// Run computes every enabled method for rd. Method failures are returned in
// the Result when AbortOnError is off; otherwise the first failure aborts the
// round. Partition contract violations always abort.
func (r *Runner) Run(ctx context.Context, rd *Round) ([]Result, error) {
	results := make([]Result, 0, len(r.cfg.Methods()))
	for _, method := range r.cfg.Methods() {
		res, err := r.RunMethod(ctx, rd, method)
		if err != nil {
			if r.cfg.AbortOnError || errors.Is(err, partition.ErrContractViolation) || ctx.Err() != nil {
				return results, fmt.Errorf("round %d method %s: %w", rd.Index, method, err)
			}
			res = Result{Round: rd.Index, Method: method, Err: err}
		}
		results = append(results, res)
	}

	return results, nil
}

// RunMethod computes a single method for rd.
func (r *Runner) RunMethod(ctx context.Context, rd *Round, method Method) (Result, error) {
	start := time.Now()
	res := Result{Round: rd.Index, Method: method}

	switch method {
	case MethodExact:
		vec, err := rd.engine.ExactVector(ctx, rd.Active, rd.N)
		if err != nil {
			return Result{}, err
		}
		dist, err := rd.Distances()
		if err != nil {
			return Result{}, err
		}
		res.Vector, res.Distances = vec, dist
	case MethodConstLambda, MethodOptimalLambda:
		p, err := r.partition(ctx, rd)
		if err != nil {
			return Result{}, err
		}
		att := NewAttributor(rd.engine, r.cfg.OptimalLambdaSamples, r.cfg.Seed, r.cfg.MaxCondition, r.cfg.Workers)

		var approx Approximation
		if method == MethodConstLambda {
			approx, err = att.ConstLambda(ctx, p, rd.N)
		} else {
			approx, err = att.OptimalLambda(ctx, rd.Active, p, rd.N)
		}
		if err != nil {
			return Result{}, err
		}
		res.Vector, res.Lambdas, res.Samples, res.Partition = approx.Vector, approx.Lambdas, approx.Samples, p
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	res.Duration = time.Since(start)

	return res, nil
}

// partition builds the round partition once and reuses it for both
// approximations.
func (r *Runner) partition(ctx context.Context, rd *Round) (partition.Partition, error) {
	if rd.Partition != nil {
		return rd.Partition, nil
	}

	pr := partition.NewPartitioner(r.oracle, partition.NewGreedy(r.cfg.Seed), rd.Scale, r.logger)
	p, err := pr.Build(ctx, rd.Active, r.cfg.NumPartitions, rd.Cache.Wrap(rd.eval))
	if err != nil {
		return nil, err
	}
	rd.Partition = p

	return p, nil
}
