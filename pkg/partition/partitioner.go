package partition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/utility"
)

// DefaultScale turns utility deltas into integer edge weights when no
// evaluation set size is known.
const DefaultScale = 1000

type Partitioner struct {
	oracle   Oracle
	fallback Oracle
	scale    float64
	logger   *slog.Logger
}

// NewPartitioner builds a partitioner around oracle. A nil oracle means the
// greedy local search is always used. scale <= 0 selects DefaultScale.
func NewPartitioner(oracle Oracle, fallback *Greedy, scale float64, logger *slog.Logger) *Partitioner {
	if fallback == nil {
		fallback = NewGreedy(0)
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Partitioner{
		oracle:   oracle,
		fallback: fallback,
		scale:    scale,
		logger:   logger,
	}
}

// Build partitions active into k groups. k larger than the number of active
// participants is clamped. The returned partition always satisfies
// Validate(active); any oracle output that does not is reported as
// ErrContractViolation.
func (p *Partitioner) Build(ctx context.Context, active coalition.Coalition, k int, eval utility.Evaluator) (Partition, error) {
	if k <= 0 {
		return nil, ErrInvalidPartCount
	}
	if active.IsEmpty() {
		return nil, ErrNoParticipants
	}

	nodes := active.Members()
	k = min(k, len(nodes))

	switch k {
	case 1:
		return Partition{active}, nil
	case len(nodes):
		singles := make(Partition, len(nodes))
		for i, n := range nodes {
			singles[i] = coalition.Of(n)
		}

		return singles, nil
	}

	edges, err := SynergyEdges(ctx, active, eval, p.scale)
	if err != nil {
		return nil, fmt.Errorf("failed to build synergy graph: %w", err)
	}

	assignment, err := p.assign(ctx, nodes, edges, k)
	if err != nil {
		return nil, err
	}

	for node, part := range assignment {
		if part >= k {
			return nil, fmt.Errorf("%w: participant %d assigned to part %d of %d", ErrContractViolation, node, part, k)
		}
	}

	partition, err := FromAssignment(nodes, assignment)
	if err != nil {
		return nil, err
	}
	if err := partition.Validate(active); err != nil {
		return nil, err
	}
	if len(partition) != k {
		p.logger.WarnContext(ctx, "Partitioning produced fewer groups than requested",
			slog.Int("requested", k),
			slog.Int("produced", len(partition)))
	}

	return partition, nil
}

func (p *Partitioner) assign(ctx context.Context, nodes []coalition.ParticipantID, edges []Edge, k int) (map[coalition.ParticipantID]int, error) {
	if p.oracle != nil {
		assignment, err := p.oracle.Partition(ctx, nodes, edges, k)
		switch {
		case err == nil:
			return assignment, nil
		case !errors.Is(err, ErrOracleUnavailable):
			return nil, fmt.Errorf("partitioning oracle failed: %w", err)
		}
		p.logger.WarnContext(ctx, "Partitioning oracle unavailable, using greedy local search approximation",
			slog.String("error", err.Error()))
	}

	return p.fallback.Partition(ctx, nodes, edges, k)
}
