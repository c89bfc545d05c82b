package partition

import (
	"context"
	"fmt"
	"math"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/utility"
)

// Edge is an undirected integer-weighted edge between two participants.
type Edge struct {
	U      coalition.ParticipantID `json:"u"`
	V      coalition.ParticipantID `json:"v"`
	Weight int64                   `json:"weight"`
}

// SynergyEdges builds the complete graph over active participants. The
// weight of (u, v) is round(scale * (U({u}) + U({v}) - U({u, v}))), the
// utility lost when u and v end up in different groups.
func SynergyEdges(ctx context.Context, active coalition.Coalition, eval utility.Evaluator, scale float64) ([]Edge, error) {
	members := active.Members()
	singles := make([]float64, len(members))
	for i, m := range members {
		v, err := eval.Evaluate(ctx, coalition.Of(m))
		if err != nil {
			return nil, err
		}
		singles[i] = v
	}

	edges := make([]Edge, 0, len(members)*(len(members)-1)/2)
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			pair, err := eval.Evaluate(ctx, coalition.Of(members[i], members[j]))
			if err != nil {
				return nil, err
			}
			w := math.Round(scale * (singles[i] + singles[j] - pair))
			if math.IsNaN(w) || math.IsInf(w, 0) || math.Abs(w) > math.MaxInt64/2 {
				return nil, fmt.Errorf("%w: edge (%d, %d)", utility.ErrInvalidUtility, members[i], members[j])
			}
			edges = append(edges, Edge{U: members[i], V: members[j], Weight: int64(w)})
		}
	}

	return edges, nil
}

// CutWeight sums the weights of edges whose endpoints are in different parts.
func CutWeight(edges []Edge, assignment map[coalition.ParticipantID]int) int64 {
	var cut int64
	for _, e := range edges {
		if assignment[e.U] != assignment[e.V] {
			cut += e.Weight
		}
	}

	return cut
}
