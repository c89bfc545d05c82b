package partition

import (
	"context"

	"github.com/absmach/shapley/pkg/coalition"
)

// Oracle is a balanced graph partitioner. It assigns every node to a part in
// [0, k), minimising total cross-part edge weight while keeping part sizes
// near equal. Implementations that depend on an external service should
// return ErrOracleUnavailable when it cannot be reached so callers can fall
// back to the built-in local search.
type Oracle interface {
	Partition(ctx context.Context, nodes []coalition.ParticipantID, edges []Edge, k int) (map[coalition.ParticipantID]int, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, nodes []coalition.ParticipantID, edges []Edge, k int) (map[coalition.ParticipantID]int, error)

func (f OracleFunc) Partition(ctx context.Context, nodes []coalition.ParticipantID, edges []Edge, k int) (map[coalition.ParticipantID]int, error) {
	return f(ctx, nodes, edges, k)
}
