package storage

import (
	"context"
	"fmt"

	"github.com/absmach/shapley/pkg/attribution"
)

// Storage is a minimal key-value store.
type Storage interface {
	Create(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (any, error)
	Update(ctx context.Context, key string, value any) error
	List(ctx context.Context, offset, limit uint64) ([]any, uint64, error)
	Delete(ctx context.Context, key string) error
}

// RecordRepository persists attribution records keyed by round and method.
// Save replaces an existing record for the same key. Lists are ordered by
// round, then by method name.
type RecordRepository interface {
	Save(ctx context.Context, r attribution.Record) error
	Get(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error)
	ListByRound(ctx context.Context, round uint64) ([]attribution.Record, error)
	List(ctx context.Context, offset, limit uint64) ([]attribution.Record, uint64, error)
	Delete(ctx context.Context, round uint64, method attribution.Method) error
}

// RecordKey is the canonical key of a record. Rounds are zero padded so keys
// sort in round order.
func RecordKey(round uint64, method attribution.Method) string {
	return fmt.Sprintf("%s%s", RoundPrefix(round), method)
}

func RoundPrefix(round uint64) string {
	return fmt.Sprintf("record:%020d:", round)
}
