package attribution

import (
	"time"

	"github.com/absmach/shapley/pkg/partition"
)

// Record is the persisted form of a Result, keyed by (Round, Method).
type Record struct {
	Round     uint64              `json:"round"`
	Method    Method              `json:"method"`
	Vector    Vector              `json:"vector,omitempty"`
	Distances Vector              `json:"distances,omitempty"`
	Lambdas   []float64           `json:"lambdas,omitempty"`
	Partition partition.Partition `json:"partition,omitempty"`
	Samples   int                 `json:"samples,omitempty"`
	Error     string              `json:"error,omitempty"`
	Duration  time.Duration       `json:"duration"`
	CreatedAt time.Time           `json:"created_at"`
}

func (r Result) Record(createdAt time.Time) Record {
	rec := Record{
		Round:     r.Round,
		Method:    r.Method,
		Vector:    r.Vector,
		Distances: r.Distances,
		Lambdas:   r.Lambdas,
		Partition: r.Partition,
		Samples:   r.Samples,
		Duration:  r.Duration,
		CreatedAt: createdAt,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}

	return rec
}
