// Package attributor exposes Shapley attribution as a service: it turns
// round requests into evaluators, runs the configured methods, persists one
// record per method and publishes the round result.
package attributor

import (
	"context"
	"errors"

	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/fl"
	"github.com/absmach/shapley/pkg/partition"
	"github.com/absmach/shapley/pkg/utility"
)

var (
	ErrMissingUtility   = errors.New("round request carries no utility source")
	ErrAmbiguousUtility = errors.New("round request carries more than one utility source")
	ErrMissingTestSet   = errors.New("model utility requires a test set")
	ErrInvalidRequest   = errors.New("invalid round request")
)

type Service interface {
	// Attribute computes every enabled method for one round.
	Attribute(ctx context.Context, req RoundRequest) (RoundResult, error)
	GetRound(ctx context.Context, round uint64) (RoundResult, error)
	GetRecord(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error)
	ListRecords(ctx context.Context, offset, limit uint64) (RecordPage, error)
}

// RoundRequest describes one round. Exactly one utility source must be set.
type RoundRequest struct {
	Round uint64 `json:"round"`
	N     int    `json:"n"`
	// Active defaults to every participant in [0, N).
	Active   []coalition.ParticipantID `json:"active,omitempty"`
	Baseline float64                   `json:"baseline,omitempty"`
	Scale    float64                   `json:"scale,omitempty"`
	Utility  UtilitySource             `json:"utility"`
	// PreviousGlobal enables the distance vector when Updates are given.
	PreviousGlobal *fl.Model `json:"previous_global,omitempty"`
}

// UtilitySource selects how coalitions are scored.
type UtilitySource struct {
	Table    utility.Table `json:"table,omitempty"`
	Wasm     []byte        `json:"wasm,omitempty"`
	Function string        `json:"function,omitempty"`
	Updates  []fl.Update   `json:"updates,omitempty"`
	TestSet  *fl.Dataset   `json:"test_set,omitempty"`
}

type RoundResult struct {
	Round     uint64               `json:"round"`
	Partition partition.Partition  `json:"partition,omitempty"`
	Records   []attribution.Record `json:"records"`
}

type RecordPage struct {
	Offset  uint64               `json:"offset"`
	Limit   uint64               `json:"limit"`
	Total   uint64               `json:"total"`
	Records []attribution.Record `json:"records"`
}

func (req RoundRequest) Validate() error {
	if req.N <= 0 || req.N > coalition.MaxParticipants {
		return errors.Join(ErrInvalidRequest, coalition.ErrParticipantOutOfRange)
	}

	sources := 0
	if len(req.Utility.Table) > 0 {
		sources++
	}
	if len(req.Utility.Wasm) > 0 {
		sources++
	}
	if len(req.Utility.Updates) > 0 {
		sources++
		if req.Utility.TestSet == nil || req.Utility.TestSet.Len() == 0 {
			return errors.Join(ErrInvalidRequest, ErrMissingTestSet)
		}
	}

	switch sources {
	case 0:
		return errors.Join(ErrInvalidRequest, ErrMissingUtility)
	case 1:
		return nil
	default:
		return errors.Join(ErrInvalidRequest, ErrAmbiguousUtility)
	}
}

// ActiveSet returns the requested active coalition.
func (req RoundRequest) ActiveSet() (coalition.Coalition, error) {
	if len(req.Active) == 0 {
		return coalition.Full(req.N)
	}

	return coalition.New(req.Active...)
}
