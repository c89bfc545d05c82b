package utility

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/absmach/shapley/pkg/coalition"
)

// Table is an Evaluator backed by precomputed utilities. In JSON it is an
// object keyed by comma separated member lists, "" being the empty coalition:
//
//	{"": 0, "0": 0.2, "1": 0.3, "0,1": 0.6}
type Table map[coalition.Coalition]float64

func (t Table) Evaluate(_ context.Context, c coalition.Coalition) (float64, error) {
	v, ok := t[c]
	if !ok {
		return 0, fmt.Errorf("%w: {%s}", ErrUnknownCoalition, c)
	}

	return v, nil
}

func LoadTable(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode utility table: %w", err)
	}

	return t, nil
}
