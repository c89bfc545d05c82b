package fl

import (
	"context"
	"fmt"

	"github.com/absmach/shapley/pkg/coalition"
	"github.com/absmach/shapley/pkg/utility"
)

// NewUtility scores a coalition by aggregating its members' local models and
// measuring the accuracy of the result on test. Aggregation happens inside
// the evaluator; callers only ever see coalition -> score.
func NewUtility(updates map[coalition.ParticipantID]Update, test Dataset, agg Aggregator) utility.Evaluator {
	if agg == nil {
		agg = NewFedAvgAggregator()
	}

	return utility.EvaluatorFunc(func(_ context.Context, c coalition.Coalition) (float64, error) {
		members := c.Members()
		selected := make([]Update, 0, len(members))
		for _, id := range members {
			u, ok := updates[id]
			if !ok {
				return 0, fmt.Errorf("%w: %d", ErrMissingUpdate, id)
			}
			selected = append(selected, u)
		}

		model, err := agg.Aggregate(selected)
		if err != nil {
			return 0, err
		}

		return Accuracy(model, test)
	})
}
