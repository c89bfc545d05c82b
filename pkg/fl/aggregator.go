package fl

import "fmt"

// FedAvgAggregator averages models weighted by each participant's local
// sample count.
type FedAvgAggregator struct{}

func NewFedAvgAggregator() Aggregator {
	return &FedAvgAggregator{}
}

func (f *FedAvgAggregator) Aggregate(updates []Update) (Model, error) {
	if len(updates) == 0 {
		return Model{}, ErrNoUpdates
	}

	ref := updates[0].Model
	aggregated := Model{
		Weights: make([][]float64, len(ref.Weights)),
		Bias:    make([]float64, len(ref.Bias)),
	}
	for i := range ref.Weights {
		aggregated.Weights[i] = make([]float64, len(ref.Weights[i]))
	}

	var totalSamples int64
	for _, update := range updates {
		if !update.Model.sameShape(ref) {
			return Model{}, fmt.Errorf("%w: participant %d", ErrShapeMismatch, update.ParticipantID)
		}
		if update.NumSamples <= 0 {
			continue
		}

		weight := float64(update.NumSamples)
		totalSamples += int64(update.NumSamples)

		for i, row := range update.Model.Weights {
			for j, v := range row {
				aggregated.Weights[i][j] += v * weight
			}
		}
		for i, b := range update.Model.Bias {
			aggregated.Bias[i] += b * weight
		}
	}

	if totalSamples == 0 {
		return Model{}, ErrNoSamples
	}

	norm := float64(totalSamples)
	for i := range aggregated.Weights {
		for j := range aggregated.Weights[i] {
			aggregated.Weights[i][j] /= norm
		}
	}
	for i := range aggregated.Bias {
		aggregated.Bias[i] /= norm
	}

	aggregated.Metadata = map[string]any{
		"total_samples": totalSamples,
		"num_updates":   len(updates),
		"algorithm":     "FedAvg",
	}

	return aggregated, nil
}
