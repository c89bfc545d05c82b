package fl

import (
	"fmt"
	"math"
)

// Predict returns the class with the highest linear score.
func (m Model) Predict(x []float64) int {
	best, bestScore := 0, math.Inf(-1)
	for c, row := range m.Weights {
		score := 0.0
		if c < len(m.Bias) {
			score = m.Bias[c]
		}
		for j := 0; j < len(row) && j < len(x); j++ {
			score += row[j] * x[j]
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}

	return best
}

// Accuracy is the share of correctly classified samples in ds.
func Accuracy(m Model, ds Dataset) (float64, error) {
	if ds.Len() == 0 {
		return 0, ErrEmptyDataset
	}
	if len(ds.Features) != len(ds.Labels) {
		return 0, fmt.Errorf("%w: %d features for %d labels", ErrShapeMismatch, len(ds.Features), len(ds.Labels))
	}

	correct := 0
	for i, x := range ds.Features {
		if m.Predict(x) == ds.Labels[i] {
			correct++
		}
	}

	return float64(correct) / float64(ds.Len()), nil
}

// L1Distance sums the absolute parameter differences between two models.
func L1Distance(a, b Model) (float64, error) {
	if !a.sameShape(b) {
		return 0, ErrShapeMismatch
	}

	var d float64
	for i := range a.Weights {
		for j := range a.Weights[i] {
			d += math.Abs(a.Weights[i][j] - b.Weights[i][j])
		}
	}
	for i := range a.Bias {
		d += math.Abs(a.Bias[i] - b.Bias[i])
	}

	return d, nil
}
