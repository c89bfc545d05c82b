package fl

import (
	"time"

	"github.com/absmach/shapley/pkg/coalition"
)

// Model is a linear classifier snapshot: one weight row and bias per class.
type Model struct {
	Weights  [][]float64    `json:"weights"`
	Bias     []float64      `json:"bias"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Update is a participant's local model for one round.
type Update struct {
	RoundID       string                  `json:"round_id,omitempty"`
	ParticipantID coalition.ParticipantID `json:"participant_id"`
	NumSamples    int                     `json:"num_samples"`
	Model         Model                   `json:"model"`
	Metrics       map[string]any          `json:"metrics,omitempty"`
	ReceivedAt    time.Time               `json:"received_at,omitempty"`
}

// Dataset is a labelled evaluation set.
type Dataset struct {
	Features [][]float64 `json:"x"`
	Labels   []int       `json:"y"`
}

func (d Dataset) Len() int { return len(d.Labels) }

type Aggregator interface {
	Aggregate(updates []Update) (Model, error)
}

func (m Model) Classes() int { return len(m.Weights) }

func (m Model) Features() int {
	if len(m.Weights) == 0 {
		return 0
	}

	return len(m.Weights[0])
}

func (m Model) sameShape(o Model) bool {
	if len(m.Weights) != len(o.Weights) || len(m.Bias) != len(o.Bias) {
		return false
	}
	for i := range m.Weights {
		if len(m.Weights[i]) != len(o.Weights[i]) {
			return false
		}
	}

	return true
}
