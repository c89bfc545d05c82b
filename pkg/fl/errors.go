package fl

import "errors"

var (
	ErrNoUpdates     = errors.New("no updates provided for aggregation")
	ErrNoSamples     = errors.New("updates carry no samples")
	ErrShapeMismatch = errors.New("model shapes do not match")
	ErrMissingUpdate = errors.New("no update for participant")
	ErrEmptyDataset  = errors.New("evaluation dataset is empty")
)
