package postgres

import (
	"encoding/json"
	"fmt"
)

func jsonBytes[T any](v []T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal column: %w", err)
	}

	return data, nil
}

func jsonUnmarshal(data []byte, v any) error {
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal column: %w", err)
	}

	return nil
}
