package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SaveStates writes sensor states to path as indented JSON, creating
// parent directories as needed. The snapshot is rewritten wholesale on
// every call.
func SaveStates(path string, states []SensorState) error {
	if path == "" {
		return errors.New("state file path cannot be empty")
	}

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sensor states: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// LoadStates reads a snapshot written by [SaveStates] and returns the
// states keyed by sensor key. A missing file is not an error; it yields
// an empty map.
func LoadStates(path string) (map[string]SensorState, error) {
	if path == "" {
		return nil, errors.New("state file path cannot be empty")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]SensorState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var states []SensorState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to decode state file: %w", err)
	}

	byKey := make(map[string]SensorState, len(states))
	for _, state := range states {
		byKey[state.Key] = state
	}
	return byKey, nil
}
