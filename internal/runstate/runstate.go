// Package runstate persists the outcome of a publish run so a later
// invocation can resume, treating already published packages as satisfied
// dependencies.
package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "runstate.json"

// State is the serializable outcome of a publish run.
type State struct {
	// Published lists packages that published successfully, in completion
	// order
	Published []string `json:"published"`
	// Failed maps failed package names to their final error message
	Failed map[string]string `json:"failed,omitempty"`
	// Skipped lists packages withdrawn or blocked without executing
	Skipped []string `json:"skipped,omitempty"`
	// FinishedAt is when the run ended
	FinishedAt time.Time `json:"finished_at"`
}

// Save writes the state to a JSON file in the given directory. The write is
// atomic: data is written to a temporary file first, then renamed into
// place. A file lock is held during the operation for cross-process safety.
func Save(dir string, state *State) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	fl := NewFileLock(dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}

	target := filepath.Join(dir, stateFileName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Load restores the state from a previously saved file in the given
// directory. A file lock is held during the read for cross-process safety.
// A missing file returns os.ErrNotExist via the wrapped error.
func Load(dir string) (*State, error) {
	fl := NewFileLock(dir)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	target := filepath.Join(dir, stateFileName)

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal run state: %w", err)
	}

	if state.Published == nil {
		state.Published = []string{}
	}
	if state.Failed == nil {
		state.Failed = map[string]string{}
	}
	return &state, nil
}

// Clear removes a saved state file. Missing files are not an error.
func Clear(dir string) error {
	err := os.Remove(filepath.Join(dir, stateFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
