// Package state is the console's settings store: a small key-value map
// read once at startup and written back on every change through a
// Persister.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/grovetools/console/pkg/paths"
)

// State is the persisted settings map.
type State map[string]interface{}

// Persister reads and writes the whole settings map.
type Persister interface {
	Load() (State, error)
	Save(State) error
}

// FilePersister stores settings as YAML in a single file.
type FilePersister struct {
	Path string
}

// DefaultPersister stores settings in the console state directory.
func DefaultPersister() *FilePersister {
	return &FilePersister{Path: paths.SettingsPath()}
}

// Load loads the state from the file.
// Returns an empty state if the file doesn't exist.
func (p *FilePersister) Load() (State, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	if state == nil {
		state = make(State)
	}
	return state, nil
}

// Save writes the state to the file, replacing it atomically.
func (p *FilePersister) Save(state State) error {
	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yml")
	if err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// MemoryPersister keeps settings in memory. Useful for tests and for
// running without a writable state directory.
type MemoryPersister struct {
	State State
	Saves int
}

// Load returns a copy of the stored state.
func (m *MemoryPersister) Load() (State, error) {
	return clone(m.State), nil
}

// Save stores a copy of state.
func (m *MemoryPersister) Save(state State) error {
	m.State = clone(state)
	m.Saves++
	return nil
}

func clone(s State) State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
