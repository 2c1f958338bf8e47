package state

import (
	"reflect"
	"sync"
)

// KeyMenuMaximized records whether the menu is shown maximized.
const KeyMenuMaximized = "menu_maximized"

// Store is a thread-safe settings map backed by a Persister.
type Store struct {
	persister Persister

	mu    sync.RWMutex
	state State
}

// Open reads the settings through p.
func Open(p Persister) (*Store, error) {
	s := &Store{persister: p}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rereads the settings, e.g. after another process changed them.
func (s *Store) Reload() error {
	loaded, err := s.persister.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = loaded
	return nil
}

// Get retrieves a value by key.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

// GetString returns the string at key, or "" if missing or not a string.
func (s *Store) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetBool returns the bool at key, or false if missing or not a bool.
func (s *Store) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// Set stores value and persists the map. Setting an unchanged value does
// not write.
func (s *Store) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.state[key]; ok && reflect.DeepEqual(cur, value) {
		return nil
	}
	next := clone(s.state)
	next[key] = value
	if err := s.persister.Save(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// Delete removes a key and persists the map.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[key]; !ok {
		return nil
	}
	next := clone(s.state)
	delete(next, key)
	if err := s.persister.Save(next); err != nil {
		return err
	}
	s.state = next
	return nil
}

// MenuMaximized returns the persisted menu flag, false by default.
func (s *Store) MenuMaximized() bool {
	return s.GetBool(KeyMenuMaximized)
}

// SetMenuMaximized persists the menu flag.
func (s *Store) SetMenuMaximized(on bool) error {
	return s.Set(KeyMenuMaximized, on)
}
