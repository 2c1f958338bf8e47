// Package store holds the development backend's in-memory state and turns
// every change into change events on a feed hub.
package store

import (
	"slices"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

// Store is the thread-safe state of the development backend.
type Store struct {
	// writeMu serializes mutation and publishing so events leave in the
	// order the state changed.
	writeMu sync.Mutex

	mu         sync.RWMutex
	activities []models.ActivitySnapshot
	actions    []models.ActionBroadcast
	hub        *feed.Hub
	logger     *logrus.Entry
}

// New creates an empty store publishing into hub.
func New(hub *feed.Hub, logger *logrus.Entry) *Store {
	return &Store{hub: hub, logger: logger}
}

// Hub returns the hub change events are published to.
func (s *Store) Hub() *feed.Hub {
	return s.hub
}

// Activities returns the activities whose scope falls under sc, in
// creation order.
func (s *Store) Activities(sc scope.Scope) []models.ActivitySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ActivitySnapshot, 0, len(s.activities))
	for _, a := range s.activities {
		if scope.Matches(a.Scope, sc) {
			out = append(out, a)
		}
	}
	return out
}

// Activity returns one activity by id.
func (s *Store) Activity(id string) (models.ActivitySnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return models.ActivitySnapshot{}, false
	}
	return s.activities[i], true
}

// Actions returns the actions whose scope falls under sc.
func (s *Store) Actions(sc scope.Scope) []models.ActionBroadcast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ActionBroadcast, 0, len(s.actions))
	for _, b := range s.actions {
		if scope.Matches(b.Action.Scope(), sc) {
			out = append(out, b)
		}
	}
	return out
}

// ApplyUpdate modifies the state and publishes the resulting change event.
func (s *Store) ApplyUpdate(u Update) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.apply(u)
}

// apply must be called with writeMu held.
func (s *Store) apply(u Update) {
	s.mu.Lock()
	var ev models.ChangeEvent
	var err error
	publish := true

	switch u.Type {
	case UpdateActivity:
		next := slices.Clone(s.activities)
		if i := s.indexOf(u.Activity.ID); i >= 0 {
			next[i] = u.Activity
		} else {
			next = append(next, u.Activity)
		}
		s.activities = next
		ev, err = models.NewChangeEvent(models.CategoryActivities, models.EventChanged, nil, s.activities)

	case UpdateActivityRemoved:
		gone := s.subtreeOf(u.ActivityID)
		s.activities = slices.DeleteFunc(slices.Clone(s.activities), func(a models.ActivitySnapshot) bool {
			_, ok := gone[a.ID]
			return ok
		})
		ev, err = models.NewChangeEvent(models.CategoryActivities, models.EventChanged, nil, s.activities)

	case UpdateActionCreated:
		s.actions = append(slices.Clone(s.actions), u.Action)
		ev, err = models.NewChangeEvent(models.CategoryServerActions, models.EventCreated, u.Action.Action.Scope(), u.Action)

	case UpdateActionRemoved:
		s.actions = slices.DeleteFunc(slices.Clone(s.actions), func(b models.ActionBroadcast) bool {
			return cmp.Equal(b.Action, u.Action.Action) && cmp.Equal(b.Execution, u.Action.Execution)
		})
		ev, err = models.NewChangeEvent(models.CategoryServerActions, models.EventRemoved, u.Action.Action.Scope(), u.Action)

	default:
		publish = false
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("type", u.Type).Error("Failed to build change event")
		return
	}
	if publish && s.hub != nil {
		s.hub.Publish(ev)
	}
}

// RequestCancel flags an activity for cancellation. It reports whether the
// activity exists.
func (s *Store) RequestCancel(id string) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	i := s.indexOf(id)
	var a models.ActivitySnapshot
	if i >= 0 {
		a = s.activities[i]
	}
	s.mu.RUnlock()
	if i < 0 {
		return false
	}
	a.Cancel = true
	s.apply(Update{Type: UpdateActivity, Source: "client", Activity: a})
	return true
}

// IsCancelled reports whether cancellation was requested for id.
func (s *Store) IsCancelled(id string) bool {
	a, ok := s.Activity(id)
	return ok && a.Cancel
}

// subtreeOf returns id and all of its descendants. It must be called with
// mu held.
func (s *Store) subtreeOf(id string) map[string]struct{} {
	gone := map[string]struct{}{id: {}}
	for grew := true; grew; {
		grew = false
		for _, a := range s.activities {
			if _, ok := gone[a.ID]; ok || a.ParentID == "" {
				continue
			}
			if _, ok := gone[a.ParentID]; ok {
				gone[a.ID] = struct{}{}
				grew = true
			}
		}
	}
	return gone
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.activities, func(a models.ActivitySnapshot) bool { return a.ID == id })
}
