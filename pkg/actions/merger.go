// Package actions tracks the long-running server actions of the current
// scope.
package actions

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/grovetools/console/logging"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/observe"
)

var log = logging.NewLogger("actions")

// Merger applies CREATED and REMOVED deltas to the live action list. The
// list is never edited in place; every change publishes a new slice.
type Merger struct {
	current *observe.Value[[]models.ActionBroadcast]
}

// NewMerger creates an empty merger.
func NewMerger() *Merger {
	return &Merger{current: observe.NewValue[[]models.ActionBroadcast](nil)}
}

func sameDescriptor(a, b models.ActionBroadcast) bool {
	return cmp.Equal(a.Action, b.Action)
}

func sameExecution(a, b models.ActionBroadcast) bool {
	return sameDescriptor(a, b) && cmp.Equal(a.Execution, b.Execution)
}

// OnCreated adds b unless it is already tracked, or it is exclusive and
// another execution of the same action is tracked. It reports whether the
// list changed.
func (m *Merger) OnCreated(b models.ActionBroadcast) bool {
	var added bool
	m.current.Update(func(list []models.ActionBroadcast) ([]models.ActionBroadcast, bool) {
		if containsExecution(list, b) {
			return list, false
		}
		if b.Exclusive && containsDescriptor(list, b) {
			log.WithField("type", b.Action.Type).
				WithField("execution", b.Execution.Name).
				Warn("Exclusive action already running, ignoring new execution")
			return list, false
		}
		next := make([]models.ActionBroadcast, len(list), len(list)+1)
		copy(next, list)
		added = true
		return append(next, b), true
	})
	return added
}

// OnRemoved drops every entry equal to b. Removing an unknown action is a
// no-op. It reports whether the list changed.
func (m *Merger) OnRemoved(b models.ActionBroadcast) bool {
	var removed bool
	m.current.Update(func(list []models.ActionBroadcast) ([]models.ActionBroadcast, bool) {
		next := make([]models.ActionBroadcast, 0, len(list))
		for _, existing := range list {
			if sameExecution(existing, b) {
				removed = true
				continue
			}
			next = append(next, existing)
		}
		return next, removed
	})
	return removed
}

// Apply dispatches a SERVER_ACTIONS change event.
func (m *Merger) Apply(ev models.ChangeEvent) error {
	b, err := ev.Action()
	if err != nil {
		return err
	}
	switch ev.Kind {
	case models.EventCreated:
		m.OnCreated(b)
	case models.EventRemoved:
		m.OnRemoved(b)
	case models.EventChanged:
		log.WithField("type", b.Action.Type).Debug("Ignoring CHANGED action event")
	default:
		return fmt.Errorf("unknown action event kind %q", ev.Kind)
	}
	return nil
}

// Reset clears the list.
func (m *Merger) Reset() {
	m.current.Set(nil)
}

// Replace installs a full list fetched from the backend. The exclusive and
// duplicate rules are applied to it in order.
func (m *Merger) Replace(list []models.ActionBroadcast) {
	var next []models.ActionBroadcast
	for _, b := range list {
		if containsExecution(next, b) {
			continue
		}
		if b.Exclusive && containsDescriptor(next, b) {
			continue
		}
		next = append(next, b)
	}
	m.current.Set(next)
}

func containsExecution(list []models.ActionBroadcast, b models.ActionBroadcast) bool {
	for _, existing := range list {
		if sameExecution(existing, b) {
			return true
		}
	}
	return false
}

func containsDescriptor(list []models.ActionBroadcast, b models.ActionBroadcast) bool {
	for _, existing := range list {
		if sameDescriptor(existing, b) {
			return true
		}
	}
	return false
}

// Current returns the live list. Callers must not modify it.
func (m *Merger) Current() []models.ActionBroadcast {
	return m.current.Get()
}

// Subscribe streams the list on every change.
func (m *Merger) Subscribe() (<-chan []models.ActionBroadcast, func()) {
	return m.current.Subscribe()
}

// HasMatchingAction reports whether any tracked action matches the type
// list and the three filters.
func (m *Merger) HasMatchingAction(types []models.ActionType, group, instance, item Filter) bool {
	return m.Find(Query{Types: types, Group: group, Instance: instance, Item: item}) != nil
}

// Find returns the tracked actions matching q.
func (m *Merger) Find(q Query) []models.ActionBroadcast {
	var out []models.ActionBroadcast
	for _, b := range m.current.Get() {
		if q.Matches(b.Action) {
			out = append(out, b)
		}
	}
	return out
}
