// Package feed delivers backend change events filtered by category and
// scope.
package feed

import (
	"context"
	"slices"
	"sync"

	"github.com/grovetools/console/logging"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

var log = logging.NewLogger("feed")

// Feed opens subscriptions to the change-event stream.
type Feed interface {
	// Subscribe starts delivering events of the given categories whose
	// scope falls under sc. Cancelling ctx closes the subscription.
	Subscribe(ctx context.Context, categories []models.EventCategory, sc scope.Scope) (*Subscription, error)
}

// Subscription is one live stream of change events. The Events channel is
// closed when the subscription ends; Err then reports why, or nil after an
// explicit Close.
type Subscription struct {
	ID         string
	Categories []models.EventCategory
	Scope      scope.Scope

	events chan models.ChangeEvent
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool

	closeOnce sync.Once
	stop      func()
}

func newSubscription(id string, categories []models.EventCategory, sc scope.Scope, buffer int) *Subscription {
	return &Subscription{
		ID:         id,
		Categories: slices.Clone(categories),
		Scope:      slices.Clone(sc),
		events:     make(chan models.ChangeEvent, buffer),
		done:       make(chan struct{}),
	}
}

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan models.ChangeEvent {
	return s.events
}

// Done is closed when the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns the reason the subscription ended, if it ended on its own.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

// Accepts reports whether ev belongs on this subscription. Events without a
// scope are global and reach every subscription of their category.
func (s *Subscription) Accepts(ev models.ChangeEvent) bool {
	if !slices.Contains(s.Categories, ev.Category) {
		return false
	}
	return len(ev.Scope) == 0 || scope.Matches(ev.Scope, s.Scope)
}

// finish closes the channels exactly once, recording cause.
func (s *Subscription) finish(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = cause
	close(s.events)
	close(s.done)
}

// deliver sends ev without blocking. It reports false when the buffer is
// full. Callers serialize deliver and finish.
func (s *Subscription) deliver(ev models.ChangeEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}
