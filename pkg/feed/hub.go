package feed

import (
	"context"
	"sync"

	"github.com/google/uuid"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

const hubBuffer = 256

// Hub is an in-memory Feed. Publishers call Publish; every subscription
// whose categories and scope accept the event receives it in publish order.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscription
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]*Subscription)}
}

// Subscribe implements Feed.
func (h *Hub) Subscribe(ctx context.Context, categories []models.EventCategory, sc scope.Scope) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, cerrors.FeedClosed(sc, nil)
	}

	sub := newSubscription(uuid.NewString(), categories, sc, hubBuffer)
	h.subscribers[sub.ID] = sub
	sub.stop = func() { h.remove(sub.ID, nil) }

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()

	log.WithField("subscription", sub.ID).
		WithField("scope", sc.String()).
		Debug("Feed subscription opened")
	return sub, nil
}

// Publish fans ev out to matching subscribers. A subscriber whose buffer is
// full is disconnected with FEED_CLOSED rather than silently losing events.
func (h *Hub) Publish(ev models.ChangeEvent) {
	h.mu.RLock()
	var slow []*Subscription
	for _, sub := range h.subscribers {
		if !sub.Accepts(ev) {
			continue
		}
		if !sub.deliver(ev) {
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		log.WithField("subscription", sub.ID).Warn("Subscriber too slow, disconnecting")
		h.remove(sub.ID, cerrors.FeedClosed(sub.Scope, nil))
	}
}

// Disconnect ends every subscription with FEED_CLOSED, as if the connection
// dropped. The hub stays usable.
func (h *Hub) Disconnect() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[string]*Subscription)
	h.mu.Unlock()
	for _, sub := range subs {
		sub.finish(cerrors.FeedClosed(sub.Scope, nil))
	}
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.Disconnect()
}

// Count returns the number of open subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) remove(id string, cause error) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		sub.finish(cause)
		log.WithField("subscription", id).Debug("Feed subscription closed")
	}
}
