// Package observe provides a small subscribe-and-react value holder.
//
// A Value holds the latest T and pushes each new value to its subscribers.
// Subscriber channels have a buffer of one and only ever hold the newest
// value, so a slow reader skips intermediate states but never blocks the
// writer and never observes a partially built value.
package observe

import "sync"

// Value is a thread-safe observable cell.
type Value[T any] struct {
	mu          sync.RWMutex
	current     T
	subscribers map[chan T]struct{}
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current:     initial,
		subscribers: make(map[chan T]struct{}),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = next
	v.broadcast(next)
}

// Update computes the next value from the current one under the write lock.
// If fn reports false the value is left unchanged and nobody is notified.
func (v *Value[T]) Update(fn func(T) (T, bool)) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, changed := fn(v.current)
	if !changed {
		return v.current
	}
	v.current = next
	v.broadcast(next)
	return next
}

// Subscribe returns a channel that first yields the current value and then
// every subsequent one. Call the returned func to unsubscribe; it closes the
// channel and is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ch := make(chan T, 1)
	ch <- v.current
	v.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subscribers, ch)
			close(ch)
		})
	}
}

// broadcast must be called with mu held.
func (v *Value[T]) broadcast(next T) {
	for ch := range v.subscribers {
		// Drop a stale pending value so the newest one always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- next:
		default:
		}
	}
}
