package activity

import (
	"sync"

	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/observe"
	"github.com/grovetools/console/pkg/scope"
)

// Tracker holds the latest activity list for the current scope. Every
// ACTIVITIES event carries the full list, so the tracker only ever swaps
// the whole slice.
type Tracker struct {
	snapshots *observe.Value[[]models.ActivitySnapshot]

	mu     sync.RWMutex
	scope  scope.Scope
	policy OrphanPolicy
}

// NewTracker creates an empty tracker. An empty policy means OrphanDrop.
func NewTracker(policy OrphanPolicy) *Tracker {
	if policy == "" {
		policy = OrphanDrop
	}
	return &Tracker{
		snapshots: observe.NewValue[[]models.ActivitySnapshot](nil),
		policy:    policy,
	}
}

// Replace swaps in a new snapshot list. The slice is copied.
func (t *Tracker) Replace(list []models.ActivitySnapshot) {
	var next []models.ActivitySnapshot
	if len(list) > 0 {
		next = make([]models.ActivitySnapshot, len(list))
		copy(next, list)
	}
	t.snapshots.Set(next)
}

// Apply consumes an ACTIVITIES change event.
func (t *Tracker) Apply(ev models.ChangeEvent) error {
	list, err := ev.Activities()
	if err != nil {
		return err
	}
	t.Replace(list)
	return nil
}

// Reset clears the list, e.g. on scope change or connection loss.
func (t *Tracker) Reset() {
	t.snapshots.Set(nil)
}

// SetScope changes the scope Forest filters by.
func (t *Tracker) SetScope(sc scope.Scope) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scope = append(scope.Scope(nil), sc...)
}

// Scope returns the scope Forest filters by.
func (t *Tracker) Scope() scope.Scope {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scope
}

// Snapshots returns the current list. Callers must not modify it.
func (t *Tracker) Snapshots() []models.ActivitySnapshot {
	return t.snapshots.Get()
}

// Forest builds the tree of the current list for the current scope.
func (t *Tracker) Forest() Forest {
	t.mu.RLock()
	sc, policy := t.scope, t.policy
	t.mu.RUnlock()
	return Build(t.snapshots.Get(), sc, policy)
}

// Subscribe streams the snapshot list on every change.
func (t *Tracker) Subscribe() (<-chan []models.ActivitySnapshot, func()) {
	return t.snapshots.Subscribe()
}
