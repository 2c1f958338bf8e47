// Package guard runs the unsaved-changes protocol before a region's
// component is deactivated.
package guard

import (
	"context"
	"reflect"
	"sync"
)

// Region is one of the two routable regions.
type Region string

const (
	RegionPrimary Region = "primary"
	RegionPanel   Region = "panel"
)

// Dirtyable is a component that may hold unsaved changes. DoSave must not
// navigate; it reports false (or an error) when saving failed.
type Dirtyable interface {
	IsDirty() bool
	DoSave(ctx context.Context) (bool, error)
}

// Saveable is implemented by dirtyables that can refuse to save, e.g.
// while their form is invalid.
type Saveable interface {
	CanSave() bool
}

// Registry maps each region to at most one dirtyable component.
type Registry struct {
	mu      sync.RWMutex
	regions map[Region]Dirtyable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{regions: make(map[Region]Dirtyable)}
}

// Register installs d for region, replacing any previous registrant. The
// returned func unregisters d and is meant to run when the component
// unmounts.
func (r *Registry) Register(region Region, d Dirtyable) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regions[region] = d
	return func() { r.Unregister(region, d) }
}

// Unregister removes d from region if it is still the registrant.
func (r *Registry) Unregister(region Region, d Dirtyable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.regions[region]; ok && same(cur, d) {
		delete(r.regions, region)
	}
}

// Get returns the registrant of region, or nil.
func (r *Registry) Get(region Region) Dirtyable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.regions[region]
}

// RegionOf reports which region component is registered for.
func (r *Registry) RegionOf(component any) (Region, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for region, d := range r.regions {
		if same(d, component) {
			return region, true
		}
	}
	return "", false
}

// same compares two components by identity without panicking on
// uncomparable dynamic types.
func same(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
