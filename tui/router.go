package tui

import (
	"context"
	"fmt"
	"maps"
	"sync"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/guard"
	"github.com/grovetools/console/pkg/nav"
)

// Component names the router knows how to mount.
const (
	ComponentActivities = "activities"
	ComponentActions    = "actions"
	ComponentActivity   = "activity"
	ComponentNotes      = "notes"
)

// ParamActivityID selects the activity shown by the detail panel.
const ParamActivityID = "id"

// Target is one outlet's destination.
type Target struct {
	Component string
	Params    map[string]string
	Maximized bool
}

func (t Target) equal(o Target) bool {
	return t.Component == o.Component && t.Maximized == o.Maximized && maps.Equal(t.Params, o.Params)
}

// Request describes a navigation. A nil Primary keeps the primary outlet.
// A nil Panel keeps the panel unless ClosePanel is set.
type Request struct {
	Primary    *Target
	Panel      *Target
	ClosePanel bool
	// Bypass skips the unsaved-changes check.
	Bypass bool
}

// Factory creates the component instance mounted for a target.
type Factory func(region guard.Region, t Target) any

// Router owns the active route tree of the two outlets. Navigations run
// the guard before a component is replaced and report the outcome to the
// coordinator. A navigation that loses to a newer one is abandoned.
type Router struct {
	factories map[string]Factory
	registry  *guard.Registry

	guard *guard.Guard
	coord *nav.Coordinator

	mu      sync.Mutex
	seq     uint64
	primary Target
	panel   *Target
	mounted map[guard.Region]any
	unmount map[guard.Region]func()
}

// NewRouter creates a router mounted on the initial primary target.
func NewRouter(registry *guard.Registry, factories map[string]Factory, initial Target) *Router {
	r := &Router{
		factories: factories,
		registry:  registry,
		mounted:   make(map[guard.Region]any),
		unmount:   make(map[guard.Region]func()),
	}
	r.primary = initial
	r.mount(guard.RegionPrimary, initial)
	return r
}

// Attach wires the guard and coordinator, which both depend on the router.
func (r *Router) Attach(g *guard.Guard, c *nav.Coordinator) {
	r.guard = g
	r.coord = c
}

// Start reports the initial route tree to the coordinator.
func (r *Router) Start(ctx context.Context) error {
	if r.coord == nil {
		return nil
	}
	r.coord.NavigationStarted(nav.Navigation{})
	return r.coord.NavigationEnded(ctx, r.Root())
}

// Navigate runs req. It returns false when the navigation was denied by
// the guard or superseded by a newer navigation.
func (r *Router) Navigate(ctx context.Context, req Request) (bool, error) {
	if err := r.checkTargets(req); err != nil {
		return false, err
	}

	r.mu.Lock()
	r.seq++
	seq := r.seq
	primaryChanges := req.Primary != nil && !req.Primary.equal(r.primary)
	panelChanges := (req.Panel != nil && (r.panel == nil || !req.Panel.equal(*r.panel))) ||
		(req.ClosePanel && r.panel != nil)
	leaving := r.mounted[guard.RegionPrimary]
	if !primaryChanges {
		leaving = r.mounted[guard.RegionPanel]
	}
	r.mu.Unlock()

	if !primaryChanges && !panelChanges {
		return true, nil
	}

	if r.coord != nil {
		r.coord.NavigationStarted(nav.Navigation{PanelTarget: req.Panel != nil || req.ClosePanel})
	}

	if r.guard != nil && leaving != nil {
		ok, err := r.guard.CanDeactivate(ctx, leaving, guard.Options{Bypass: req.Bypass})
		if err != nil || !ok {
			return false, err
		}
	}

	r.mu.Lock()
	if r.seq != seq {
		r.mu.Unlock()
		return false, nil
	}
	if primaryChanges {
		r.primary = *req.Primary
		r.mount(guard.RegionPrimary, r.primary)
	}
	switch {
	case req.Panel != nil && panelChanges:
		p := *req.Panel
		r.panel = &p
		r.mount(guard.RegionPanel, p)
	case req.ClosePanel && r.panel != nil:
		r.panel = nil
		r.mount(guard.RegionPanel, Target{})
	}
	root := r.rootLocked()
	r.mu.Unlock()

	if r.coord != nil {
		if err := r.coord.NavigationEnded(ctx, root); err != nil {
			return true, err
		}
	}
	return true, nil
}

// NavigatePanel implements nav.Router. The coordinator only forces a close
// once the guard already cleared the navigation that caused it, so the
// close bypasses the check.
func (r *Router) NavigatePanel(ctx context.Context, target string) error {
	req := Request{Bypass: true}
	if target == "" {
		req.ClosePanel = true
	} else {
		req.Panel = &Target{Component: target}
	}
	_, err := r.Navigate(ctx, req)
	return err
}

// Leave runs the guard for the whole screen, e.g. before quitting.
func (r *Router) Leave(ctx context.Context) (bool, error) {
	r.mu.Lock()
	primary := r.mounted[guard.RegionPrimary]
	r.mu.Unlock()
	if r.guard == nil || primary == nil {
		return true, nil
	}
	return r.guard.CanDeactivate(ctx, primary, guard.Options{})
}

// Mounted returns the component instance of region, or nil.
func (r *Router) Mounted(region guard.Region) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mounted[region]
}

// Primary returns the primary target.
func (r *Router) Primary() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.primary
}

// Panel returns the panel target, if the panel is routed.
func (r *Router) Panel() (Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panel == nil {
		return Target{}, false
	}
	return *r.panel, true
}

// Root returns the active route tree.
func (r *Router) Root() *nav.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rootLocked()
}

func (r *Router) rootLocked() *nav.Route {
	root := &nav.Route{
		Children: []*nav.Route{{
			Outlet:    nav.OutletPrimary,
			Component: r.primary.Component,
			Params:    maps.Clone(r.primary.Params),
		}},
	}
	if r.panel != nil {
		panel := &nav.Route{
			Outlet:    nav.OutletPanel,
			Component: r.panel.Component,
			Params:    maps.Clone(r.panel.Params),
		}
		if r.panel.Maximized {
			panel.Data = map[string]any{"max": true}
		}
		root.Children = append(root.Children, panel)
	}
	return root
}

// mount replaces the instance of region. It must be called with mu held.
func (r *Router) mount(region guard.Region, t Target) {
	if off := r.unmount[region]; off != nil {
		off()
		delete(r.unmount, region)
	}
	delete(r.mounted, region)
	if t.Component == "" {
		return
	}

	factory, ok := r.factories[t.Component]
	if !ok {
		log.WithField("component", t.Component).Warn("No factory for component")
		return
	}
	inst := factory(region, t)
	if inst == nil {
		return
	}
	r.mounted[region] = inst
	if d, ok := inst.(guard.Dirtyable); ok && r.registry != nil {
		r.unmount[region] = r.registry.Register(region, d)
	}
}

func (r *Router) checkTargets(req Request) error {
	for _, t := range []*Target{req.Primary, req.Panel} {
		if t == nil {
			continue
		}
		if _, ok := r.factories[t.Component]; !ok {
			return cerrors.New(cerrors.ErrCodeInvalidInput, fmt.Sprintf("unknown component %q", t.Component))
		}
	}
	return nil
}
