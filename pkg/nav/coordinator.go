package nav

import (
	"context"
	"sync"

	"github.com/grovetools/console/logging"
	"github.com/grovetools/console/pkg/observe"
	"github.com/grovetools/console/pkg/scope"
)

var log = logging.NewLogger("nav")

// Router performs navigations the coordinator needs to force.
type Router interface {
	// NavigatePanel routes the panel outlet to target. An empty target
	// closes the panel.
	NavigatePanel(ctx context.Context, target string) error
}

// Settings persists the menu flag across sessions.
type Settings interface {
	MenuMaximized() bool
	SetMenuMaximized(bool) error
}

// Navigation describes a navigation that just started.
type Navigation struct {
	// PanelTarget is set when the navigation itself routes the panel, so
	// the panel must not be closed on the primary change it causes.
	PanelTarget bool
}

// State is the observable navigation state.
type State struct {
	PrimaryState   string
	PanelState     string
	PanelVisible   bool
	PanelMaximized bool
	MenuMaximized  bool
	Context        Context
}

// Coordinator tracks the primary and panel outlets.
type Coordinator struct {
	router   Router
	settings Settings

	state *observe.Value[State]
	scope *observe.Value[scope.Scope]

	mu               sync.Mutex
	lastPrimaryState string
	lastContext      Context
	primarySeen      bool
	panelRouted      bool
	panelMaximized   bool
	panelTarget      bool
	closePending     bool
}

// NewCoordinator creates a coordinator. The menu flag is restored from
// settings, which may be nil.
func NewCoordinator(router Router, settings Settings) *Coordinator {
	initial := State{}
	if settings != nil {
		initial.MenuMaximized = settings.MenuMaximized()
	}
	return &Coordinator{
		router:   router,
		settings: settings,
		state:    observe.NewValue(initial),
		scope:    observe.NewValue[scope.Scope](nil),
	}
}

// NavigationStarted records whether the navigation carries a panel target.
func (c *Coordinator) NavigationStarted(n Navigation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panelTarget = n.PanelTarget
}

// NavigationEnded recomputes the state from the active route tree. When the
// primary state changed since the previous navigation, or a forced close
// was requested, an open panel is routed closed.
func (c *Coordinator) NavigationEnded(ctx context.Context, root *Route) error {
	primary := Leaf(root, OutletPrimary)
	panel := Leaf(root, OutletPanel)

	var primaryState, panelState string
	if primary != nil {
		primaryState = primary.Component
	}
	if panel != nil {
		panelState = panel.Component
	}
	routeCtx := ContextOf(root)

	c.mu.Lock()
	panelVisible := panelState != ""
	c.panelRouted = panelVisible
	c.panelMaximized = panelVisible && IsMaximized(panel)

	primaryChanged := c.primarySeen && primaryState != c.lastPrimaryState
	closePanel := panelVisible && (c.closePending || (primaryChanged && !c.panelTarget))
	c.lastPrimaryState = primaryState
	contextChanged := routeCtx != c.lastContext
	c.lastContext = routeCtx
	c.primarySeen = true
	c.panelTarget = false
	c.closePending = false
	maximized := c.panelMaximized
	c.mu.Unlock()

	c.state.Update(func(s State) (State, bool) {
		s.PrimaryState = primaryState
		s.PanelState = panelState
		s.PanelVisible = panelVisible
		s.PanelMaximized = maximized
		s.Context = routeCtx
		return s, true
	})
	if contextChanged {
		c.scope.Set(routeCtx.Scope())
	}

	if closePanel {
		log.WithField("primary", primaryState).Debug("Closing panel after primary change")
		return c.closeViaRouter(ctx)
	}
	return nil
}

// HidePanel hides the panel without routing.
func (c *Coordinator) HidePanel() {
	c.setPanelVisible(false, false)
}

// ShowPanel undoes HidePanel if the panel is still routed.
func (c *Coordinator) ShowPanel() {
	c.mu.Lock()
	routed, maximized := c.panelRouted, c.panelMaximized
	c.mu.Unlock()
	c.setPanelVisible(routed, routed && maximized)
}

// ClosePanel hides the panel and routes it closed.
func (c *Coordinator) ClosePanel(ctx context.Context) error {
	c.HidePanel()
	return c.closeViaRouter(ctx)
}

// ClosePanelAfterNavigation routes the panel closed once the current
// navigation ends.
func (c *Coordinator) ClosePanelAfterNavigation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closePending = true
}

// ClosePending reports whether a forced close waits for the navigation end.
func (c *Coordinator) ClosePending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closePending
}

// ToggleMenuMaximized flips and persists the menu flag.
func (c *Coordinator) ToggleMenuMaximized() error {
	next := c.state.Update(func(s State) (State, bool) {
		s.MenuMaximized = !s.MenuMaximized
		return s, true
	})
	if c.settings == nil {
		return nil
	}
	return c.settings.SetMenuMaximized(next.MenuMaximized)
}

// SetMenuMaximized applies a menu flag changed elsewhere, e.g. by another
// console instance writing the settings file. It is not persisted again.
func (c *Coordinator) SetMenuMaximized(on bool) {
	c.state.Update(func(s State) (State, bool) {
		if s.MenuMaximized == on {
			return s, false
		}
		s.MenuMaximized = on
		return s, true
	})
}

// State returns the current navigation state.
func (c *Coordinator) State() State { return c.state.Get() }

// SubscribeState streams navigation state changes.
func (c *Coordinator) SubscribeState() (<-chan State, func()) { return c.state.Subscribe() }

// Context returns the current scope context.
func (c *Coordinator) Context() Context { return c.state.Get().Context }

// Scope returns the request scope of the current context.
func (c *Coordinator) Scope() scope.Scope { return c.scope.Get() }

// SubscribeScope streams the request scope on every scope context change,
// including a repository switch that leaves the scope path unchanged.
// Repeated navigations within the same context do not emit.
func (c *Coordinator) SubscribeScope() (<-chan scope.Scope, func()) { return c.scope.Subscribe() }

func (c *Coordinator) setPanelVisible(on, maximized bool) {
	c.state.Update(func(s State) (State, bool) {
		if s.PanelVisible == on && s.PanelMaximized == maximized {
			return s, false
		}
		s.PanelVisible = on
		s.PanelMaximized = maximized
		return s, true
	})
}

func (c *Coordinator) closeViaRouter(ctx context.Context) error {
	if c.router == nil {
		return nil
	}
	return c.router.NavigatePanel(ctx, "")
}
