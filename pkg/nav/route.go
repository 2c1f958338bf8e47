// Package nav coordinates the primary and panel regions of the console.
package nav

import "github.com/grovetools/console/pkg/scope"

// Outlet names a routable region.
type Outlet string

const (
	OutletPrimary Outlet = "primary"
	OutletPanel   Outlet = "panel"
)

// Route parameter names that make up the scope context.
const (
	ParamGroup      = "group"
	ParamRepository = "repository"
	ParamInstance   = "instance"
)

// Route is one node of the active route tree. An empty Outlet means the
// primary outlet. An empty Component is an empty (closed) route.
type Route struct {
	Outlet    Outlet
	Component string
	Params    map[string]string
	Data      map[string]any
	Children  []*Route
}

func (r *Route) outlet() Outlet {
	if r.Outlet == "" {
		return OutletPrimary
	}
	return r.Outlet
}

// Leaf finds the deepest route of outlet o. The outlet's top route is the
// first route of that outlet found breadth first; from there the first
// child of the same outlet is followed down. It returns nil when the outlet
// has no route.
func Leaf(root *Route, o Outlet) *Route {
	top := findOutlet(root, o)
	if top == nil {
		return nil
	}
	leaf := top
	for {
		var next *Route
		for _, c := range leaf.Children {
			if c.outlet() == o {
				next = c
				break
			}
		}
		if next == nil {
			return leaf
		}
		leaf = next
	}
}

func findOutlet(root *Route, o Outlet) *Route {
	if root == nil {
		return nil
	}
	queue := []*Route{root}
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if r != root && r.outlet() == o {
			return r
		}
		queue = append(queue, r.Children...)
	}
	if o == OutletPrimary && root.Component != "" {
		return root
	}
	return nil
}

// Context is the scope context named by the active routes.
type Context struct {
	Group      string `json:"group,omitempty"`
	Repository string `json:"repository,omitempty"`
	Instance   string `json:"instance,omitempty"`
}

// Scope converts the context into a request scope: [group] or
// [group, instance]. A repository view without a group is scoped to
// [repository], the store actions name as their bhive. An instance
// without a group yields no scope.
func (c Context) Scope() scope.Scope {
	switch {
	case c.Group == "" && c.Repository != "":
		return scope.Scope{c.Repository}
	case c.Group == "":
		return nil
	case c.Instance == "":
		return scope.Scope{c.Group}
	default:
		return scope.Scope{c.Group, c.Instance}
	}
}

// ContextOf walks the whole route tree depth first and collects the scope
// parameters. Deeper routes win over their ancestors.
func ContextOf(root *Route) Context {
	var ctx Context
	var walk func(r *Route)
	walk = func(r *Route) {
		if r == nil {
			return
		}
		if v, ok := r.Params[ParamGroup]; ok {
			ctx.Group = v
		}
		if v, ok := r.Params[ParamRepository]; ok {
			ctx.Repository = v
		}
		if v, ok := r.Params[ParamInstance]; ok {
			ctx.Instance = v
		}
		for _, c := range r.Children {
			walk(c)
		}
	}
	walk(root)
	return ctx
}

// IsMaximized reports whether the route asks for a maximized panel.
func IsMaximized(r *Route) bool {
	if r == nil {
		return false
	}
	v, ok := r.Data["max"].(bool)
	return ok && v
}
