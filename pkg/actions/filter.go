package actions

import (
	"slices"

	"github.com/grovetools/console/pkg/models"
)

// Filter restricts one attribute of an action. A nil Filter accepts
// anything, including a missing attribute. A non-nil Filter requires the
// attribute to be present and listed.
type Filter []string

// One builds a filter accepting a single value.
func One(v string) Filter {
	return Filter{v}
}

// Accepts reports whether value passes the filter.
func (f Filter) Accepts(value string) bool {
	if f == nil {
		return true
	}
	if value == "" {
		return false
	}
	return slices.Contains(f, value)
}

// Query combines a type list with the three scoping filters.
type Query struct {
	Types    []models.ActionType
	Group    Filter
	Instance Filter
	Item     Filter
}

// Matches reports whether a satisfies every part of the query. An empty
// type list accepts every type.
func (q Query) Matches(a models.Action) bool {
	if len(q.Types) > 0 && !slices.Contains(q.Types, a.Type) {
		return false
	}
	return q.Group.Accepts(a.Group) && q.Instance.Accepts(a.Instance) && q.Item.Accepts(a.Item)
}
