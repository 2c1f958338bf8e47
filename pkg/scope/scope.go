// Package scope models the hierarchical path identifying a region of the
// managed system, most general element first (group, then instance).
package scope

import "strings"

// Scope is an ordered path such as [group] or [group, instance].
type Scope []string

// Parse splits a "group/instance" string into a Scope. Empty segments are dropped.
func Parse(s string) Scope {
	var out Scope
	for _, part := range strings.Split(s, "/") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// String joins the scope with slashes.
func (s Scope) String() string {
	return strings.Join(s, "/")
}

// Trim returns at most the first n elements.
func (s Scope) Trim(n int) Scope {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Equal reports whether both scopes have the same elements.
func (s Scope) Equal(other Scope) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Matches reports whether candidate falls under request. An empty request
// matches everything; otherwise candidate must start with every element of
// request, compared by exact string equality.
func Matches(candidate, request Scope) bool {
	if len(request) == 0 {
		return true
	}
	if len(candidate) < len(request) {
		return false
	}
	for i := range request {
		if candidate[i] != request[i] {
			return false
		}
	}
	return true
}
