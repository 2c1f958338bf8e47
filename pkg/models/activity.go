package models

import "github.com/grovetools/console/pkg/scope"

// ActivitySnapshot is the server's view of one in-flight operation.
// Snapshots are replaced, never edited, by the client.
type ActivitySnapshot struct {
	ID       string      `json:"uuid"`
	ParentID string      `json:"parentUuid,omitempty"`
	Name     string      `json:"name"`
	Current  int64       `json:"current"`
	Max      int64       `json:"max"`
	Duration int64       `json:"duration"` // milliseconds
	Scope    scope.Scope `json:"scope"`
	User     string      `json:"user,omitempty"`
	Cancel   bool        `json:"cancel,omitempty"`
}

// IsRoot reports whether the snapshot has no parent.
func (s ActivitySnapshot) IsRoot() bool {
	return s.ParentID == ""
}
