package store

import "github.com/grovetools/console/pkg/models"

// UpdateType identifies the kind of state change.
type UpdateType string

const (
	UpdateActivity        UpdateType = "activity"
	UpdateActivityRemoved UpdateType = "activity_removed"
	UpdateActionCreated   UpdateType = "action_created"
	UpdateActionRemoved   UpdateType = "action_removed"
)

// Update is a single state change emitted by a simulator worker.
type Update struct {
	Type UpdateType

	// Source is the worker that produced the update.
	Source string

	Activity   models.ActivitySnapshot
	ActivityID string
	Action     models.ActionBroadcast
}
