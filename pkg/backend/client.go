// Package backend talks to the management server: REST calls for full
// resynchronization and the change-event feed for live updates.
package backend

import (
	"context"

	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

// Client is the backend surface the console core depends on.
// RemoteClient talks to a live server; OfflineClient stands in when none
// is reachable.
type Client interface {
	// ListActions returns every running action under sc.
	ListActions(ctx context.Context, sc scope.Scope) ([]models.ActionBroadcast, error)

	// ListActivities returns every in-flight activity under sc.
	ListActivities(ctx context.Context, sc scope.Scope) ([]models.ActivitySnapshot, error)

	// CancelActivity asks the server to cancel an activity.
	CancelActivity(ctx context.Context, id string) error

	// Feed returns the change-event feed of this backend.
	Feed() feed.Feed

	// IsRunning returns true if the server is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}
