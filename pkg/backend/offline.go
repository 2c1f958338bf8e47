package backend

import (
	"context"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

// OfflineClient implements Client when no server is reachable. Lists are
// empty and the feed refuses subscriptions, so sessions stay offline.
type OfflineClient struct {
	url string
}

// NewOfflineClient creates an OfflineClient remembering the unreachable url.
func NewOfflineClient(url string) *OfflineClient {
	return &OfflineClient{url: url}
}

func (c *OfflineClient) ListActions(context.Context, scope.Scope) ([]models.ActionBroadcast, error) {
	return nil, nil
}

func (c *OfflineClient) ListActivities(context.Context, scope.Scope) ([]models.ActivitySnapshot, error) {
	return nil, nil
}

func (c *OfflineClient) CancelActivity(context.Context, string) error {
	return cerrors.BackendUnavailable(c.url, nil)
}

func (c *OfflineClient) Feed() feed.Feed {
	return offlineFeed{url: c.url}
}

func (c *OfflineClient) IsRunning() bool { return false }

func (c *OfflineClient) Close() error { return nil }

type offlineFeed struct {
	url string
}

func (f offlineFeed) Subscribe(context.Context, []models.EventCategory, scope.Scope) (*feed.Subscription, error) {
	return nil, cerrors.BackendUnavailable(f.url, nil)
}
