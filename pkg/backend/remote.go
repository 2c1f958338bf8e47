package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

// API paths served by the backend.
const (
	PathActions    = "/api/actions"
	PathActivities = "/api/activities"
	PathHealth     = "/health"
)

// RemoteClient implements Client over HTTP+JSON with bearer token auth.
type RemoteClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	feed       *feed.WebsocketFeed
}

// NewRemoteClient creates a client for the server at baseURL.
func NewRemoteClient(baseURL, token string, timeout time.Duration) *RemoteClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &RemoteClient{
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		feed:       feed.NewWebsocketFeed(baseURL, token),
	}
}

func (c *RemoteClient) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return cerrors.BackendUnavailable(c.baseURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return cerrors.PermissionDenied(method + " " + path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return cerrors.BackendStatus(path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func scopeQuery(sc scope.Scope) url.Values {
	q := url.Values{}
	if len(sc) > 0 {
		q.Set("scope", sc.String())
	}
	return q
}

// ListActions implements Client.
func (c *RemoteClient) ListActions(ctx context.Context, sc scope.Scope) ([]models.ActionBroadcast, error) {
	var list []models.ActionBroadcast
	if err := c.do(ctx, http.MethodGet, PathActions, scopeQuery(sc), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListActivities implements Client.
func (c *RemoteClient) ListActivities(ctx context.Context, sc scope.Scope) ([]models.ActivitySnapshot, error) {
	var list []models.ActivitySnapshot
	if err := c.do(ctx, http.MethodGet, PathActivities, scopeQuery(sc), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CancelActivity implements Client.
func (c *RemoteClient) CancelActivity(ctx context.Context, id string) error {
	if id == "" {
		return cerrors.New(cerrors.ErrCodeInvalidInput, "activity id is required")
	}
	return c.do(ctx, http.MethodPost, PathActivities+"/"+url.PathEscape(id)+"/cancel", nil, nil, nil)
}

// Feed implements Client.
func (c *RemoteClient) Feed() feed.Feed {
	return c.feed
}

// IsRunning returns true if the server answers its health check.
func (c *RemoteClient) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, PathHealth, nil, nil, nil) == nil
}

// Close releases idle connections.
func (c *RemoteClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
