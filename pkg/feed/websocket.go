package feed

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

// EventsPath is the websocket endpoint of the change-event feed.
const EventsPath = "/ws/events"

const (
	wsBuffer       = 64
	maxFrameSize   = 4 << 20
	closeWriteWait = time.Second
)

// WebsocketFeed opens one websocket connection per subscription.
type WebsocketFeed struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
}

// NewWebsocketFeed creates a feed for the backend at baseURL (http or https).
func NewWebsocketFeed(baseURL, token string) *WebsocketFeed {
	return &WebsocketFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// EventsURL builds the websocket URL for a subscription.
func EventsURL(baseURL string, categories []models.EventCategory, sc scope.Scope) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", cerrors.Wrap(err, cerrors.ErrCodeInvalidInput, "invalid backend url")
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", cerrors.New(cerrors.ErrCodeInvalidInput, "unsupported backend url scheme: "+u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + EventsPath

	q := url.Values{}
	for _, c := range categories {
		q.Add("category", string(c))
	}
	if len(sc) > 0 {
		q.Set("scope", sc.String())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Subscribe implements Feed.
func (f *WebsocketFeed) Subscribe(ctx context.Context, categories []models.EventCategory, sc scope.Scope) (*Subscription, error) {
	target, err := EventsURL(f.baseURL, categories, sc)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if f.token != "" {
		header.Set("Authorization", "Bearer "+f.token)
	}

	conn, resp, err := f.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, cerrors.PermissionDenied("subscribe to " + sc.String())
			}
			return nil, cerrors.BackendStatus(EventsPath, resp.StatusCode)
		}
		return nil, cerrors.BackendUnavailable(f.baseURL, err)
	}
	conn.SetReadLimit(maxFrameSize)

	sub := newSubscription(uuid.NewString(), categories, sc, wsBuffer)
	stopping := make(chan struct{})
	var closing atomic.Bool

	sub.stop = func() {
		closing.Store(true)
		close(stopping)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteWait))
		_ = conn.Close()
		<-sub.done
	}

	go func() {
		defer conn.Close()
		for {
			var ev models.ChangeEvent
			if err := conn.ReadJSON(&ev); err != nil {
				if closing.Load() {
					sub.finish(nil)
				} else {
					log.WithError(err).WithField("subscription", sub.ID).Warn("Change-event connection lost")
					sub.finish(cerrors.FeedClosed(sc, err))
				}
				return
			}
			if !sub.Accepts(ev) {
				continue
			}
			select {
			case sub.events <- ev:
			case <-stopping:
				sub.finish(nil)
				return
			}
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()

	log.WithField("subscription", sub.ID).
		WithField("scope", sc.String()).
		Debug("Websocket feed connected")
	return sub, nil
}
