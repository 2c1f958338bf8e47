// Package session keeps the activity tracker and the action merger in step
// with the backend for the scope the user is looking at.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/grovetools/console/logging"
	"github.com/grovetools/console/pkg/actions"
	"github.com/grovetools/console/pkg/activity"
	"github.com/grovetools/console/pkg/backend"
	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/observe"
	"github.com/grovetools/console/pkg/scope"
)

var log = logging.NewLogger("session")

// Categories is what a session subscribes to.
var Categories = []models.EventCategory{models.CategoryActivities, models.CategoryServerActions}

// Options configures a Session.
type Options struct {
	// GlobalPermission allows loading the unscoped (everything) view.
	GlobalPermission bool
}

// Session owns the refresh policy: on every scope or authentication change
// it clears local state, closes the previous feed subscription, resyncs
// both lists over REST and subscribes for the new scope.
type Session struct {
	client  backend.Client
	tracker *activity.Tracker
	merger  *actions.Merger
	opts    Options

	// mu serializes scope switches.
	mu     sync.Mutex
	scope  scope.Scope
	sub    *feed.Subscription
	cancel context.CancelFunc
	done   chan struct{}

	generation atomic.Uint64
	online     *observe.Value[bool]
}

// New creates a session. Nothing is fetched until SetScope.
func New(client backend.Client, tracker *activity.Tracker, merger *actions.Merger, opts Options) *Session {
	return &Session{
		client:  client,
		tracker: tracker,
		merger:  merger,
		opts:    opts,
		online:  observe.NewValue(false),
	}
}

// Tracker returns the activity tracker fed by this session.
func (s *Session) Tracker() *activity.Tracker { return s.tracker }

// Merger returns the action merger fed by this session.
func (s *Session) Merger() *actions.Merger { return s.merger }

// Online reports whether a feed subscription is live.
func (s *Session) Online() bool { return s.online.Get() }

// SubscribeOnline streams the online flag.
func (s *Session) SubscribeOnline() (<-chan bool, func()) { return s.online.Subscribe() }

// Scope returns the scope of the last SetScope.
func (s *Session) Scope() scope.Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// SetScope switches the session to sc. The unscoped view is skipped when
// the user lacks global permission, and nothing is fetched while the
// backend is offline; both leave the session with empty state and no error.
func (s *Session) SetScope(ctx context.Context, sc scope.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scope = append(scope.Scope(nil), sc...)
	s.stopLocked()
	s.merger.Reset()
	s.tracker.Reset()
	s.tracker.SetScope(sc)

	logger := log.WithField("scope", sc.String())

	if len(sc) == 0 && !s.opts.GlobalPermission {
		logger.Debug("Unscoped view without global permission, not loading")
		return nil
	}
	if !s.client.IsRunning() {
		logger.Info("Backend offline, not loading")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())

	// Subscribe before the REST fetch so nothing published in between is
	// lost. Events wait in the subscription buffer until the resync is in.
	sub, err := s.client.Feed().Subscribe(runCtx, Categories, sc)
	if err != nil {
		cancel()
		logger.WithError(err).Warn("Feed subscription failed")
		return err
	}

	var (
		snapshots []models.ActivitySnapshot
		running   []models.ActionBroadcast
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshots, err = s.client.ListActivities(gctx, sc)
		return err
	})
	g.Go(func() error {
		var err error
		running, err = s.client.ListActions(gctx, sc)
		return err
	})
	if err := g.Wait(); err != nil {
		sub.Close()
		cancel()
		logger.WithError(err).Warn("Resync failed")
		return err
	}
	s.tracker.Replace(snapshots)
	s.merger.Replace(running)

	gen := s.generation.Add(1)
	done := make(chan struct{})
	s.sub, s.cancel, s.done = sub, cancel, done
	s.online.Set(true)
	go s.dispatch(gen, sub, done)

	logger.WithField("activities", len(snapshots)).
		WithField("actions", len(running)).
		Debug("Session resynced")
	return nil
}

// Refresh reruns SetScope for the current scope, e.g. after the user's
// credentials changed.
func (s *Session) Refresh(ctx context.Context) error {
	return s.SetScope(ctx, s.Scope())
}

// Follow calls SetScope for every scope received until ctx is done or the
// channel closes. Each value is a context switch, so an equal scope still
// resets and resyncs. Failures are logged; the next scope change retries.
func (s *Session) Follow(ctx context.Context, scopes <-chan scope.Scope) {
	for {
		select {
		case <-ctx.Done():
			return
		case sc, ok := <-scopes:
			if !ok {
				return
			}
			if err := s.SetScope(ctx, sc); err != nil {
				log.WithError(err).WithField("scope", sc.String()).Warn("Scope change failed")
			}
		}
	}
}

// Close stops the feed subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked closes the current subscription and waits for its dispatcher.
func (s *Session) stopLocked() {
	// Invalidate first so the old dispatcher cannot reset new state.
	s.generation.Add(1)
	if s.sub != nil {
		s.sub.Close()
		s.cancel()
		<-s.done
	}
	s.sub, s.cancel, s.done = nil, nil, nil
	s.online.Set(false)
}

// dispatch applies events in receipt order. When the feed is lost the
// cached state is cleared until the next successful subscription.
func (s *Session) dispatch(gen uint64, sub *feed.Subscription, done chan struct{}) {
	defer close(done)
	for ev := range sub.Events() {
		var err error
		switch ev.Category {
		case models.CategoryActivities:
			err = s.tracker.Apply(ev)
		case models.CategoryServerActions:
			err = s.merger.Apply(ev)
		default:
			continue
		}
		if err != nil {
			log.WithError(err).WithField("category", ev.Category).Warn("Dropping malformed event")
		}
	}

	if s.generation.Load() != gen {
		return
	}
	log.WithError(sub.Err()).WithField("scope", sub.Scope.String()).Warn("Change-event feed lost, clearing state")
	s.merger.Reset()
	s.tracker.Reset()
	s.online.Set(false)
}
