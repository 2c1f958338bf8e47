package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

var allCategories = []models.EventCategory{models.CategoryActivities, models.CategoryServerActions}

func event(t *testing.T, category models.EventCategory, sc scope.Scope) models.ChangeEvent {
	t.Helper()
	ev, err := models.NewChangeEvent(category, models.EventCreated, sc, map[string]string{"k": "v"})
	require.NoError(t, err)
	return ev
}

func receive(t *testing.T, sub *Subscription) models.ChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return models.ChangeEvent{}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestHubFiltersByCategoryAndScope(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), []models.EventCategory{models.CategoryServerActions}, scope.Scope{"g"})
	require.NoError(t, err)
	defer sub.Close()

	hub.Publish(event(t, models.CategoryActivities, scope.Scope{"g"}))
	hub.Publish(event(t, models.CategoryServerActions, scope.Scope{"h"}))
	hub.Publish(event(t, models.CategoryServerActions, scope.Scope{"g", "x"}))
	hub.Publish(event(t, models.CategoryServerActions, nil))

	got := receive(t, sub)
	assert.Equal(t, scope.Scope{"g", "x"}, got.Scope)
	got = receive(t, sub)
	assert.Empty(t, got.Scope, "global events reach every scope")
	assertEmpty(t, sub)
}

func TestHubPreservesPublishOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), allCategories, nil)
	require.NoError(t, err)
	defer sub.Close()

	for i := 0; i < 10; i++ {
		ev := event(t, models.CategoryServerActions, scope.Scope{"g"})
		ev.Kind = models.EventCreated
		if i%2 == 1 {
			ev.Kind = models.EventRemoved
		}
		hub.Publish(ev)
	}
	for i := 0; i < 10; i++ {
		want := models.EventCreated
		if i%2 == 1 {
			want = models.EventRemoved
		}
		assert.Equal(t, want, receive(t, sub).Kind)
	}
}

func TestHubCloseAndContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, allCategories, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Count())

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed on cancel")
	}
	assert.NoError(t, sub.Err())
	assert.Equal(t, 0, hub.Count())

	other, err := hub.Subscribe(context.Background(), allCategories, nil)
	require.NoError(t, err)
	other.Close()
	other.Close()
	_, ok := <-other.Events()
	assert.False(t, ok)
}

func TestHubDisconnectReportsFeedClosed(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub()

	sub, err := hub.Subscribe(context.Background(), allCategories, scope.Scope{"g"})
	require.NoError(t, err)

	hub.Disconnect()
	<-sub.Done()
	assert.True(t, cerrors.Is(sub.Err(), cerrors.ErrCodeFeedClosed))

	hub.Close()
	_, err = hub.Subscribe(context.Background(), allCategories, nil)
	assert.True(t, cerrors.Is(err, cerrors.ErrCodeFeedClosed))
}

func TestHubDisconnectsSlowSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	hub := NewHub()
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), allCategories, nil)
	require.NoError(t, err)

	for i := 0; i < hubBuffer+1; i++ {
		hub.Publish(event(t, models.CategoryActivities, nil))
	}
	<-sub.Done()
	assert.True(t, cerrors.Is(sub.Err(), cerrors.ErrCodeFeedClosed))
	assert.Equal(t, 0, hub.Count())
}
