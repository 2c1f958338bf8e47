package store

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

func newTestStore(t *testing.T) (*Store, *feed.Hub) {
	t.Helper()
	hub := feed.NewHub()
	t.Cleanup(hub.Close)
	return New(hub, logrus.NewEntry(logrus.New())), hub
}

func next(t *testing.T, sub *feed.Subscription) models.ChangeEvent {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
	return models.ChangeEvent{}
}

func TestActivityUpdatesPublishFullList(t *testing.T) {
	st, hub := newTestStore(t)
	sub, err := hub.Subscribe(context.Background(), []models.EventCategory{models.CategoryActivities}, scope.Scope{"g"})
	require.NoError(t, err)
	defer sub.Close()

	st.ApplyUpdate(Update{Type: UpdateActivity, Activity: models.ActivitySnapshot{ID: "1", Scope: scope.Scope{"g"}}})
	st.ApplyUpdate(Update{Type: UpdateActivity, Activity: models.ActivitySnapshot{ID: "2", ParentID: "1", Scope: scope.Scope{"g"}}})
	st.ApplyUpdate(Update{Type: UpdateActivity, Activity: models.ActivitySnapshot{ID: "1", Name: "renamed", Scope: scope.Scope{"g"}}})

	next(t, sub)
	next(t, sub)
	list, err := next(t, sub).Activities()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "renamed", list[0].Name)

	st.ApplyUpdate(Update{Type: UpdateActivityRemoved, ActivityID: "1"})
	list, err = next(t, sub).Activities()
	require.NoError(t, err)
	assert.Empty(t, list, "children are removed with their parent")
}

func TestRemovingActivityRemovesDescendants(t *testing.T) {
	st, _ := newTestStore(t)
	for _, a := range []models.ActivitySnapshot{
		{ID: "root"},
		{ID: "child", ParentID: "root"},
		{ID: "grandchild", ParentID: "child"},
		{ID: "great", ParentID: "grandchild"},
		{ID: "other"},
		{ID: "other-child", ParentID: "other"},
	} {
		st.ApplyUpdate(Update{Type: UpdateActivity, Activity: a})
	}

	st.ApplyUpdate(Update{Type: UpdateActivityRemoved, ActivityID: "root"})

	var ids []string
	for _, a := range st.Activities(nil) {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"other", "other-child"}, ids)
	_, ok := st.Activity("great")
	assert.False(t, ok)
}

func TestActionUpdatesAreScoped(t *testing.T) {
	st, hub := newTestStore(t)
	sub, err := hub.Subscribe(context.Background(), []models.EventCategory{models.CategoryServerActions}, scope.Scope{"g", "i"})
	require.NoError(t, err)
	defer sub.Close()

	inScope := models.ActionBroadcast{Action: models.Action{Type: models.ActionInstall, Group: "g", Instance: "i"}}
	other := models.ActionBroadcast{Action: models.Action{Type: models.ActionInstall, Group: "g", Instance: "j"}}
	st.ApplyUpdate(Update{Type: UpdateActionCreated, Action: other})
	st.ApplyUpdate(Update{Type: UpdateActionCreated, Action: inScope})

	ev := next(t, sub)
	assert.Equal(t, models.EventCreated, ev.Kind)
	got, err := ev.Action()
	require.NoError(t, err)
	assert.Equal(t, "i", got.Action.Instance)

	assert.Len(t, st.Actions(nil), 2)
	assert.Len(t, st.Actions(scope.Scope{"g", "i"}), 1)

	st.ApplyUpdate(Update{Type: UpdateActionRemoved, Action: inScope})
	assert.Equal(t, models.EventRemoved, next(t, sub).Kind)
	assert.Len(t, st.Actions(nil), 1)
}

func TestRequestCancel(t *testing.T) {
	st, _ := newTestStore(t)
	st.ApplyUpdate(Update{Type: UpdateActivity, Activity: models.ActivitySnapshot{ID: "1"}})

	assert.False(t, st.RequestCancel("missing"))
	assert.True(t, st.RequestCancel("1"))
	assert.True(t, st.IsCancelled("1"))
	assert.Len(t, st.Activities(nil), 1)
}
