package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/grovetools/console/internal/devserver/store"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

var simulatedTypes = []models.ActionType{
	models.ActionInstall,
	models.ActionSyncManagedServer,
	models.ActionStartProcess,
	models.ActionUpdateProductVersion,
}

type liveAction struct {
	broadcast models.ActionBroadcast
	ticksLeft int
}

// ActionWorker creates server actions and removes them after a fixed
// number of ticks. SYNC_MANAGED_SERVER actions are exclusive.
type ActionWorker struct {
	Interval time.Duration
	Scopes   []scope.Scope
	Lifetime int

	live    []*liveAction
	created int
	now     func() time.Time
}

// NewActionWorker creates a worker cycling through scopes.
func NewActionWorker(scopes []scope.Scope) *ActionWorker {
	return &ActionWorker{
		Interval: 2 * time.Second,
		Scopes:   scopes,
		Lifetime: 4,
		now:      time.Now,
	}
}

// Name returns the worker's name.
func (w *ActionWorker) Name() string { return "actions" }

// Run starts the simulation loop.
func (w *ActionWorker) Run(ctx context.Context, _ *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		for _, u := range w.Tick() {
			if !emit(ctx, updates, u) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick ages live actions, removing expired ones, and creates one new action.
func (w *ActionWorker) Tick() []store.Update {
	if w.now == nil {
		w.now = time.Now
	}
	var out []store.Update
	remaining := w.live[:0]
	for _, a := range w.live {
		a.ticksLeft--
		if a.ticksLeft <= 0 {
			out = append(out, store.Update{Type: store.UpdateActionRemoved, Source: w.Name(), Action: a.broadcast})
			continue
		}
		remaining = append(remaining, a)
	}
	w.live = remaining

	if len(w.Scopes) == 0 {
		return out
	}
	sc := w.Scopes[w.created%len(w.Scopes)]
	typ := simulatedTypes[w.created%len(simulatedTypes)]
	w.created++

	action := models.Action{Type: typ}
	if len(sc) > 0 {
		action.Group = sc[0]
	}
	if len(sc) > 1 {
		action.Instance = sc[1]
	}
	b := models.ActionBroadcast{
		Action: action,
		Execution: models.ActionExecution{
			Name:   fmt.Sprintf("%s #%d", typ, w.created),
			Start:  w.now().UTC().Truncate(time.Millisecond),
			Source: "devserver",
		},
		Exclusive: typ == models.ActionSyncManagedServer,
	}
	w.live = append(w.live, &liveAction{broadcast: b, ticksLeft: w.Lifetime})
	out = append(out, store.Update{Type: store.UpdateActionCreated, Source: w.Name(), Action: b})
	return out
}
