package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grovetools/console/internal/devserver/store"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
)

var stepNames = []string{"Download", "Verify", "Extract", "Configure", "Restart"}

type run struct {
	root    models.ActivitySnapshot
	child   models.ActivitySnapshot
	step    int
	started time.Time
}

// ActivityWorker starts nested deployment activities, advances them on a
// ticker and removes them when they finish or are cancelled.
type ActivityWorker struct {
	Interval   time.Duration
	Scopes     []scope.Scope
	Steps      int
	StepSize   int64
	MaxRunning int
	User       string

	running []*run
	started int
	now     func() time.Time
}

// NewActivityWorker creates a worker cycling through scopes.
func NewActivityWorker(scopes []scope.Scope) *ActivityWorker {
	return &ActivityWorker{
		Interval:   500 * time.Millisecond,
		Scopes:     scopes,
		Steps:      len(stepNames),
		StepSize:   10,
		MaxRunning: 3,
		User:       "devserver",
		now:        time.Now,
	}
}

// Name returns the worker's name.
func (w *ActivityWorker) Name() string { return "activities" }

// Run starts the simulation loop.
func (w *ActivityWorker) Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		for _, u := range w.Tick(st) {
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

// Tick advances every running activity by one step and returns the
// resulting updates.
func (w *ActivityWorker) Tick(st *store.Store) []store.Update {
	if w.now == nil {
		w.now = time.Now
	}
	var out []store.Update
	remaining := w.running[:0]
	for _, r := range w.running {
		if st != nil && st.IsCancelled(r.root.ID) {
			out = append(out, store.Update{Type: store.UpdateActivityRemoved, Source: w.Name(), ActivityID: r.root.ID})
			continue
		}
		r.child.Current++
		if r.child.Current >= r.child.Max {
			out = append(out, store.Update{Type: store.UpdateActivityRemoved, Source: w.Name(), ActivityID: r.child.ID})
			r.step++
			if r.step >= w.Steps {
				out = append(out, store.Update{Type: store.UpdateActivityRemoved, Source: w.Name(), ActivityID: r.root.ID})
				continue
			}
			r.child = w.newStep(r)
		}
		r.root.Current = int64(r.step)
		r.root.Duration = w.now().Sub(r.started).Milliseconds()
		r.child.Duration = r.root.Duration
		out = append(out,
			store.Update{Type: store.UpdateActivity, Source: w.Name(), Activity: r.root},
			store.Update{Type: store.UpdateActivity, Source: w.Name(), Activity: r.child},
		)
		remaining = append(remaining, r)
	}
	w.running = remaining

	if len(w.running) < w.MaxRunning && len(w.Scopes) > 0 {
		r := w.start()
		out = append(out,
			store.Update{Type: store.UpdateActivity, Source: w.Name(), Activity: r.root},
			store.Update{Type: store.UpdateActivity, Source: w.Name(), Activity: r.child},
		)
	}
	return out
}

func (w *ActivityWorker) start() *run {
	sc := w.Scopes[w.started%len(w.Scopes)]
	w.started++
	r := &run{
		root: models.ActivitySnapshot{
			ID:    uuid.NewString(),
			Name:  fmt.Sprintf("Deploy to %s", sc.String()),
			Max:   int64(w.Steps),
			Scope: sc,
			User:  w.User,
		},
		started: w.now(),
	}
	r.child = w.newStep(r)
	w.running = append(w.running, r)
	return r
}

func (w *ActivityWorker) newStep(r *run) models.ActivitySnapshot {
	return models.ActivitySnapshot{
		ID:       uuid.NewString(),
		ParentID: r.root.ID,
		Name:     stepNames[r.step%len(stepNames)],
		Max:      w.StepSize,
		Scope:    r.root.Scope,
		User:     r.root.User,
	}
}
