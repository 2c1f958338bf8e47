// Package simulator drives the development backend with synthetic
// activities and actions.
package simulator

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/console/internal/devserver/store"
)

// Worker is a background producer of state updates.
type Worker interface {
	// Name returns the worker's name for logging.
	Name() string

	// Run blocks until ctx is canceled, emitting updates. It may read the
	// store to decide what to do next.
	Run(ctx context.Context, st *store.Store, updates chan<- store.Update) error
}

// Engine runs all workers and applies their updates to the store from a
// single goroutine, so the store sees them in emission order.
type Engine struct {
	store   *store.Store
	workers []Worker
	logger  *logrus.Entry
}

// New creates a new Engine.
func New(st *store.Store, logger *logrus.Entry) *Engine {
	return &Engine{store: st, logger: logger}
}

// Register adds a worker to the engine.
func (e *Engine) Register(w Worker) {
	e.workers = append(e.workers, w)
}

// Start runs all workers and blocks until ctx is canceled or a worker fails.
func (e *Engine) Start(ctx context.Context) error {
	updates := make(chan store.Update, 100)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case u := <-updates:
				e.store.ApplyUpdate(u)
			}
		}
	})

	for _, w := range e.workers {
		g.Go(func() error {
			e.logger.WithField("worker", w.Name()).Info("Starting worker")
			if err := w.Run(ctx, e.store, updates); err != nil {
				e.logger.WithField("worker", w.Name()).WithError(err).Error("Worker failed")
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// Store returns the engine's state store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// emit sends u unless ctx is done.
func emit(ctx context.Context, updates chan<- store.Update, u store.Update) bool {
	select {
	case updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
