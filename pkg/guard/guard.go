package guard

import (
	"context"
	"sync"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/logging"
	"github.com/grovetools/console/pkg/observe"
)

var log = logging.NewLogger("guard")

// Phase is the state of the confirmation flow.
type Phase string

const (
	PhaseIdle                   Phase = "idle"
	PhaseAwaitingPanelConfirm   Phase = "awaiting-panel-confirm"
	PhaseAwaitingPrimaryConfirm Phase = "awaiting-primary-confirm"
	PhaseResolved               Phase = "resolved"
)

// Options modify a single deactivation check.
type Options struct {
	// Bypass skips every check, e.g. for logout or forced redirects.
	Bypass bool
}

// Guard decides whether a component may be deactivated. Only one flow runs
// at a time: a new CanDeactivate cancels the outstanding one, which then
// resolves as denied, and waits for it to unwind.
type Guard struct {
	registry  *Registry
	confirmer Confirmer
	panel     PanelControl

	phase *observe.Value[Phase]

	mu      sync.Mutex
	current *flow
}

type flow struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	parent context.Context

	// panelHidden is set once the panel was hidden by this flow.
	panelHidden bool
}

// New creates a Guard.
func New(registry *Registry, confirmer Confirmer, panel PanelControl) *Guard {
	return &Guard{
		registry:  registry,
		confirmer: confirmer,
		panel:     panel,
		phase:     observe.NewValue(PhaseIdle),
	}
}

// Phase returns the current phase.
func (g *Guard) Phase() Phase { return g.phase.Get() }

// SubscribePhase streams phase changes.
func (g *Guard) SubscribePhase() (<-chan Phase, func()) { return g.phase.Subscribe() }

// CanDeactivate runs the unsaved-changes protocol for component, which is
// the registrant of the region being left or any other value. A false
// result denies the navigation; the error, if any, says why.
func (g *Guard) CanDeactivate(ctx context.Context, component any, opts Options) (bool, error) {
	if opts.Bypass {
		return true, nil
	}

	f := g.begin(ctx)
	defer g.end(f)

	allowed, err := g.decide(f, component)
	if !allowed && f.panelHidden {
		g.panel.ShowPanel()
	}
	if allowed && f.panelHidden {
		g.panel.ClosePanelAfterNavigation()
	}
	return allowed, err
}

func (g *Guard) decide(f *flow, component any) (bool, error) {
	deactivating, registered := g.registry.RegionOf(component)
	panelD := g.registry.Get(RegionPanel)

	if panelD != nil && panelD.IsDirty() && deactivating != RegionPanel {
		ok, err := g.resolve(f, RegionPanel, panelD, PhaseAwaitingPanelConfirm, true)
		if !ok {
			return false, err
		}

		primaryD := g.registry.Get(RegionPrimary)
		if primaryD == nil || !primaryD.IsDirty() {
			return true, nil
		}
		return g.resolve(f, RegionPrimary, primaryD, PhaseAwaitingPrimaryConfirm, false)
	}

	// A clean panel goes whenever anything but the panel itself is left,
	// including primary pages that never registered.
	if panelD != nil && deactivating != RegionPanel {
		g.hidePanel(f)
	}

	if !registered {
		return true, nil
	}
	d := g.registry.Get(deactivating)
	if d == nil || !d.IsDirty() {
		return true, nil
	}
	phase := PhaseAwaitingPrimaryConfirm
	if deactivating == RegionPanel {
		phase = PhaseAwaitingPanelConfirm
	}
	return g.resolve(f, deactivating, d, phase, false)
}

// resolve asks about one dirty region and carries out the answer. With
// hideFirst the panel is hidden as soon as the user did not choose Stay,
// before any save runs.
func (g *Guard) resolve(f *flow, region Region, d Dirtyable, phase Phase, hideFirst bool) (bool, error) {
	g.phase.Set(phase)
	req := requestFor(region, d)
	choice, err := g.confirmer.Confirm(f.ctx, req)

	if cerr := g.interrupted(f); cerr != nil {
		return false, cerr
	}
	if err != nil {
		return false, err
	}

	logger := log.WithField("region", region).WithField("choice", choice)
	switch choice {
	case ChoiceDiscard:
	case ChoiceSave:
		if !req.CanSave {
			logger.Warn("Save chosen for a region that cannot save, staying")
			return false, nil
		}
	default:
		logger.Debug("Navigation denied")
		return false, nil
	}

	if hideFirst {
		g.hidePanel(f)
	}

	if choice == ChoiceSave {
		ok, err := d.DoSave(f.ctx)
		if err != nil || !ok {
			logger.WithError(err).Warn("Save failed, navigation cancelled")
			return false, cerrors.SaveFailed(string(region), err)
		}
	}
	logger.Debug("Region resolved")
	return true, nil
}

// interrupted reports why the flow's context ended, if it did.
func (g *Guard) interrupted(f *flow) error {
	if f.ctx.Err() == nil {
		return nil
	}
	if f.parent.Err() != nil {
		return cerrors.Wrap(f.parent.Err(), cerrors.ErrCodeNavigationCancelled, "navigation cancelled")
	}
	return cerrors.New(cerrors.ErrCodeConfirmSuperseded, "confirmation superseded by a newer navigation")
}

func (g *Guard) hidePanel(f *flow) {
	if g.panel == nil || f.panelHidden {
		return
	}
	g.panel.HidePanel()
	f.panelHidden = true
}

// begin supersedes any outstanding flow and waits for it to unwind.
func (g *Guard) begin(ctx context.Context) *flow {
	fctx, cancel := context.WithCancel(ctx)
	f := &flow{ctx: fctx, cancel: cancel, done: make(chan struct{}), parent: ctx}

	g.mu.Lock()
	prev := g.current
	g.current = f
	g.mu.Unlock()

	if prev != nil {
		log.Debug("Superseding outstanding confirmation")
		prev.cancel()
		<-prev.done
	}
	return f
}

func (g *Guard) end(f *flow) {
	f.cancel()
	g.mu.Lock()
	last := g.current == f
	if last {
		g.current = nil
	}
	g.mu.Unlock()
	if last {
		g.phase.Set(PhaseResolved)
		g.phase.Set(PhaseIdle)
	}
	close(f.done)
}
