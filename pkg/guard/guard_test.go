package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/testutil"
)

type fakePanel struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePanel) record(e string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *fakePanel) HidePanel()                 { p.record("hide") }
func (p *fakePanel) ShowPanel()                 { p.record("show") }
func (p *fakePanel) ClosePanelAfterNavigation() { p.record("close") }

func (p *fakePanel) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// scripted answers each request with the next choice for its region.
type scripted struct {
	mu       sync.Mutex
	answers  map[Region][]Choice
	requests []Request
}

func script(answers map[Region][]Choice) *scripted {
	return &scripted{answers: answers}
}

func (s *scripted) Confirm(_ context.Context, req Request) (Choice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	queue := s.answers[req.Region]
	if len(queue) == 0 {
		return ChoiceStay, errors.New("unexpected confirmation for " + string(req.Region))
	}
	s.answers[req.Region] = queue[1:]
	return queue[0], nil
}

func (s *scripted) regions() []Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Region
	for _, r := range s.requests {
		out = append(out, r.Region)
	}
	return out
}

type fixture struct {
	registry *Registry
	panel    *fakePanel
	primaryD *testutil.FakeDirtyable
	panelD   *testutil.FakeDirtyable
}

func newFixture(primaryDirty, panelDirty bool) *fixture {
	f := &fixture{
		registry: NewRegistry(),
		panel:    &fakePanel{},
		primaryD: testutil.NewFakeDirtyable(),
		panelD:   testutil.NewFakeDirtyable(),
	}
	f.primaryD.Dirty = primaryDirty
	f.panelD.Dirty = panelDirty
	f.registry.Register(RegionPrimary, f.primaryD)
	f.registry.Register(RegionPanel, f.panelD)
	return f
}

func (f *fixture) guard(c Confirmer) *Guard {
	return New(f.registry, c, f.panel)
}

func TestBypassSkipsEverything(t *testing.T) {
	f := newFixture(true, true)
	c := script(nil)
	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{Bypass: true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, c.regions())
	assert.Empty(t, f.panel.calls())
}

// Panel dirty, primary clean, Discard: allowed, panel force-closed,
// primary untouched.
func TestScenarioPanelDiscard(t *testing.T) {
	f := newFixture(false, true)
	c := script(map[Region][]Choice{RegionPanel: {ChoiceDiscard}})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Region{RegionPanel}, c.regions())
	assert.Equal(t, []string{"hide", "close"}, f.panel.calls())
	assert.Equal(t, 0, f.panelD.Saves())
	assert.Equal(t, 0, f.primaryD.Saves())
}

// Panel dirty, primary dirty, Save on panel then Discard on primary.
func TestScenarioPanelSaveThenPrimaryDiscard(t *testing.T) {
	f := newFixture(true, true)
	c := script(map[Region][]Choice{
		RegionPanel:   {ChoiceSave},
		RegionPrimary: {ChoiceDiscard},
	})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Region{RegionPanel, RegionPrimary}, c.regions())
	assert.Equal(t, 1, f.panelD.Saves())
	assert.Equal(t, 0, f.primaryD.Saves())
	assert.Equal(t, []string{"hide", "close"}, f.panel.calls())
}

// The deactivating component is dirty and the user stays.
func TestScenarioSelfDirtyStay(t *testing.T) {
	f := newFixture(true, false)
	c := script(map[Region][]Choice{RegionPrimary: {ChoiceStay}})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, f.primaryD.Saves())
	assert.Equal(t, 0, f.panelD.Saves())
	// The clean panel was hidden pre-emptively and comes back on deny.
	assert.Equal(t, []string{"hide", "show"}, f.panel.calls())
}

func TestPanelStayDenies(t *testing.T) {
	f := newFixture(true, true)
	c := script(map[Region][]Choice{RegionPanel: {ChoiceStay}})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.panel.calls(), "panel never hidden")
}

func TestPrimaryStayReopensPanel(t *testing.T) {
	f := newFixture(true, true)
	c := script(map[Region][]Choice{
		RegionPanel:   {ChoiceDiscard},
		RegionPrimary: {ChoiceStay},
	})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"hide", "show"}, f.panel.calls())
}

func TestSaveFailureDenies(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *testutil.FakeDirtyable)
	}{
		{"false result", func(d *testutil.FakeDirtyable) { d.SaveOK = false }},
		{"error", func(d *testutil.FakeDirtyable) { d.SaveErr = errors.New("conflict") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false, true)
			tt.setup(f.panelD)
			c := script(map[Region][]Choice{RegionPanel: {ChoiceSave}})

			ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
			assert.False(t, ok)
			assert.True(t, cerrors.Is(err, cerrors.ErrCodeSaveFailed))
			assert.Equal(t, 1, f.panelD.Saves())
			assert.True(t, f.panelD.IsDirty(), "dirty region stays open")
			assert.Equal(t, []string{"hide", "show"}, f.panel.calls())
		})
	}
}

func TestSelfSave(t *testing.T) {
	f := newFixture(true, false)
	f.registry.Unregister(RegionPanel, f.panelD)
	c := script(map[Region][]Choice{RegionPrimary: {ChoiceSave}})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.primaryD.Saves())
	assert.Empty(t, f.panel.calls())
}

func TestCannotSaveOffersNoSave(t *testing.T) {
	f := newFixture(true, false)
	f.primaryD.Saveable = false
	c := script(map[Region][]Choice{RegionPrimary: {ChoiceSave}})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, c.requests, 1)
	assert.False(t, c.requests[0].CanSave)
	assert.Equal(t, 0, f.primaryD.Saves())
}

func TestPanelLeavingItselfAsksPanel(t *testing.T) {
	f := newFixture(true, true)
	c := script(map[Region][]Choice{RegionPanel: {ChoiceDiscard}})

	ok, err := f.guard(c).CanDeactivate(context.Background(), f.panelD, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Region{RegionPanel}, c.regions(), "primary is not asked when the panel closes itself")
	assert.Empty(t, f.panel.calls())
}

func TestUnregisteredComponentAllowed(t *testing.T) {
	f := newFixture(true, false)
	f.registry.Unregister(RegionPanel, f.panelD)
	ok, err := f.guard(script(nil)).CanDeactivate(context.Background(), "some other view", Options{})
	require.NoError(t, err)
	assert.True(t, ok)
}

type plainPage struct{}

func TestUnregisteredPrimaryClosesCleanPanel(t *testing.T) {
	f := newFixture(false, false)
	f.registry.Unregister(RegionPrimary, f.primaryD)
	c := script(nil)

	ok, err := f.guard(c).CanDeactivate(context.Background(), &plainPage{}, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, c.regions())
	assert.Equal(t, []string{"hide", "close"}, f.panel.calls())
}

func TestNewRequestSupersedesOutstanding(t *testing.T) {
	f := newFixture(true, false)
	f.registry.Unregister(RegionPanel, f.panelD)

	asked := make(chan struct{}, 2)
	var calls int
	var mu sync.Mutex
	c := ConfirmFunc(func(ctx context.Context, req Request) (Choice, error) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		asked <- struct{}{}
		if first {
			<-ctx.Done()
			return ChoiceStay, ctx.Err()
		}
		return ChoiceDiscard, nil
	})
	g := f.guard(c)

	type result struct {
		ok  bool
		err error
	}
	firstDone := make(chan result, 1)
	go func() {
		ok, err := g.CanDeactivate(context.Background(), f.primaryD, Options{})
		firstDone <- result{ok, err}
	}()
	<-asked
	assert.Equal(t, PhaseAwaitingPrimaryConfirm, g.Phase())

	ok, err := g.CanDeactivate(context.Background(), f.primaryD, Options{})
	require.NoError(t, err)
	assert.True(t, ok)

	select {
	case r := <-firstDone:
		assert.False(t, r.ok)
		assert.True(t, cerrors.Is(r.err, cerrors.ErrCodeConfirmSuperseded))
	case <-time.After(2 * time.Second):
		t.Fatal("superseded flow did not resolve")
	}
	assert.Equal(t, PhaseIdle, g.Phase())
}

func TestCallerCancellationDenies(t *testing.T) {
	f := newFixture(true, false)
	ctx, cancel := context.WithCancel(context.Background())
	c := ConfirmFunc(func(ctx context.Context, req Request) (Choice, error) {
		cancel()
		<-ctx.Done()
		return ChoiceStay, ctx.Err()
	})

	ok, err := f.guard(c).CanDeactivate(ctx, f.primaryD, Options{})
	assert.False(t, ok)
	assert.True(t, cerrors.Is(err, cerrors.ErrCodeNavigationCancelled))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := testutil.NewFakeDirtyable()
	b := testutil.NewFakeDirtyable()

	unregister := r.Register(RegionPrimary, a)
	region, ok := r.RegionOf(a)
	assert.True(t, ok)
	assert.Equal(t, RegionPrimary, region)

	r.Register(RegionPrimary, b)
	unregister()
	assert.Same(t, b, r.Get(RegionPrimary), "stale unregister keeps the new registrant")

	_, ok = r.RegionOf(struct{ s []int }{})
	assert.False(t, ok, "uncomparable values never match")
	assert.Nil(t, r.Get(RegionPanel))
}
