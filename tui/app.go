package tui

import (
	"context"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/console/pkg/activity"
	"github.com/grovetools/console/pkg/backend"
	"github.com/grovetools/console/pkg/guard"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/nav"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/pkg/session"
	"github.com/grovetools/console/tui/keymap"
	"github.com/grovetools/console/tui/theme"
)

// Options configures the front end.
type Options struct {
	Session *session.Session
	// Client cancels activities. It may be nil.
	Client backend.Client
	// Settings persists the menu flag. It may be nil.
	Settings nav.Settings
	// Notes persists the notes editor. It may be nil.
	Notes NotesStore
	Keys  keymap.KeyMap
	Theme *theme.Theme
	// Scopes seed the scope menu. Scopes seen in activities and actions
	// are added as they show up.
	Scopes []scope.Scope
	// Initial is the scope selected at startup.
	Initial scope.Scope
}

// Model is the bubbletea model of the console.
type Model struct {
	opts  Options
	keys  keymap.KeyMap
	theme *theme.Theme

	ctx    context.Context
	cancel context.CancelFunc

	registry *guard.Registry
	prompter *Prompter
	router   *Router
	coord    *nav.Coordinator
	guard    *guard.Guard

	help help.Model
	bar  progress.Model
	seq  *keymap.SequenceState

	activitiesCh <-chan []models.ActivitySnapshot
	actionsCh    <-chan []models.ActionBroadcast
	stateCh      <-chan nav.State
	phaseCh      <-chan guard.Phase
	onlineCh     <-chan bool
	unsubscribe  []func()

	forest   activity.Forest
	actions  []models.ActionBroadcast
	navState nav.State
	phase    guard.Phase
	online   bool
	known    map[string]scope.Scope
	prompt   *prompt
	status   string
	err      error
	showHelp bool
	width    int
	height   int
	quitting bool
}

// New builds the navigation stack: router, coordinator, guard and the
// modal prompter the guard asks through.
func New(opts Options) *Model {
	if opts.Theme == nil {
		opts.Theme = theme.DefaultTheme
	}
	if len(opts.Keys.Quit.Keys()) == 0 {
		opts.Keys = keymap.DefaultVim()
	}

	ctx, cancel := context.WithCancel(context.Background())
	width, height := TerminalSize()
	m := &Model{
		opts:     opts,
		keys:     opts.Keys,
		theme:    opts.Theme,
		ctx:      ctx,
		cancel:   cancel,
		registry: guard.NewRegistry(),
		prompter: NewPrompter(),
		help:     help.New(),
		bar:      progress.New(progress.WithWidth(12), progress.WithoutPercentage(), progress.WithSolidFill("#7E9CD8")),
		seq:      keymap.NewSequenceState(),
		phase:    guard.PhaseIdle,
		known:    make(map[string]scope.Scope),
		width:    width,
		height:   height,
	}
	for _, sc := range opts.Scopes {
		m.remember(sc)
	}

	m.router = NewRouter(m.registry, m.factories(), Target{
		Component: ComponentActivities,
		Params:    scopeParams(opts.Initial),
	})
	m.coord = nav.NewCoordinator(m.router, opts.Settings)
	m.guard = guard.New(m.registry, m.prompter, m.coord)
	m.router.Attach(m.guard, m.coord)
	return m
}

// Coordinator exposes the navigation state, e.g. to follow its scope.
func (m *Model) Coordinator() *nav.Coordinator { return m.coord }

// Router exposes the router.
func (m *Model) Router() *Router { return m.router }

// Close stops the model's subscriptions and pending navigations.
func (m *Model) Close() {
	m.cancel()
	for _, off := range m.unsubscribe {
		off()
	}
	m.unsubscribe = nil
}

func (m *Model) factories() map[string]Factory {
	return map[string]Factory{
		ComponentActivities: func(guard.Region, Target) any {
			return &activitiesPage{}
		},
		ComponentActions: func(_ guard.Region, t Target) any {
			return &actionsPage{scope: targetScope(t)}
		},
		ComponentActivity: func(_ guard.Region, t Target) any {
			return &activityDetail{id: t.Params[ParamActivityID]}
		},
		ComponentNotes: func(_ guard.Region, t Target) any {
			return NewNotesEditor(m.opts.Notes, targetScope(t))
		},
	}
}

// Messages delivered to Update.
type (
	activitiesMsg struct{}
	actionsMsg    []models.ActionBroadcast
	stateMsg      nav.State
	phaseMsg      guard.Phase
	onlineMsg     bool

	navigatedMsg struct {
		ok  bool
		err error
	}
	leaveMsg struct {
		ok  bool
		err error
	}
	resultMsg struct {
		status string
		err    error
	}
)

// listen turns one observable channel into a stream of messages.
func listen[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

func (m *Model) listenActivities() tea.Cmd {
	return listen(m.activitiesCh, func([]models.ActivitySnapshot) tea.Msg { return activitiesMsg{} })
}

func (m *Model) listenActions() tea.Cmd {
	return listen(m.actionsCh, func(v []models.ActionBroadcast) tea.Msg { return actionsMsg(v) })
}

func (m *Model) listenState() tea.Cmd {
	return listen(m.stateCh, func(v nav.State) tea.Msg { return stateMsg(v) })
}

func (m *Model) listenPhase() tea.Cmd {
	return listen(m.phaseCh, func(v guard.Phase) tea.Msg { return phaseMsg(v) })
}

func (m *Model) listenOnline() tea.Cmd {
	return listen(m.onlineCh, func(v bool) tea.Msg { return onlineMsg(v) })
}

// Init subscribes to every observable and reports the initial route.
func (m *Model) Init() tea.Cmd {
	var off func()
	m.activitiesCh, off = m.opts.Session.Tracker().Subscribe()
	m.unsubscribe = append(m.unsubscribe, off)
	m.actionsCh, off = m.opts.Session.Merger().Subscribe()
	m.unsubscribe = append(m.unsubscribe, off)
	m.stateCh, off = m.coord.SubscribeState()
	m.unsubscribe = append(m.unsubscribe, off)
	m.phaseCh, off = m.guard.SubscribePhase()
	m.unsubscribe = append(m.unsubscribe, off)
	m.onlineCh, off = m.opts.Session.SubscribeOnline()
	m.unsubscribe = append(m.unsubscribe, off)

	router, ctx := m.router, m.ctx
	start := func() tea.Msg {
		return navigatedMsg{ok: true, err: router.Start(ctx)}
	}
	return tea.Batch(
		start,
		m.listenActivities(),
		m.listenActions(),
		m.listenState(),
		m.listenPhase(),
		m.listenOnline(),
		m.prompter.wait(),
	)
}

// navigate runs req off the bubbletea loop, since the guard may block on
// the confirm modal which itself needs the loop.
func (m *Model) navigate(req Request) tea.Cmd {
	router, ctx := m.router, m.ctx
	return func() tea.Msg {
		ok, err := router.Navigate(ctx, req)
		return navigatedMsg{ok: ok, err: err}
	}
}

func (m *Model) leave() tea.Cmd {
	router, ctx := m.router, m.ctx
	return func() tea.Msg {
		ok, err := router.Leave(ctx)
		return leaveMsg{ok: ok, err: err}
	}
}

// remember adds sc and its group to the scope menu.
func (m *Model) remember(sc scope.Scope) {
	for n := 1; n <= len(sc) && n <= 2; n++ {
		trimmed := append(scope.Scope(nil), sc.Trim(n)...)
		m.known[trimmed.String()] = trimmed
	}
}

// menu returns the scope menu: everything first, then known scopes in
// alphabetical order so a group precedes its instances.
func (m *Model) menu() []scope.Scope {
	keys := make([]string, 0, len(m.known))
	for k := range m.known {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]scope.Scope, 0, len(keys)+1)
	entries = append(entries, nil)
	for _, k := range keys {
		entries = append(entries, m.known[k])
	}
	return entries
}

func (m *Model) currentScope() scope.Scope {
	return m.navState.Context.Scope()
}

func scopeParams(sc scope.Scope) map[string]string {
	params := map[string]string{}
	if len(sc) > 0 {
		params[nav.ParamGroup] = sc[0]
	}
	if len(sc) > 1 {
		params[nav.ParamInstance] = sc[1]
	}
	return params
}

func targetScope(t Target) scope.Scope {
	return nav.Context{
		Group:    t.Params[nav.ParamGroup],
		Instance: t.Params[nav.ParamInstance],
	}.Scope()
}
