package tui

import (
	"fmt"
	"maps"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	cerrors "github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/guard"
	"github.com/grovetools/console/pkg/nav"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/tui/keymap"
)

// Update handles messages and updates the model accordingly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case activitiesMsg:
		m.forest = m.opts.Session.Tracker().Forest()
		for _, s := range m.opts.Session.Tracker().Snapshots() {
			m.remember(s.Scope)
		}
		return m, m.listenActivities()

	case actionsMsg:
		m.actions = msg
		for _, b := range msg {
			m.remember(b.Action.Scope())
		}
		return m, m.listenActions()

	case stateMsg:
		m.navState = nav.State(msg)
		return m, m.listenState()

	case phaseMsg:
		m.phase = guard.Phase(msg)
		return m, m.listenPhase()

	case onlineMsg:
		m.online = bool(msg)
		return m, m.listenOnline()

	case confirmMsg:
		switch {
		case !msg.withdrawn:
			m.prompt = &prompt{id: msg.id, req: msg.req, reply: msg.reply}
		case m.prompt != nil && m.prompt.id == msg.id:
			m.prompt = nil
		}
		return m, m.prompter.wait()

	case navigatedMsg:
		m.report(msg.err, "")
		return m, nil

	case leaveMsg:
		if msg.ok {
			m.quitting = true
			m.Close()
			return m, tea.Quit
		}
		m.report(msg.err, "")
		return m, nil

	case resultMsg:
		m.report(msg.err, msg.status)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Cursor blink and other component messages.
	if e, ok := m.focused().(*NotesEditor); ok {
		return m, e.Update(msg)
	}
	return m, nil
}

// report shows err, or status when err is nil. Denied navigations without
// an error leave the status alone.
func (m *Model) report(err error, status string) {
	if err != nil {
		if cerrors.Is(err, cerrors.ErrCodeConfirmSuperseded) {
			return
		}
		m.err = err
		m.status = ""
		log.WithError(err).Debug("Operation failed")
		return
	}
	if status != "" {
		m.err = nil
		m.status = status
	}
}

// focused returns the component receiving keys: the panel while it is
// shown, otherwise the primary page.
func (m *Model) focused() any {
	if m.navState.PanelVisible {
		if c := m.router.Mounted(guard.RegionPanel); c != nil {
			return c
		}
	}
	return m.router.Mounted(guard.RegionPrimary)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		return m, m.handlePromptKey(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if e, ok := m.focused().(*NotesEditor); ok {
		return m, m.handleEditorKey(e, msg)
	}

	if seqs := m.keys.Sequences(); len(seqs) > 0 {
		switch res, _ := m.seq.Process(msg, seqs...); res {
		case keymap.SequenceMatch:
			m.moveCursor(-1 << 30)
			return m, nil
		case keymap.SequencePending:
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.leave()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.ToggleMenu):
		if err := m.coord.ToggleMenuMaximized(); err != nil {
			m.report(err, "")
		}
	case key.Matches(msg, m.keys.NextScope):
		return m, m.stepScope(1)
	case key.Matches(msg, m.keys.PrevScope):
		return m, m.stepScope(-1)
	case key.Matches(msg, m.keys.Activities):
		return m, m.showPrimary(ComponentActivities)
	case key.Matches(msg, m.keys.Actions):
		return m, m.showPrimary(ComponentActions)
	case key.Matches(msg, m.keys.NotesPage):
		return m, m.showPrimary(ComponentNotes)
	case key.Matches(msg, m.keys.Notes):
		return m, m.navigate(Request{Panel: &Target{Component: ComponentNotes, Params: scopeParams(m.currentScope())}})
	case key.Matches(msg, m.keys.Back):
		if _, routed := m.router.Panel(); routed {
			return m, m.navigate(Request{ClosePanel: true})
		}
	case key.Matches(msg, m.keys.MaximizePanel):
		if t, routed := m.router.Panel(); routed {
			t.Maximized = !t.Maximized
			return m, m.navigate(Request{Panel: &t})
		}
	case key.Matches(msg, m.keys.Open):
		if node := m.selectedActivity(); node != "" {
			return m, m.navigate(Request{Panel: &Target{
				Component: ComponentActivity,
				Params:    map[string]string{ParamActivityID: node},
			}})
		}
	case key.Matches(msg, m.keys.CancelActivity):
		return m, m.cancelActivity()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.bodyHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.bodyHeight())
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-1 << 30)
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(1 << 30)
	}
	return m, nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	p := m.prompt
	switch {
	case key.Matches(msg, m.keys.ChooseSave):
		if !p.req.CanSave {
			return nil
		}
		p.answer(guard.ChoiceSave)
	case key.Matches(msg, m.keys.ChooseDiscard):
		p.answer(guard.ChoiceDiscard)
	case key.Matches(msg, m.keys.ChooseStay):
		p.answer(guard.ChoiceStay)
	default:
		return nil
	}
	m.prompt = nil
	return nil
}

// handleEditorKey sends everything but the region keys to the editor.
func (m *Model) handleEditorKey(e *NotesEditor, msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m.leave()
	case key.Matches(msg, m.keys.Save):
		return m.save(e)
	case key.Matches(msg, m.keys.Back):
		if _, routed := m.router.Panel(); routed && m.navState.PanelVisible {
			return m.navigate(Request{ClosePanel: true})
		}
		return m.showPrimary(ComponentActivities)
	}
	return e.Update(msg)
}

func (m *Model) save(e *NotesEditor) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ok, err := e.DoSave(ctx)
		switch {
		case err != nil:
			return resultMsg{err: cerrors.SaveFailed("notes", err)}
		case !ok:
			return resultMsg{err: cerrors.SaveFailed("notes", nil)}
		}
		return resultMsg{status: "Notes saved"}
	}
}

// showPrimary routes the primary outlet to component within the current
// scope.
func (m *Model) showPrimary(component string) tea.Cmd {
	return m.navigate(Request{Primary: &Target{
		Component: component,
		Params:    scopeParams(m.currentScope()),
	}})
}

// stepScope moves through the scope menu, keeping the primary page.
func (m *Model) stepScope(delta int) tea.Cmd {
	entries := m.menu()
	cur := m.currentScope()
	idx := 0
	for i, sc := range entries {
		if sc.Equal(cur) {
			idx = i
			break
		}
	}
	next := entries[(idx+delta+len(entries))%len(entries)]

	t := m.router.Primary()
	t.Params = maps.Clone(t.Params)
	if t.Params == nil {
		t.Params = map[string]string{}
	}
	maps.DeleteFunc(t.Params, func(k, _ string) bool { return k == nav.ParamGroup || k == nav.ParamInstance })
	maps.Copy(t.Params, scopeParams(next))
	return m.navigate(Request{Primary: &t})
}

func (m *Model) selectedActivity() string {
	page, ok := m.router.Mounted(guard.RegionPrimary).(*activitiesPage)
	if !ok {
		return ""
	}
	if node := page.selected(m.forest); node != nil {
		return node.Snapshot.ID
	}
	return ""
}

func (m *Model) cancelActivity() tea.Cmd {
	id := m.selectedActivity()
	if d, ok := m.focused().(*activityDetail); ok {
		id = d.id
	}
	if id == "" || m.opts.Client == nil {
		return nil
	}
	client, ctx := m.opts.Client, m.ctx
	return func() tea.Msg {
		if err := client.CancelActivity(ctx, id); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: fmt.Sprintf("Cancel requested for %s", id)}
	}
}

func (m *Model) refresh() tea.Cmd {
	s, ctx := m.opts.Session, m.ctx
	return func() tea.Msg {
		if err := s.Refresh(ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: "Refreshed " + scopeLabel(s.Scope())}
	}
}

func (m *Model) moveCursor(delta int) {
	switch page := m.router.Mounted(guard.RegionPrimary).(type) {
	case *activitiesPage:
		page.move(delta, len(page.rows(m.forest)))
	case *actionsPage:
		page.move(delta, len(page.filter(m.actions)))
	}
}

func scopeLabel(sc scope.Scope) string {
	if len(sc) == 0 {
		return "everything"
	}
	return sc.String()
}
