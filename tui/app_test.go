package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/console/pkg/actions"
	"github.com/grovetools/console/pkg/activity"
	"github.com/grovetools/console/pkg/backend"
	"github.com/grovetools/console/pkg/guard"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/pkg/session"
	"github.com/grovetools/console/state"
)

type testModel struct {
	*Model
	t       *testing.T
	tracker *activity.Tracker
	store   *state.Store
}

func newTestModel(t *testing.T, scopes ...scope.Scope) *testModel {
	t.Helper()
	tracker := activity.NewTracker("")
	sess := session.New(backend.NewOfflineClient("http://offline"), tracker, actions.NewMerger(), session.Options{})
	store, err := state.Open(&state.MemoryPersister{})
	require.NoError(t, err)

	m := New(Options{Session: sess, Settings: store, Notes: store, Scopes: scopes})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	tm := &testModel{Model: m, t: t, tracker: tracker, store: store}
	require.NoError(t, m.router.Start(context.Background()))
	tm.sync()
	return tm
}

// sync delivers the coordinator state the subscriptions would deliver.
func (tm *testModel) sync() {
	tm.Update(stateMsg(tm.coord.State()))
}

// press sends keys and runs the resulting command inline.
func (tm *testModel) press(msgs ...tea.KeyMsg) {
	for _, msg := range msgs {
		_, cmd := tm.Update(msg)
		tm.exec(cmd)
	}
}

// exec runs cmd and feeds its message back, for commands that do not wait
// for a prompt.
func (tm *testModel) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case navigatedMsg:
		require.NoError(tm.t, msg.err)
		tm.Update(msg)
		tm.sync()
	case leaveMsg, resultMsg:
		tm.Update(msg)
	}
}

// pressAsync sends key and runs its command in the background, for
// navigations that stop at the confirm modal.
func (tm *testModel) pressAsync(msg tea.KeyMsg) <-chan tea.Msg {
	_, cmd := tm.Update(msg)
	require.NotNil(tm.t, cmd)
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	return out
}

// awaitPrompt delivers the next prompt to the model.
func (tm *testModel) awaitPrompt() {
	got := make(chan tea.Msg, 1)
	go func() { got <- tm.prompter.wait()() }()
	select {
	case msg := <-got:
		tm.Update(msg)
	case <-time.After(2 * time.Second):
		tm.t.Fatal("no prompt")
	}
	require.NotNil(tm.t, tm.prompt)
}

func receive(t *testing.T, ch <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("command did not finish")
		return nil
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func TestToggleMenuPersists(t *testing.T) {
	tm := newTestModel(t)

	tm.press(runes("m"))

	assert.True(t, tm.coord.State().MenuMaximized)
	assert.True(t, tm.store.MenuMaximized())

	tm.press(runes("m"))
	assert.False(t, tm.store.MenuMaximized())
}

func TestOpenAndCloseActivityDetail(t *testing.T) {
	tm := newTestModel(t)
	tm.tracker.Replace([]models.ActivitySnapshot{
		{ID: "a1", Name: "Build", Scope: scope.Scope{"g1"}, Current: 1, Max: 4},
		{ID: "a2", ParentID: "a1", Name: "Compile", Scope: scope.Scope{"g1"}},
	})
	tm.Update(activitiesMsg{})

	tm.press(keyEnter)

	target, routed := tm.router.Panel()
	require.True(t, routed)
	assert.Equal(t, ComponentActivity, target.Component)
	assert.Equal(t, "a1", target.Params[ParamActivityID])
	assert.True(t, tm.navState.PanelVisible)
	assert.Contains(t, tm.View(), "Compile")

	tm.press(keyEsc)

	_, routed = tm.router.Panel()
	assert.False(t, routed)
	assert.False(t, tm.navState.PanelVisible)
}

func TestActivitiesRememberScopes(t *testing.T) {
	tm := newTestModel(t)
	tm.tracker.Replace([]models.ActivitySnapshot{
		{ID: "a1", Name: "Build", Scope: scope.Scope{"g1", "i1", "r1"}},
	})
	tm.Update(activitiesMsg{})

	assert.Equal(t, []scope.Scope{nil, {"g1"}, {"g1", "i1"}}, tm.menu())
}

func TestDirtyNotesDiscard(t *testing.T) {
	tm := newTestModel(t)
	tm.press(runes("n"))
	require.IsType(t, &NotesEditor{}, tm.focused())

	tm.press(runes("h"), runes("i"))
	editor := tm.focused().(*NotesEditor)
	require.True(t, editor.IsDirty())

	done := tm.pressAsync(keyEsc)
	tm.awaitPrompt()
	assert.Contains(t, tm.View(), "discard")

	tm.press(runes("d"))
	assert.Nil(t, tm.prompt)

	msg := receive(t, done).(navigatedMsg)
	require.NoError(t, msg.err)
	assert.True(t, msg.ok)
	_, routed := tm.router.Panel()
	assert.False(t, routed)
	assert.Empty(t, tm.store.GetString(NotesKey(nil)))
}

func TestDirtyNotesSave(t *testing.T) {
	tm := newTestModel(t)
	tm.press(runes("n"))
	tm.press(runes("h"), runes("i"))

	done := tm.pressAsync(keyEsc)
	tm.awaitPrompt()
	tm.press(runes("s"))

	msg := receive(t, done).(navigatedMsg)
	require.NoError(t, msg.err)
	assert.True(t, msg.ok)
	assert.Equal(t, "hi", tm.store.GetString(NotesKey(nil)))
}

func TestSaveKeyWritesNotes(t *testing.T) {
	tm := newTestModel(t, scope.Scope{"g1"})
	tm.press(keyTab)
	require.Equal(t, scope.Scope{"g1"}, tm.currentScope())

	tm.press(runes("3"))
	tm.press(runes("o"), runes("k"))
	tm.press(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, "ok", tm.store.GetString(NotesKey(scope.Scope{"g1"})))
	assert.Equal(t, "Notes saved", tm.status)
	assert.False(t, tm.focused().(*NotesEditor).IsDirty())
}

func TestQuitStaysOnDirtyNotes(t *testing.T) {
	tm := newTestModel(t)
	tm.press(runes("3"))
	tm.press(runes("x"))

	done := tm.pressAsync(keyCtrlC)
	tm.awaitPrompt()
	assert.Equal(t, guard.RegionPrimary, tm.prompt.req.Region)
	tm.press(keyEsc)

	msg := receive(t, done).(leaveMsg)
	assert.False(t, msg.ok)
	tm.Update(msg)
	assert.False(t, tm.quitting)
	assert.Equal(t, ComponentNotes, tm.router.Primary().Component)
}

func TestQuitWhenClean(t *testing.T) {
	tm := newTestModel(t)

	_, cmd := tm.Update(runes("q"))
	require.NotNil(t, cmd)
	msg := cmd().(leaveMsg)
	require.True(t, msg.ok)

	_, quit := tm.Update(msg)
	assert.True(t, tm.quitting)
	assert.IsType(t, tea.QuitMsg{}, quit())
}

func TestPromptWithdrawal(t *testing.T) {
	tm := newTestModel(t)
	reply := make(chan guard.Choice, 1)

	tm.Update(confirmMsg{id: 1, req: guard.Request{Region: guard.RegionPanel}, reply: reply})
	require.NotNil(t, tm.prompt)

	tm.Update(confirmMsg{id: 2, withdrawn: true})
	assert.NotNil(t, tm.prompt, "withdrawing another prompt keeps this one")

	tm.Update(confirmMsg{id: 1, withdrawn: true})
	assert.Nil(t, tm.prompt)
}

func TestSaveIgnoredWhenRegionCannotSave(t *testing.T) {
	tm := newTestModel(t)
	reply := make(chan guard.Choice, 1)
	tm.Update(confirmMsg{id: 1, req: guard.Request{Region: guard.RegionPanel, CanSave: false}, reply: reply})

	tm.press(runes("s"))
	assert.NotNil(t, tm.prompt)
	assert.Empty(t, reply)

	tm.press(runes("c"))
	assert.Nil(t, tm.prompt)
	assert.Equal(t, guard.ChoiceStay, <-reply)
}

func TestStepScope(t *testing.T) {
	tm := newTestModel(t, scope.Scope{"g1", "i1"})

	tm.press(keyTab)
	assert.Equal(t, scope.Scope{"g1"}, tm.coord.Scope())
	tm.press(keyTab)
	assert.Equal(t, scope.Scope{"g1", "i1"}, tm.coord.Scope())
	tm.press(keyTab)
	assert.Empty(t, tm.coord.Scope())

	tm.press(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, scope.Scope{"g1", "i1"}, tm.coord.Scope())
	assert.Equal(t, ComponentActivities, tm.router.Primary().Component)
}

func TestCursorSequence(t *testing.T) {
	tm := newTestModel(t)
	tm.tracker.Replace([]models.ActivitySnapshot{
		{ID: "a1", Name: "One"},
		{ID: "a2", Name: "Two"},
		{ID: "a3", Name: "Three"},
	})
	tm.Update(activitiesMsg{})
	page := tm.router.Mounted(guard.RegionPrimary).(*activitiesPage)

	tm.press(runes("j"), runes("j"))
	assert.Equal(t, 2, page.cursor)

	tm.press(runes("g"))
	assert.Equal(t, 2, page.cursor, "a single g waits for the sequence")
	tm.press(runes("g"))
	assert.Equal(t, 0, page.cursor)

	tm.press(runes("G"))
	assert.Equal(t, 2, page.cursor)
}

func TestHelpOverlay(t *testing.T) {
	tm := newTestModel(t)

	tm.press(runes("?"))
	assert.True(t, tm.showHelp)
	assert.Contains(t, tm.View(), "Regions")

	tm.press(runes("j"))
	assert.False(t, tm.showHelp)
}

func TestOfflineHeader(t *testing.T) {
	tm := newTestModel(t)
	assert.Contains(t, tm.View(), "offline")

	tm.Update(onlineMsg(true))
	assert.Contains(t, tm.View(), "live")
}
