package tui

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/console/pkg/scope"
)

// notesLimit is the longest note that can be saved.
const notesLimit = 4000

// NotesStore persists notes. *state.Store implements it.
type NotesStore interface {
	GetString(key string) string
	Set(key string, value interface{}) error
}

// NotesEditor is a free-text editor for notes about a scope. It holds
// unsaved changes until saved, so the router registers it with the guard.
type NotesEditor struct {
	store NotesStore
	key   string

	// area is only touched by the bubbletea loop.
	area textarea.Model

	// mu guards the fields the guard reads from the navigation goroutine.
	mu      sync.Mutex
	saved   string
	current string
}

// NotesKey is the settings key holding the notes of sc.
func NotesKey(sc scope.Scope) string {
	if len(sc) == 0 {
		return "notes"
	}
	return "notes." + sc.String()
}

// NewNotesEditor loads the notes of sc from store, which may be nil.
func NewNotesEditor(store NotesStore, sc scope.Scope) *NotesEditor {
	area := textarea.New()
	area.Placeholder = "Notes for this scope..."
	area.CharLimit = 0
	area.ShowLineNumbers = false

	e := &NotesEditor{store: store, key: NotesKey(sc), area: area}
	if store != nil {
		e.saved = store.GetString(e.key)
	}
	e.current = e.saved
	e.area.SetValue(e.saved)
	e.area.Focus()
	return e
}

// IsDirty reports unsaved changes.
func (e *NotesEditor) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != e.saved
}

// CanSave is false while the text is over the limit.
func (e *NotesEditor) CanSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len([]rune(e.current)) <= notesLimit
}

// DoSave writes the notes to the store.
func (e *NotesEditor) DoSave(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if len([]rune(e.current)) > notesLimit {
		return false, nil
	}
	if e.store != nil {
		if err := e.store.Set(e.key, e.current); err != nil {
			return false, err
		}
	}
	e.saved = e.current
	return true, nil
}

// Value returns the text being edited.
func (e *NotesEditor) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Update forwards msg to the text area.
func (e *NotesEditor) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	value := e.area.Value()

	e.mu.Lock()
	e.current = value
	e.mu.Unlock()
	return cmd
}

// SetSize fits the text area into a region.
func (e *NotesEditor) SetSize(width, height int) {
	e.area.SetWidth(max(width, 10))
	e.area.SetHeight(max(height, 3))
}

// Status is a one-line summary for the region title.
func (e *NotesEditor) Status() string {
	n := len([]rune(e.Value()))
	switch {
	case n > notesLimit:
		return fmt.Sprintf("%d/%d, too long to save", n, notesLimit)
	case e.IsDirty():
		return fmt.Sprintf("%d/%d, modified", n, notesLimit)
	default:
		return fmt.Sprintf("%d/%d", n, notesLimit)
	}
}

// View renders the text area.
func (e *NotesEditor) View() string {
	return e.area.View()
}
