package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/console/logging"
)

// Run shows the console until the user quits or ctx ends. While it runs,
// the session follows the scope of the active routes.
func Run(ctx context.Context, m *Model) error {
	InitializeTUI()
	logging.SetInteractive(true)
	defer logging.SetInteractive(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scopes, unsubscribe := m.Coordinator().SubscribeScope()
	defer unsubscribe()
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		m.opts.Session.Follow(ctx, scopes)
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.Close()
	cancel()
	<-followed
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
