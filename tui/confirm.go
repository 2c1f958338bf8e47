package tui

import (
	"context"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grovetools/console/pkg/guard"
)

// confirmMsg carries a prompt, or the withdrawal of one, into the
// bubbletea loop.
type confirmMsg struct {
	id        uint64
	req       guard.Request
	reply     chan<- guard.Choice
	withdrawn bool
}

// Prompter implements guard.Confirmer by handing requests to the
// bubbletea loop, which shows a modal and answers on the reply channel.
type Prompter struct {
	events chan confirmMsg
	seq    atomic.Uint64
}

// NewPrompter creates a Prompter.
func NewPrompter() *Prompter {
	return &Prompter{events: make(chan confirmMsg, 8)}
}

// Confirm blocks until the user answers or ctx ends. A withdrawn prompt
// answers Stay together with the context error.
func (p *Prompter) Confirm(ctx context.Context, req guard.Request) (guard.Choice, error) {
	id := p.seq.Add(1)
	reply := make(chan guard.Choice, 1)

	select {
	case p.events <- confirmMsg{id: id, req: req, reply: reply}:
	case <-ctx.Done():
		return guard.ChoiceStay, ctx.Err()
	}

	select {
	case choice := <-reply:
		return choice, nil
	case <-ctx.Done():
		select {
		case p.events <- confirmMsg{id: id, withdrawn: true}:
		default:
			log.WithField("prompt", id).Debug("Prompt withdrawal dropped")
		}
		return guard.ChoiceStay, ctx.Err()
	}
}

// wait delivers the next prompt event to the loop.
func (p *Prompter) wait() tea.Cmd {
	return func() tea.Msg {
		return <-p.events
	}
}

// prompt is the modal currently on screen.
type prompt struct {
	id    uint64
	req   guard.Request
	reply chan<- guard.Choice
}

func (p *prompt) answer(c guard.Choice) {
	// reply is buffered and answered once.
	select {
	case p.reply <- c:
	default:
	}
}
