package guard

import "context"

// Choice is the user's answer to an unsaved-changes prompt.
type Choice int

const (
	ChoiceStay Choice = iota
	ChoiceDiscard
	ChoiceSave
)

func (c Choice) String() string {
	switch c {
	case ChoiceDiscard:
		return "discard"
	case ChoiceSave:
		return "save"
	default:
		return "stay"
	}
}

// Request is what the confirmation surface shows.
type Request struct {
	Region  Region
	Header  string
	Message string
	// CanSave is false when the Save action must not be offered.
	CanSave bool
}

// Confirmer is the modal surface asking the user what to do. It must return
// when ctx is cancelled.
type Confirmer interface {
	Confirm(ctx context.Context, req Request) (Choice, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, req Request) (Choice, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, req Request) (Choice, error) {
	return f(ctx, req)
}

// PanelControl lets the guard hide the panel without routing, undo that,
// and have the panel routed closed once the navigation completes.
type PanelControl interface {
	HidePanel()
	ShowPanel()
	ClosePanelAfterNavigation()
}

func requestFor(region Region, d Dirtyable) Request {
	req := Request{
		Region:  region,
		Header:  "Unsaved changes",
		Message: "This page has unsaved changes. Save them before leaving?",
		CanSave: true,
	}
	if region == RegionPanel {
		req.Message = "The side panel has unsaved changes. Save them before leaving?"
	}
	if s, ok := d.(Saveable); ok {
		req.CanSave = s.CanSave()
	}
	return req
}
