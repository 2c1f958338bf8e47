// Package tui is the console's terminal front end: a primary region with
// the activity tree or the action list, an optional side panel, and a
// scope menu.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/grovetools/console/logging"
)

var log = logging.NewLogger("tui")

// Fallback terminal size when stdout is not a terminal.
const (
	fallbackWidth  = 120
	fallbackHeight = 36
)

// InitializeTUI prepares the terminal environment. CLICOLOR_FORCE=1 or
// COLORTERM=truecolor force a true color profile, which keeps styling
// stable when the console runs under a recorder or in CI.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// TerminalSize returns the size of stdout, or a fallback size before the
// first window size message arrives or when stdout is not a terminal.
func TerminalSize() (width, height int) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallbackWidth, fallbackHeight
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return w, h
}
