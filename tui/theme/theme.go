package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// --- Kanagawa Dragon palette ---
const (
	kanagawaGreen     = "#98BB6C"
	kanagawaYellow    = "#FF9E3B"
	kanagawaRed       = "#FF5D62"
	kanagawaCyan      = "#7E9CD8"
	kanagawaViolet    = "#957FB8"
	kanagawaLightText = "#DCD7BA"
	kanagawaMutedText = "#727169"
	kanagawaBorder    = "#363646"
	kanagawaSelected  = "#223249"
)

// --- Terminal (ANSI-friendly) palette ---
const (
	terminalGreen     = "2"
	terminalYellow    = "3"
	terminalRed       = "1"
	terminalCyan      = "6"
	terminalViolet    = "5"
	terminalLightText = "7"
	terminalMutedText = "8"
	terminalBorder    = "8"
	terminalSelected  = "8"
)

// Colors encapsulates the palette used by a theme.
type Colors struct {
	Green     lipgloss.TerminalColor
	Yellow    lipgloss.TerminalColor
	Red       lipgloss.TerminalColor
	Cyan      lipgloss.TerminalColor
	Violet    lipgloss.TerminalColor
	LightText lipgloss.TerminalColor
	MutedText lipgloss.TerminalColor
	Border    lipgloss.TerminalColor
	Selected  lipgloss.TerminalColor
}

// Theme holds the pre-configured styles for the console front end.
type Theme struct {
	Colors Colors

	Header lipgloss.Style
	Title  lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	// Region frames
	Region        lipgloss.Style
	RegionFocused lipgloss.Style
	Modal         lipgloss.Style

	Button       lipgloss.Style
	ButtonActive lipgloss.Style

	Accent lipgloss.Style
}

var themeRegistry = map[string]func() Colors{
	"default":  newKanagawaColors,
	"kanagawa": newKanagawaColors,
	"terminal": newTerminalColors,
}

// DefaultTheme is the theme selected from CONSOLE_THEME at startup.
var DefaultTheme = NewThemeWithName(os.Getenv("CONSOLE_THEME"))

// NewThemeWithName constructs a theme from a palette name, falling back to the default.
func NewThemeWithName(name string) *Theme {
	ctor, ok := themeRegistry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		ctor = newKanagawaColors
	}
	return newTheme(ctor())
}

func newTheme(c Colors) *Theme {
	region := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Border).
		Padding(0, 1)

	button := lipgloss.NewStyle().Padding(0, 1).Foreground(c.LightText)

	return &Theme{
		Colors:        c,
		Header:        lipgloss.NewStyle().Bold(true).Foreground(c.Cyan),
		Title:         lipgloss.NewStyle().Bold(true).Foreground(c.LightText),
		Success:       lipgloss.NewStyle().Foreground(c.Green),
		Error:         lipgloss.NewStyle().Foreground(c.Red),
		Warning:       lipgloss.NewStyle().Foreground(c.Yellow),
		Normal:        lipgloss.NewStyle(),
		Muted:         lipgloss.NewStyle().Foreground(c.MutedText),
		Selected:      lipgloss.NewStyle().Background(c.Selected).Bold(true),
		Region:        region,
		RegionFocused: region.BorderForeground(c.Cyan),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(c.Yellow).
			Padding(1, 2),
		Button:       button,
		ButtonActive: button.Background(c.Selected).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(c.Violet),
	}
}

func newKanagawaColors() Colors {
	return Colors{
		Green:     lipgloss.Color(kanagawaGreen),
		Yellow:    lipgloss.Color(kanagawaYellow),
		Red:       lipgloss.Color(kanagawaRed),
		Cyan:      lipgloss.Color(kanagawaCyan),
		Violet:    lipgloss.Color(kanagawaViolet),
		LightText: lipgloss.Color(kanagawaLightText),
		MutedText: lipgloss.Color(kanagawaMutedText),
		Border:    lipgloss.Color(kanagawaBorder),
		Selected:  lipgloss.Color(kanagawaSelected),
	}
}

func newTerminalColors() Colors {
	return Colors{
		Green:     lipgloss.Color(terminalGreen),
		Yellow:    lipgloss.Color(terminalYellow),
		Red:       lipgloss.Color(terminalRed),
		Cyan:      lipgloss.Color(terminalCyan),
		Violet:    lipgloss.Color(terminalViolet),
		LightText: lipgloss.Color(terminalLightText),
		MutedText: lipgloss.Color(terminalMutedText),
		Border:    lipgloss.Color(terminalBorder),
		Selected:  lipgloss.Color(terminalSelected),
	}
}
