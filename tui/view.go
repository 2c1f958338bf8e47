package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grovetools/console/pkg/guard"
	"github.com/grovetools/console/tui/keymap"
)

const (
	menuWidth     = 26
	menuRailWidth = 3
	headerHeight  = 1
	footerHeight  = 2
)

// View renders the screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelp()
	}

	if m.prompt != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderPrompt())
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderBody(),
		m.renderFooter(),
	)
}

// bodyHeight is the number of rows inside a region frame.
func (m *Model) bodyHeight() int {
	return max(m.height-headerHeight-footerHeight-3, 1)
}

func (m *Model) renderHeader() string {
	t := m.theme
	parts := []string{t.Header.Render("console"), t.Title.Render(scopeLabel(m.currentScope()))}
	if m.online {
		parts = append(parts, t.Success.Render("● live"))
	} else {
		parts = append(parts, t.Error.Render("○ offline"))
	}
	if m.phase != guard.PhaseIdle {
		parts = append(parts, t.Warning.Render(string(m.phase)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderFooter() string {
	t := m.theme
	line := ""
	switch {
	case m.err != nil:
		line = t.Error.Render(m.err.Error())
	case m.status != "":
		line = t.Success.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, line, m.help.View(m.keys))
}

func (m *Model) renderBody() string {
	height := m.bodyHeight()
	var columns []string

	menu := m.renderMenu(height)
	columns = append(columns, menu)
	remaining := m.width - lipgloss.Width(menu)

	panel, panelShown := m.router.Mounted(guard.RegionPanel), m.navState.PanelVisible
	switch {
	case panelShown && panel != nil && m.navState.PanelMaximized:
		columns = append(columns, m.renderRegion(panel, remaining, height, true))
	case panelShown && panel != nil:
		panelWidth := remaining * 2 / 5
		columns = append(columns,
			m.renderRegion(m.router.Mounted(guard.RegionPrimary), remaining-panelWidth, height, false),
			m.renderRegion(panel, panelWidth, height, true),
		)
	default:
		columns = append(columns, m.renderRegion(m.router.Mounted(guard.RegionPrimary), remaining, height, true))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// renderMenu lists the scopes. Collapsed, only a marker column remains.
func (m *Model) renderMenu(height int) string {
	t := m.theme
	cur := m.currentScope()
	var lines []string
	for _, sc := range m.menu() {
		marker := "  "
		if sc.Equal(cur) {
			marker = t.Accent.Render("▸ ")
		}
		if !m.navState.MenuMaximized {
			lines = append(lines, marker)
			continue
		}
		label := scopeLabel(sc)
		if len(sc) == 2 {
			label = "  " + sc[1]
		}
		lines = append(lines, marker+truncate(label, menuWidth-4))
	}
	width := menuRailWidth
	if m.navState.MenuMaximized {
		width = menuWidth
	}
	return lipgloss.NewStyle().Width(width).Height(height + 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderRegion(component any, width, height int, focused bool) string {
	t := m.theme
	style := t.Region
	if focused {
		style = t.RegionFocused
	}
	inner := max(width-4, 1)

	title, body := m.describe(component, inner, height-1)
	content := lipgloss.JoinVertical(lipgloss.Left, t.Title.Render(title), body)
	return style.Width(inner).Height(height).MaxHeight(height + 2).Render(content)
}

// describe returns the title and body of a mounted component.
func (m *Model) describe(component any, width, height int) (string, string) {
	switch c := component.(type) {
	case *activitiesPage:
		return "Activities", c.view(m.forest, m.theme, m.bar, width, height)
	case *actionsPage:
		return "Server actions", c.view(m.actions, m.theme, width, height)
	case *activityDetail:
		return "Activity", c.view(m.forest, m.theme, m.bar, width)
	case *NotesEditor:
		c.SetSize(width, height)
		return fmt.Sprintf("Notes  %s", m.theme.Muted.Render(c.Status())), c.View()
	default:
		return "", ""
	}
}

func (m *Model) renderPrompt() string {
	t := m.theme
	p := m.prompt
	buttons := []string{t.ButtonActive.Render("[esc] stay"), t.Button.Render("[d] discard")}
	if p.req.CanSave {
		buttons = append(buttons, t.Button.Render("[s] save"))
	}
	return t.Modal.Render(lipgloss.JoinVertical(lipgloss.Left,
		t.Warning.Render(p.req.Header),
		"",
		p.req.Message,
		"",
		strings.Join(buttons, " "),
	))
}

func (m *Model) renderHelp() string {
	t := m.theme
	var sections []string
	for _, s := range m.keys.Sections() {
		sections = append(sections, renderSection(t.Header, t.Muted, s))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		t.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, t.Title.Render("Keys"), "", body)))
}

func renderSection(header, muted lipgloss.Style, s keymap.Section) string {
	lines := []string{header.Render(s.Name)}
	for _, b := range s.FilterEnabled() {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("%-8s %s", h.Key, muted.Render(h.Desc)))
	}
	return lipgloss.NewStyle().PaddingRight(3).Render(strings.Join(lines, "\n"))
}
