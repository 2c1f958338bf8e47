// Package scrollbar renders a one-column scrollbar for windowed lists.
package scrollbar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Window returns the first visible row so that cursor stays inside a
// window of height rows, moving the previous offset as little as possible.
func Window(offset, cursor, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	if offset > total-height {
		offset = total - height
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// Generate returns one scrollbar cell per visible line. The thumb size is
// proportional to the visible share of total rows.
func Generate(total, offset, height int, style lipgloss.Style) []string {
	if height <= 0 {
		return []string{}
	}
	bar := make([]string, height)
	switch {
	case total == 0:
		for i := range bar {
			bar[i] = " "
		}
		return bar
	case total <= height:
		for i := range bar {
			bar[i] = style.Render("█")
		}
		return bar
	}

	thumbSize := max(1, height*height/total)
	maxStart := height - thumbSize
	thumbStart := (offset*maxStart + (total-height)/2) / (total - height)
	thumbStart = min(max(thumbStart, 0), maxStart)

	for i := range bar {
		if i >= thumbStart && i < thumbStart+thumbSize {
			bar[i] = style.Render("█")
		} else {
			bar[i] = style.Render("░")
		}
	}
	return bar
}

// Overlay appends a scrollbar to the visible lines.
func Overlay(lines []string, total, offset int, style lipgloss.Style) string {
	bar := Generate(total, offset, len(lines), style)
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + " " + bar[i]
	}
	return strings.Join(out, "\n")
}
