package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/x/ansi"

	"github.com/grovetools/console/pkg/actions"
	"github.com/grovetools/console/pkg/activity"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/tui/theme"
	"github.com/grovetools/console/tui/utils/scrollbar"
)

// list is the cursor state shared by the scrolling pages.
type list struct {
	cursor int
	offset int
}

func (l *list) move(delta, total int) {
	l.cursor = min(max(l.cursor+delta, 0), max(total-1, 0))
}

func (l *list) clamp(total int) {
	l.move(0, total)
}

// window returns the visible slice bounds for height rows.
func (l *list) window(total, height int) (int, int) {
	l.offset = scrollbar.Window(l.offset, l.cursor, total, height)
	return l.offset, min(l.offset+height, total)
}

// activitiesPage lists the activity forest of the current scope.
type activitiesPage struct {
	list
}

// treeRow is one line of the flattened forest.
type treeRow struct {
	node  *activity.Node
	depth int
}

func flatten(nodes []*activity.Node, depth int, out []treeRow) []treeRow {
	for _, n := range nodes {
		out = append(out, treeRow{node: n, depth: depth})
		out = flatten(n.Children, depth+1, out)
	}
	return out
}

// rows returns the visible tree. With the detach policy the forest roots
// already include detached orphans.
func (p *activitiesPage) rows(f activity.Forest) []treeRow {
	return flatten(f.Roots, 0, nil)
}

func (p *activitiesPage) selected(f activity.Forest) *activity.Node {
	rows := p.rows(f)
	if p.cursor < 0 || p.cursor >= len(rows) {
		return nil
	}
	return rows[p.cursor].node
}

func (p *activitiesPage) view(f activity.Forest, t *theme.Theme, bar progress.Model, width, height int) string {
	rows := p.rows(f)
	if len(rows) == 0 {
		return t.Muted.Render("No activities in progress.")
	}
	p.clamp(len(rows))
	from, to := p.window(len(rows), height)

	lines := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		r := rows[i]
		s := r.node.Snapshot
		label := strings.Repeat("  ", r.depth) + activity.Describe(r.node)
		if r.depth == 0 && len(r.node.Children) > 0 {
			label += t.Muted.Render("  " + activity.MostRelevantMessage(r.node))
		}
		if s.Max > 0 {
			label = fmt.Sprintf("%s %s", bar.ViewAs(float64(s.Current)/float64(s.Max)), label)
		}
		if s.Cancel {
			label += t.Warning.Render("  cancelling")
		}
		line := truncate(label, width-2)
		if i == p.cursor {
			line = t.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return scrollbar.Overlay(lines, len(rows), from, t.Muted)
}

// actionsPage lists the server actions in the current scope.
type actionsPage struct {
	list
	scope scope.Scope
}

func (p *actionsPage) filter(all []models.ActionBroadcast) []models.ActionBroadcast {
	q := actions.Query{}
	if len(p.scope) > 0 {
		q.Group = actions.One(p.scope[0])
	}
	if len(p.scope) > 1 {
		q.Instance = actions.One(p.scope[1])
	}
	var out []models.ActionBroadcast
	for _, b := range all {
		if q.Matches(b.Action) {
			out = append(out, b)
		}
	}
	return out
}

func (p *actionsPage) view(all []models.ActionBroadcast, t *theme.Theme, width, height int) string {
	shown := p.filter(all)
	if len(shown) == 0 {
		return t.Muted.Render("No server actions running.")
	}
	p.clamp(len(shown))
	from, to := p.window(len(shown), height)

	lines := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		b := shown[i]
		target := strings.Join(b.Action.Scope(), "/")
		if b.Action.Item != "" {
			target += " " + b.Action.Item
		}
		line := fmt.Sprintf("%-22s %-24s %s", b.Action.Type, target, t.Muted.Render(describeExecution(b.Execution)))
		if b.Exclusive {
			line += t.Accent.Render("  exclusive")
		}
		line = truncate(line, width-2)
		if i == p.cursor {
			line = t.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	return scrollbar.Overlay(lines, len(shown), from, t.Muted)
}

func describeExecution(e models.ActionExecution) string {
	parts := []string{}
	if e.Name != "" {
		parts = append(parts, e.Name)
	}
	if e.Source != "" {
		parts = append(parts, "by "+e.Source)
	}
	if !e.Start.IsZero() {
		parts = append(parts, "since "+e.Start.Format(time.TimeOnly))
	}
	return strings.Join(parts, " ")
}

// activityDetail is the panel showing one activity and its subtree.
type activityDetail struct {
	id string
}

func findNode(nodes []*activity.Node, id string) *activity.Node {
	for _, n := range nodes {
		if n.Snapshot.ID == id {
			return n
		}
		if found := findNode(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

func (d *activityDetail) view(f activity.Forest, t *theme.Theme, bar progress.Model, width int) string {
	node := findNode(f.Roots, d.id)
	if node == nil {
		return t.Muted.Render("Activity finished.")
	}
	s := node.Snapshot

	var b strings.Builder
	b.WriteString(t.Title.Render(s.Name))
	b.WriteString("\n")
	if s.Max > 0 {
		b.WriteString(bar.ViewAs(float64(s.Current) / float64(s.Max)))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s %s\n", t.Muted.Render("scope"), strings.Join(s.Scope, "/"))
	if s.User != "" {
		fmt.Fprintf(&b, "%s %s\n", t.Muted.Render("user "), s.User)
	}
	if s.Duration > 0 {
		fmt.Fprintf(&b, "%s %s\n", t.Muted.Render("time "), (time.Duration(s.Duration) * time.Millisecond).String())
	}
	fmt.Fprintf(&b, "%s %s\n", t.Muted.Render("now  "), activity.MostRelevantMessage(node))
	if len(node.Children) > 0 {
		b.WriteString("\n")
		for _, r := range flatten(node.Children, 0, nil) {
			b.WriteString(truncate(strings.Repeat("  ", r.depth)+activity.Describe(r.node), width-2))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, width int) string {
	if width <= 1 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
