package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/config"
	"github.com/grovetools/console/pkg/activity"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/tui/theme"
)

type activityNode struct {
	models.ActivitySnapshot
	Message  string          `json:"message,omitempty"`
	Children []*activityNode `json:"children,omitempty"`
}

type activitiesOutput struct {
	Scope   string          `json:"scope"`
	Roots   []*activityNode `json:"roots"`
	Orphans []orphanOutput  `json:"orphans,omitempty"`
}

type orphanOutput struct {
	ID     string `json:"uuid"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// NewActivitiesCmd prints the activity forest of a scope.
func NewActivitiesCmd() *cobra.Command {
	var (
		scopeFlag string
		detach    bool
	)
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Print the activity tree of a scope",
		Long: `Fetch the current activities and print them as a tree. Roots are the
parentless activities whose scope matches --scope.

Examples:
  console activities --scope g1/i1
  console activities --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			sc := scope.Parse(scopeFlag)
			list, err := client.ListActivities(cmd.Context(), sc)
			if err != nil {
				return err
			}

			policy := activity.OrphanDrop
			if detach {
				policy = activity.OrphanDetach
			}
			forest := activity.Build(list, sc, policy)
			cli.GetLogger(cmd).WithField("activities", len(list)).Debug("Built activity forest")

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), toActivitiesOutput(sc, forest))
			}
			printForest(cmd.OutOrStdout(), forest, theme.DefaultTheme)
			return nil
		},
	}
	cmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "Scope to show (group, group/instance or group/instance/item)")
	cmd.Flags().BoolVar(&detach, "detach-orphans", false, fmt.Sprintf("List orphans as roots (same as activities.orphans: %s)", config.OrphansDetach))
	return cmd
}

func toActivityNodes(nodes []*activity.Node) []*activityNode {
	out := make([]*activityNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &activityNode{
			ActivitySnapshot: n.Snapshot,
			Message:          activity.MostRelevantMessage(n),
			Children:         toActivityNodes(n.Children),
		})
	}
	return out
}

func toActivitiesOutput(sc scope.Scope, f activity.Forest) activitiesOutput {
	out := activitiesOutput{Scope: sc.String(), Roots: toActivityNodes(f.Roots)}
	for _, o := range f.Orphans {
		out.Orphans = append(out.Orphans, orphanOutput{
			ID:     o.Node.Snapshot.ID,
			Name:   o.Node.Snapshot.Name,
			Reason: string(o.Reason),
		})
	}
	return out
}

func activityTree(n *activity.Node, t *theme.Theme) *tree.Tree {
	label := activity.Describe(n)
	if n.Snapshot.Cancel {
		label += t.Muted.Render(" (cancelling)")
	}
	node := tree.Root(label)
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			node.Child(activity.Describe(c))
			continue
		}
		node.Child(activityTree(c, t))
	}
	return node
}

func printForest(w io.Writer, f activity.Forest, t *theme.Theme) {
	if len(f.Roots) == 0 {
		fmt.Fprintln(w, t.Muted.Render("No activities"))
	}
	for _, root := range f.Roots {
		fmt.Fprintln(w, activityTree(root, t).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(lipgloss.NewStyle().Foreground(t.Colors.Border)).
			RootStyle(lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Cyan)).
			String())
	}
	if len(f.Orphans) > 0 {
		fmt.Fprintln(w, t.Warning.Render(fmt.Sprintf("%d activities without a reachable parent", len(f.Orphans))))
	}
}
