package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/pkg/actions"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/tui/theme"
)

// NewActionsCmd lists the long-running actions of a scope.
func NewActionsCmd() *cobra.Command {
	var (
		scopeFlag string
		types     []string
		items     []string
	)
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List running actions",
		Long: `Fetch the long-running actions of a scope. --type and --item narrow
the list; both accept several values.

Examples:
  console actions --scope g1
  console actions --type INSTALL --type ACTIVATE`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := remoteClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			sc := scope.Parse(scopeFlag)
			list, err := client.ListActions(cmd.Context(), sc)
			if err != nil {
				return err
			}

			merger := actions.NewMerger()
			merger.Replace(list)
			q := queryFor(types, items)
			found := merger.Find(q)
			cli.GetLogger(cmd).WithField("total", len(list)).WithField("matching", len(found)).Debug("Filtered actions")

			if cli.GetOptions(cmd).JSONOutput {
				if found == nil {
					found = []models.ActionBroadcast{}
				}
				return writeJSON(cmd.OutOrStdout(), found)
			}
			printActions(cmd.OutOrStdout(), found, theme.DefaultTheme, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "Scope to list (group or group/instance)")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Only actions of these types")
	cmd.Flags().StringSliceVar(&items, "item", nil, "Only actions on these items")
	return cmd
}

// queryFor builds the merger query for the command flags. The backend
// already narrowed the list to the scope.
func queryFor(types, items []string) actions.Query {
	var q actions.Query
	for _, t := range types {
		q.Types = append(q.Types, models.ActionType(strings.ToUpper(t)))
	}
	if len(items) > 0 {
		q.Item = actions.Filter(items)
	}
	return q
}

func printActions(w io.Writer, list []models.ActionBroadcast, t *theme.Theme, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(w, t.Muted.Render("No running actions"))
		return
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Yellow).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Colors.Border)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("TYPE", "SCOPE", "ITEM", "EXECUTION", "RUNNING")
	for _, b := range list {
		tbl.Row(
			string(b.Action.Type),
			b.Action.Scope().String(),
			b.Action.Item,
			b.Execution.Name,
			now.Sub(b.Execution.Start).Round(time.Second).String(),
		)
	}
	fmt.Fprintln(w, tbl.Render())
}
