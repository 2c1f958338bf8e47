package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/pkg/actions"
	"github.com/grovetools/console/pkg/activity"
	"github.com/grovetools/console/pkg/backend"
	"github.com/grovetools/console/pkg/paths"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/pkg/session"
	"github.com/grovetools/console/state"
	"github.com/grovetools/console/tui"
	"github.com/grovetools/console/tui/keymap"
	"github.com/grovetools/console/tui/theme"
)

const settingsDebounce = 200 * time.Millisecond

// NewTUICmd starts the interactive console.
func NewTUICmd() *cobra.Command {
	var scopeFlag string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive console",
		Long: `Open the interactive console: the activity tree and action list of the
selected scope, an activity detail or notes panel, and a scope menu.

Examples:
  # Start in the group "g1"
  console tui --scope g1
  # Use another backend
  console tui -c ./staging.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cli.GetLogger(cmd)
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if scopeFlag != "" {
				cfg.Scope.Default = scopeFlag
			}
			initial := scope.Parse(cfg.Scope.Default)

			if err := paths.EnsureDirs(); err != nil {
				logger.WithError(err).Warn("Failed to create console directories")
			}
			persister := state.DefaultPersister()
			settings, err := state.Open(persister)
			if err != nil {
				return err
			}

			client := backend.New(cfg.Server)
			defer client.Close()

			sess := session.New(
				client,
				activity.NewTracker(activity.OrphanPolicy(cfg.Activities.Orphans)),
				actions.NewMerger(),
				session.Options{GlobalPermission: cfg.Scope.GlobalPermission},
			)
			defer sess.Close()

			var seeds []scope.Scope
			if len(initial) > 0 {
				seeds = append(seeds, initial)
			}
			m := tui.New(tui.Options{
				Session:  sess,
				Client:   client,
				Settings: settings,
				Notes:    settings,
				Keys:     keymap.Load(cfg.TUI),
				Theme:    theme.NewThemeWithName(cfg.TUI.Theme),
				Scopes:   seeds,
				Initial:  initial,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Another console toggling the menu updates this one.
			watcher, err := state.NewWatcher(settings, persister, settingsDebounce, func(s *state.Store) {
				m.Coordinator().SetMenuMaximized(s.MenuMaximized())
			})
			if err != nil {
				logger.WithError(err).Warn("Settings watcher disabled")
			} else {
				defer watcher.Close()
				go watcher.Start(ctx)
			}

			logger.WithFields(map[string]interface{}{
				"server": cfg.Server.URL,
				"scope":  initial.String(),
			}).Debug("Starting console")
			return tui.Run(ctx, m)
		},
	}
	cmd.Flags().StringVarP(&scopeFlag, "scope", "s", "", "Initial scope (group or group/instance)")
	return cmd
}
