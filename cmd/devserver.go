package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/internal/devserver/pidfile"
	"github.com/grovetools/console/internal/devserver/server"
	"github.com/grovetools/console/internal/devserver/simulator"
	"github.com/grovetools/console/internal/devserver/store"
	"github.com/grovetools/console/logging"
	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/paths"
	"github.com/grovetools/console/pkg/scope"
)

const shutdownTimeout = 5 * time.Second

// DevserverConfig is the "devserver" section of console.yml.
type DevserverConfig struct {
	Addr   string   `yaml:"addr"`
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

var defaultScopes = []string{"g1/i1", "g1/i2", "g2/i1"}

// NewDevserverCmd runs the development backend with simulated load.
func NewDevserverCmd() *cobra.Command {
	var (
		addr   string
		token  string
		scopes []string
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a development backend with simulated activities",
		Long: `Run a local backend that serves the REST and websocket API and
simulates activities and actions in the given scopes.

Examples:
  console devserver --addr 127.0.0.1:7701 --scope g1/i1 --scope g2/i1
  # then point server.url in console.yml at it
  console tui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dcfg DevserverConfig
			if cfg, err := cli.LoadConfig(cmd); err == nil {
				if err := cfg.UnmarshalExtension("devserver", &dcfg); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("addr") || dcfg.Addr == "" {
				dcfg.Addr = addr
			}
			if cmd.Flags().Changed("token") {
				dcfg.Token = token
			}
			if cmd.Flags().Changed("scope") || len(dcfg.Scopes) == 0 {
				dcfg.Scopes = scopes
			}
			return runDevserver(cmd, dcfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:7701", "Listen address")
	cmd.Flags().StringVar(&token, "token", "", "Require this bearer token")
	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", defaultScopes, "Scopes to simulate (group/instance)")
	return cmd
}

func runDevserver(cmd *cobra.Command, dcfg DevserverConfig) error {
	logger := cli.NewLogger("devserver")
	if cli.GetOptions(cmd).Verbose {
		logger = cli.NewLogger("devserver", cli.WithLevel(logrus.DebugLevel))
	}
	pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())

	pidPath := paths.DevserverPidPath()
	if err := pidfile.Acquire(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Release(pidPath); err != nil {
			logger.WithError(err).Error("Failed to release pid file")
		}
	}()

	var simulated []scope.Scope
	for _, s := range dcfg.Scopes {
		if sc := scope.Parse(s); len(sc) > 0 {
			simulated = append(simulated, sc)
		}
	}

	hub := feed.NewHub()
	defer hub.Close()
	st := store.New(hub, logger)
	eng := simulator.New(st, logger)
	eng.Register(simulator.NewActivityWorker(simulated))
	eng.Register(simulator.NewActionWorker(simulated))

	listener, err := net.Listen("tcp", dcfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", dcfg.Addr, err)
	}
	srv := server.New(st, dcfg.Token, logger)
	srv.SetRunningConfig(&server.RunningConfig{
		Addr:      listener.Addr().String(),
		Scopes:    dcfg.Scopes,
		StartedAt: time.Now(),
	})

	pretty.Success("Development backend started")
	pretty.Field("url", "http://"+listener.Addr().String())
	pretty.Field("scopes", dcfg.Scopes)
	if dcfg.Token != "" {
		pretty.Field("auth", "bearer token required")
	}
	pretty.Divider()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return eng.Start(ctx) })
	g.Go(func() error { return srv.Serve(listener) })
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Received stop signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		pretty.ErrorPretty("Development backend stopped", err)
		return err
	}
	pretty.InfoPretty("Development backend stopped")
	return nil
}
