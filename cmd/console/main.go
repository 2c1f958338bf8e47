package main

import (
	"os"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/cmd"
	"github.com/grovetools/console/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"console",
		"Live view of backend activities and actions",
	)
	cli.SetVersionTemplate(rootCmd, version.GetInfo())

	rootCmd.AddCommand(cmd.NewTUICmd())
	rootCmd.AddCommand(cmd.NewActivitiesCmd())
	rootCmd.AddCommand(cmd.NewActionsCmd())
	rootCmd.AddCommand(cmd.NewDevserverCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("console"))

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		_ = cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
