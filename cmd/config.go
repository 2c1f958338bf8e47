package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/config"
	"github.com/grovetools/console/errors"
)

// NewConfigCmd groups the configuration helpers.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the console configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Long: `Print the configuration the other commands use: the global
console.yml merged with the nearest project file, with defaults applied.
The bearer token is masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Server.Token != "" {
				cfg.Server.Token = "********"
			}
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			path, _ := cli.InitConfig(cli.GetOptions(cmd).ConfigFile)
			if path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# Source: %s\n", path)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of console.yml",
		Long: `Print the JSON schema generated from the configuration types.
Editors use it for completion and validation.

Examples:
  console config schema --out schema/console.schema.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			if out == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
				return err
			}
			cli.GetLogger(cmd).WithField("path", out).Info("Schema written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the schema to this file")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a configuration file",
		Long: `Validate a console.yml or console.toml file against the schema and
the field rules. Without an argument the file found from the working
directory is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cli.GetOptions(cmd).ConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			path, err := cli.InitConfig(path)
			if err != nil {
				return err
			}
			if path == "" {
				return errors.ConfigNotFound(".")
			}
			if _, err := config.Load(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path)
			return nil
		},
	}
}
