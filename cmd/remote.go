package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/backend"
)

// remoteClient connects to the configured backend for one-shot commands.
// Unlike the TUI these do not fall back to offline mode.
func remoteClient(cmd *cobra.Command) (*backend.RemoteClient, error) {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Server.URL == "" {
		return nil, errors.ConfigInvalid("server.url is not set")
	}
	return backend.NewRemoteClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.Timeout), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
