package backend

import (
	"github.com/grovetools/console/config"
	"github.com/grovetools/console/logging"
)

var log = logging.NewLogger("backend")

// New returns a RemoteClient when the configured server answers its health
// check, otherwise an OfflineClient. Callers use the same API either way.
func New(cfg config.ServerConfig) Client {
	if cfg.URL == "" {
		log.Debug("No server url configured, running offline")
		return NewOfflineClient("")
	}
	remote := NewRemoteClient(cfg.URL, cfg.Token, cfg.Timeout)
	if remote.IsRunning() {
		return remote
	}
	log.WithField("url", cfg.URL).Warn("Backend not reachable, running offline")
	_ = remote.Close()
	return NewOfflineClient(cfg.URL)
}
