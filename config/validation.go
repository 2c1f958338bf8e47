package config

import (
	"fmt"
	"net/url"

	"github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/scope"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "server.url is not a valid URL").
				WithDetail("url", c.Server.URL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.ConfigInvalid(fmt.Sprintf("server.url must use http or https, got %q", u.Scheme)).
				WithDetail("url", c.Server.URL)
		}
	}

	if c.Server.Timeout < 0 {
		return errors.ConfigInvalid("server.timeout cannot be negative")
	}

	switch c.Activities.Orphans {
	case "", OrphansDrop, OrphansDetach:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("activities.orphans must be %q or %q", OrphansDrop, OrphansDetach)).
			WithDetail("value", c.Activities.Orphans)
	}

	switch c.TUI.Preset {
	case "", PresetVim, PresetArrows:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("tui.preset must be %q or %q", PresetVim, PresetArrows)).
			WithDetail("value", c.TUI.Preset)
	}

	if s := scope.Parse(c.Scope.Default); len(s) > 2 {
		return errors.ConfigInvalid("scope.default accepts at most group/instance").
			WithDetail("value", c.Scope.Default)
	}

	return nil
}
