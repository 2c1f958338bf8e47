package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Orphan handling policies for the activity tree.
const (
	OrphansDrop   = "drop"
	OrphansDetach = "detach"
)

// ServerConfig describes how to reach the deployment backend.
type ServerConfig struct {
	URL     string        `yaml:"url" toml:"url" json:"url" jsonschema:"description=Base URL of the backend (http or https)"`
	Token   string        `yaml:"token,omitempty" toml:"token,omitempty" json:"token,omitempty" jsonschema:"description=Bearer token sent with every request"`
	Timeout time.Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"type=integer,description=Request timeout in nanoseconds (default 10s)"`
}

// ScopeConfig controls the initial scope and permission-dependent behaviour.
type ScopeConfig struct {
	// Default is the scope selected at startup, written as "group/instance".
	Default string `yaml:"default,omitempty" toml:"default,omitempty" json:"default,omitempty" jsonschema:"description=Scope selected at startup (group or group/instance)"`
	// GlobalPermission allows loading actions without a group selected.
	GlobalPermission bool `yaml:"global_permission,omitempty" toml:"global_permission,omitempty" json:"global_permission,omitempty" jsonschema:"description=Whether the user may view unscoped actions"`
}

// ActivitiesConfig controls how the activity tree is built.
type ActivitiesConfig struct {
	Orphans string `yaml:"orphans,omitempty" toml:"orphans,omitempty" json:"orphans,omitempty" jsonschema:"enum=drop,enum=detach,description=What to do with activities whose parent is unknown"`
}

// Keymap presets.
const (
	PresetVim    = "vim"
	PresetArrows = "arrows"
)

// KeybindingConfig maps a binding name (snake_case, e.g. "toggle_menu") to
// the keys that trigger it.
type KeybindingConfig map[string][]string

// TUIConfig controls the terminal front end.
type TUIConfig struct {
	Theme       string           `yaml:"theme,omitempty" toml:"theme,omitempty" json:"theme,omitempty" jsonschema:"description=Color theme (default or terminal)"`
	Preset      string           `yaml:"preset,omitempty" toml:"preset,omitempty" json:"preset,omitempty" jsonschema:"enum=vim,enum=arrows,description=Keybinding preset"`
	Keybindings KeybindingConfig `yaml:"keybindings,omitempty" toml:"keybindings,omitempty" json:"keybindings,omitempty" jsonschema:"description=Per-binding key overrides"`
}

// Config is the console configuration loaded from console.yml or console.toml.
type Config struct {
	Version    string           `yaml:"version" toml:"version" json:"version" jsonschema:"description=Configuration version (e.g. '1.0')"`
	Server     ServerConfig     `yaml:"server" toml:"server" json:"server"`
	Scope      ScopeConfig      `yaml:"scope,omitempty" toml:"scope,omitempty" json:"scope,omitempty"`
	Activities ActivitiesConfig `yaml:"activities,omitempty" toml:"activities,omitempty" json:"activities,omitempty"`
	TUI        TUIConfig        `yaml:"tui,omitempty" toml:"tui,omitempty" json:"tui,omitempty"`

	// Extensions holds sections owned by other packages (e.g. logging).
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-"`
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 10 * time.Second
	}
	if c.Activities.Orphans == "" {
		c.Activities.Orphans = OrphansDrop
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = "default"
	}
	if c.TUI.Preset == "" {
		c.TUI.Preset = PresetVim
	}
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded console.yml into the provided target struct. The target must be a pointer.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// Missing sections leave the target zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
