package config

// mergeConfigs merges override configuration into base
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	if override.Server.URL != "" {
		result.Server.URL = override.Server.URL
	}
	if override.Server.Token != "" {
		result.Server.Token = override.Server.Token
	}
	if override.Server.Timeout != 0 {
		result.Server.Timeout = override.Server.Timeout
	}

	if override.Scope.Default != "" {
		result.Scope.Default = override.Scope.Default
	}
	if override.Scope.GlobalPermission {
		result.Scope.GlobalPermission = true
	}

	if override.Activities.Orphans != "" {
		result.Activities.Orphans = override.Activities.Orphans
	}
	if override.TUI.Theme != "" {
		result.TUI.Theme = override.TUI.Theme
	}
	if override.TUI.Preset != "" {
		result.TUI.Preset = override.TUI.Preset
	}
	if len(override.TUI.Keybindings) > 0 {
		kb := make(KeybindingConfig, len(base.TUI.Keybindings)+len(override.TUI.Keybindings))
		for k, v := range base.TUI.Keybindings {
			kb[k] = v
		}
		for k, v := range override.TUI.Keybindings {
			kb[k] = v
		}
		result.TUI.Keybindings = kb
	}

	// Extensions merge per top-level key
	if len(override.Extensions) > 0 {
		merged := make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for k, v := range base.Extensions {
			merged[k] = v
		}
		for k, v := range override.Extensions {
			merged[k] = v
		}
		result.Extensions = merged
	}

	return &result
}
