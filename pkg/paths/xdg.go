// Package paths provides XDG-compliant path resolution for the console.
//
// Resolution order:
// 1. CONSOLE_HOME (portable root) → $CONSOLE_HOME/{config,state,cache}
// 2. XDG env vars → $XDG_*_HOME/console
// 3. Platform defaults → ~/.config/console, ~/.local/state/console, etc.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "console"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("CONSOLE_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("CONSOLE_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// getCacheHome returns the base cache home directory.
func getCacheHome() string {
	if home := os.Getenv("CONSOLE_HOME"); home != "" {
		return filepath.Join(home, "cache")
	}
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return xdgCacheHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache")
	}
	return ""
}

// ConfigDir returns the console configuration directory.
// Used for the global console.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the console state directory.
// Used for persisted UI settings and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// CacheDir returns the console cache directory.
func CacheDir() string {
	base := getCacheHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// SettingsPath returns the path of the persisted UI settings file.
func SettingsPath() string {
	return filepath.Join(StateDir(), "settings.yml")
}

// LogDir returns the directory used by the default file log sink.
func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}

// EnsureDirs creates all console directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		CacheDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// DevserverPidPath returns the pid file of the development backend.
func DevserverPidPath() string {
	return filepath.Join(StateDir(), "devserver.pid")
}
