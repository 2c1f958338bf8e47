package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfigs(t *testing.T) {
	base := &Config{
		Version: "1.0",
		Server:  ServerConfig{URL: "http://global:7701", Token: "t1", Timeout: 5 * time.Second},
		Scope:   ScopeConfig{GlobalPermission: true},
		TUI: TUIConfig{
			Theme:       "terminal",
			Keybindings: KeybindingConfig{"up": {"k"}, "toggle_menu": {"m"}},
		},
		Extensions: map[string]interface{}{"logging": map[string]interface{}{"level": "info"}},
	}
	override := &Config{
		Server: ServerConfig{URL: "http://project:7701"},
		TUI: TUIConfig{
			Preset:      PresetArrows,
			Keybindings: KeybindingConfig{"toggle_menu": {"M"}},
		},
		Extensions: map[string]interface{}{"devserver": map[string]interface{}{"addr": ":9000"}},
	}

	merged := mergeConfigs(base, override)

	assert.Equal(t, "http://project:7701", merged.Server.URL)
	assert.Equal(t, "t1", merged.Server.Token)
	assert.Equal(t, 5*time.Second, merged.Server.Timeout)
	assert.True(t, merged.Scope.GlobalPermission, "an unset override keeps the global permission")
	assert.Equal(t, "terminal", merged.TUI.Theme)
	assert.Equal(t, PresetArrows, merged.TUI.Preset)
	assert.Equal(t, KeybindingConfig{"up": {"k"}, "toggle_menu": {"M"}}, merged.TUI.Keybindings)
	assert.Contains(t, merged.Extensions, "logging")
	assert.Contains(t, merged.Extensions, "devserver")

	assert.Equal(t, []string{"m"}, base.TUI.Keybindings["toggle_menu"], "base is not modified")
}

func TestKeybindingOverridesFromFiles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CONSOLE_HOME", home)

	globalDir := filepath.Join(home, "config", "console")
	require.NoError(t, os.MkdirAll(globalDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "console.yml"), []byte(`
server:
  url: http://global:7701
tui:
  preset: vim
  keybindings:
    up: [k, up]
    notes: [n]
`), 0644))

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "console.toml"), []byte(`
[tui.keybindings]
notes = ["N"]
quit = ["q"]
`), 0644))

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	cfg, err := LoadFromWithLogger(project, logger)
	require.NoError(t, err)

	assert.Equal(t, PresetVim, cfg.TUI.Preset)
	assert.Equal(t, []string{"k", "up"}, cfg.TUI.Keybindings["up"])
	assert.Equal(t, []string{"N"}, cfg.TUI.Keybindings["notes"])
	assert.Equal(t, []string{"q"}, cfg.TUI.Keybindings["quit"])
}

func TestPresetValidation(t *testing.T) {
	_, err := LoadFromBytes([]byte("server:\n  url: http://x\ntui:\n  preset: emacs\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preset")
}
