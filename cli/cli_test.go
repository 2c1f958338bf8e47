package cli

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/console/errors"
)

func TestStandardFlags(t *testing.T) {
	root := NewStandardCommand("console", "Deployment console")
	var got CommandOptions
	root.AddCommand(&cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = GetOptions(cmd)
			return nil
		},
	})

	root.SetArgs([]string{"probe", "-v", "--json", "--config", "x.yml"})
	require.NoError(t, root.Execute())

	assert.Equal(t, CommandOptions{ConfigFile: "x.yml", Verbose: true, JSONOutput: true}, got)
}

func TestLoadConfigFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://flag:7701\n"), 0644))

	root := NewStandardCommand("console", "")
	require.NoError(t, root.ParseFlags([]string{"--config", path}))

	cfg, err := LoadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:7701", cfg.Server.URL)
}

func TestLoadConfigMissingFlagFile(t *testing.T) {
	root := NewStandardCommand("console", "")
	require.NoError(t, root.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yml")}))

	_, err := LoadConfig(root)
	assert.True(t, errors.Is(err, errors.ErrCodeConfigNotFound))
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", errors.ConfigNotFound("/tmp"), "Configuration not found"},
		{"invalid", errors.ConfigInvalid("bad preset"), "console config schema"},
		{"unavailable", errors.BackendUnavailable("http://x", stderrors.New("refused")), "console devserver"},
		{"permission", errors.PermissionDenied("unscoped actions"), "global_permission"},
		{"plain", stderrors.New("boom"), "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &ErrorHandler{Out: &buf}
			assert.Same(t, tt.err, h.Handle(tt.err))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestErrorHandlerVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	h := &ErrorHandler{Verbose: true, Out: &buf}
	_ = h.Handle(errors.BackendStatus("/api/actions", 503))
	assert.Contains(t, buf.String(), `"code": "BACKEND_STATUS"`)
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("console", "Deployment console")
	root.AddCommand(&cobra.Command{Use: "tui", Short: "Open the terminal console", Run: func(*cobra.Command, []string) {}})

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "CONSOLE")
	assert.Contains(t, out, "COMMANDS")
	assert.Contains(t, out, "tui")
	assert.Contains(t, out, "--config")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "a\nb", wrapText("a\nb", 8))
}

func TestNewLoggerOptions(t *testing.T) {
	var buf bytes.Buffer
	entry := NewLogger("devserver", WithOutput(&buf), WithLevel(logrus.WarnLevel), WithFormatter(&logrus.JSONFormatter{}))

	entry.Info("hidden")
	entry.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"devserver"`)
}

func TestVersionCommandJSON(t *testing.T) {
	root := NewStandardCommand("console", "")
	root.AddCommand(NewVersionCommand("console"))

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version", "--json"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), `"goVersion"`)
}
