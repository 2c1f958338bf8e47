package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/console/cli"
	"github.com/grovetools/console/errors"
	"github.com/grovetools/console/pkg/models"
	"github.com/grovetools/console/pkg/scope"
	"github.com/grovetools/console/testutil"
)

func writeConfig(t *testing.T, d *testutil.DevServer) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yml")
	content := "server:\n  url: " + d.URL + "\n  token: " + d.Token + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONSOLE_HOME", t.TempDir())
	root := cli.NewStandardCommand("console", "test")
	root.AddCommand(NewActivitiesCmd(), NewActionsCmd(), NewConfigCmd())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seedActivities(d *testutil.DevServer) {
	for _, a := range []models.ActivitySnapshot{
		{ID: "a1", Name: "Deploy", Current: 1, Max: 3, Scope: scope.Scope{"g1", "i1"}},
		{ID: "a2", ParentID: "a1", Name: "Copy files", Current: 2, Max: 5, Scope: scope.Scope{"g1", "i1"}},
		{ID: "a3", ParentID: "gone", Name: "Lost", Scope: scope.Scope{"g1", "i1"}},
		{ID: "b1", Name: "Other group", Scope: scope.Scope{"g2"}},
	} {
		d.AddActivity(a)
	}
}

func TestActivitiesJSON(t *testing.T) {
	d := testutil.NewDevServer(t)
	seedActivities(d)

	out, err := execute(t, "activities", "--scope", "g1", "--json", "--config", writeConfig(t, d))
	require.NoError(t, err)

	var got activitiesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "g1", got.Scope)
	require.Len(t, got.Roots, 1)
	assert.Equal(t, "a1", got.Roots[0].ID)
	assert.Equal(t, "Copy files (2/5)", got.Roots[0].Message)
	require.Len(t, got.Roots[0].Children, 1)
	assert.Equal(t, "a2", got.Roots[0].Children[0].ID)
	assert.Equal(t, []orphanOutput{{ID: "a3", Name: "Lost", Reason: "missing-parent"}}, got.Orphans)
}

func TestActivitiesTree(t *testing.T) {
	d := testutil.NewDevServer(t)
	seedActivities(d)

	out, err := execute(t, "activities", "--scope", "g1/i1", "--detach-orphans", "--config", writeConfig(t, d))
	require.NoError(t, err)

	assert.Contains(t, out, "Deploy (1/3)")
	assert.Contains(t, out, "Copy files (2/5)")
	assert.Contains(t, out, "Lost")
	assert.NotContains(t, out, "Other group")
	assert.Contains(t, out, "1 activities without a reachable parent")
}

func TestActivitiesRequireServerURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yml")
	require.NoError(t, os.WriteFile(path, []byte("scope:\n  default: g1\n"), 0644))

	_, err := execute(t, "activities", "--config", path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestActionsFilter(t *testing.T) {
	d := testutil.NewDevServer(t)
	start := time.Now().Add(-time.Minute)
	for _, b := range []models.ActionBroadcast{
		{Action: models.Action{Type: models.ActionInstall, Group: "g1", Instance: "i1", Item: "p1"}, Execution: models.ActionExecution{Name: "install-1", Start: start}},
		{Action: models.Action{Type: models.ActionActivate, Group: "g1", Instance: "i1", Item: "p1"}, Execution: models.ActionExecution{Name: "activate-1", Start: start}},
		{Action: models.Action{Type: models.ActionInstall, Group: "g1", Instance: "i1", Item: "p2"}, Execution: models.ActionExecution{Name: "install-2", Start: start}},
	} {
		d.AddAction(b)
	}
	cfg := writeConfig(t, d)

	out, err := execute(t, "actions", "--scope", "g1/i1", "--type", "install", "--item", "p1", "--json", "--config", cfg)
	require.NoError(t, err)
	var got []models.ActionBroadcast
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "install-1", got[0].Execution.Name)

	out, err = execute(t, "actions", "--scope", "g1/i1", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "INSTALL")
	assert.Contains(t, out, "activate-1")
	assert.Contains(t, out, "g1/i1")
}

func TestActionsEmptyJSON(t *testing.T) {
	d := testutil.NewDevServer(t)

	out, err := execute(t, "actions", "--json", "--config", writeConfig(t, d))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yml")
	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(good, []byte("server:\n  url: http://localhost:7701\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("server:\n  url: http://localhost:7701\ntui:\n  preset: emacs\n"), 0644))

	out, err := execute(t, "config", "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, err = execute(t, "config", "validate", bad)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestConfigShowMasksToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: http://localhost:7701\n  token: secret\n"), 0644))

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+path)
	assert.Contains(t, out, "http://localhost:7701")
	assert.NotContains(t, out, "secret")
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "Console Configuration")

	path := filepath.Join(t.TempDir(), "schema", "console.schema.json")
	_, err = execute(t, "config", "schema", "--out", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestQueryFor(t *testing.T) {
	q := queryFor([]string{"install"}, nil)
	assert.Equal(t, []models.ActionType{models.ActionInstall}, q.Types)
	assert.Nil(t, q.Item)
	assert.True(t, q.Matches(models.Action{Type: models.ActionInstall}))
}
