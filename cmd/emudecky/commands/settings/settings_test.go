package settings

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emudecky/emudecky/cmd/emudecky/cmdutil"
	"github.com/emudecky/emudecky/pkg/config"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/store"
)

func setupConfig(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.Database = store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(dir, "settings.db")},
	}
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))

	saved := *cmdutil.Flags
	*cmdutil.Flags = cmdutil.GlobalFlags{ConfigFile: path, Output: "table", NoColor: true}
	t.Cleanup(func() { *cmdutil.Flags = saved })
}

func execute(args ...string) (string, error) {
	var buf bytes.Buffer
	Cmd.SetOut(&buf)
	Cmd.SetErr(&buf)
	Cmd.SetArgs(args)
	defer func() { deleteForce = false }()

	err := Cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestSettingsSetGet(t *testing.T) {
	setupConfig(t)

	out, err := execute("set", "username", "retro_fan")
	require.NoError(t, err)
	assert.Contains(t, out, "Setting 'username' updated")

	out, err = execute("get", "username")
	require.NoError(t, err)
	assert.Equal(t, "\"retro_fan\"\n", out)

	_, err = execute("set", "hidden", "true")
	require.NoError(t, err)

	out, err = execute("list")
	require.NoError(t, err)
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "hidden")
	assert.Contains(t, out, "retro_fan")
}

func TestSettingsDelete(t *testing.T) {
	setupConfig(t)

	_, err := execute("set", "api_key", "secret")
	require.NoError(t, err)

	out, err := execute("delete", "api_key", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Setting 'api_key' deleted")

	_, err = execute("get", "api_key")
	assert.ErrorIs(t, err, models.ErrSettingNotFound)

	_, err = execute("delete", "api_key", "--force")
	assert.ErrorIs(t, err, models.ErrSettingNotFound)
}

func TestSettingsRejectModulesKey(t *testing.T) {
	setupConfig(t)

	_, err := execute("set", models.ModulesSettingKey, `{"MetaDeck":false}`)
	assert.ErrorIs(t, err, models.ErrInvalidKey)

	_, err = execute("delete", models.ModulesSettingKey, "--force")
	assert.ErrorIs(t, err, models.ErrInvalidKey)
}
