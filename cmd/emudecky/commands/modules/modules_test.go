package modules

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
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

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	Cmd.SetOut(&buf)
	Cmd.SetErr(&buf)
	Cmd.SetArgs(args)
	t.Cleanup(func() { disableForce = false })

	require.NoError(t, Cmd.ExecuteContext(context.Background()))
	return buf.String()
}

func currentFlags(t *testing.T) models.ModuleFlags {
	t.Helper()

	cfg, err := cmdutil.LoadConfig()
	require.NoError(t, err)
	sess, err := cmdutil.OpenSession(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()
	return sess.Host.Modules.Get()
}

func TestModulesList(t *testing.T) {
	setupConfig(t)

	out := execute(t, "list")
	assert.Contains(t, out, "MODULE")
	assert.Contains(t, out, "Emuchievements")
	assert.Contains(t, out, "SteamlessTimes")
	assert.Equal(t, 3, strings.Count(out, "yes"))
}

func TestModulesListJSON(t *testing.T) {
	setupConfig(t)
	cmdutil.Flags.Output = "json"

	out := execute(t, "list")

	var flags map[string]bool
	require.NoError(t, json.Unmarshal([]byte(out), &flags))
	assert.Equal(t, map[string]bool{
		"Emuchievements": true,
		"MetaDeck":       true,
		"SteamlessTimes": true,
	}, flags)
}

func TestModulesDisableEnable(t *testing.T) {
	setupConfig(t)

	out := execute(t, "disable", "metadeck", "--force")
	assert.Contains(t, out, "Module 'MetaDeck' disabled")

	flags := currentFlags(t)
	assert.False(t, flags.Enabled(models.ModuleMetaDeck))
	assert.True(t, flags.Enabled(models.ModuleEmuchievements))

	out = execute(t, "disable", "MetaDeck", "--force")
	assert.Contains(t, out, "already disabled")

	out = execute(t, "enable", "METADECK")
	assert.Contains(t, out, "Module 'MetaDeck' enabled")
	assert.True(t, currentFlags(t).Enabled(models.ModuleMetaDeck))
}

func TestModulesUnknown(t *testing.T) {
	setupConfig(t)

	Cmd.SetOut(&bytes.Buffer{})
	Cmd.SetErr(&bytes.Buffer{})
	Cmd.SetArgs([]string{"enable", "tetris"})

	err := Cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, models.ErrUnknownModule)
}
