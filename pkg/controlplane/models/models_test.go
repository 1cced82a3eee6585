package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleName_IsValid(t *testing.T) {
	tests := []struct {
		name  ModuleName
		valid bool
	}{
		{ModuleEmuchievements, true},
		{ModuleMetaDeck, true},
		{ModuleSteamlessTimes, true},
		{"metadeck", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.name.IsValid())
		})
	}
}

func TestParseModuleName(t *testing.T) {
	n, err := ParseModuleName(" steamlesstimes ")
	require.NoError(t, err)
	assert.Equal(t, ModuleSteamlessTimes, n)

	_, err = ParseModuleName("Decky")
	assert.True(t, errors.Is(err, ErrUnknownModule))
}

func TestKnownModulesOrder(t *testing.T) {
	assert.Equal(t, []ModuleName{ModuleEmuchievements, ModuleMetaDeck, ModuleSteamlessTimes}, KnownModules())
}

func TestModuleFlags(t *testing.T) {
	t.Run("defaults enable everything", func(t *testing.T) {
		flags := DefaultModuleFlags()
		assert.Len(t, flags, 3)
		assert.Equal(t, KnownModules(), flags.EnabledModules())
	})

	t.Run("normalize fills missing entries", func(t *testing.T) {
		flags := ModuleFlags{ModuleMetaDeck: false}.Normalize()
		assert.Equal(t, ModuleFlags{
			ModuleEmuchievements: true,
			ModuleMetaDeck:       false,
			ModuleSteamlessTimes: true,
		}, flags)
	})

	t.Run("normalize keeps unknown entries", func(t *testing.T) {
		flags := ModuleFlags{"Future": false}.Normalize()
		assert.Equal(t, []string{"Future"}, flags.Unknown())
		assert.Len(t, flags, 4)
	})

	t.Run("clone is independent", func(t *testing.T) {
		orig := DefaultModuleFlags()
		clone := orig.Clone()
		clone[ModuleMetaDeck] = false
		assert.True(t, orig[ModuleMetaDeck])
		assert.Nil(t, ModuleFlags(nil).Clone())
	})

	t.Run("enabled modules keep lifecycle order", func(t *testing.T) {
		flags := ModuleFlags{ModuleSteamlessTimes: true, ModuleMetaDeck: false, ModuleEmuchievements: true}
		assert.Equal(t, []ModuleName{ModuleEmuchievements, ModuleSteamlessTimes}, flags.EnabledModules())
	})

	t.Run("equal ignores unknown entries", func(t *testing.T) {
		a := ModuleFlags{ModuleMetaDeck: false, "Other": true}
		b := ModuleFlags{ModuleMetaDeck: false}
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(DefaultModuleFlags()))
	})

	t.Run("json uses module names as keys", func(t *testing.T) {
		data, err := json.Marshal(ModuleFlags{ModuleMetaDeck: false})
		require.NoError(t, err)
		assert.JSONEq(t, `{"MetaDeck":false}`, string(data))

		var decoded ModuleFlags
		require.NoError(t, json.Unmarshal([]byte(`{"Emuchievements":true,"MetaDeck":false,"SteamlessTimes":true}`), &decoded))
		assert.False(t, decoded.Enabled(ModuleMetaDeck))
	})
}
