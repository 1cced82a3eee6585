package models

import (
	"fmt"
	"sort"
	"strings"
)

// ModuleName identifies one of the optional feature modules. The set is closed:
// only the constants below are valid.
type ModuleName string

const (
	ModuleEmuchievements ModuleName = "Emuchievements"
	ModuleMetaDeck       ModuleName = "MetaDeck"
	ModuleSteamlessTimes ModuleName = "SteamlessTimes"
)

// ModulesSettingKey is the settings key the enablement map is persisted under.
const ModulesSettingKey = "modules"

// KnownModules returns every module in lifecycle order.
func KnownModules() []ModuleName {
	return []ModuleName{ModuleEmuchievements, ModuleMetaDeck, ModuleSteamlessTimes}
}

// IsValid reports whether n names a known module.
func (n ModuleName) IsValid() bool {
	switch n {
	case ModuleEmuchievements, ModuleMetaDeck, ModuleSteamlessTimes:
		return true
	}
	return false
}

func (n ModuleName) String() string {
	return string(n)
}

// ParseModuleName resolves a module name case-insensitively.
func ParseModuleName(s string) (ModuleName, error) {
	for _, n := range KnownModules() {
		if strings.EqualFold(string(n), strings.TrimSpace(s)) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModule, s)
}

// ModuleFlags maps each module to whether it is enabled.
type ModuleFlags map[ModuleName]bool

// DefaultModuleFlags returns the flags used when nothing has been persisted:
// every module enabled.
func DefaultModuleFlags() ModuleFlags {
	flags := make(ModuleFlags, len(KnownModules()))
	for _, n := range KnownModules() {
		flags[n] = true
	}
	return flags
}

// Clone returns an independent copy. A nil map clones to nil.
func (f ModuleFlags) Clone() ModuleFlags {
	if f == nil {
		return nil
	}
	out := make(ModuleFlags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Normalize returns a copy that has an entry for every known module.
// Missing entries default to enabled. Unknown names are preserved so that a
// value written by a newer build survives a round trip.
func (f ModuleFlags) Normalize() ModuleFlags {
	out := f.Clone()
	if out == nil {
		out = make(ModuleFlags, len(KnownModules()))
	}
	for _, n := range KnownModules() {
		if _, ok := out[n]; !ok {
			out[n] = true
		}
	}
	return out
}

// Enabled reports whether the module is enabled. Absent entries count as enabled.
func (f ModuleFlags) Enabled(n ModuleName) bool {
	v, ok := f[n]
	return !ok || v
}

// EnabledModules returns the enabled known modules in lifecycle order.
func (f ModuleFlags) EnabledModules() []ModuleName {
	var out []ModuleName
	for _, n := range KnownModules() {
		if f.Enabled(n) {
			out = append(out, n)
		}
	}
	return out
}

// Equal reports whether both maps enable the same known modules.
func (f ModuleFlags) Equal(other ModuleFlags) bool {
	for _, n := range KnownModules() {
		if f.Enabled(n) != other.Enabled(n) {
			return false
		}
	}
	return true
}

// Unknown returns the names present in the map that are not known modules, sorted.
func (f ModuleFlags) Unknown() []string {
	var out []string
	for k := range f {
		if !k.IsValid() {
			out = append(out, string(k))
		}
	}
	sort.Strings(out)
	return out
}
