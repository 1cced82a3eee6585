package modules

import (
	"context"

	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
)

// Host is the shared context handed to every module hook and feature call.
type Host struct {
	Settings *settings.Manager
	Modules  *Registry
}

// NewHost bundles the settings working set with a registry persisting into it.
func NewHost(mgr *settings.Manager) *Host {
	return &Host{
		Settings: mgr,
		Modules:  NewRegistry(mgr),
	}
}

// Module is a feature module with start and stop hooks.
//
// Start is called once at initialization when the module is enabled. Stop is
// called once at shutdown for every module whose Start succeeded.
type Module interface {
	Name() models.ModuleName
	Start(ctx context.Context, host *Host) error
	Stop(ctx context.Context, host *Host) error
}
