// Package metadeck implements the MetaDeck module. It exposes no routed
// calls; the host only drives its lifecycle.
package metadeck

import (
	"context"
	"sync/atomic"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
)

// Module is the MetaDeck feature module.
type Module struct {
	running atomic.Bool
}

func New() *Module {
	return &Module{}
}

func (m *Module) Name() models.ModuleName {
	return models.ModuleMetaDeck
}

func (m *Module) Start(ctx context.Context, _ *modules.Host) error {
	m.running.Store(true)
	logger.InfoCtx(ctx, "MetaDeck started")
	return nil
}

func (m *Module) Stop(ctx context.Context, _ *modules.Host) error {
	m.running.Store(false)
	logger.InfoCtx(ctx, "MetaDeck stopped")
	return nil
}

// Running reports whether Start ran without a matching Stop.
func (m *Module) Running() bool {
	return m.running.Load()
}

var _ modules.Module = (*Module)(nil)
