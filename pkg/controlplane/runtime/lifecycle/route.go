package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/internal/telemetry"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/modules"
)

// Route dispatches a feature call to its owning module with the shared host
// context. The module's enablement flag is not consulted: calls reach the
// module whether or not its start hook ran.
func Route[T any](
	ctx context.Context,
	c *Coordinator,
	module models.ModuleName,
	method string,
	fn func(ctx context.Context, host *modules.Host) (T, error),
) (result T, err error) {
	lc := logger.FromContext(ctx)
	if lc == nil || lc.CallID == "" {
		lc = logger.NewLogContext(uuid.NewString())
	}
	lc = lc.WithModule(string(module)).WithMethod(method)
	ctx = logger.WithContext(ctx, lc)

	ctx, span := telemetry.StartCallSpan(ctx, string(module), method, lc.CallID)
	start := time.Now()

	defer func() {
		if c.metrics != nil {
			c.metrics.ObserveCall(string(module), method, time.Since(start), err)
		}
		telemetry.EndSpan(span, err)
		if err != nil {
			logger.WarnCtx(ctx, "Routed call failed", logger.KeyError, err, logger.KeyDurationMs, logger.Duration(start))
		} else {
			logger.DebugCtx(ctx, "Routed call completed", logger.KeyDurationMs, logger.Duration(start))
		}
	}()

	return fn(ctx, c.host)
}
