package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime/lifecycle"
)

// HealthCheckTimeout bounds the store health check of the readiness probe.
const HealthCheckTimeout = 5 * time.Second

// Response is the envelope of health responses.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func healthyResponse(data any) Response {
	return Response{Status: "healthy", Timestamp: time.Now().UTC(), Data: data}
}

func unhealthyResponse(errMsg string, data any) Response {
	return Response{Status: "unhealthy", Timestamp: time.Now().UTC(), Error: errMsg, Data: data}
}

// HealthHandler handles health check endpoints. Both are unauthenticated.
type HealthHandler struct {
	rt        *runtime.Runtime
	startTime time.Time
}

// NewHealthHandler creates a new health handler. rt may be nil, in which
// case readiness always fails.
func NewHealthHandler(rt *runtime.Runtime) *HealthHandler {
	return &HealthHandler{
		rt:        rt,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSONOK(w, healthyResponse(map[string]any{
		"service":    "emudecky",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// ReadinessData is the payload of GET /health/ready.
type ReadinessData struct {
	State           string   `json:"state"`
	Started         []string `json:"started"`
	RestartRequired bool     `json:"restart_required"`
	Backend         string   `json:"backend"`
	StoreLatency    string   `json:"store_latency,omitempty"`
}

// Readiness handles GET /health/ready. It succeeds while the coordinator is
// running and the settings store answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.rt == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("runtime not initialized", nil))
		return
	}

	state := h.rt.State()
	data := ReadinessData{
		State:           state.String(),
		RestartRequired: h.rt.RestartRequired(),
		Backend:         string(h.rt.Store().Type()),
		Started:         []string{},
	}
	for _, name := range h.rt.Coordinator().Started() {
		data.Started = append(data.Started, string(name))
	}

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := h.rt.Store().Healthcheck(ctx)
	data.StoreLatency = time.Since(start).String()

	switch {
	case err != nil:
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("settings store: "+err.Error(), data))
	case state != lifecycle.StateRunning:
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("coordinator is "+state.String(), data))
	default:
		WriteJSONOK(w, healthyResponse(data))
	}
}
