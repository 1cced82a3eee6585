package handlers

import (
	"net/http"
	"strings"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
)

// ModulesHandler handles module enablement endpoints.
type ModulesHandler struct {
	rt *runtime.Runtime
}

// NewModulesHandler creates a new ModulesHandler.
func NewModulesHandler(rt *runtime.Runtime) *ModulesHandler {
	return &ModulesHandler{rt: rt}
}

// ModulesResponse is the body of GET and PUT /api/v1/modules.
type ModulesResponse struct {
	Modules         models.ModuleFlags `json:"modules"`
	RestartRequired bool               `json:"restart_required"`
}

// SetModulesRequest is the body of PUT /api/v1/modules.
type SetModulesRequest struct {
	Modules models.ModuleFlags `json:"modules"`
}

// Get handles GET /api/v1/modules. It waits for the flags to be loaded,
// bounded by the request context.
func (h *ModulesHandler) Get(w http.ResponseWriter, r *http.Request) {
	flags, err := h.rt.GetModules(r.Context())
	if err != nil {
		ServiceUnavailable(w, "Module flags not loaded yet")
		return
	}
	WriteJSONOK(w, ModulesResponse{
		Modules:         flags,
		RestartRequired: h.rt.RestartRequired(),
	})
}

// Put handles PUT /api/v1/modules. The flags are persisted immediately and
// apply on the next start.
func (h *ModulesHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req SetModulesRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Modules == nil {
		BadRequest(w, "modules is required")
		return
	}
	if unknown := req.Modules.Unknown(); len(unknown) > 0 {
		BadRequest(w, "Unknown modules: "+strings.Join(unknown, ", "))
		return
	}

	if err := h.rt.SetModules(r.Context(), req.Modules); err != nil {
		logger.Error("Failed to set modules", logger.KeyError, err)
		InternalServerError(w, "Failed to persist module flags")
		return
	}

	flags, err := h.rt.GetModules(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to read module flags")
		return
	}
	WriteJSONOK(w, ModulesResponse{
		Modules:         flags,
		RestartRequired: h.rt.RestartRequired(),
	})
}
