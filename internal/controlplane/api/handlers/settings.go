package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/models"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
)

// SettingsHandler handles the settings working set endpoints.
type SettingsHandler struct {
	rt *runtime.Runtime
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(rt *runtime.Runtime) *SettingsHandler {
	return &SettingsHandler{rt: rt}
}

// SetSettingRequest is the request body for PUT /api/v1/settings/{key}.
type SetSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// SettingResponse is the response body for single-setting endpoints.
type SettingResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// List handles GET /api/v1/settings.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.rt.Settings(r.Context())
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	WriteJSONOK(w, all)
}

// Get handles GET /api/v1/settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, ok, err := h.rt.GetSetting(r.Context(), key)
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	if !ok {
		NotFound(w, "Setting not found")
		return
	}
	WriteJSONOK(w, SettingResponse{Key: key, Value: value})
}

// Set handles PUT /api/v1/settings/{key}. The change stays in the working
// set until committed.
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == models.ModulesSettingKey {
		Conflict(w, "Module flags are managed through /api/v1/modules")
		return
	}

	var req SetSettingRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if len(req.Value) == 0 {
		BadRequest(w, "value is required")
		return
	}

	if err := h.rt.SetSetting(r.Context(), key, req.Value); err != nil {
		writeSettingsError(w, err)
		return
	}
	WriteJSONOK(w, SettingResponse{Key: key, Value: req.Value})
}

// Delete handles DELETE /api/v1/settings/{key}.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == models.ModulesSettingKey {
		Conflict(w, "Module flags are managed through /api/v1/modules")
		return
	}

	if err := h.rt.DeleteSetting(r.Context(), key); err != nil {
		writeSettingsError(w, err)
		return
	}
	WriteNoContent(w)
}

// Commit handles POST /api/v1/settings/commit.
func (h *SettingsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	if err := h.rt.Commit(r.Context()); err != nil {
		writeSettingsError(w, err)
		return
	}
	WriteNoContent(w)
}

func writeSettingsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSettingNotFound):
		NotFound(w, "Setting not found")
	case errors.Is(err, models.ErrInvalidKey):
		BadRequest(w, "Invalid setting key")
	case errors.Is(err, settings.ErrNotLoaded):
		ServiceUnavailable(w, "Settings not loaded yet")
	default:
		logger.Error("Settings request failed", logger.KeyError, err)
		InternalServerError(w, "Settings operation failed")
	}
}
