package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
	"github.com/emudecky/emudecky/pkg/controlplane/settings"
	"github.com/emudecky/emudecky/pkg/modules/emuchievements"
)

// maxCallBody bounds the argument payload of a routed call.
const maxCallBody = 1 << 20

// CallHandler dispatches routed feature calls.
type CallHandler struct {
	rt *runtime.Runtime
}

// NewCallHandler creates a new CallHandler.
func NewCallHandler(rt *runtime.Runtime) *CallHandler {
	return &CallHandler{rt: rt}
}

// CallResponse is the body of a successful call.
type CallResponse struct {
	Result any `json:"result"`
}

// Call handles POST /api/v1/call/{method}. The body, if any, is a JSON
// object of named arguments.
func (h *CallHandler) Call(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallBody))
	if err != nil {
		BadRequest(w, "Failed to read request body")
		return
	}

	ctx := logger.WithContext(r.Context(), logger.NewLogContext(middleware.GetReqID(r.Context())))
	result, err := h.rt.Call(ctx, method, json.RawMessage(body))
	if err != nil {
		writeCallError(w, err)
		return
	}
	WriteJSONOK(w, CallResponse{Result: result})
}

func writeCallError(w http.ResponseWriter, err error) {
	var apiErr *emuchievements.APIError
	switch {
	case errors.Is(err, runtime.ErrUnknownMethod):
		NotFound(w, err.Error())
	case errors.Is(err, runtime.ErrInvalidArguments),
		errors.Is(err, emuchievements.ErrInvalidCredentials):
		BadRequest(w, err.Error())
	case errors.Is(err, emuchievements.ErrNotLoggedIn):
		WriteProblem(w, http.StatusForbidden, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		NotFound(w, err.Error())
	case errors.As(err, &apiErr):
		WriteProblem(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, settings.ErrNotLoaded):
		ServiceUnavailable(w, "Settings not loaded yet")
	default:
		InternalServerError(w, err.Error())
	}
}
