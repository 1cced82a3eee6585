package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/emudecky/emudecky/internal/controlplane/api/handlers"
	apiMiddleware "github.com/emudecky/emudecky/internal/controlplane/api/middleware"
	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/api/auth"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
)

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET|PUT /api/v1/modules - Module enablement
//   - GET /api/v1/settings - Settings working set
//   - GET|PUT|DELETE /api/v1/settings/{key} - Single setting
//   - POST /api/v1/settings/commit - Flush the working set
//   - POST /api/v1/call/{method} - Routed feature call
//
// jwtService may be nil, in which case /api/v1 is unauthenticated.
func NewRouter(rt *runtime.Runtime, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(rt)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	modulesHandler := handlers.NewModulesHandler(rt)
	settingsHandler := handlers.NewSettingsHandler(rt)
	callHandler := handlers.NewCallHandler(rt)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiMiddleware.JWTAuth(jwtService))

		r.Route("/modules", func(r chi.Router) {
			r.Get("/", modulesHandler.Get)
			r.Put("/", modulesHandler.Put)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.List)
			r.Post("/commit", settingsHandler.Commit)
			r.Get("/{key}", settingsHandler.Get)
			r.Put("/{key}", settingsHandler.Set)
			r.Delete("/{key}", settingsHandler.Delete)
		})

		r.Post("/call/{method}", callHandler.Call)
	})

	return r
}

// requestLogger logs requests using the internal logger. Health probes are
// logged at DEBUG.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}
