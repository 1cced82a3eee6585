package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
	"github.com/emudecky/emudecky/pkg/controlplane/api/auth"
	"github.com/emudecky/emudecky/pkg/controlplane/runtime"
)

// Server provides the HTTP surface of the runtime: health probes, module and
// settings management and routed feature calls.
type Server struct {
	server       *http.Server
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server in a stopped state.
//
// When a JWT secret is configured (config or EMUDECKY_API_SECRET) every
// /api/v1 route requires a bearer token signed with it; otherwise the API is
// open and the server binds to loopback unless api.host says otherwise.
func NewServer(config APIConfig, rt *runtime.Runtime) (*Server, error) {
	config.ApplyDefaults()

	jwtService, err := NewJWTService(config)
	if err != nil {
		return nil, err
	}
	addr := config.ListenAddr()
	if jwtService == nil {
		logger.Warn("API authentication disabled: no JWT secret configured", "env_var", EnvAPISecret, "addr", addr)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(rt, jwtService),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}, nil
}

// NewJWTService builds the token service from config. It returns nil without
// error when no secret is configured.
func NewJWTService(config APIConfig) (*auth.JWTService, error) {
	secret := config.GetJWTSecret()
	if secret == "" {
		return nil, nil
	}
	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:        secret,
		TokenDuration: config.JWT.TokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service (set via %s or api.jwt.secret): %w", EnvAPISecret, err)
	}
	return svc, nil
}

// Start starts the API HTTP server and blocks until the context is cancelled
// or an error occurs. Cancellation triggers graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// The cancelled ctx would abort the drain immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. It is safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", logger.KeyError, err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	return s.config.Port
}

// Addr returns the address the server binds to.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
