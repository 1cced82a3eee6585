package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emudecky/emudecky/internal/logger"
)

// DefaultShutdownTimeout is the default timeout for graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// AuxiliaryServer is an interface for auxiliary HTTP servers (API, Metrics).
type AuxiliaryServer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Port() int
}

// Watcher runs background polling alongside the coordinator.
type Watcher interface {
	Start(ctx context.Context)
	Stop()
}

// Service runs a Coordinator as a long-lived process together with its
// auxiliary servers.
type Service struct {
	shutdownTimeout time.Duration
	apiServer       AuxiliaryServer
	metricsServer   AuxiliaryServer

	// serveOnce ensures Serve() is only called once
	serveOnce sync.Once
	served    bool
}

// New creates a new lifecycle service.
func New(shutdownTimeout time.Duration) *Service {
	if shutdownTimeout == 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &Service{
		shutdownTimeout: shutdownTimeout,
	}
}

// SetAPIServer sets the REST API HTTP server.
// Must be called before Serve().
func (s *Service) SetAPIServer(server AuxiliaryServer) {
	if s.served {
		panic("cannot set API server after Serve() has been called")
	}
	s.apiServer = server
	if server != nil {
		logger.Info("API server registered", "port", server.Port())
	}
}

// SetMetricsServer sets the Prometheus metrics server.
// Must be called before Serve().
func (s *Service) SetMetricsServer(server AuxiliaryServer) {
	if s.served {
		panic("cannot set metrics server after Serve() has been called")
	}
	s.metricsServer = server
	if server != nil {
		logger.Info("Metrics server registered", "port", server.Port())
	}
}

// Serve initializes the coordinator, starts the auxiliary servers and blocks
// until ctx is cancelled or a server fails. The coordinator is then shut down
// within the shutdown timeout.
//
// When initialization fails, the modules that did start are stopped and the
// initialization error is returned.
func (s *Service) Serve(ctx context.Context, coord *Coordinator, watcher Watcher) error {
	err := errors.New("service already served")
	s.serveOnce.Do(func() {
		s.served = true
		err = s.serve(ctx, coord, watcher)
	})
	return err
}

func (s *Service) serve(ctx context.Context, coord *Coordinator, watcher Watcher) error {
	logger.Info("Starting EmuDecky runtime")

	if err := coord.Initialize(ctx); err != nil {
		logger.Error("Initialization failed", logger.KeyError, err)
		// The process exits after this, so modules that did start get their stop hook.
		_ = s.stopCoordinator(coord)
		return fmt.Errorf("initialization failed: %w", err)
	}

	if watcher != nil {
		watcher.Start(ctx)
	}

	serverCtx, cancelServers := context.WithCancel(ctx)
	defer cancelServers()

	errChan := make(chan error, 2)
	for _, srv := range []AuxiliaryServer{s.apiServer, s.metricsServer} {
		if srv == nil {
			continue
		}
		go func(srv AuxiliaryServer) {
			if err := srv.Start(serverCtx); err != nil {
				errChan <- err
			}
		}(srv)
	}

	var shutdownErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", "reason", ctx.Err())
	case err := <-errChan:
		logger.Error("Auxiliary server failed - initiating shutdown", logger.KeyError, err)
		shutdownErr = err
	}

	if watcher != nil {
		logger.Debug("Stopping flags watcher")
		watcher.Stop()
	}

	if err := s.stopCoordinator(coord); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	cancelServers()
	s.stopServers()

	logger.Info("EmuDecky runtime stopped")
	return shutdownErr
}

func (s *Service) stopCoordinator(coord *Coordinator) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := coord.Shutdown(ctx); err != nil {
		logger.Warn("Module shutdown reported errors", logger.KeyError, err)
		return err
	}
	return nil
}

func (s *Service) stopServers() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, srv := range []AuxiliaryServer{s.apiServer, s.metricsServer} {
		if srv == nil {
			continue
		}
		if err := srv.Stop(ctx); err != nil {
			logger.Error("Auxiliary server shutdown error", "port", srv.Port(), logger.KeyError, err)
		}
	}
}
