package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/logging"
	"github.com/quinot/ESP-01-MQTT-relay/internal/provision"
	"github.com/quinot/ESP-01-MQTT-relay/internal/relay"
	"github.com/quinot/ESP-01-MQTT-relay/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 5 * time.Second

// statusPollInterval is how often the broadcast watcher samples relay and
// connection state for WebSocket push. Sampling atomics is cheap, so this
// can sit well below human reaction time.
const statusPollInterval = 250 * time.Millisecond

// RelayStatus is the read-only view of the relay exposed to HTTP handlers.
// Satisfied by *relay.Coordinator.
type RelayStatus interface {
	Current() relay.State
}

// SessionStatus is the read-only view of the MQTT session.
// Satisfied by *session.Manager.
type SessionStatus interface {
	State() session.ConnState
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  *config.Config
	Logger  *logging.Logger
	Relay   RelayStatus
	Session SessionStatus
	Store   *provision.Store

	// UIDir serves the web page from a directory instead of the embedded
	// copy when non-empty (dev mode).
	UIDir   string
	Version string
}

// Server is the HTTP status and provisioning server.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	relay   RelayStatus
	session SessionStatus
	store   *provision.Store
	uiDir   string
	version string

	server  *http.Server
	hub     *Hub
	started time.Time
	cancel  context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, state views, store)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Relay == nil {
		return nil, fmt.Errorf("relay status view is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session status view is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("provisioning store is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		relay:   deps.Relay,
		session: deps.Session,
		store:   deps.Store,
		uiDir:   deps.UIDir,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub and the state watcher, builds the router, and
// launches the HTTP listener in a background goroutine. The server can be
// stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.logger)
	go s.hub.Run(srvCtx)
	go s.watchStatus(srvCtx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.HTTP.Host, s.cfg.HTTP.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}
	s.started = time.Now()

	go func() {
		s.logger.Info("web server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to gracefulShutdownTimeout for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Stop the hub and the state watcher.
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("web server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("web server not started")
	}

	return nil
}

// watchStatus samples relay and connection state and broadcasts to the
// WebSocket hub whenever either changes. Polling atomics keeps the control
// loop entirely unaware of connected browsers.
func (s *Server) watchStatus(ctx context.Context) {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	lastRelay := s.relay.Current()
	lastConn := s.session.State()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs := s.relay.Current()
			cs := s.session.State()
			if rs == lastRelay && cs == lastConn {
				continue
			}
			lastRelay, lastConn = rs, cs
			s.hub.Broadcast(eventRelayStatus, StatusEvent{
				Relay:      rs.String(),
				Connection: cs.String(),
			})
		}
	}
}
