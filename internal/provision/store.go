package provision

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

// ErrInvalidConfig wraps validation failures for submitted configurations.
var ErrInvalidConfig = errors.New("provision: invalid configuration")

// Logger is the leveled logging surface the store needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Store holds the running configuration snapshot and the reboot-pending
// flag. HTTP handlers call Current/Update/RequestReboot from their own
// goroutines; the control loop polls RebootPending every tick.
type Store struct {
	path   string
	logger Logger

	mu  sync.RWMutex
	cfg config.Config

	rebootPending atomic.Bool
}

// NewStore wraps the configuration the process booted with.
//
// Parameters:
//   - path: the file Update persists to (the same file Load read)
//   - cfg: the active configuration
//
// Returns:
//   - *Store: ready for concurrent use
func NewStore(path string, cfg *config.Config) *Store {
	return &Store{
		path:   path,
		cfg:    *cfg,
		logger: noopLogger{},
	}
}

// SetLogger installs a logger. A nil logger is ignored.
func (s *Store) SetLogger(l Logger) {
	if l != nil {
		s.logger = l
	}
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.path
}

// Current returns a copy of the active configuration. Config holds no
// reference types, so the copy is fully detached.
func (s *Store) Current() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update validates next, persists it, and raises the reboot-pending flag.
// A document identical to the running one is accepted and dropped without
// persisting or requesting a restart, so idempotent re-submits from the
// web UI cannot reboot-loop the device.
//
// The running process keeps its old configuration either way; the new
// document only takes effect after the restart.
//
// Parameters:
//   - next: the complete replacement configuration
//
// Returns:
//   - error: ErrInvalidConfig (wrapped) if validation fails, or the
//     filesystem error from persisting
func (s *Store) Update(next config.Config) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if next == s.cfg {
		s.logger.Debug("configuration unchanged, nothing to apply")
		return nil
	}

	if err := next.Save(s.path); err != nil {
		return fmt.Errorf("persisting configuration: %w", err)
	}

	s.cfg = next
	s.rebootPending.Store(true)
	s.logger.Info("configuration updated, restart pending", "path", s.path)
	return nil
}

// RequestReboot raises the reboot-pending flag without a configuration
// change. Backs the explicit restart button in the web UI.
func (s *Store) RequestReboot() {
	s.rebootPending.Store(true)
	s.logger.Info("restart requested")
}

// RebootPending reports whether the control loop should restart the
// process. Safe from any goroutine.
func (s *Store) RebootPending() bool {
	return s.rebootPending.Load()
}
