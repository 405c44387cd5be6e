package mqtt

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

// ===== Logging Seam =====

// Logger is the leveled logging surface the client needs. *logging.Logger
// satisfies it directly; tests substitute a recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards everything. It is the default until SetLogger is
// called, so the client never nil-checks before logging.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ===== Client =====

const (
	// disconnectQuiesce is how long paho waits for in-flight work before
	// tearing the connection down.
	disconnectQuiesce = 250 * time.Millisecond

	// offlineFlushTimeout bounds the explicit availability publish during
	// a clean shutdown.
	offlineFlushTimeout = 1 * time.Second
)

// Client owns one paho connection with all automatic recovery disabled.
// Each Connect call is a single attempt; drops surface on ConnectionLost
// and through IsConnected. The session manager drives both.
//
// All methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	mu        sync.Mutex
	connected bool

	lost   chan error
	logger Logger
}

// New builds an unconnected client for the given broker and topic set.
//
// Parameters:
//   - cfg: broker address, credentials, TLS and timing settings
//   - topics: per-device topic set, used for the last-will registration
//
// Returns:
//   - *Client: ready for Connect; holds no network resources yet
func New(cfg config.MQTTConfig, topics Topics) *Client {
	c := &Client{
		cfg:    cfg,
		topics: topics,
		lost:   make(chan error, 1),
		logger: noopLogger{},
	}

	opts := buildClientOptions(cfg, topics)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	c.client = pahomqtt.NewClient(opts)

	return c
}

// SetLogger installs a logger for delivery failures, handler errors, and
// connection drops. A nil logger is ignored.
func (c *Client) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// Connect performs one blocking connection attempt, bounded by the
// configured connect timeout. It never retries; call it again for another
// attempt. On success any stale drop notice from a previous session is
// discarded.
//
// Returns:
//   - error: nil on success, ErrConnectionFailed (wrapped) otherwise
func (c *Client) Connect() error {
	// Anything in the lost buffer predates this attempt.
	select {
	case <-c.lost:
	default:
	}

	token := c.client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout()) {
		return fmt.Errorf("%w: no response within %s", ErrConnectionFailed, c.cfg.ConnectTimeout())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.logger.Info("mqtt connected",
		"broker", fmt.Sprintf("%s:%d", c.cfg.Broker.Host, c.cfg.Broker.Port),
		"tls", c.cfg.Broker.TLS,
	)
	return nil
}

// Disconnect tears the connection down after a short quiesce. Safe to call
// when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	if c.client.IsConnected() {
		c.client.Disconnect(uint(disconnectQuiesce.Milliseconds()))
	}
}

// Close publishes a retained "offline" on the availability topic so
// subscribers see a clean goodbye instead of waiting for the broker's
// keepalive to fire the last-will, then disconnects.
//
// Returns:
//   - error: always nil today; the signature leaves room for teardown
//     failures and keeps shutdown call sites uniform
func (c *Client) Close() error {
	if c.IsConnected() {
		token := c.client.Publish(c.topics.Availability(), 1, true, PayloadOffline)
		if !token.WaitTimeout(offlineFlushTimeout) {
			c.logger.Warn("offline notice not acknowledged before shutdown")
		} else if err := token.Error(); err != nil {
			c.logger.Warn("offline notice failed during shutdown", "error", err)
		}
	}
	c.Disconnect()
	return nil
}

// IsConnected reports whether the session is currently usable. Both our
// flag and paho's view must agree; either one going false means the next
// publish would be refused.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && c.client.IsConnected()
}

// ConnectionLost exposes drop notifications. The buffer holds the most
// recent drop reason; the session manager reads it non-blockingly when it
// observes IsConnected go false.
func (c *Client) ConnectionLost() <-chan error {
	return c.lost
}

// Topics returns the per-device topic set the client was built with.
func (c *Client) Topics() Topics {
	return c.topics
}

// onConnectionLost runs on paho's network goroutine when the broker link
// dies. With auto-reconnect off this is terminal for the session until the
// next Connect.
func (c *Client) onConnectionLost(_ pahomqtt.Client, err error) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.logger.Warn("mqtt connection lost", "error", err)

	select {
	case c.lost <- err:
	default:
	}
}
