package session

import (
	"sync/atomic"
	"time"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/mqtt"
)

// ===== Collaborator Seams =====

// Transport is the slice of the MQTT client the manager drives.
// *mqtt.Client satisfies it.
type Transport interface {
	Connect() error
	Disconnect()
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	PublishString(topic, payload string, qos byte, retained bool) error
	IsConnected() bool
	ConnectionLost() <-chan error
}

// OnlineProbe reports whether the host has a network path worth dialing
// over. DefaultOnlineProbe checks the interface table; tests script it.
type OnlineProbe func() bool

// Logger is the leveled logging surface the manager needs.
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

// ===== Manager =====

// Manager drives the broker session from the control loop. Tick is loop
// goroutine only; State is safe from any goroutine.
type Manager struct {
	transport Transport
	topics    mqtt.Topics
	qos       byte
	handler   mqtt.MessageHandler

	interval time.Duration
	online   OnlineProbe
	logger   Logger

	onConnect func()

	state       atomic.Uint32
	lastAttempt time.Time
	netDown     bool

	// result carries one attempt outcome from the helper goroutine to
	// the next Tick. Buffer 1; the state machine guarantees at most one
	// attempt in flight, so the send never blocks.
	result chan error
}

// NewManager builds a manager in the Disconnected state.
//
// Parameters:
//   - transport: the MQTT client to drive
//   - topics: this device's topic set (command subscription, availability)
//   - cfg: QoS for the subscription and the reconnect rate limit
//   - handler: inbound command handler, re-registered on every connect;
//     must not be nil
//
// Returns:
//   - *Manager: ready for Tick from the control loop
func NewManager(transport Transport, topics mqtt.Topics, cfg config.MQTTConfig, handler mqtt.MessageHandler) *Manager {
	return &Manager{
		transport: transport,
		topics:    topics,
		qos:       byte(cfg.QoS),
		handler:   handler,
		interval:  cfg.ReconnectInterval(),
		online:    DefaultOnlineProbe,
		logger:    noopLogger{},
		result:    make(chan error, 1),
	}
}

// SetLogger installs a logger. A nil logger is ignored.
func (m *Manager) SetLogger(l Logger) {
	if l != nil {
		m.logger = l
	}
}

// SetOnConnect registers a hook that runs on the loop goroutine after
// every successful (re)connect, once the command topic is subscribed. The
// daemon reports relay status from it.
func (m *Manager) SetOnConnect(fn func()) {
	m.onConnect = fn
}

// SetOnlineProbe replaces the network probe. A nil probe is ignored.
func (m *Manager) SetOnlineProbe(p OnlineProbe) {
	if p != nil {
		m.online = p
	}
}

// State returns the session state. Safe from any goroutine.
func (m *Manager) State() ConnState {
	return ConnState(m.state.Load())
}

// Tick advances the session state machine by at most one transition.
// Never blocks: dialing runs on a helper goroutine and its outcome is
// consumed here non-blockingly.
//
// Loop goroutine only.
func (m *Manager) Tick(now time.Time) {
	switch m.State() {
	case Connected:
		m.watchConnection()
	case ConnectRequested:
		m.consumeAttempt()
	case Disconnected:
		m.maybeDial(now)
	}
}

// watchConnection demotes the state when the transport has lost the
// broker. The drop reason, if the transport captured one, is logged here.
func (m *Manager) watchConnection() {
	if m.transport.IsConnected() {
		return
	}

	var reason error
	select {
	case reason = <-m.transport.ConnectionLost():
	default:
	}

	m.logger.Warn("broker session lost", "error", reason)
	m.setState(Disconnected)
}

// consumeAttempt picks up the helper goroutine's outcome if it has
// arrived. While the attempt is still in flight this is a no-op; the
// transport's connect timeout bounds how long that can last.
func (m *Manager) consumeAttempt() {
	select {
	case err := <-m.result:
		if err != nil {
			m.logger.Warn("broker connect attempt failed", "error", err)
			m.setState(Disconnected)
			return
		}

		m.setState(Connected)
		m.logger.Info("broker session established", "topic", m.topics.Action())
		if m.onConnect != nil {
			m.onConnect()
		}
	default:
	}
}

// maybeDial launches a connection attempt when the network is up and the
// rate limit allows. The interval is flat: attempt N+1 is spaced from
// attempt N's start by at least the configured interval, no matter how
// long the broker has been away.
func (m *Manager) maybeDial(now time.Time) {
	if !m.online() {
		if !m.netDown {
			m.logger.Warn("network offline, holding connect attempts")
			m.netDown = true
		}
		return
	}
	if m.netDown {
		m.logger.Info("network restored")
		m.netDown = false
	}

	if !m.lastAttempt.IsZero() && now.Sub(m.lastAttempt) < m.interval {
		return
	}

	m.lastAttempt = now
	m.setState(ConnectRequested)
	m.logger.Debug("connecting to broker")
	go m.attempt()
}

// attempt performs one full connection attempt off the loop: dial,
// subscribe the command topic, announce availability. Runs on its own
// goroutine; the outcome lands in the result buffer.
func (m *Manager) attempt() {
	m.result <- m.dial()
}

func (m *Manager) dial() error {
	if err := m.transport.Connect(); err != nil {
		return err
	}

	if err := m.transport.Subscribe(m.topics.Action(), m.qos, m.handler); err != nil {
		// A session that cannot receive commands is worthless; tear it
		// down and let the next attempt start clean.
		m.transport.Disconnect()
		return err
	}

	if err := m.transport.PublishString(m.topics.Availability(), mqtt.PayloadOnline, 1, true); err != nil {
		// Not fatal. The retained last-will value stays stale until the
		// next reconnect, but the session itself is fine.
		m.logger.Warn("availability announcement failed", "error", err)
	}

	return nil
}

func (m *Manager) setState(s ConnState) {
	m.state.Store(uint32(s))
}
