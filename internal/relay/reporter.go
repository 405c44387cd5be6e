package relay

import (
	"errors"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/mqtt"
)

// Publisher is the transport slice the reporter needs.
type Publisher interface {
	PublishString(topic, payload string, qos byte, retained bool) error
}

// StatusReporter publishes the committed relay state to the status topic
// as "ON" or "OFF", fire-and-forget. Invoked on every commit, on every
// successful (re)connect, and on an explicit REPORT command.
type StatusReporter struct {
	pub    Publisher
	topic  string
	qos    byte
	retain bool
	logger Logger
}

// NewStatusReporter builds a reporter for the given status topic. QoS and
// the retain flag come straight from configuration; with retain on, late
// subscribers see the current state without waiting for the next commit.
func NewStatusReporter(pub Publisher, topic string, cfg config.MQTTConfig) *StatusReporter {
	return &StatusReporter{
		pub:    pub,
		topic:  topic,
		qos:    byte(cfg.QoS),
		retain: cfg.Retain,
		logger: noopLogger{},
	}
}

// SetLogger installs a logger. A nil logger is ignored.
func (r *StatusReporter) SetLogger(l Logger) {
	if l != nil {
		r.logger = l
	}
}

// Report publishes the given state. Failures are logged and returned, but
// no delivery guarantee beyond the configured QoS exists: a report lost
// while offline is superseded by the reconnect report anyway.
func (r *StatusReporter) Report(s State) error {
	err := r.pub.PublishString(r.topic, s.String(), r.qos, r.retain)
	switch {
	case err == nil:
		r.logger.Debug("status published", "topic", r.topic, "state", s)
		return nil
	case errors.Is(err, mqtt.ErrNotConnected):
		// Expected while the broker is away. The post-reconnect report
		// covers the gap.
		r.logger.Debug("status withheld while offline", "state", s)
		return err
	default:
		r.logger.Warn("status publish failed", "topic", r.topic, "state", s, "error", err)
		return err
	}
}
