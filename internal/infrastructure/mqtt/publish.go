package mqtt

import (
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// ===== Publishing =====

const (
	// maxPayloadSize caps outbound payloads. Status and availability
	// messages are a handful of bytes; anything near this limit is a bug.
	maxPayloadSize = 4096

	// publishAckTimeout bounds the background wait for broker
	// acknowledgement of a QoS>0 publish.
	publishAckTimeout = 5 * time.Second
)

// Publish sends a message without waiting for broker acknowledgement.
// Validation and connection-state failures are returned synchronously;
// delivery failures after handoff are logged by a watcher goroutine. That
// trade keeps callers (the control loop above all) off the network path.
//
// Parameters:
//   - topic: concrete topic, no wildcards
//   - payload: message body, at most maxPayloadSize bytes
//   - qos: delivery guarantee, 0 to 2
//   - retained: whether the broker keeps the message for new subscribers
//
// Returns:
//   - error: nil once the message is handed to paho; ErrInvalidTopic,
//     ErrInvalidQoS, ErrPayloadTooLarge, or ErrNotConnected otherwise
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validatePublish(topic, payload, qos); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	go c.watchPublish(token, topic)
	return nil
}

// PublishString is Publish for string payloads.
func (c *Client) PublishString(topic, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

// watchPublish waits for the broker's acknowledgement off the caller's
// goroutine and logs failures. For QoS 0 the token completes immediately.
func (c *Client) watchPublish(token pahomqtt.Token, topic string) {
	if !token.WaitTimeout(publishAckTimeout) {
		c.logger.Warn("publish not acknowledged", "topic", topic, "timeout", publishAckTimeout)
		return
	}
	if err := token.Error(); err != nil {
		c.logger.Error("publish failed", "topic", topic, "error", err)
	}
}

// validatePublish rejects malformed publishes before they reach paho.
func validatePublish(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcards not allowed in %q", ErrInvalidTopic, topic)
	}
	if qos > 2 {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}
	return nil
}
