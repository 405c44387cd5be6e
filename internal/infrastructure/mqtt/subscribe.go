package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// ===== Subscribing =====

// subscribeAckTimeout bounds the wait for the broker's SUBACK. Unlike
// Publish, Subscribe blocks for it: the session manager must know the
// command topic is live before declaring the session connected.
const subscribeAckTimeout = 5 * time.Second

// MessageHandler processes one inbound message. Returning an error logs
// it; panics are recovered so a bad payload cannot kill paho's router
// goroutine.
type MessageHandler func(topic string, payload []byte) error

// Subscribe registers a handler and waits for the broker to acknowledge
// the subscription.
//
// Subscriptions do not survive reconnects (CleanSession is on); the
// session manager calls Subscribe again after every successful Connect.
//
// Parameters:
//   - topic: topic filter to subscribe to
//   - qos: maximum QoS the broker may use for deliveries
//   - handler: callback invoked on paho's router goroutine per message
//
// Returns:
//   - error: nil on acknowledged subscription; ErrInvalidTopic,
//     ErrInvalidQoS, ErrNotConnected, or ErrSubscribeFailed otherwise
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return fmt.Errorf("%w: empty topic", ErrInvalidTopic)
	}
	if qos > 2 {
		return fmt.Errorf("%w: %d", ErrInvalidQoS, qos)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrSubscribeFailed, topic)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(subscribeAckTimeout) {
		return fmt.Errorf("%w: no acknowledgement for %q within %s", ErrSubscribeFailed, topic, subscribeAckTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSubscribeFailed, topic, err)
	}

	c.logger.Debug("subscribed", "topic", topic, "qos", qos)
	return nil
}

// wrapHandler adapts a MessageHandler to paho's signature with panic
// recovery and error logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("message handler panic", "topic", msg.Topic(), "panic", r)
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Warn("message handler error", "topic", msg.Topic(), "error", err)
		}
	}
}
