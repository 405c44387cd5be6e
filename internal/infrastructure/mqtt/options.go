package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

// ===== Client Options =====

const (
	defaultKeepAlive = 30 * time.Second

	// clientIDPrefix namespaces our sessions on a shared broker.
	clientIDPrefix = "relayd"
)

// buildClientOptions translates daemon configuration into paho options.
//
// Automatic reconnect and connect retry are deliberately off: each Connect
// call is exactly one attempt, and the session manager owns the retry
// cadence. CleanSession is on because subscriptions are re-established
// after every successful connect anyway.
func buildClientOptions(cfg config.MQTTConfig, topics Topics) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		tlsCfg := &tls.Config{
			// Self-signed broker certificates are the norm on the target
			// LAN deployments. Verification is opt-in via tls_strict.
			InsecureSkipVerify: !cfg.Broker.TLSStrict, //nolint:gosec
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(newClientID(topics.deviceID))
	opts.SetCleanSession(true)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetConnectTimeout(cfg.ConnectTimeout())

	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	// Last will: the broker marks us offline if the link dies without a
	// clean DISCONNECT.
	opts.SetWill(topics.Availability(), PayloadOffline, 1, true)

	return opts
}

// newClientID returns "relayd-<device>-<suffix>" with a random suffix so a
// second daemon holding the same config (e.g. during a migration) does not
// steal the first one's session.
func newClientID(deviceID string) string {
	return fmt.Sprintf("%s-%s-%s", clientIDPrefix, deviceID, uuid.NewString()[:8])
}
