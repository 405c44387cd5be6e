package mqtt

import "github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"

// ===== Topic Scheme =====

// Topic suffixes under "<prefix><device id>/".
const (
	actionSuffix       = "/action"
	statusSuffix       = "/status"
	availabilitySuffix = "/online"
)

// Availability payloads. The broker publishes PayloadOffline via the
// last-will when the connection dies uncleanly; clean shutdowns publish it
// explicitly.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Topics derives the per-device topic set from the configured prefix and
// device identifier. The zero value is not usable; construct via NewTopics.
//
// Scheme:
//
//	<prefix><device id>/action  - inbound commands (subscribed)
//	<prefix><device id>/status  - relay state, retained (published)
//	<prefix><device id>/online  - availability, retained (published + LWT)
type Topics struct {
	prefix   string
	deviceID string
}

// NewTopics builds the topic set for one device.
//
// Parameters:
//   - cfg: device configuration carrying the topic prefix and device ID
//
// Returns:
//   - Topics: the derived per-device topic set
func NewTopics(cfg config.DeviceConfig) Topics {
	return Topics{prefix: cfg.TopicPrefix, deviceID: cfg.ID}
}

// Action returns the command topic this device subscribes to.
func (t Topics) Action() string {
	return t.prefix + t.deviceID + actionSuffix
}

// Status returns the retained relay-state topic.
func (t Topics) Status() string {
	return t.prefix + t.deviceID + statusSuffix
}

// Availability returns the retained online/offline topic used for the
// last-will registration and explicit availability publishes.
func (t Topics) Availability() string {
	return t.prefix + t.deviceID + availabilitySuffix
}
