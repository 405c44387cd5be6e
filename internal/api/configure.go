package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/provision"
)

// ConfigDocument mirrors config.Config for the JSON API. A separate type
// keeps wire naming stable against internal refactors and gives the
// password redaction a place to live.
type ConfigDocument struct {
	Device  DeviceSection  `json:"device"`
	MQTT    MQTTSection    `json:"mqtt"`
	Control ControlSection `json:"control"`
	GPIO    GPIOSection    `json:"gpio"`
	HTTP    HTTPSection    `json:"http"`
	Logging LoggingSection `json:"logging"`
}

// DeviceSection identifies the relay on the MQTT bus.
type DeviceSection struct {
	ID          string `json:"id"`
	TopicPrefix string `json:"topic_prefix"`
}

// MQTTSection carries the broker connection settings.
type MQTTSection struct {
	Broker              BrokerSection `json:"broker"`
	Auth                AuthSection   `json:"auth"`
	QoS                 int           `json:"qos"`
	Retain              bool          `json:"retain"`
	ReconnectIntervalMs int           `json:"reconnect_interval_ms"`
	ConnectTimeoutMs    int           `json:"connect_timeout_ms"`
}

// BrokerSection is the broker endpoint.
type BrokerSection struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	TLS       bool   `json:"tls"`
	TLSStrict bool   `json:"tls_strict"`
}

// AuthSection carries broker credentials. The password is never returned;
// an empty password on update keeps the stored one.
type AuthSection struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ControlSection carries the relay state-machine timings.
type ControlSection struct {
	DebounceMs  int  `json:"debounce_ms"`
	FlashMs     int  `json:"flash_ms"`
	ReportPulse bool `json:"report_pulse"`
	PollMs      int  `json:"poll_ms"`
}

// GPIOSection carries the hardware pin assignments.
type GPIOSection struct {
	Chip   string           `json:"chip"`
	Relay  RelayPinSection  `json:"relay"`
	Button ButtonPinSection `json:"button"`
}

// RelayPinSection describes the relay output line.
type RelayPinSection struct {
	Pin       int  `json:"pin"`
	ActiveLow bool `json:"active_low"`
}

// ButtonPinSection describes the push-button input line.
type ButtonPinSection struct {
	Pin       int    `json:"pin"`
	ActiveLow bool   `json:"active_low"`
	Pull      string `json:"pull"`
}

// HTTPSection carries the web server settings.
type HTTPSection struct {
	Host     string         `json:"host"`
	Port     int            `json:"port"`
	Timeouts TimeoutSection `json:"timeouts"`
}

// TimeoutSection carries HTTP timeouts in seconds.
type TimeoutSection struct {
	Read  int `json:"read"`
	Write int `json:"write"`
	Idle  int `json:"idle"`
}

// LoggingSection carries logging settings.
type LoggingSection struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// newConfigDocument converts a configuration to its wire form with the
// broker password redacted.
func newConfigDocument(cfg config.Config) ConfigDocument {
	return ConfigDocument{
		Device: DeviceSection{
			ID:          cfg.Device.ID,
			TopicPrefix: cfg.Device.TopicPrefix,
		},
		MQTT: MQTTSection{
			Broker: BrokerSection{
				Host:      cfg.MQTT.Broker.Host,
				Port:      cfg.MQTT.Broker.Port,
				TLS:       cfg.MQTT.Broker.TLS,
				TLSStrict: cfg.MQTT.Broker.TLSStrict,
			},
			Auth: AuthSection{
				Username: cfg.MQTT.Auth.Username,
				Password: "",
			},
			QoS:                 cfg.MQTT.QoS,
			Retain:              cfg.MQTT.Retain,
			ReconnectIntervalMs: cfg.MQTT.ReconnectIntervalMs,
			ConnectTimeoutMs:    cfg.MQTT.ConnectTimeoutMs,
		},
		Control: ControlSection{
			DebounceMs:  cfg.Control.DebounceMs,
			FlashMs:     cfg.Control.FlashMs,
			ReportPulse: cfg.Control.ReportPulse,
			PollMs:      cfg.Control.PollMs,
		},
		GPIO: GPIOSection{
			Chip: cfg.GPIO.Chip,
			Relay: RelayPinSection{
				Pin:       cfg.GPIO.Relay.Pin,
				ActiveLow: cfg.GPIO.Relay.ActiveLow,
			},
			Button: ButtonPinSection{
				Pin:       cfg.GPIO.Button.Pin,
				ActiveLow: cfg.GPIO.Button.ActiveLow,
				Pull:      cfg.GPIO.Button.Pull,
			},
		},
		HTTP: HTTPSection{
			Host: cfg.HTTP.Host,
			Port: cfg.HTTP.Port,
			Timeouts: TimeoutSection{
				Read:  cfg.HTTP.Timeouts.Read,
				Write: cfg.HTTP.Timeouts.Write,
				Idle:  cfg.HTTP.Timeouts.Idle,
			},
		},
		Logging: LoggingSection{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		},
	}
}

// toConfig converts a submitted document back to a configuration. An empty
// password inherits the stored one, so the round-trip through the redacting
// GET cannot silently wipe credentials.
func (d ConfigDocument) toConfig(current config.Config) config.Config {
	password := d.MQTT.Auth.Password
	if password == "" {
		password = current.MQTT.Auth.Password
	}

	return config.Config{
		Device: config.DeviceConfig{
			ID:          d.Device.ID,
			TopicPrefix: d.Device.TopicPrefix,
		},
		MQTT: config.MQTTConfig{
			Broker: config.MQTTBrokerConfig{
				Host:      d.MQTT.Broker.Host,
				Port:      d.MQTT.Broker.Port,
				TLS:       d.MQTT.Broker.TLS,
				TLSStrict: d.MQTT.Broker.TLSStrict,
			},
			Auth: config.MQTTAuthConfig{
				Username: d.MQTT.Auth.Username,
				Password: password,
			},
			QoS:                 d.MQTT.QoS,
			Retain:              d.MQTT.Retain,
			ReconnectIntervalMs: d.MQTT.ReconnectIntervalMs,
			ConnectTimeoutMs:    d.MQTT.ConnectTimeoutMs,
		},
		Control: config.ControlConfig{
			DebounceMs:  d.Control.DebounceMs,
			FlashMs:     d.Control.FlashMs,
			ReportPulse: d.Control.ReportPulse,
			PollMs:      d.Control.PollMs,
		},
		GPIO: config.GPIOConfig{
			Chip: d.GPIO.Chip,
			Relay: config.RelayPinConfig{
				Pin:       d.GPIO.Relay.Pin,
				ActiveLow: d.GPIO.Relay.ActiveLow,
			},
			Button: config.ButtonPinConfig{
				Pin:       d.GPIO.Button.Pin,
				ActiveLow: d.GPIO.Button.ActiveLow,
				Pull:      d.GPIO.Button.Pull,
			},
		},
		HTTP: config.HTTPConfig{
			Host: d.HTTP.Host,
			Port: d.HTTP.Port,
			Timeouts: config.HTTPTimeoutConfig{
				Read:  d.HTTP.Timeouts.Read,
				Write: d.HTTP.Timeouts.Write,
				Idle:  d.HTTP.Timeouts.Idle,
			},
		},
		Logging: config.LoggingConfig{
			Level:  d.Logging.Level,
			Format: d.Logging.Format,
			Output: d.Logging.Output,
		},
	}
}

// handleGetConfig returns the stored configuration with secrets redacted.
// After a PUT this reflects the saved document, which may differ from what
// the process is running until the restart.
func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newConfigDocument(s.store.Current()))
}

// UpdateConfigResponse acknowledges an accepted configuration document.
type UpdateConfigResponse struct {
	Status         string `json:"status"`
	RestartPending bool   `json:"restart_pending"`
}

// handlePutConfig validates and persists a replacement configuration.
//
// The document is the complete configuration, not a patch. On success the
// store raises the restart flag and the control loop restarts the process;
// submitting the unchanged document is accepted without scheduling one.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var doc ConfigDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	next := doc.toConfig(s.store.Current())
	if err := s.store.Update(next); err != nil {
		if errors.Is(err, provision.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		s.logger.Error("configuration update failed", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to persist configuration")
		return
	}

	writeJSON(w, http.StatusOK, UpdateConfigResponse{
		Status:         "accepted",
		RestartPending: s.store.RebootPending(),
	})
}

// handleReboot schedules a process restart without a configuration change.
func (s *Server) handleReboot(w http.ResponseWriter, _ *http.Request) {
	s.store.RequestReboot()
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "restarting"})
}
