package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for relayd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Control ControlConfig `yaml:"control"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig identifies this relay on the MQTT bus.
// The action and status topic names are derived from TopicPrefix + ID and are
// fixed for the lifetime of the process; changing either value takes effect
// only after a restart.
type DeviceConfig struct {
	ID          string `yaml:"id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`

	// QoS applies to status publishes and the action-topic subscription.
	QoS int `yaml:"qos"`

	// Retain marks status publishes as retained so late subscribers see
	// the current relay state immediately.
	Retain bool `yaml:"retain"`

	// ReconnectIntervalMs is the minimum spacing between connect attempts.
	// The interval is flat: there is no backoff growth when the broker
	// stays unreachable.
	ReconnectIntervalMs int `yaml:"reconnect_interval_ms"`

	// ConnectTimeoutMs bounds a single connect attempt.
	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`

	// TLSStrict enables certificate verification when TLS is on. Off by
	// default: the expected broker is a LAN host with a self-signed
	// certificate. See docs in the mqtt package.
	TLSStrict bool `yaml:"tls_strict"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ControlConfig contains the relay state-machine timings.
type ControlConfig struct {
	// DebounceMs is the minimum spacing between committed relay-state
	// changes. A pending command is held, not dropped, until the window
	// elapses.
	DebounceMs int `yaml:"debounce_ms"`

	// FlashMs is the duration of a FLASH pulse. Must be positive.
	FlashMs int `yaml:"flash_ms"`

	// ReportPulse controls whether the transient state during a FLASH
	// pulse is published, or only the final (restored) state.
	ReportPulse bool `yaml:"report_pulse"`

	// PollMs is the main loop tick interval.
	PollMs int `yaml:"poll_ms"`
}

// GPIOConfig contains the hardware pin assignments.
type GPIOConfig struct {
	Chip   string          `yaml:"chip"`
	Relay  RelayPinConfig  `yaml:"relay"`
	Button ButtonPinConfig `yaml:"button"`
}

// RelayPinConfig describes the relay output line.
type RelayPinConfig struct {
	Pin int `yaml:"pin"`

	// ActiveLow inverts the drive: logical ON pulls the line low.
	// Common for opto-isolated relay boards.
	ActiveLow bool `yaml:"active_low"`
}

// ButtonPinConfig describes the push-button input line.
type ButtonPinConfig struct {
	Pin int `yaml:"pin"`

	// ActiveLow means a pressed button reads low (typical for a button
	// to ground with a pull-up).
	ActiveLow bool `yaml:"active_low"`

	// Pull selects the internal bias: "up", "down" or "none".
	Pull string `yaml:"pull"`
}

// HTTPConfig contains the web status/provisioning server settings.
type HTTPConfig struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Timeouts HTTPTimeoutConfig `yaml:"timeouts"`
}

// HTTPTimeoutConfig contains HTTP timeout settings in seconds.
type HTTPTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RELAY_SECTION_KEY
// For example: RELAY_MQTT_HOST, RELAY_DEVICE_ID
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration back to a YAML file.
//
// The write is atomic: the document is written to a temporary file in the
// same directory and renamed over the target, so a crash mid-write cannot
// leave a truncated config behind. Used by the web provisioning subsystem
// when an updated configuration is accepted.
//
// Parameters:
//   - path: Destination path (same file handed to Load)
//
// Returns:
//   - error: If marshalling or any filesystem step fails
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".relayd-config-*")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults: a 7 second debounce
// window, a 2 second reconnect rate limit and a 500 ms flash pulse.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:          "relay-01",
			TopicPrefix: "relay/",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS:                 1,
			Retain:              true,
			ReconnectIntervalMs: 2000,
			ConnectTimeoutMs:    3000,
		},
		Control: ControlConfig{
			DebounceMs: 7000,
			FlashMs:    500,
			PollMs:     50,
		},
		GPIO: GPIOConfig{
			Chip: "gpiochip0",
			Relay: RelayPinConfig{
				Pin: 17,
			},
			Button: ButtonPinConfig{
				Pin:       27,
				ActiveLow: true,
				Pull:      "up",
			},
		},
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: HTTPTimeoutConfig{
				Read:  15,
				Write: 15,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RELAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("RELAY_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	// MQTT
	if v := os.Getenv("RELAY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RELAY_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("RELAY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RELAY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// HTTP
	if v := os.Getenv("RELAY_HTTP_HOST"); v != "" {
		cfg.HTTP.Host = v
	}
}

// minBrokerHostLen is the shortest broker hostname accepted by validation.
// Anything shorter cannot be a resolvable host and is almost certainly an
// unconfigured field.
const minBrokerHostLen = 3

// Validate checks the configuration for errors.
//
// This is the boundary the relay core relies on: values that pass here are
// assumed well-formed everywhere downstream.
//
// Returns:
//   - error: Description of all validation failures, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Device validation. Topic names are derived from these fields, so
	// MQTT topic syntax restrictions apply.
	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	} else if strings.ContainsAny(c.Device.ID, "/+#") {
		errs = append(errs, "device.id must not contain MQTT topic separators or wildcards")
	}
	if strings.ContainsAny(c.Device.TopicPrefix, "+#") {
		errs = append(errs, "device.topic_prefix must not contain MQTT wildcards")
	}

	// MQTT validation
	if len(c.MQTT.Broker.Host) < minBrokerHostLen {
		errs = append(errs, fmt.Sprintf("mqtt.broker.host must be at least %d characters", minBrokerHostLen))
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.ReconnectIntervalMs <= 0 {
		errs = append(errs, "mqtt.reconnect_interval_ms must be positive")
	}
	if c.MQTT.ConnectTimeoutMs <= 0 {
		errs = append(errs, "mqtt.connect_timeout_ms must be positive")
	}

	// Control validation
	if c.Control.DebounceMs <= 0 {
		errs = append(errs, "control.debounce_ms must be positive")
	}
	if c.Control.FlashMs <= 0 {
		errs = append(errs, "control.flash_ms must be positive")
	}
	if c.Control.PollMs <= 0 {
		errs = append(errs, "control.poll_ms must be positive")
	}

	// GPIO validation
	if c.GPIO.Chip == "" {
		errs = append(errs, "gpio.chip is required")
	}
	if c.GPIO.Relay.Pin < 0 {
		errs = append(errs, "gpio.relay.pin must be non-negative")
	}
	if c.GPIO.Button.Pin < 0 {
		errs = append(errs, "gpio.button.pin must be non-negative")
	}
	if c.GPIO.Relay.Pin == c.GPIO.Button.Pin {
		errs = append(errs, "gpio.relay.pin and gpio.button.pin must differ")
	}
	switch c.GPIO.Button.Pull {
	case "up", "down", "none":
	default:
		errs = append(errs, `gpio.button.pull must be "up", "down" or "none"`)
	}

	// HTTP validation
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		errs = append(errs, "http.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DebounceInterval returns the relay debounce window as a Duration.
func (c ControlConfig) DebounceInterval() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// FlashPulse returns the FLASH pulse duration as a Duration.
func (c ControlConfig) FlashPulse() time.Duration {
	return time.Duration(c.FlashMs) * time.Millisecond
}

// PollInterval returns the main loop tick interval as a Duration.
func (c ControlConfig) PollInterval() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

// ReconnectInterval returns the minimum spacing between connect attempts.
func (c MQTTConfig) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectIntervalMs) * time.Millisecond
}

// ConnectTimeout returns the per-attempt connect timeout.
func (c MQTTConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Idle) * time.Second
}
