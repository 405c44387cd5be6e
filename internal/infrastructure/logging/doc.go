// Package logging provides structured logging for relayd.
//
// It wraps log/slog with the daemon's conventions baked in: every entry
// carries constant service and version fields, output destination and
// level come from the logging section of the config file, and each
// subsystem logs through a child logger tagged with a component field.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// JSON output suits journald scraping on the target device; text output
// is easier on the eyes during development.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	transport.SetLogger(logger.Component("mqtt"))
//	logger.Info("initialisation complete", "broker", cfg.MQTT.Broker.Host)
//
// Never log secrets: broker passwords stay out of log fields, even at
// debug level.
package logging
