// Package config handles loading, validating and persisting relayd
// configuration.
//
// This package manages:
//   - Loading configuration from a YAML file
//   - Overriding with environment variables
//   - Validation of required fields and value ranges
//   - Default value handling
//   - Writing updated configuration back to disk (web provisioning)
//
// The validation contract matters to the rest of the daemon: the relay
// core assumes QoS has been constrained to {0,1,2}, the flash pulse to a
// positive duration and the broker host to a plausible hostname before any
// of those values reach it. Both entry points (Load at startup and the
// provisioning PUT handler) funnel through Validate, so the core never
// sees a malformed value.
//
// Security Considerations:
//   - Broker credentials should be supplied via RELAY_MQTT_USERNAME and
//     RELAY_MQTT_PASSWORD rather than committed to the config file
//   - The config file is written with 0600 permissions
//
// Usage:
//
//	cfg, err := config.Load("configs/relayd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.ID)
package config
