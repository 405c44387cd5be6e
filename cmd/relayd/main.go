// relayd - MQTT relay controller daemon
//
// relayd drives a single relay and push-button attached to GPIO lines,
// mirrors the relay state to an MQTT status topic, accepts commands on an
// action topic, and serves a small web page for status and provisioning.
// Everything runs off one cooperative control loop with a rate-limited
// broker session and a debounce window that merges button presses and bus
// commands into calm, spaced relay commits.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quinot/ESP-01-MQTT-relay/internal/api"
	"github.com/quinot/ESP-01-MQTT-relay/internal/gpio"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/logging"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/mqtt"
	"github.com/quinot/ESP-01-MQTT-relay/internal/loop"
	"github.com/quinot/ESP-01-MQTT-relay/internal/provision"
	"github.com/quinot/ESP-01-MQTT-relay/internal/relay"
	"github.com/quinot/ESP-01-MQTT-relay/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/relayd.yaml"

// inboundBuffer sizes the MQTT-to-loop command channel. The coordinator
// coalesces commands anyway; the buffer only has to absorb a burst
// between two loop ticks.
const inboundBuffer = 16

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx)

	// A restart request from the provisioning subsystem is not a failure:
	// re-exec so the new process reads the updated configuration.
	if errors.Is(err, loop.ErrRebootRequested) {
		if execErr := restart(); execErr != nil {
			fmt.Fprintf(os.Stderr, "Error: restarting: %v\n", execErr)
			os.Exit(1)
		}
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, loop.ErrRebootRequested when the
//     process should re-exec, or an error describing a startup failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting relayd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Transport adapter. Not connected yet: the session manager owns the
	// connect/retry policy from inside the loop.
	topics := mqtt.NewTopics(cfg.Device)
	transport := mqtt.New(cfg.MQTT, topics)
	transport.SetLogger(log.Component("mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := transport.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("transport ready",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"action_topic", topics.Action(),
		"status_topic", topics.Status(),
	)

	// GPIO lines
	board, err := gpio.NewBoard(cfg.GPIO)
	if err != nil {
		return fmt.Errorf("requesting GPIO lines: %w", err)
	}
	defer func() {
		log.Info("releasing GPIO lines")
		if closeErr := board.Close(); closeErr != nil {
			log.Error("error releasing GPIO lines", "error", closeErr)
		}
	}()
	log.Info("gpio ready",
		"chip", cfg.GPIO.Chip,
		"relay_pin", cfg.GPIO.Relay.Pin,
		"button_pin", cfg.GPIO.Button.Pin,
	)

	// Relay core: reporter publishes state, coordinator owns the relay.
	reporter := relay.NewStatusReporter(transport, topics.Status(), cfg.MQTT)
	reporter.SetLogger(log.Component("reporter"))

	coord := relay.NewCoordinator(board, reporter, cfg.Control)
	coord.SetLogger(log.Component("relay"))

	// Inbound commands flow from the broker into the loop through this
	// channel; the handler runs on paho's goroutines and must not touch
	// core state directly.
	inbound := make(chan relay.Command, inboundBuffer)

	manager := session.NewManager(transport, topics, cfg.MQTT, commandHandler(log, inbound))
	manager.SetLogger(log.Component("session"))
	manager.SetOnConnect(func() {
		// A fresh session gets an immediate status report so subscribers
		// resynchronise without waiting for the next commit.
		coord.Submit(relay.CommandReport)
	})

	// Provisioning store and web server
	store := provision.NewStore(configPath, cfg)
	store.SetLogger(log.Component("provision"))

	server, err := api.New(api.Deps{
		Config:  cfg,
		Logger:  log.Component("api"),
		Relay:   coord,
		Session: manager,
		Store:   store,
		UIDir:   os.Getenv("RELAYD_UI_DIR"),
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting web server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing web server", "error", closeErr)
		}
	}()

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	// Control loop
	driver, err := loop.New(loop.Deps{
		Coordinator: coord,
		Session:     manager,
		Button:      board,
		Reboot:      store,
		Inbound:     inbound,
		Config:      cfg.Control,
	})
	if err != nil {
		return fmt.Errorf("creating control loop: %w", err)
	}
	driver.SetLogger(log.Component("loop"))

	log.Info("initialisation complete", "device_id", cfg.Device.ID)

	// The loop blocks until shutdown or a restart request. Deferred
	// closers then run in reverse order: web server, GPIO (relay off),
	// MQTT (retained offline notice).
	err = driver.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("relayd stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RELAYD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RELAYD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// commandHandler decodes action-topic payloads and queues them for the
// control loop.
//
// Unknown payloads are dropped with a debug log per the command contract.
// A full queue drops the newest command with a warning; the loop drains
// the queue every tick, so this only fires if the loop has stalled.
func commandHandler(log *logging.Logger, inbound chan<- relay.Command) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		cmd, err := relay.ParseCommand(payload)
		if err != nil {
			log.Debug("ignoring unrecognised command",
				"topic", topic,
				"payload", string(payload),
			)
			return nil
		}

		select {
		case inbound <- cmd:
		default:
			log.Warn("command queue full, dropping", "command", cmd.String())
		}
		return nil
	}
}
