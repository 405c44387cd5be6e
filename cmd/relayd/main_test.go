package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/logging"
	"github.com/quinot/ESP-01-MQTT-relay/internal/relay"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("RELAYD_CONFIG")
	defer os.Setenv("RELAYD_CONFIG", originalEnv)

	os.Setenv("RELAYD_CONFIG", "/nonexistent/path/relayd.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_RejectedConfig verifies run fails when the file fails validation.
func TestRun_RejectedConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	// QoS 7 is outside the MQTT range.
	configContent := `
device:
  id: test-relay

mqtt:
  broker:
    host: "127.0.0.1"
    port: 1883
  qos: 7

gpio:
  chip: fake

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("RELAYD_CONFIG")
	defer os.Setenv("RELAYD_CONFIG", originalEnv)
	os.Setenv("RELAYD_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with an out-of-range QoS")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("RELAYD_CONFIG")
	defer os.Setenv("RELAYD_CONFIG", originalEnv)

	os.Unsetenv("RELAYD_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("RELAYD_CONFIG")
	defer os.Setenv("RELAYD_CONFIG", originalEnv)

	expected := "/custom/path/relayd.yaml"
	os.Setenv("RELAYD_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_StartupAndShutdown tests full startup with the in-memory GPIO
// board and an unreachable broker, then a clean cancellation. The session
// manager retries in the background, so no broker is required.
func TestRun_StartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
device:
  id: test-startup
  topic_prefix: "test/relay/"

mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
  qos: 1
  reconnect_interval_ms: 500
  connect_timeout_ms: 500

control:
  debounce_ms: 7000
  flash_ms: 500
  poll_ms: 20

gpio:
  chip: fake
  relay:
    pin: 17
  button:
    pin: 27
    active_low: true
    pull: up

http:
  host: "127.0.0.1"
  port: 18970
  timeouts:
    read: 5
    write: 5
    idle: 10

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("RELAYD_CONFIG")
	defer os.Setenv("RELAYD_CONFIG", originalEnv)
	os.Setenv("RELAYD_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := run(ctx)
	if err != nil {
		t.Errorf("run() should shut down cleanly on cancellation, got %v", err)
	}
}

// TestCommandHandler_QueuesKnownCommands verifies decoded commands reach
// the loop channel and junk payloads are dropped without error.
func TestCommandHandler_QueuesKnownCommands(t *testing.T) {
	inbound := make(chan relay.Command, 2)
	handler := commandHandler(testLogger(), inbound)

	if err := handler("test/relay/x/action", []byte("ON")); err != nil {
		t.Fatalf("handler returned error for ON: %v", err)
	}
	if err := handler("test/relay/x/action", []byte("definitely-not-a-command")); err != nil {
		t.Fatalf("handler should swallow unknown payloads, got %v", err)
	}

	select {
	case cmd := <-inbound:
		if cmd != relay.CommandOn {
			t.Errorf("queued command = %v, want %v", cmd, relay.CommandOn)
		}
	default:
		t.Fatal("expected ON to be queued")
	}

	select {
	case cmd := <-inbound:
		t.Errorf("unknown payload should not queue a command, got %v", cmd)
	default:
	}
}

// TestCommandHandler_FullQueueDropsNewest verifies a full channel never
// blocks paho's router goroutine.
func TestCommandHandler_FullQueueDropsNewest(t *testing.T) {
	inbound := make(chan relay.Command, 1)
	handler := commandHandler(testLogger(), inbound)

	if err := handler("t", []byte("ON")); err != nil {
		t.Fatalf("first command: %v", err)
	}
	if err := handler("t", []byte("OFF")); err != nil {
		t.Fatalf("full queue should drop silently, got %v", err)
	}

	if got := <-inbound; got != relay.CommandOn {
		t.Errorf("first queued command = %v, want %v", got, relay.CommandOn)
	}
	select {
	case cmd := <-inbound:
		t.Errorf("second command should have been dropped, got %v", cmd)
	default:
	}
}

// testLogger returns a quiet logger for handler tests.
func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{
		Level:  "error",
		Format: "text",
		Output: "stdout",
	}, "test")
}
