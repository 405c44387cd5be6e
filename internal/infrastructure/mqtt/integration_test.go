//go:build integration

package mqtt

// Integration tests need a reachable MQTT broker:
//
//	docker run --rm -p 1883:1883 eclipse-mosquitto:2
//	go test -tags=integration ./internal/infrastructure/mqtt/
//
// Override the broker address with RELAYD_TEST_BROKER (host:port).

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

func integrationConfig(t *testing.T) config.MQTTConfig {
	t.Helper()

	host, port := "localhost", 1883
	if addr := os.Getenv("RELAYD_TEST_BROKER"); addr != "" {
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			t.Fatalf("RELAYD_TEST_BROKER %q: %v", addr, err)
		}
		host = h
		port, err = strconv.Atoi(p)
		if err != nil {
			t.Fatalf("RELAYD_TEST_BROKER port %q: %v", p, err)
		}
	}

	cfg := testMQTTConfig()
	cfg.Broker.Host = host
	cfg.Broker.Port = port
	return cfg
}

// connectOrSkip dials the test broker, skipping the test when none is up.
func connectOrSkip(t *testing.T, cfg config.MQTTConfig, topics Topics) *Client {
	t.Helper()

	c := New(cfg, topics)
	if err := c.Connect(); err != nil {
		t.Skipf("broker not reachable: %v", err)
	}
	t.Cleanup(func() { c.Disconnect() })
	return c
}

func TestIntegration_SubscribePublishRoundtrip(t *testing.T) {
	topics := NewTopics(config.DeviceConfig{
		ID:          fmt.Sprintf("it-%d", time.Now().UnixNano()),
		TopicPrefix: "relayd-test/",
	})
	c := connectOrSkip(t, integrationConfig(t), topics)

	received := make(chan string, 1)
	err := c.Subscribe(topics.Action(), 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := c.PublishString(topics.Action(), "TOGGLE", 1, false); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "TOGGLE" {
			t.Errorf("delivered payload = %q, want TOGGLE", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command not delivered within 5s")
	}
}

func TestIntegration_RetainedStatusSurvivesReconnect(t *testing.T) {
	topics := NewTopics(config.DeviceConfig{
		ID:          fmt.Sprintf("it-%d", time.Now().UnixNano()),
		TopicPrefix: "relayd-test/",
	})
	cfg := integrationConfig(t)

	pub := connectOrSkip(t, cfg, topics)
	if err := pub.PublishString(topics.Status(), "ON", 1, true); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}
	time.Sleep(200 * time.Millisecond) // let the broker store the retained message
	pub.Disconnect()

	sub := connectOrSkip(t, cfg, topics)
	received := make(chan string, 1)
	err := sub.Subscribe(topics.Status(), 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "ON" {
			t.Errorf("retained status = %q, want ON", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained status not delivered within 5s")
	}
}

func TestIntegration_ReconnectAfterDisconnect(t *testing.T) {
	topics := NewTopics(config.DeviceConfig{
		ID:          fmt.Sprintf("it-%d", time.Now().UnixNano()),
		TopicPrefix: "relayd-test/",
	})
	c := connectOrSkip(t, integrationConfig(t), topics)

	c.Disconnect()
	if c.IsConnected() {
		t.Fatal("IsConnected() = true after Disconnect")
	}

	// With retries disabled each Connect is one fresh attempt; a second
	// session on the same client must come up cleanly.
	if err := c.Connect(); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false after reconnect")
	}
}
