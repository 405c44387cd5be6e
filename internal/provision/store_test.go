package provision

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "relayd.yaml")
	cfg := config.Default()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("seeding config file: %v", err)
	}
	return NewStore(path, cfg), path
}

func TestStore_CurrentReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)

	got := store.Current()
	got.Device.ID = "mutated"

	if store.Current().Device.ID == "mutated" {
		t.Fatal("mutating the returned config leaked into the store")
	}
}

func TestStore_UpdatePersistsAndFlagsReboot(t *testing.T) {
	store, path := newTestStore(t)

	next := store.Current()
	next.Device.ID = "relay-workshop"
	next.MQTT.Broker.Host = "broker.lan"

	if err := store.Update(next); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if !store.RebootPending() {
		t.Error("RebootPending() = false, want true after update")
	}
	if got := store.Current().Device.ID; got != "relay-workshop" {
		t.Errorf("Current().Device.ID = %q, want %q", got, "relay-workshop")
	}

	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("reloading persisted config: %v", err)
	}
	if reloaded.Device.ID != "relay-workshop" {
		t.Errorf("persisted Device.ID = %q, want %q", reloaded.Device.ID, "relay-workshop")
	}
	if reloaded.MQTT.Broker.Host != "broker.lan" {
		t.Errorf("persisted Broker.Host = %q, want %q", reloaded.MQTT.Broker.Host, "broker.lan")
	}
}

func TestStore_UpdateRejectsInvalidConfig(t *testing.T) {
	store, path := newTestStore(t)

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading seeded file: %v", err)
	}

	next := store.Current()
	next.MQTT.QoS = 7

	err = store.Update(next)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Update() error = %v, want ErrInvalidConfig", err)
	}
	if store.RebootPending() {
		t.Error("RebootPending() = true after rejected update")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-reading file: %v", err)
	}
	if string(before) != string(after) {
		t.Error("rejected update modified the persisted file")
	}
}

func TestStore_UpdateUnchangedIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.Update(store.Current()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if store.RebootPending() {
		t.Error("RebootPending() = true after no-op update")
	}
}

func TestStore_RequestReboot(t *testing.T) {
	store, _ := newTestStore(t)

	if store.RebootPending() {
		t.Fatal("RebootPending() = true before any request")
	}

	store.RequestReboot()

	if !store.RebootPending() {
		t.Error("RebootPending() = false after RequestReboot()")
	}
}

func TestStore_UpdateSurfacesPersistError(t *testing.T) {
	cfg := config.Default()
	store := NewStore(filepath.Join(t.TempDir(), "missing", "deep", "relayd.yaml"), cfg)

	next := store.Current()
	next.Device.ID = "relay-attic"

	if err := store.Update(next); err == nil {
		t.Fatal("Update() error = nil, want persistence failure")
	}
	if store.RebootPending() {
		t.Error("RebootPending() = true after failed persist")
	}
	if got := store.Current().Device.ID; got != config.Default().Device.ID {
		t.Errorf("Current().Device.ID = %q, want unchanged default", got)
	}
}
