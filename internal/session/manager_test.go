package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/config"
	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/mqtt"
)

// ===== Test Helpers =====

type fakePub struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

// fakeTransport scripts the session manager's view of the MQTT client.
type fakeTransport struct {
	mu           sync.Mutex
	connected    bool
	connectErr   error
	subscribeErr error
	publishErr   error
	connectCalls int
	disconnects  int
	subscribed   []string
	published    []fakePub
	lost         chan error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{lost: make(chan error, 1)}
}

func (f *fakeTransport) Connect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connectCalls++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnects++
}

func (f *fakeTransport) Subscribe(topic string, qos byte, _ mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscribed = append(f.subscribed, fmt.Sprintf("%s@%d", topic, qos))
	return nil
}

func (f *fakeTransport) PublishString(topic, payload string, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, fakePub{topic: topic, payload: payload, qos: qos, retained: retained})
	return nil
}

func (f *fakeTransport) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) ConnectionLost() <-chan error {
	return f.lost
}

// drop simulates the broker link dying under an established session.
func (f *fakeTransport) drop(err error) {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()

	select {
	case f.lost <- err:
	default:
	}
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectCalls
}

func (f *fakeTransport) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

func (f *fakeTransport) subscribedList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.subscribed))
	copy(out, f.subscribed)
	return out
}

func (f *fakeTransport) publishedList() []fakePub {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakePub, len(f.published))
	copy(out, f.published)
	return out
}

type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.log("INFO", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.log("WARN", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log("ERROR", msg) }

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func testSessionConfig() config.MQTTConfig {
	return config.MQTTConfig{
		QoS:                 1,
		Retain:              true,
		ReconnectIntervalMs: 2000,
		ConnectTimeoutMs:    1000,
	}
}

func newTestManager(ft *fakeTransport) *Manager {
	topics := mqtt.NewTopics(config.DeviceConfig{ID: "relay-01", TopicPrefix: "relay/"})
	m := NewManager(ft, topics, testSessionConfig(), func(string, []byte) error { return nil })
	m.SetOnlineProbe(func() bool { return true })
	return m
}

var base = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// tickUntil drives Tick with advancing simulated time until the manager
// reaches the wanted state. The helper goroutine needs real scheduling, so
// a short real sleep separates iterations.
func tickUntil(t *testing.T, m *Manager, now *time.Time, want ConnState) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.Tick(*now)
		if m.State() == want {
			return
		}
		*now = now.Add(50 * time.Millisecond)
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", m.State(), want)
}

func waitCalls(t *testing.T, ft *fakeTransport, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ft.calls() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("connect calls = %d, want %d", ft.calls(), want)
}

// ===== State Tests =====

func TestConnState_String(t *testing.T) {
	tests := []struct {
		state ConnState
		want  string
	}{
		{state: Disconnected, want: "disconnected"},
		{state: ConnectRequested, want: "connecting"},
		{state: Connected, want: "connected"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestManager_StartsDisconnected(t *testing.T) {
	m := newTestManager(newFakeTransport())

	if got := m.State(); got != Disconnected {
		t.Errorf("State() = %v, want Disconnected", got)
	}
}

// ===== Connect Tests =====

func TestManager_ConnectEstablishesSession(t *testing.T) {
	ft := newFakeTransport()
	m := newTestManager(ft)

	var hookRuns int
	m.SetOnConnect(func() { hookRuns++ })

	now := base
	m.Tick(now)
	if got := m.State(); got != ConnectRequested {
		t.Fatalf("State() = %v after first tick, want ConnectRequested", got)
	}

	tickUntil(t, m, &now, Connected)

	subs := ft.subscribedList()
	if len(subs) != 1 || subs[0] != "relay/relay-01/action@1" {
		t.Errorf("subscriptions = %v, want [relay/relay-01/action@1]", subs)
	}

	pubs := ft.publishedList()
	if len(pubs) != 1 {
		t.Fatalf("publishes = %v, want one availability announcement", pubs)
	}
	if pubs[0].topic != "relay/relay-01/online" || pubs[0].payload != mqtt.PayloadOnline || !pubs[0].retained {
		t.Errorf("availability publish = %+v, want retained %q on relay/relay-01/online", pubs[0], mqtt.PayloadOnline)
	}

	if hookRuns != 1 {
		t.Errorf("OnConnect hook ran %d times, want 1", hookRuns)
	}
}

func TestManager_FailedAttemptReturnsToDisconnected(t *testing.T) {
	ft := newFakeTransport()
	ft.connectErr = errors.New("connection refused")
	m := newTestManager(ft)

	now := base
	m.Tick(now)
	tickUntil(t, m, &now, Disconnected)

	if ft.calls() != 1 {
		t.Fatalf("connect calls = %d, want 1", ft.calls())
	}

	// Inside the flat interval: no new attempt however often Tick runs.
	for _, offset := range []time.Duration{100, 500, 1999} {
		m.Tick(base.Add(offset * time.Millisecond))
	}
	if ft.calls() != 1 {
		t.Errorf("connect calls = %d inside the interval, want still 1", ft.calls())
	}

	// Interval elapsed: exactly one more attempt starts.
	m.Tick(base.Add(2000 * time.Millisecond))
	if got := m.State(); got != ConnectRequested {
		t.Errorf("State() = %v at the interval boundary, want ConnectRequested", got)
	}
	waitCalls(t, ft, 2)
}

func TestManager_FlatRateLimit(t *testing.T) {
	ft := newFakeTransport()
	ft.connectErr = errors.New("connection refused")
	m := newTestManager(ft)

	// 30 simulated seconds of a dead broker at a 50ms poll. The flat 2s
	// limit allows at most 30000/2000+1 = 16 attempt starts, and the
	// manager should stay close to that ceiling rather than giving up.
	for offset := time.Duration(0); offset <= 30*time.Second; offset += 50 * time.Millisecond {
		m.Tick(base.Add(offset))
		time.Sleep(200 * time.Microsecond)
	}
	time.Sleep(50 * time.Millisecond)

	calls := ft.calls()
	if calls > 16 {
		t.Errorf("30s of failures produced %d attempts, want at most 16", calls)
	}
	if calls < 10 {
		t.Errorf("30s of failures produced %d attempts, want roughly one per interval", calls)
	}
}

func TestManager_SubscribeFailureTearsDownSession(t *testing.T) {
	ft := newFakeTransport()
	ft.subscribeErr = errors.New("no suback")
	m := newTestManager(ft)

	now := base
	m.Tick(now)
	tickUntil(t, m, &now, Disconnected)

	if ft.disconnectCount() == 0 {
		t.Error("session with failed subscription was not torn down")
	}
}

func TestManager_AvailabilityFailureIsNotFatal(t *testing.T) {
	ft := newFakeTransport()
	ft.publishErr = errors.New("queue full")
	logger := &captureLogger{}
	m := newTestManager(ft)
	m.SetLogger(logger)

	now := base
	m.Tick(now)
	tickUntil(t, m, &now, Connected)

	if !logger.contains("availability announcement failed") {
		t.Error("failed availability publish was not logged")
	}
}

// ===== Drop And Recovery Tests =====

func TestManager_DropTriggersReconnect(t *testing.T) {
	ft := newFakeTransport()
	logger := &captureLogger{}
	m := newTestManager(ft)
	m.SetLogger(logger)

	var hookRuns int
	m.SetOnConnect(func() { hookRuns++ })

	now := base
	m.Tick(now)
	tickUntil(t, m, &now, Connected)

	ft.drop(errors.New("broken pipe"))
	m.Tick(now)
	if got := m.State(); got != Disconnected {
		t.Fatalf("State() = %v after drop, want Disconnected", got)
	}
	if !logger.contains("broker session lost") {
		t.Error("drop was not logged")
	}

	// Past the interval the manager dials again and the hook fires for
	// the second session too.
	now = base.Add(10 * time.Second)
	m.Tick(now)
	waitCalls(t, ft, 2)
	tickUntil(t, m, &now, Connected)

	if hookRuns != 2 {
		t.Errorf("OnConnect hook ran %d times across two sessions, want 2", hookRuns)
	}
}

func TestManager_OfflineHoldsAttempts(t *testing.T) {
	ft := newFakeTransport()
	logger := &captureLogger{}
	m := newTestManager(ft)
	m.SetLogger(logger)

	var online bool
	m.SetOnlineProbe(func() bool { return online })

	m.Tick(base)
	m.Tick(base.Add(5 * time.Second))
	if ft.calls() != 0 {
		t.Fatalf("connect calls = %d with no network, want 0", ft.calls())
	}
	if !logger.contains("network offline") {
		t.Error("offline hold was not logged")
	}

	online = true
	now := base.Add(6 * time.Second)
	m.Tick(now)
	waitCalls(t, ft, 1)
	tickUntil(t, m, &now, Connected)

	if !logger.contains("network restored") {
		t.Error("network recovery was not logged")
	}
}
