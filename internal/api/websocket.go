package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quinot/ESP-01-MQTT-relay/internal/infrastructure/logging"
)

// Message types understood on the socket.
const (
	WSTypeEvent = "event"
	WSTypePing  = "ping"
	WSTypePong  = "pong"
	WSTypeError = "error"
)

// eventRelayStatus is the event stream carrying relay and connection
// state. It is the only stream the hub has, so clients receive it
// without a subscribe step.
const eventRelayStatus = "relay.status"

const (
	// wsSendBufferSize is the per-client outbound queue. State events
	// are tiny and rare; a slow client just skips some.
	wsSendBufferSize = 16

	wsPingInterval   = 30 * time.Second
	wsPongTimeout    = 60 * time.Second
	wsMaxMessageSize = 512

	// wsReadWindow is how long a connection may stay silent before the
	// read side gives up on it. Pongs and client frames both extend it.
	wsReadWindow = wsPingInterval + wsPongTimeout
)

// WSMessage is the envelope for every WebSocket frame.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// StatusEvent is the relay.status payload.
type StatusEvent struct {
	Relay      string `json:"relay"`
	Connection string `json:"connection"`
}

// encodeFrame stamps the envelope and marshals it. Every outbound frame
// passes through here so timestamps are applied in exactly one place.
func encodeFrame(msg WSMessage) ([]byte, error) {
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	return json.Marshal(msg)
}

// ===== Hub =====

// Hub manages WebSocket connections and broadcasts state events.
//
// Every connected client receives every event; the relay has exactly one
// stream, so there is no channel subscription protocol.
type Hub struct {
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a newly upgraded connection to the broadcast set.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	remaining := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "clients", remaining)
}

// Unregister removes a client and closes its send channel so its
// writePump can exit. Safe against racing shutdown paths; the channel
// close happens at most once per client.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	delete(h.clients, client)
	remaining := len(h.clients)
	h.mu.Unlock()

	client.shutdown()
	h.logger.Debug("websocket client disconnected", "clients", remaining)
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := encodeFrame(WSMessage{
		Type:      WSTypeEvent,
		EventType: event,
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	clients := h.snapshot()
	for _, client := range clients {
		client.trySend(frame)
	}
	if len(clients) > 0 {
		h.logger.Debug("broadcast sent", "event", event, "recipients", len(clients))
	}
}

// snapshot copies the client set so sends happen outside the hub lock.
func (h *Hub) snapshot() []*WSClient {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// closeAll drops every client so their pump goroutines exit.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.shutdown()
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// ===== Client =====

// WSClient is a single browser connection.
type WSClient struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

// shutdown closes the outbound queue exactly once.
func (c *WSClient) shutdown() {
	c.closeOnce.Do(func() { close(c.send) })
}

// handleWebSocket upgrades the HTTP connection to a WebSocket connection
// and immediately pushes the current state, so the page renders without
// waiting for the next change.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		// Same trust model as the rest of the server: LAN, no auth.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, wsSendBufferSize),
	}
	s.hub.Register(client)

	go client.writePump()
	go client.readPump()

	client.sendMessage(WSMessage{
		Type:      WSTypeEvent,
		EventType: eventRelayStatus,
		Payload: StatusEvent{
			Relay:      s.relay.Current().String(),
			Connection: s.session.State().String(),
		},
	})
}

// readPump reads frames from the connection until it dies, then tears
// the client down.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	c.armReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.armReadDeadline()
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any inbound frame proves the peer is alive, pong or not.
		c.armReadDeadline()
		c.handleMessage(frame)
	}
}

// armReadDeadline pushes the read deadline out one full ping cycle plus
// the pong grace period.
func (c *WSClient) armReadDeadline() {
	//nolint:errcheck // Best-effort deadline; a dead conn fails the next read
	c.conn.SetReadDeadline(time.Now().Add(wsReadWindow))
}

// writePump drains the send queue and keeps the connection alive with
// protocol-level pings.
func (c *WSClient) writePump() {
	ping := time.NewTicker(wsPingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, open := <-c.send:
			if !open {
				// Hub shut this client down.
				//nolint:errcheck // Best-effort close handshake
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write applies the write deadline and sends a single frame.
func (c *WSClient) write(messageType int, frame []byte) error {
	//nolint:errcheck // Best-effort deadline; the write itself reports failure
	c.conn.SetWriteDeadline(time.Now().Add(wsPongTimeout))
	return c.conn.WriteMessage(messageType, frame)
}

// handleMessage processes an incoming WebSocket frame. The only
// application-level request a client can make is a ping.
func (c *WSClient) handleMessage(frame []byte) {
	var msg WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	if msg.Type != WSTypePing {
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
		return
	}
	c.sendMessage(WSMessage{Type: WSTypePong, ID: msg.ID})
}

// trySend queues a frame without blocking. A closed channel (client torn
// down mid-broadcast) or a full buffer both drop the frame.
func (c *WSClient) trySend(frame []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- frame:
	default:
		// Buffer full, skip.
	}
}

// sendMessage stamps, marshals and queues a frame for this client.
func (c *WSClient) sendMessage(msg WSMessage) {
	frame, err := encodeFrame(msg)
	if err != nil {
		return
	}
	c.trySend(frame)
}

// sendError reports a protocol-level problem back to the client.
func (c *WSClient) sendError(id, message string) {
	c.sendMessage(WSMessage{
		Type:    WSTypeError,
		ID:      id,
		Payload: map[string]string{"message": message},
	})
}
