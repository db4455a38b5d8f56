// realtime/hub.go - Per-user WebSocket fan-out
package realtime

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 15 * time.Second
	maxMessageSize = 512

	sendBufferSize = 64
)

// LocalUserID is the fiber Locals key the upgrade middleware stores the
// authenticated user id under.
const LocalUserID = "userId"

// Event is the frame pushed to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

type client struct {
	id     string
	userID uint
	conn   *websocket.Conn
	send   chan Event
}

// Hub tracks live connections per user and implements services.Notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*client]struct{}
	closed  bool
	log     *zap.Logger
	now     func() time.Time
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uint]map[*client]struct{}),
		log:     log,
		now:     time.Now,
	}
}

// Notify queues an event for every connection of userID. Slow clients whose
// buffer is full miss the event. User id 0 is never routed.
func (h *Hub) Notify(userID uint, eventType string, payload interface{}) {
	if userID == 0 {
		return
	}
	event := Event{Type: eventType, Payload: payload, At: h.now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- event:
		default:
			h.log.Warn("Dropping realtime event for slow client",
				zap.String("client_id", c.id), zap.Uint("user_id", userID), zap.String("type", eventType))
		}
	}
}

// Connections returns the number of live connections for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Stats returns the number of connected users and connections.
func (h *Hub) Stats() (users, connections int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		connections += len(set)
	}
	return len(h.clients), connections
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	return true
}

// unregister closes the client's queue once; it reports whether the client
// was still registered.
func (h *Hub) unregister(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	return true
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, userID)
	}
}

// Handler upgrades the request. It must run after middleware that rejects
// non-upgrade requests and sets LocalUserID.
func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(LocalUserID).(uint)
		h.serve(conn, userID)
	})
}

func (h *Hub) serve(conn *websocket.Conn, userID uint) {
	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan Event, sendBufferSize),
	}
	if userID == 0 || !h.register(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
		_ = conn.Close()
		return
	}

	h.log.Debug("Realtime client connected", zap.String("client_id", c.id), zap.Uint("user_id", userID))
	c.send <- Event{Type: "connected", Payload: fiber.Map{"client_id": c.id}, At: h.now().UTC()}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(c)
	}()

	h.readPump(c)
	h.unregister(c)
	<-done

	h.log.Debug("Realtime client disconnected", zap.String("client_id", c.id), zap.Uint("user_id", userID))
}

// readPump only services control frames; clients do not send data.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Realtime read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				h.log.Debug("Realtime write failed", zap.String("client_id", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
