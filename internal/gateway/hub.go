package gateway

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"orderdesk/internal/markethours"
	"orderdesk/internal/metrics"
	"orderdesk/internal/model"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients and fans the monitor's order-book
// snapshots out to them. Every envelope carries a monotonic seq so a
// reconnecting client can ask for what it missed.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	seq     int64

	history *History
	met     *metrics.Metrics // may be nil

	// OnVisibility receives the browser tab's visibility state sent by
	// a client, wired to the monitor's poll gating.
	OnVisibility func(visible bool)
}

// NewHub creates a Hub with a reconnect backfill buffer.
func NewHub(met *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		history: NewHistory(64),
		met:     met,
	}
}

// BroadcastOrders pushes one order-book snapshot envelope to every
// connected client and records it for backfill.
func (h *Hub) BroadcastOrders(book *model.OrderBook, lastUpdated time.Time) {
	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	envelope, err := json.Marshal(map[string]any{
		"type":         "orders",
		"seq":          seq,
		"book":         book,
		"last_updated": lastUpdated.Format(time.RFC3339Nano),
	})
	if err != nil {
		log.Printf("[gateway] envelope marshal error: %v", err)
		return
	}
	h.history.Add(seq, envelope)
	h.fanout(envelope)
}

// BroadcastRejected pushes a rejected-orders event. Not buffered: a
// reconnecting client re-derives rejections from the next snapshot.
func (h *Hub) BroadcastRejected(orders []model.OrderRecord) {
	envelope, err := json.Marshal(map[string]any{
		"type":   "rejected",
		"orders": orders,
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	h.fanout(envelope)
}

func (h *Hub) fanout(envelope []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
			// Slow consumer: drop this envelope, the next snapshot or a
			// backfill on reconnect covers it.
		}
	}
}

// Register turns a raw WS connection into a tracked client and
// replays anything newer than lastSeq.
func (h *Hub) Register(conn *websocket.Conn, lastSeq int64) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	if h.met != nil {
		h.met.WSClients.Set(float64(count))
	}
	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.sendBackfill(lastSeq)
	go client.writePump()
	go client.readPump()
}

// RemoveClient drops a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)
	if h.met != nil {
		h.met.WSClients.Set(float64(count))
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartSessionBroadcast sends the market session status to all clients
// once a minute so the UI can flip its AMO hint without polling.
func (h *Hub) StartSessionBroadcast(done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			status := markethours.Now(time.Now())
			envelope, _ := json.Marshal(map[string]any{
				"type":    "session",
				"session": status,
			})
			h.fanout(envelope)
		}
	}
}
