// Package wsrender paints views to websocket clients.
//
// A Hub is a render.Renderer: every Paint is encoded once as a JSON
// envelope and broadcast to the clients watching its target. Clients pick
// a target with the "target" query parameter; without one they receive
// every target. New clients immediately receive the latest frame of each
// target they watch.
package wsrender

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/go-drift/reactive/pkg/errors"
	"github.com/go-drift/reactive/pkg/logging"
	"github.com/go-drift/reactive/pkg/metrics"
	"github.com/go-drift/reactive/pkg/render"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	sendBuffer   = 16
)

// Envelope is the message written to clients.
type Envelope struct {
	Type      string `json:"type"`
	Target    string `json:"target"`
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp"`
	View      any    `json:"view"`
}

var _ render.Renderer = (*Hub)(nil)

// Hub broadcasts painted views to websocket clients. It is safe for
// concurrent use: Paint runs on the loop, clients on HTTP goroutines.
type Hub struct {
	upgrader websocket.Upgrader
	log      logging.Logger
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    map[string][]byte
	seq     uint64
	closed  bool
}

type client struct {
	conn   *websocket.Conn
	target string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub's logger.
func WithLogger(l logging.Logger) Option {
	return func(h *Hub) { h.log = l }
}

// WithMetrics records connected clients.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithCheckOrigin replaces the origin check. The default accepts any origin.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// NewHub creates a hub with no clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log:     logging.Default(),
		clients: make(map[*client]struct{}),
		last:    make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Paint encodes view and queues it for every client watching target.
// A client whose queue is full drops its oldest frame.
func (h *Hub) Paint(view any, target string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errors.ErrDisposed
	}
	h.seq++
	data, err := json.Marshal(Envelope{
		Type:      "view",
		Target:    target,
		Seq:       h.seq,
		Timestamp: time.Now().UnixMilli(),
		View:      view,
	})
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.last[target] = data
	recipients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.watches(target) {
			recipients = append(recipients, c)
		}
	}
	h.mu.Unlock()

	for _, c := range recipients {
		c.enqueue(data)
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{
		conn:   conn,
		target: r.URL.Query().Get("target"),
		send:   make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	targets := make([]string, 0, len(h.last))
	for t := range h.last {
		if c.watches(t) {
			targets = append(targets, t)
		}
	}
	slices.Sort(targets)
	for _, t := range targets {
		c.enqueue(h.last[t])
	}
	h.mu.Unlock()

	h.metrics.Clients(1)
	h.log.Debug("client connected", "remote", r.RemoteAddr, "target", c.target)

	go h.writePump(c)
	go h.readPump(c)
}

// Close disconnects every client. Later paints return ErrDisposed.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.remove(c)
	}
	return nil
}

func (h *Hub) remove(c *client) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
	h.metrics.Clients(-1)
}

// readPump discards client messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) watches(target string) bool {
	return c.target == "" || c.target == target
}

// enqueue never blocks: the latest frame wins over stale ones.
func (c *client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.send <- data:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}
