// Package eventhub implements the judge's pub/sub progress feed: a single
// fan-out topic that any number of subscribers can connect to over
// WebSocket, adapted from the collaboration hub's register/unregister/
// broadcast loop down to one topic instead of per-room fan-out.
package eventhub

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"judgecore/internal/events"
	"judgecore/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	clientSendBuf  = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscriber is one connected pub/sub client. It never sends anything
// meaningful upstream; the hub only ever writes to it.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a events.Sink backed by a gorilla/websocket listener bound to a
// single address. Every subscriber that connects receives every published
// event; there is no topic filtering.
type Hub struct {
	addr string

	mu      sync.RWMutex
	clients map[*subscriber]bool

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan []byte

	listener net.Listener
	server   *http.Server
	done     chan struct{}
}

// NewHub builds a hub that will listen on addr once Start is called.
func NewHub(addr string) *Hub {
	return &Hub{
		addr:       addr,
		clients:    make(map[*subscriber]bool),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Start binds the listener and begins serving subscriber connections and
// running the hub's dispatch loop in the background.
func (h *Hub) Start() error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return err
	}
	h.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handleSubscribe)
	h.server = &http.Server{Handler: mux}

	go h.loop()
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.S().Errorw("event hub server stopped", "err", err)
		}
	}()

	logging.S().Infow("event hub listening", "addr", h.addr)
	return nil
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*subscriber]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case payload := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow subscriber; drop it rather than block publishing.
					go func(c *subscriber) { h.unregister <- c }(c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.S().Warnw("event hub upgrade failed", "err", err)
		return
	}

	c := &subscriber{conn: conn, send: make(chan []byte, clientSendBuf)}
	h.register <- c
	go c.writePump()
}

func (c *subscriber) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Publish marshals event and fans it out to every connected subscriber.
// Publishing never blocks on a slow or absent subscriber: with no
// subscribers connected, or a full send buffer, the event is dropped.
func (h *Hub) Publish(event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
	default:
		logging.S().Warnw("event hub broadcast buffer full, dropping event", "event_type", event.EventType)
	}
	return nil
}

// Close shuts down the listener and disconnects every subscriber.
func (h *Hub) Close() error {
	close(h.done)
	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return h.server.Shutdown(ctx)
	}
	return nil
}
