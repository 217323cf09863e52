package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/yuletide/internal/app"
	"github.com/ayusman/yuletide/internal/signal"
)

// Event types pushed on /api/events.
const (
	EventState    = "state"
	EventRotation = "rotation"
	EventGesture  = "gesture"
	EventStatus   = "status"
)

const (
	clientBuffer = 32
	writeTimeout = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is one message on the event stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
	At   int64  `json:"at"` // unix milliseconds
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub broadcasts scene changes to WebSocket clients.
//
// Publish never blocks: a client whose buffer is full misses the event.
type EventHub struct {
	clients  map[*client]struct{}
	cancels  []func()
	snapshot func() []Event
	closed   bool
	mu       sync.RWMutex
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*client]struct{}),
	}
}

// Attach subscribes the hub to the state, rotation, gesture and status of a.
// New clients first receive the current value of each.
func (h *EventHub) Attach(a *app.App) {
	ctrl := a.Controller()

	h.mu.Lock()
	h.cancels = append(h.cancels,
		forward(h, EventState, ctrl.States()),
		forward(h, EventRotation, ctrl.Rotations()),
		forward(h, EventGesture, a.Classifier().Samples()),
		forward(h, EventStatus, a.Statuses()),
	)
	h.snapshot = func() []Event {
		now := time.Now().UnixMilli()
		return []Event{
			{Type: EventState, Data: ctrl.State(), At: now},
			{Type: EventRotation, Data: ctrl.Rotation(), At: now},
			{Type: EventGesture, Data: a.Classifier().Latest(), At: now},
			{Type: EventStatus, Data: a.Status(), At: now},
		}
	}
	h.mu.Unlock()
}

// forward publishes every change of v as an event of type typ.
func forward[T comparable](h *EventHub, typ string, v *signal.Value[T]) func() {
	return v.Subscribe(func(c signal.Change[T]) {
		h.Publish(Event{Type: typ, Data: c.New, At: time.Now().UnixMilli()})
	})
}

// Publish sends ev to every connected client.
func (h *EventHub) Publish(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if h.snapshot != nil {
		for _, ev := range h.snapshot() {
			if msg, err := json.Marshal(ev); err == nil {
				c.send <- msg
			}
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writeLoop()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	<-done
}

func (h *EventHub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *client) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			// Drain so remove can close the channel.
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// Close unsubscribes from the app and disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, cancel := range h.cancels {
		cancel()
	}
	h.cancels = nil
	h.closed = true

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
