package status

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mogaika/scenegraph/scene"
)

const (
	INFO = iota
	ERROR
	SYNC
)

type Event struct {
	Message     string
	Time        time.Time
	Type        int
	Node        string `json:",omitempty"`
	Slots       int    `json:",omitempty"`
	Fingerprint uint32 `json:",omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		c.hub.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump only watches for the peer going away.
func (c *client) readPump() {
	defer c.hub.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub fans events out to every connected websocket client. A new client
// first receives the last event sent.
type Hub struct {
	broadcast chan *Event
	lock      sync.Mutex
	clients   map[*client]bool
	last      []byte
}

func NewHub() *Hub {
	h := &Hub{
		broadcast: make(chan *Event, 16),
		clients:   make(map[*client]bool),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for e := range h.broadcast {
		data, err := json.Marshal(e)
		if err != nil {
			log.Printf("[status] marshal error: %v", err)
			continue
		}
		h.lock.Lock()
		h.last = data
		for c := range h.clients {
			select {
			case c.send <- data:
			default:
				log.Printf("[status] client too slow, dropping event")
			}
		}
		h.lock.Unlock()
	}
}

func (h *Hub) register(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.clients[c] = true
	if h.last != nil {
		c.send <- h.last
	}
}

func (h *Hub) unregister(c *client) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[status] upgrade error: %v", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, 32)}
	h.register(c)
	go c.writePump()
	go c.readPump()
}

func (h *Hub) Publish(e *Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	h.broadcast <- e
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Publish(&Event{Message: fmt.Sprintf(format, a...), Type: INFO})
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Publish(&Event{Message: fmt.Sprintf(format, a...), Type: ERROR})
}

// Synced reports that the mirror of ct was rewritten and uploaded.
func (h *Hub) Synced(ct *scene.Compound) {
	e := &Event{Type: SYNC, Node: ct.Name()}
	if m := ct.Mirror(); m != nil {
		e.Slots = m.Count()
		e.Fingerprint = m.Fingerprint()
		e.Message = m.String()
	}
	h.Publish(e)
}
