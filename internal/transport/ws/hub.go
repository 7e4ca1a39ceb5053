package ws

import (
	"encoding/json"
	"log"
	"sync"

	"prsentinel/internal/model"
)

// Hub fans workflow lifecycle events out to every connected observer.
// Delivery is best-effort: a slow consumer's buffer fills and its messages
// drop; producers never block. Implements service.Broadcaster.
type Hub struct {
	conns map[*Connection]bool
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte
}

// Connection represents one observer connection.
type Connection struct {
	Send chan []byte
	Hub  *Hub
}

// NewHub creates and starts the hub.
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn] = true
			h.mu.Unlock()
			log.Printf("observer connected (%d total)", h.count())

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.conns[conn]; ok {
				delete(h.conns, conn)
				close(conn.Send)
			}
			h.mu.Unlock()
			log.Printf("observer disconnected (%d total)", h.count())

		case data := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns {
				select {
				case conn.Send <- data:
				default:
					// Drop for this consumer if its buffer is full.
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) count() int {
	return len(h.conns)
}

// Register adds an observer connection.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes an observer connection.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Broadcast pushes one event envelope to all observers. Events enqueue in
// call order, so a single workflow's stream is never reordered.
func (h *Hub) Broadcast(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		log.Println("broadcast queue full, dropping event")
	}
}
