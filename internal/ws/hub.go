package ws

import (
	"log"
	"sync"

	"jobdash/internal/domain/job"
)

type broadcastMessage struct {
	data    []byte
	listing *job.Listing
}

// Hub fans listing updates out to every connected feed.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan broadcastMessage
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	mutex      sync.RWMutex
	logger     *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan broadcastMessage, 1024),
		register:   make(chan *Client, 128),
		unregister: make(chan *Client, 128),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.mutex.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				c.closeSend()
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logf("WS connected | client_id=%s total_clients=%d", client.id, total)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logf("WS disconnected | client_id=%s total_clients=%d", client.id, total)

		case message := <-h.broadcast:
			h.mutex.RLock()
			clientsSnapshot := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clientsSnapshot = append(clientsSnapshot, c)
			}
			total := len(clientsSnapshot)
			h.mutex.RUnlock()

			for _, client := range clientsSnapshot {
				if !client.enqueue(message.data) {
					h.Unregister(client)
					continue
				}
				if message.listing != nil && client.session != nil {
					client.session.ApplyRemoteUpdate(*message.listing)
				}
			}

			h.logf("WS broadcast | clients=%d", total)
		}
	}
}

// Stop ends Run and closes every client's send queue.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
}

func (h *Hub) Register(client *Client) {
	if h == nil {
		return
	}
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	if h == nil {
		return
	}
	select {
	case h.unregister <- client:
	default:
		h.logf("WS unregister dropped | reason=buffer_full")
	}
}

func (h *Hub) Broadcast(message []byte) {
	h.send(broadcastMessage{data: message})
}

// BroadcastListing sends message to every client and splices l into each
// client's feed window.
func (h *Hub) BroadcastListing(l job.Listing, message []byte) {
	h.send(broadcastMessage{data: message, listing: &l})
}

func (h *Hub) send(m broadcastMessage) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- m:
	default:
		h.logf("WS broadcast dropped | reason=buffer_full")
	}
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) logf(format string, args ...any) {
	if h != nil && h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
