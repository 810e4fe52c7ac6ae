package hub

import (
	"encoding/json"
	"sync"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// Hub tracks every open realtime connection, authenticated or not.
type Hub struct {
	clients map[string]*Client // clientID -> client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the open set.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Msg("client registered")
}

// Unregister removes a client from the open set.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[client.ID]; ok && cur == client {
		delete(h.clients, client.ID)
	}
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")
}

// Broadcast marshals message once and queues it to every client open at
// call time. It returns how many clients accepted the frame.
func (h *Hub) Broadcast(message interface{}) (int, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return 0, err
	}
	return h.BroadcastRaw(data), nil
}

// BroadcastRaw queues data to a snapshot of the open clients. Clients that
// close or fill up during the walk are skipped.
func (h *Hub) BroadcastRaw(data []byte) int {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range snapshot {
		if c.Send(data) {
			delivered++
			continue
		}
		if c.IsOpen() {
			l := log.L()
			l.Warn().Str(log.FieldConnID, c.ID).Msg("outbound queue full, broadcast frame dropped")
		}
	}
	return delivered
}

// Count returns the number of open clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every open client. Each client's pumps then finish their
// own cleanup.
func (h *Hub) CloseAll() int {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	for _, c := range snapshot {
		c.Close()
	}
	return len(snapshot)
}
