package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// directMessage targets one user's open connections.
type directMessage struct {
	TargetUserID string
	Payload      []byte
}

// Hub maintains the set of active notification clients. A user can have
// several connections (phone and tablet); every one gets each push.
type Hub struct {
	clients map[string]map[*Client]bool

	sendDirect chan *directMessage
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		sendDirect: make(chan *directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; !ok {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client registered for user %s", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if userClients, ok := h.clients[client.UserID]; ok {
				if _, exists := userClients[client]; exists {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.sendDirect:
			h.mu.RLock()
			for client := range h.clients[message.TargetUserID] {
				select {
				case client.Send <- message.Payload:
				default:
					log.Printf("Send buffer full for a client of user %s, dropping message", client.UserID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client's connection to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Push delivers a payload to every open connection of the user. It
// implements the notification actor's Pusher interface; an unmarshalable
// payload or a disconnected user is silently a no-op.
func (h *Hub) Push(userID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode push payload for user %s: %v", userID, err)
		return
	}

	message := &directMessage{TargetUserID: userID, Payload: data}
	select {
	case h.sendDirect <- message:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing push for user %s", userID)
	}
}
