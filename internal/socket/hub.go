// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var log = logging.Component("Hub")

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageNotification      MessageType = "notification"
	MessageNotificationCount MessageType = "notification_count"

	// System messages
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
)

// sendBuffer is the per-client queue. A full queue drops new messages.
const sendBuffer = 256

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan []byte

	mu       sync.Mutex
	lastPing time.Time
}

// DirectMessage represents a message to be sent to a specific user
type DirectMessage struct {
	UserID  string
	Message []byte
}

// Hub tracks connected clients by user and fans direct messages out to them.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool

	register      chan *Client
	unregister    chan *Client
	directMessage chan *DirectMessage
	done          chan struct{} // closed once Run has returned

	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		directMessage: make(chan *DirectMessage, sendBuffer),
		done:          make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	log.Info("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case dm := <-h.directMessage:
			h.sendToUser(dm)

		case <-pingTicker.C:
			h.pingClients()

		case <-ctx.Done():
			h.closeAll()
			log.Info("[Hub] WebSocket hub stopped")
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	log.WithFields(logrus.Fields{"user_id": client.UserID, "client_id": client.ID, "total": len(h.clients)}).
		Info("[Hub] ✅ Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if clients, ok := h.userClients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
	close(client.Send)

	log.WithFields(logrus.Fields{"user_id": client.UserID, "client_id": client.ID, "total": len(h.clients)}).
		Info("[Hub] ❌ Client disconnected")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]map[*Client]bool)
}

// sendToUser never blocks: a client whose buffer is full misses the message.
func (h *Hub) sendToUser(dm *DirectMessage) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.userClients[dm.UserID] {
		select {
		case client.Send <- dm.Message:
			sent++
		default:
			log.WithFields(logrus.Fields{"user_id": dm.UserID, "client_id": client.ID}).
				Warn("[Hub] ⚠️ Client buffer full, message dropped")
		}
	}
	return sent
}

func (h *Hub) pingClients() {
	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// ============================================
// Public Methods
// ============================================

// SendToUser queues a message for every connection of userID. It drops the
// message instead of blocking when the hub queue is full.
func (h *Hub) SendToUser(userID string, msgType MessageType, payload interface{}) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.WithError(err).Error("[Hub] Error marshaling message")
		return
	}

	select {
	case h.directMessage <- &DirectMessage{UserID: userID, Message: data}:
		log.WithFields(logrus.Fields{"user_id": userID, "type": msgType}).Debug("[Hub] 📤 SendToUser")
	default:
		log.WithField("user_id", userID).Warn("[Hub] ⚠️ Hub queue full, message dropped")
	}
}

// Register hands client to the running hub. It returns false once the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client from the running hub. After shutdown it returns
// immediately; closeAll has already released the client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.userClients[userID]
	return ok
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
