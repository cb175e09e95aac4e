// internal/socket/handler.go
package socket

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Authenticator resolves a bearer token to an active user id.
type Authenticator interface {
	UserIDFromToken(ctx context.Context, token string) (string, error)
}

// Handler handles WebSocket connections
type Handler struct {
	Hub      *Hub
	auth     Authenticator
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket handler. An empty allowedOrigin or "*"
// accepts any origin.
func NewHandler(hub *Hub, auth Authenticator, allowedOrigin string) *Handler {
	return &Handler{
		Hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade requests. Browsers cannot set
// headers on a WebSocket handshake, so the token usually arrives in ?token=.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	userID, err := h.auth.UserIDFromToken(c.Request.Context(), tokenString)
	if err != nil {
		log.WithError(err).Debug("[WebSocket] Rejected connection")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("[WebSocket] Upgrade error")
		return
	}

	client := NewClient(h.Hub, userID, conn)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
