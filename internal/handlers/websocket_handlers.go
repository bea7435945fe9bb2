package handlers

import (
	"log"
	"net/http"

	"english-tales/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and registers it with the hub.
// Browsers cannot set headers on websocket dials, so the JWT rides in a
// query parameter.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := s.Tokens.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		if claims.UserID == uuid.Nil {
			http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %s: %v", claims.UserID, err)
			return
		}

		client := websocket.NewClient(s.Hub, claims.UserID.String(), conn)
		s.Hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
