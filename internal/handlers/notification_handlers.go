package handlers

import (
	"net/http"
	"strconv"

	"english-tales/internal/engine/actors"

	"github.com/google/uuid"
)

// HandleNotifications lists the caller's notifications
func (s *Server) HandleNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		s.ask(w, s.Engine.GetNotificationActor(), &actors.GetNotificationsMsg{
			UserID: userID,
			Limit:  limit,
		})
	}
}

// HandleNotificationRead marks one notification, or all of them, read
func (s *Server) HandleNotificationRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		if r.URL.Query().Get("all") == "true" {
			s.ask(w, s.Engine.GetNotificationActor(), &actors.MarkAllNotificationsReadMsg{UserID: userID})
			return
		}

		notificationID, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "Invalid notification ID format", http.StatusBadRequest)
			return
		}
		s.ask(w, s.Engine.GetNotificationActor(), &actors.MarkNotificationReadMsg{
			UserID:         userID,
			NotificationID: notificationID,
		})
	}
}
