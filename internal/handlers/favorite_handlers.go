package handlers

import (
	"net/http"

	"english-tales/internal/engine/actors"
	"english-tales/internal/middleware"

	"github.com/google/uuid"
)

// ToggleStoryRequest marks or unmarks a story (favorite or library).
type ToggleStoryRequest struct {
	StoryID    string `json:"storyId"`
	StoryTitle string `json:"storyTitle"`
	CoverURL   string `json:"coverUrl"`
}

func authedUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return userID, true
}

// HandleFavorites lists favorites or toggles one
func (s *Server) HandleFavorites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			s.ask(w, s.Engine.GetFavoriteActor(), &actors.GetFavoritesMsg{UserID: userID})

		case http.MethodPost:
			var req ToggleStoryRequest
			if !decodeBody(w, r, &req) {
				return
			}
			s.ask(w, s.Engine.GetFavoriteActor(), &actors.ToggleFavoriteMsg{
				UserID:     userID,
				StoryID:    req.StoryID,
				StoryTitle: req.StoryTitle,
				CoverURL:   req.CoverURL,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleLibrary lists the personal library or toggles an item
func (s *Server) HandleLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			s.ask(w, s.Engine.GetFavoriteActor(), &actors.GetLibraryMsg{UserID: userID})

		case http.MethodPost:
			var req ToggleStoryRequest
			if !decodeBody(w, r, &req) {
				return
			}
			s.ask(w, s.Engine.GetFavoriteActor(), &actors.ToggleLibraryMsg{
				UserID:     userID,
				StoryID:    req.StoryID,
				StoryTitle: req.StoryTitle,
				CoverURL:   req.CoverURL,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
