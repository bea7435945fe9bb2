package handlers

import (
	"net/http"

	"english-tales/internal/engine/actors"
	"english-tales/internal/middleware"
)

// SubmitReviewRequest represents a review submission. A second submission
// for the same story replaces the first.
type SubmitReviewRequest struct {
	StoryID    string `json:"storyId"`
	StoryTitle string `json:"storyTitle"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// HandleReviews lists a story's reviews or submits one
func (s *Server) HandleReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			storyID := r.URL.Query().Get("storyId")
			if storyID == "" {
				http.Error(w, "storyId is required", http.StatusBadRequest)
				return
			}
			s.ask(w, s.Engine.GetReviewActor(), &actors.GetStoryReviewsMsg{StoryID: storyID})

		case http.MethodPost:
			userID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			var req SubmitReviewRequest
			if !decodeBody(w, r, &req) {
				return
			}

			s.ask(w, s.Engine.GetReviewActor(), &actors.SubmitReviewMsg{
				StoryID:    req.StoryID,
				StoryTitle: req.StoryTitle,
				AuthorID:   userID,
				Rating:     req.Rating,
				Comment:    req.Comment,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleMyReviews lists the authenticated user's reviews
func (s *Server) HandleMyReviews() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		s.ask(w, s.Engine.GetReviewActor(), &actors.GetUserReviewsMsg{UserID: userID})
	}
}

// HandleReviewLike toggles the caller's like on a review
func (s *Server) HandleReviewLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		reviewID := r.URL.Query().Get("id")
		if reviewID == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}

		s.ask(w, s.Engine.GetReviewActor(), &actors.ToggleLikeReviewMsg{
			ReviewID: reviewID,
			UserID:   userID,
		})
	}
}
