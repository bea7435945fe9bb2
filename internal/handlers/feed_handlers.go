package handlers

import (
	"net/http"
	"strconv"

	"english-tales/internal/engine/actors"
	"english-tales/internal/middleware"
	"english-tales/internal/models"

	"github.com/google/uuid"
)

// CreatePostRequest represents a request to create a feed post
type CreatePostRequest struct {
	Content  string            `json:"content"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CreateReplyRequest represents a reply to a feed post
type CreateReplyRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

// HandleFeed lists the feed or creates a post
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Metrics.IncrementRequests()

		switch r.Method {
		case http.MethodGet:
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			s.ask(w, s.Engine.GetFeedActor(), &actors.GetFeedMsg{Limit: limit})

		case http.MethodPost:
			userID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			var req CreatePostRequest
			if !decodeBody(w, r, &req) {
				return
			}

			postType := models.PostType(req.Type)
			if postType == "" {
				postType = models.PostTypeText
			}

			s.ask(w, s.Engine.GetFeedActor(), &actors.CreatePostMsg{
				AuthorID: userID,
				Content:  req.Content,
				Type:     postType,
				Metadata: req.Metadata,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandlePost returns a single post by id
func (s *Server) HandlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		postID, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}
		s.ask(w, s.Engine.GetFeedActor(), &actors.GetPostMsg{PostID: postID})
	}
}

// HandlePostLike toggles the caller's like on a post
func (s *Server) HandlePostLike() http.HandlerFunc {
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

		postID, err := uuid.Parse(r.URL.Query().Get("id"))
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		s.ask(w, s.Engine.GetFeedActor(), &actors.ToggleLikePostMsg{
			PostID: postID,
			UserID: userID,
		})
	}
}

// HandleReplies lists a post's replies or creates one
func (s *Server) HandleReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			postID, err := uuid.Parse(r.URL.Query().Get("postId"))
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}
			s.ask(w, s.Engine.GetFeedActor(), &actors.GetPostRepliesMsg{PostID: postID})

		case http.MethodPost:
			userID, ok := middleware.GetUserIDFromContext(r.Context())
			if !ok {
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			var req CreateReplyRequest
			if !decodeBody(w, r, &req) {
				return
			}

			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			s.ask(w, s.Engine.GetFeedActor(), &actors.CreateReplyMsg{
				PostID:   postID,
				AuthorID: userID,
				Content:  req.Content,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
