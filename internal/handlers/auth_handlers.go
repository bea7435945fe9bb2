package handlers

import (
	"net/http"

	"english-tales/internal/engine/actors"
	"english-tales/internal/middleware"
)

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries profile field changes
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

// HandleRegister handles requests to register a new reader
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterRequest
		if !decodeBody(w, r, &req) {
			return
		}

		s.ask(w, s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Username:    req.Username,
			DisplayName: req.DisplayName,
			Email:       req.Email,
			Password:    req.Password,
		})
	}
}

// HandleLogin handles login requests
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		s.ask(w, s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
	}
}

// HandleProfile returns or updates the authenticated user's profile
func (s *Server) HandleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			s.ask(w, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: userID})

		case http.MethodPut:
			var req UpdateProfileRequest
			if !decodeBody(w, r, &req) {
				return
			}
			s.ask(w, s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
				UserID:         userID,
				NewDisplayName: req.DisplayName,
				NewPhotoURL:    req.PhotoURL,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
