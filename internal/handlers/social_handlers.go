package handlers

import (
	"net/http"

	"english-tales/internal/engine/actors"
	"english-tales/internal/models"

	"github.com/google/uuid"
)

// FriendRequestRequest asks another reader to be friends
type FriendRequestRequest struct {
	ReceiverID string `json:"receiverId"`
}

// FriendResponseRequest answers a pending request
type FriendResponseRequest struct {
	FriendshipID string `json:"friendshipId"`
	Accept       bool   `json:"accept"`
}

// FollowRequest toggles a follow on a reader or a story author
type FollowRequest struct {
	TargetID string `json:"targetId"`
	Author   bool   `json:"author"`
}

// HandleFriendships lists friendships or sends a request
func (s *Server) HandleFriendships() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			status := models.FriendshipStatus(r.URL.Query().Get("status"))
			s.ask(w, s.Engine.GetSocialActor(), &actors.GetFriendshipsMsg{
				UserID: userID,
				Status: status,
			})

		case http.MethodPost:
			var req FriendRequestRequest
			if !decodeBody(w, r, &req) {
				return
			}
			receiverID, err := uuid.Parse(req.ReceiverID)
			if err != nil {
				http.Error(w, "Invalid receiver ID format", http.StatusBadRequest)
				return
			}
			s.ask(w, s.Engine.GetSocialActor(), &actors.SendFriendRequestMsg{
				SenderID:   userID,
				ReceiverID: receiverID,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFriendshipResponse accepts or declines a pending request
func (s *Server) HandleFriendshipResponse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		var req FriendResponseRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s.ask(w, s.Engine.GetSocialActor(), &actors.RespondFriendRequestMsg{
			UserID:       userID,
			FriendshipID: req.FriendshipID,
			Accept:       req.Accept,
		})
	}
}

// HandleRemoveFriend removes an accepted friendship
func (s *Server) HandleRemoveFriend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		friendID, err := uuid.Parse(r.URL.Query().Get("friendId"))
		if err != nil {
			http.Error(w, "Invalid friend ID format", http.StatusBadRequest)
			return
		}
		s.ask(w, s.Engine.GetSocialActor(), &actors.RemoveFriendMsg{
			UserID:   userID,
			FriendID: friendID,
		})
	}
}

// HandleFollows lists who the caller follows or toggles a follow
func (s *Server) HandleFollows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			author := r.URL.Query().Get("author") == "true"
			s.ask(w, s.Engine.GetSocialActor(), &actors.GetFollowingMsg{
				UserID: userID,
				Author: author,
			})

		case http.MethodPost:
			var req FollowRequest
			if !decodeBody(w, r, &req) {
				return
			}
			s.ask(w, s.Engine.GetSocialActor(), &actors.ToggleFollowMsg{
				FollowerID: userID,
				TargetID:   req.TargetID,
				Author:     req.Author,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFollowers lists a user's followers
func (s *Server) HandleFollowers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		targetID := r.URL.Query().Get("targetId")
		if targetID == "" {
			http.Error(w, "targetId is required", http.StatusBadRequest)
			return
		}
		s.ask(w, s.Engine.GetSocialActor(), &actors.GetFollowersMsg{TargetID: targetID})
	}
}
