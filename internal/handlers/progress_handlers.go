package handlers

import (
	"net/http"
	"strconv"

	"english-tales/internal/engine/actors"
)

// SaveProgressRequest carries a reading-position save. ReadingTimeMs is
// the time spent since the previous save, not a running total.
type SaveProgressRequest struct {
	StoryID       string  `json:"storyId"`
	Percentage    float64 `json:"percentage"`
	LastBlockKey  string  `json:"lastBlockKey"`
	PageIndex     int     `json:"pageIndex"`
	ReadingTimeMs int64   `json:"readingTimeMs"`
}

// CompleteStoryRequest marks a story finished, with the checkpoint quiz
// result if the story had one.
type CompleteStoryRequest struct {
	StoryID   string `json:"storyId"`
	QuizScore int    `json:"quizScore"`
	QuizTotal int    `json:"quizTotal"`
}

// HandleProgress saves or reads reading progress
func (s *Server) HandleProgress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			if storyID := r.URL.Query().Get("storyId"); storyID != "" {
				s.ask(w, s.Engine.GetProgressActor(), &actors.GetProgressMsg{
					UserID:  userID,
					StoryID: storyID,
				})
				return
			}
			s.ask(w, s.Engine.GetProgressActor(), &actors.GetUserProgressMsg{UserID: userID})

		case http.MethodPost:
			var req SaveProgressRequest
			if !decodeBody(w, r, &req) {
				return
			}
			s.ask(w, s.Engine.GetProgressActor(), &actors.SaveProgressMsg{
				UserID:        userID,
				StoryID:       req.StoryID,
				Percentage:    req.Percentage,
				LastBlockKey:  req.LastBlockKey,
				PageIndex:     req.PageIndex,
				ReadingTimeMs: req.ReadingTimeMs,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleCompleteStory marks a story finished and awards points
func (s *Server) HandleCompleteStory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, ok := authedUser(w, r)
		if !ok {
			return
		}

		var req CompleteStoryRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s.ask(w, s.Engine.GetProgressActor(), &actors.CompleteStoryMsg{
			UserID:    userID,
			StoryID:   req.StoryID,
			QuizScore: req.QuizScore,
			QuizTotal: req.QuizTotal,
		})
	}
}

// HandleLeaderboard returns the points ranking
func (s *Server) HandleLeaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		s.ask(w, s.Engine.GetProgressActor(), &actors.GetLeaderboardMsg{Limit: limit})
	}
}
