package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"english-tales/internal/engine/actors"
)

// HandleHealth reports liveness plus the feed mirror size
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		future := s.Context.RequestFuture(s.Engine.GetFeedActor(), &actors.GetCountsMsg{}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get feed count", http.StatusInternalServerError)
			return
		}
		postCount, _ := result.(int)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"post_count":  postCount,
			"uptime_sec":  int(s.Metrics.Uptime().Seconds()),
			"server_time": time.Now(),
		})
	}
}
