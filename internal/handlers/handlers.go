package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"english-tales/internal/cms"
	"english-tales/internal/database"
	"english-tales/internal/engine"
	"english-tales/internal/middleware"
	"english-tales/internal/utils"
	"english-tales/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// Server bundles everything the HTTP handlers need.
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	DB             database.DBAdapter
	Content        *cms.QueryCache
	Hub            *websocket.Hub
	Tokens         *middleware.TokenIssuer
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	db database.DBAdapter,
	content *cms.QueryCache,
	hub *websocket.Hub,
	tokens *middleware.TokenIssuer,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		DB:             db,
		Content:        content,
		Hub:            hub,
		Tokens:         tokens,
		RequestTimeout: 5 * time.Second,
	}
}

// ask sends a message to an actor and writes the response. Actor results
// are either a model (encoded as JSON) or an *utils.AppError (mapped to
// an HTTP status).
func (s *Server) ask(w http.ResponseWriter, pid *actor.PID, msg interface{}) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		http.Error(w, "Request timed out", http.StatusGatewayTimeout)
		return
	}
	s.respond(w, result)
}

func (s *Server) respond(w http.ResponseWriter, result interface{}) {
	if appErr, ok := result.(*utils.AppError); ok {
		http.Error(w, appErr.Message, utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}
	if err, ok := result.(error); ok {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// respondError writes an error, honoring AppError status mapping.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.Metrics.IncrementErrors()
	if appErr, ok := err.(*utils.AppError); ok {
		http.Error(w, appErr.Message, utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}
