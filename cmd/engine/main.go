package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"english-tales/internal/cms"
	"english-tales/internal/config"
	"english-tales/internal/database"
	"english-tales/internal/engine"
	"english-tales/internal/handlers"
	"english-tales/internal/middleware"
	"english-tales/internal/utils"
	"english-tales/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	metrics := utils.NewMetricsCollector()

	db, err := openDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close(context.Background())

	cmsClient := cms.NewClient(cfg.CMS)
	defer cmsClient.Close()
	content := cms.NewQueryCache(cmsClient)

	hub := websocket.NewHub()
	go hub.Run()

	tokens := middleware.NewTokenIssuer(cfg.JWTSecret)

	system := actor.NewActorSystem()
	talesEngine := engine.NewEngine(system, db, metrics, hub, tokens.GenerateToken)

	server := handlers.NewServer(system, talesEngine, metrics, db, content, hub, tokens)
	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins)

	mux := http.NewServeMux()
	route := func(path string, handler http.HandlerFunc) {
		mux.HandleFunc(path, middleware.ApplyCORS(tokens.ApplyJWTMiddleware(handler, path), corsConfig))
	}

	route("/health", server.HandleHealth())
	route("/auth/register", server.HandleRegister())
	route("/auth/login", server.HandleLogin())
	route("/profile", server.HandleProfile())

	route("/feed", server.HandleFeed())
	route("/feed/post", server.HandlePost())
	route("/feed/post/like", server.HandlePostLike())
	route("/feed/replies", server.HandleReplies())

	route("/stories", server.HandleStories())
	route("/stories/story", server.HandleStory())
	route("/stories/search", server.HandleSearch())
	route("/stories/categories", server.HandleCategories())
	route("/stories/featured", server.HandleFeatured())
	route("/stories/daily", server.HandleDailyPick())
	route("/stories/author", server.HandleAuthor())
	route("/stories/pages", server.HandleStoryPages())

	route("/reviews", server.HandleReviews())
	route("/reviews/mine", server.HandleMyReviews())
	route("/reviews/like", server.HandleReviewLike())

	route("/favorites", server.HandleFavorites())
	route("/library", server.HandleLibrary())

	route("/friends", server.HandleFriendships())
	route("/friends/respond", server.HandleFriendshipResponse())
	route("/friends/remove", server.HandleRemoveFriend())
	route("/follows", server.HandleFollows())
	route("/followers", server.HandleFollowers())

	route("/progress", server.HandleProgress())
	route("/progress/complete", server.HandleCompleteStory())
	route("/leaderboard", server.HandleLeaderboard())

	route("/notifications", server.HandleNotifications())
	route("/notifications/read", server.HandleNotificationRead())

	mux.HandleFunc("/ws", server.HandleWebSocket())

	if cfg.Server.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s (db=%s)", serverAddr, cfg.Database.Type)
	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func openDatabase(cfg *config.DatabaseConfig) (database.DBAdapter, error) {
	switch cfg.Type {
	case "postgres":
		return database.NewPostgresDB(cfg.URI)
	default:
		return database.NewMongoDB(cfg.URI, cfg.Name)
	}
}
