package main

import (
	"context"
	"log"
	"time"

	"english-tales/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumReaders:       10,
		SimulationTime:   10 * time.Minute,
		SessionFrequency: 6.0,
		PostFrequency:    2.0,
		LikeFrequency:    12.0,
		ReviewFrequency:  1.5,
		SocialFrequency:  3.0,
		ZipfS:            1.07,
		EngineURL:        "http://localhost:8080",
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime+time.Minute)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Engine URL: %s", config.EngineURL)
	log.Printf("- Number of readers: %d", config.NumReaders)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Session frequency: %.2f sessions/reader/hour", config.SessionFrequency)
	log.Printf("- Like frequency: %.2f likes/reader/hour", config.LikeFrequency)
	log.Printf("- Review frequency: %.2f reviews/reader/hour", config.ReviewFrequency)
	log.Printf("- Zipf parameter: %.2f", config.ZipfS)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	stats := sim.GetStats()
	log.Printf("\nSimulation completed. Final stats:")
	log.Printf("- Total requests: %d (%d ok, %d failed)",
		stats.TotalRequests, stats.SuccessRequests, stats.FailedRequests)
	log.Printf("- Reading sessions: %d (%d completions)", stats.Sessions, stats.Completions)
	log.Printf("- Feed posts: %d, likes: %d", stats.Posts, stats.Likes)
	log.Printf("- Reviews: %d", stats.Reviews)
	log.Printf("- Friend requests: %d, follows: %d", stats.FriendRequests, stats.Follows)
}
