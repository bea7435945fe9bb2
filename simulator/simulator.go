// Package simulator drives a running engine with synthetic readers. It
// registers accounts, pulls the story catalog, then generates reading
// sessions and social activity at configurable rates.
package simulator

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"resty.dev/v3"
)

type SimConfig struct {
	NumReaders       int
	SimulationTime   time.Duration
	SessionFrequency float64 // reading sessions per reader per hour
	PostFrequency    float64 // feed posts per reader per hour
	LikeFrequency    float64 // like toggles per reader per hour
	ReviewFrequency  float64 // reviews per reader per hour
	SocialFrequency  float64 // friend requests / follows per reader per hour
	ZipfS            float64 // story popularity skew
	EngineURL        string
}

type SimulationStats struct {
	mu              sync.RWMutex
	StartTime       time.Time
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	Sessions        int
	Completions     int
	Posts           int
	Likes           int
	Reviews         int
	FriendRequests  int
	Follows         int
}

func (s *SimulationStats) record(ok bool) {
	s.mu.Lock()
	s.TotalRequests++
	if ok {
		s.SuccessRequests++
	} else {
		s.FailedRequests++
	}
	s.mu.Unlock()
}

func (s *SimulationStats) bump(counter *int) {
	s.mu.Lock()
	*counter++
	s.mu.Unlock()
}

// SimulatedReader is one synthetic account with its auth token and the
// stories it has touched.
type SimulatedReader struct {
	UserID    string
	Username  string
	Email     string
	Token     string
	Reading   map[string]float64 // storyID -> percentage
	Completed map[string]bool
}

type storySummary struct {
	ID    string `json:"_id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type Simulator struct {
	config  SimConfig
	stats   *SimulationStats
	readers []*SimulatedReader
	stories []storySummary
	client  *resty.Client
	zipf    *rand.Zipf
	mu      sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats:  &SimulationStats{StartTime: time.Now()},
		client: resty.New().
			SetBaseURL(config.EngineURL).
			SetTimeout(10 * time.Second),
	}
}

func (s *Simulator) GetStats() *SimulationStats {
	return s.stats
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting simulation against %s", s.config.EngineURL)

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	var wg sync.WaitGroup
	for _, reader := range s.readers {
		wg.Add(1)
		go func(reader *SimulatedReader) {
			defer wg.Done()
			s.simulateReader(ctx, reader)
		}(reader)
	}
	wg.Wait()

	return nil
}

// initialize registers the synthetic accounts and pulls the story
// catalog the sessions will read from.
func (s *Simulator) initialize(ctx context.Context) error {
	runTag := time.Now().UnixNano() % 1_000_000

	for i := 0; i < s.config.NumReaders; i++ {
		username := fmt.Sprintf("sim_reader_%d_%d", runTag, i)
		email := username + "@simulated.englishtales.app"
		password := fmt.Sprintf("simulated-pass-%d", i)

		reader := &SimulatedReader{
			Username:  username,
			Email:     email,
			Reading:   make(map[string]float64),
			Completed: make(map[string]bool),
		}

		res, err := s.client.R().
			WithContext(ctx).
			SetBody(map[string]string{
				"username": username,
				"email":    email,
				"password": password,
			}).
			Post("/auth/register")
		s.stats.record(err == nil && res.IsSuccess())
		if err != nil {
			return err
		}

		var login struct {
			Success bool   `json:"success"`
			Token   string `json:"token"`
			UserID  string `json:"userId"`
		}
		res, err = s.client.R().
			WithContext(ctx).
			SetBody(map[string]string{"email": email, "password": password}).
			SetResult(&login).
			Post("/auth/login")
		s.stats.record(err == nil && res.IsSuccess())
		if err != nil {
			return err
		}
		if !login.Success {
			return fmt.Errorf("login failed for %s", email)
		}

		reader.Token = login.Token
		reader.UserID = login.UserID
		s.readers = append(s.readers, reader)
	}
	log.Printf("Registered %d simulated readers", len(s.readers))

	var stories []storySummary
	res, err := s.client.R().
		WithContext(ctx).
		SetAuthToken(s.readers[0].Token).
		SetResult(&stories).
		Get("/stories")
	s.stats.record(err == nil && res.IsSuccess())
	if err != nil {
		return err
	}
	if len(stories) == 0 {
		return fmt.Errorf("no stories available to read")
	}
	s.stories = stories

	zipfS := s.config.ZipfS
	if zipfS <= 1 {
		zipfS = 1.07
	}
	s.zipf = rand.NewZipf(rand.New(rand.NewSource(time.Now().UnixNano())),
		zipfS, 1, uint64(len(stories)-1))

	log.Printf("Loaded %d stories from catalog", len(stories))
	return nil
}

// pickStory samples the catalog with Zipf-skewed popularity.
func (s *Simulator) pickStory() storySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stories[s.zipf.Uint64()]
}

// interval converts an hourly frequency to a mean wait between events.
func interval(perHour float64) time.Duration {
	if perHour <= 0 {
		return time.Hour
	}
	return time.Duration(float64(time.Hour) / perHour)
}

// jittered returns a wait around the mean, between 50% and 150%.
func jittered(mean time.Duration) time.Duration {
	return time.Duration(float64(mean) * (0.5 + rand.Float64()))
}
