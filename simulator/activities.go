package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"resty.dev/v3"
)

// simulateReader runs one account's activity loops until the context
// is cancelled or the configured simulation time elapses.
func (s *Simulator) simulateReader(ctx context.Context, reader *SimulatedReader) {
	deadline := time.Now().Add(s.config.SimulationTime)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	loops := []struct {
		freq float64
		run  func(context.Context, *SimulatedReader)
	}{
		{s.config.SessionFrequency, s.readingSession},
		{s.config.PostFrequency, s.writeFeedPost},
		{s.config.LikeFrequency, s.likeSomething},
		{s.config.ReviewFrequency, s.writeReview},
		{s.config.SocialFrequency, s.socialAction},
	}

	for _, loop := range loops {
		go func(freq float64, run func(context.Context, *SimulatedReader)) {
			mean := interval(freq)
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(jittered(mean)):
					run(ctx, reader)
				}
			}
		}(loop.freq, loop.run)
	}

	<-ctx.Done()
}

func (s *Simulator) authed(ctx context.Context, reader *SimulatedReader) *resty.Request {
	return s.client.R().WithContext(ctx).SetAuthToken(reader.Token)
}

// readingSession advances a story by a few progress saves and sometimes
// finishes it, which is what exercises the debounced write path and the
// completion awards.
func (s *Simulator) readingSession(ctx context.Context, reader *SimulatedReader) {
	story := s.pickStory()
	pct := reader.Reading[story.ID]

	steps := 2 + rand.Intn(4)
	for i := 0; i < steps; i++ {
		pct += 5 + rand.Float64()*20
		if pct > 99 {
			pct = 99
		}
		res, err := s.authed(ctx, reader).
			SetBody(map[string]interface{}{
				"storyId":       story.ID,
				"storyTitle":    story.Title,
				"percentage":    pct,
				"pageIndex":     int(pct / 4),
				"readingTimeMs": 15000 + rand.Intn(45000),
			}).
			Post("/progress")
		s.stats.record(err == nil && res.IsSuccess())
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(200+rand.Intn(800)) * time.Millisecond):
		}
	}
	reader.Reading[story.ID] = pct
	s.stats.bump(&s.stats.Sessions)

	if pct > 80 && !reader.Completed[story.ID] {
		quizTotal := 5
		quizScore := 2 + rand.Intn(4)
		res, err := s.authed(ctx, reader).
			SetBody(map[string]interface{}{
				"storyId":    story.ID,
				"storyTitle": story.Title,
				"quizScore":  quizScore,
				"quizTotal":  quizTotal,
			}).
			Post("/progress/complete")
		s.stats.record(err == nil && res.IsSuccess())
		if err == nil && res.IsSuccess() {
			reader.Completed[story.ID] = true
			s.stats.bump(&s.stats.Completions)
		}
	}
}

func (s *Simulator) writeFeedPost(ctx context.Context, reader *SimulatedReader) {
	story := s.pickStory()
	res, err := s.authed(ctx, reader).
		SetBody(map[string]interface{}{
			"content": fmt.Sprintf("Just read %q, thoughts below.", story.Title),
			"type":    "story_share",
			"metadata": map[string]string{
				"storyId":    story.ID,
				"storyTitle": story.Title,
			},
		}).
		Post("/feed")
	s.stats.record(err == nil && res.IsSuccess())
	if err == nil && res.IsSuccess() {
		s.stats.bump(&s.stats.Posts)
	}
}

// likeSomething pulls the feed and toggles a like on a random post,
// skewed toward the newest entries.
func (s *Simulator) likeSomething(ctx context.Context, reader *SimulatedReader) {
	var posts []struct {
		ID string `json:"id"`
	}
	res, err := s.authed(ctx, reader).
		SetQueryParam("limit", "20").
		SetResult(&posts).
		Get("/feed")
	s.stats.record(err == nil && res.IsSuccess())
	if err != nil || len(posts) == 0 {
		return
	}

	target := posts[rand.Intn(min(len(posts), 5))]
	res, err = s.authed(ctx, reader).
		SetBody(map[string]string{"postId": target.ID}).
		Post("/feed/post/like")
	s.stats.record(err == nil && res.IsSuccess())
	if err == nil && res.IsSuccess() {
		s.stats.bump(&s.stats.Likes)
	}
}

func (s *Simulator) writeReview(ctx context.Context, reader *SimulatedReader) {
	story := s.pickStory()
	res, err := s.authed(ctx, reader).
		SetBody(map[string]interface{}{
			"storyId":    story.ID,
			"storyTitle": story.Title,
			"rating":     1 + rand.Intn(5),
			"comment":    "Enjoyed the pacing, vocabulary was about right for me.",
		}).
		Post("/reviews")
	s.stats.record(err == nil && res.IsSuccess())
	if err == nil && res.IsSuccess() {
		s.stats.bump(&s.stats.Reviews)
	}
}

// socialAction alternates between friend requests and author follows.
// Duplicate friend requests are expected to come back 409 and count as
// failures, which keeps the pending-request path exercised.
func (s *Simulator) socialAction(ctx context.Context, reader *SimulatedReader) {
	if rand.Intn(2) == 0 && len(s.readers) > 1 {
		other := s.readers[rand.Intn(len(s.readers))]
		if other.UserID == reader.UserID {
			return
		}
		res, err := s.authed(ctx, reader).
			SetBody(map[string]string{"receiverId": other.UserID}).
			Post("/friends/request")
		s.stats.record(err == nil && res.IsSuccess())
		if err == nil && res.IsSuccess() {
			s.stats.bump(&s.stats.FriendRequests)
		}
		return
	}

	story := s.pickStory()
	res, err := s.authed(ctx, reader).
		SetBody(map[string]interface{}{
			"targetId": story.ID,
			"author":   false,
		}).
		Post("/follows")
	s.stats.record(err == nil && res.IsSuccess())
	if err == nil && res.IsSuccess() {
		s.stats.bump(&s.stats.Follows)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
