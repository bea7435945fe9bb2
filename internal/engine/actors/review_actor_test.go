package actors

import (
	"testing"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnReviewActor(t *testing.T, db *fakeDB) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewReviewActor(db, utils.NewMetricsCollector())
	}))
	return system, pid
}

func TestResubmittedReviewReplacesEarlierOne(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	liker := seedUser(db, "liker")
	system, pid := spawnReviewActor(t, db)

	result, err := system.Root.RequestFuture(pid, &SubmitReviewMsg{
		StoryID:  "story-1",
		AuthorID: reader.ID,
		Rating:   3,
		Comment:  "decent",
	}, askTimeout).Result()
	require.NoError(t, err)
	review, ok := result.(*models.Review)
	require.True(t, ok, "expected a review, got %T", result)
	assert.Equal(t, models.ReviewKey(reader.ID, "story-1"), review.ID)
	waitFor(t, func() bool { return db.callCount("SaveReview") == 1 }, "review persistence")

	// Someone likes the review before the resubmission.
	result, err = system.Root.RequestFuture(pid, &ToggleLikeReviewMsg{
		ReviewID: review.ID,
		UserID:   liker.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.(*models.Review).LikeCount)

	// The resubmission lands on the same id and keeps the like.
	result, err = system.Root.RequestFuture(pid, &SubmitReviewMsg{
		StoryID:  "story-1",
		AuthorID: reader.ID,
		Rating:   5,
		Comment:  "grew on me",
	}, askTimeout).Result()
	require.NoError(t, err)
	updated := result.(*models.Review)
	assert.Equal(t, review.ID, updated.ID)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, 1, updated.LikeCount)

	storyResult, err := system.Root.RequestFuture(pid, &GetStoryReviewsMsg{StoryID: "story-1"}, askTimeout).Result()
	require.NoError(t, err)
	reviews := storyResult.([]*models.Review)
	require.Len(t, reviews, 1, "one review per user per story")
}

func TestSubmitReviewRollsBackWhenWriteFails(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	db.setFail("SaveReview", true)
	system, pid := spawnReviewActor(t, db)

	// The mirror answers optimistically before the write lands.
	result, err := system.Root.RequestFuture(pid, &SubmitReviewMsg{
		StoryID:  "story-1",
		AuthorID: reader.ID,
		Rating:   4,
		Comment:  "lost to the backend",
	}, askTimeout).Result()
	require.NoError(t, err)
	_, ok := result.(*models.Review)
	require.True(t, ok, "expected a review, got %T", result)

	// The failed write reloads the story's reviews, which discards the
	// one the database never stored.
	waitFor(t, func() bool { return db.callCount("GetStoryReviews") >= 1 }, "review reload")
	waitFor(t, func() bool {
		res, err := system.Root.RequestFuture(pid, &GetStoryReviewsMsg{StoryID: "story-1"}, askTimeout).Result()
		if err != nil {
			return false
		}
		reviews, ok := res.([]*models.Review)
		return ok && len(reviews) == 0
	}, "mirror rollback")
}

func TestReviewRatingValidation(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnReviewActor(t, db)

	for _, rating := range []int{0, 6, -1} {
		result, err := system.Root.RequestFuture(pid, &SubmitReviewMsg{
			StoryID:  "story-1",
			AuthorID: reader.ID,
			Rating:   rating,
		}, askTimeout).Result()
		require.NoError(t, err)
		appErr, ok := result.(*utils.AppError)
		require.True(t, ok, "rating %d should be rejected", rating)
		assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
	}
}
