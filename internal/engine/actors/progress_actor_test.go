package actors

import (
	"testing"
	"time"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnProgressActor(t *testing.T, db *fakeDB) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewProgressActor(db, utils.NewMetricsCollector())
	}))
	return system, pid
}

func TestProgressSavesAreDebounced(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnProgressActor(t, db)

	// Three rapid page turns. Each answers immediately from the mirror.
	for i := 1; i <= 3; i++ {
		result, err := system.Root.RequestFuture(pid, &SaveProgressMsg{
			UserID:        reader.ID,
			StoryID:       "story-1",
			Percentage:    float64(i * 10),
			LastBlockKey:  "block-a",
			PageIndex:     i,
			ReadingTimeMs: 1000,
		}, askTimeout).Result()
		require.NoError(t, err)
		progress, ok := result.(*models.ReadingProgress)
		require.True(t, ok, "expected progress, got %T", result)
		assert.Equal(t, float64(i*10), progress.Percentage)
	}

	// Nothing has been written yet; the debounce window is still open.
	assert.Equal(t, 0, db.callCount("SaveProgress"))

	// One write lands after the quiet period, carrying the coalesced state.
	waitFor(t, func() bool { return db.callCount("SaveProgress") == 1 }, "debounced flush")

	stored := db.progress[models.ProgressKey(reader.ID, "story-1")]
	require.NotNil(t, stored)
	assert.Equal(t, float64(30), stored.Percentage)
	assert.Equal(t, 3, stored.PageIndex)
	assert.Equal(t, int64(3000), stored.ReadingTimeMs, "reading time accumulates across saves")

	// No further writes without further saves.
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, 1, db.callCount("SaveProgress"))
}

func TestSaveAfterCompletionKeepsCompletedFlag(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnProgressActor(t, db)

	result, err := system.Root.RequestFuture(pid, &CompleteStoryMsg{
		UserID:  reader.ID,
		StoryID: "story-1",
	}, askTimeout).Result()
	require.NoError(t, err)
	require.True(t, result.(*models.ReadingProgress).IsCompleted)

	// Rereading from the middle moves the position but the story stays
	// completed.
	result, err = system.Root.RequestFuture(pid, &SaveProgressMsg{
		UserID:     reader.ID,
		StoryID:    "story-1",
		Percentage: 50,
		PageIndex:  5,
	}, askTimeout).Result()
	require.NoError(t, err)
	progress := result.(*models.ReadingProgress)
	assert.Equal(t, float64(50), progress.Percentage)
	assert.True(t, progress.IsCompleted)
}

func TestCompleteStoryAwardsOnce(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnProgressActor(t, db)

	complete := &CompleteStoryMsg{
		UserID:    reader.ID,
		StoryID:   "story-1",
		QuizScore: 4,
		QuizTotal: 5,
	}

	result, err := system.Root.RequestFuture(pid, complete, askTimeout).Result()
	require.NoError(t, err)
	progress := result.(*models.ReadingProgress)
	assert.True(t, progress.IsCompleted)
	assert.Equal(t, float64(100), progress.Percentage)

	// Completion plus a passed quiz is two awards.
	waitFor(t, func() bool { return db.callCount("AddLeaderboardPoints") == 2 }, "leaderboard awards")

	entry := db.leaderboard[reader.ID]
	require.NotNil(t, entry)
	assert.Equal(t, models.PointsStoryCompleted+models.PointsQuizPassed, entry.Points)
	assert.Equal(t, 1, entry.StoriesCompleted)

	// Re-reading the story and completing again changes nothing: the
	// activity log already has both entries for this (user, story).
	result, err = system.Root.RequestFuture(pid, complete, askTimeout).Result()
	require.NoError(t, err)
	require.IsType(t, &models.ReadingProgress{}, result)

	waitFor(t, func() bool { return db.callCount("RecordActivity") == 4 }, "repeat activity checks")
	assert.Equal(t, 2, db.callCount("AddLeaderboardPoints"))
	assert.Equal(t, models.PointsStoryCompleted+models.PointsQuizPassed, db.leaderboard[reader.ID].Points)
}

func TestCompleteStoryFailedQuizSkipsQuizAward(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnProgressActor(t, db)

	result, err := system.Root.RequestFuture(pid, &CompleteStoryMsg{
		UserID:    reader.ID,
		StoryID:   "story-2",
		QuizScore: 1,
		QuizTotal: 5,
	}, askTimeout).Result()
	require.NoError(t, err)
	require.IsType(t, &models.ReadingProgress{}, result)

	waitFor(t, func() bool { return db.callCount("AddLeaderboardPoints") == 1 }, "completion award")
	assert.Equal(t, models.PointsStoryCompleted, db.leaderboard[reader.ID].Points)
}

func TestCompletionCancelsPendingDebouncedFlush(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnProgressActor(t, db)

	_, err := system.Root.RequestFuture(pid, &SaveProgressMsg{
		UserID:     reader.ID,
		StoryID:    "story-1",
		Percentage: 95,
		PageIndex:  19,
	}, askTimeout).Result()
	require.NoError(t, err)

	_, err = system.Root.RequestFuture(pid, &CompleteStoryMsg{
		UserID:  reader.ID,
		StoryID: "story-1",
	}, askTimeout).Result()
	require.NoError(t, err)

	// Only the completion write lands; the debounced save was cancelled.
	waitFor(t, func() bool { return db.callCount("SaveProgress") == 1 }, "completion write")
	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, 1, db.callCount("SaveProgress"))

	stored := db.progress[models.ProgressKey(reader.ID, "story-1")]
	require.NotNil(t, stored)
	assert.True(t, stored.IsCompleted)
}
