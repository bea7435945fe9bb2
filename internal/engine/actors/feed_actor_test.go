package actors

import (
	"testing"
	"time"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const askTimeout = 5 * time.Second

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func seedUser(db *fakeDB, name string) *models.User {
	user := &models.User{
		ID:          uuid.New(),
		Username:    name,
		DisplayName: name,
		Email:       name + "@example.com",
	}
	db.users[user.ID] = user
	return user
}

func spawnFeedActor(t *testing.T, db *fakeDB) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewFeedActor(db, utils.NewMetricsCollector())
	}))

	// The actor mirrors the feed from the database on startup; wait for
	// that load so it cannot race with the test's own writes.
	waitFor(t, func() bool { return db.callCount("GetFeedPosts") >= 1 }, "initial feed load")
	time.Sleep(50 * time.Millisecond)
	return system, pid
}

func TestCreatePostAppearsInFeed(t *testing.T) {
	db := newFakeDB()
	author := seedUser(db, "reader1")
	system, pid := spawnFeedActor(t, db)

	result, err := system.Root.RequestFuture(pid, &CreatePostMsg{
		AuthorID: author.ID,
		Content:  "Finished my first story today",
		Type:     models.PostTypeText,
	}, askTimeout).Result()
	require.NoError(t, err)

	post, ok := result.(*models.Post)
	require.True(t, ok, "expected a post, got %T", result)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, "reader1", post.AuthorDisplayName)

	// The response comes back before the write-through lands.
	waitFor(t, func() bool { return db.callCount("SavePost") == 1 }, "post persistence")

	feedResult, err := system.Root.RequestFuture(pid, &GetFeedMsg{Limit: 10}, askTimeout).Result()
	require.NoError(t, err)
	feed := feedResult.([]*models.Post)
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)
}

func TestToggleLikeIsIdempotentAcrossDoubleToggle(t *testing.T) {
	db := newFakeDB()
	author := seedUser(db, "author")
	liker := seedUser(db, "liker")
	system, pid := spawnFeedActor(t, db)

	result, err := system.Root.RequestFuture(pid, &CreatePostMsg{
		AuthorID: author.ID,
		Content:  "like me",
		Type:     models.PostTypeText,
	}, askTimeout).Result()
	require.NoError(t, err)
	post := result.(*models.Post)
	waitFor(t, func() bool { return db.callCount("SavePost") == 1 }, "post persistence")

	// Like, then unlike. Each response reflects the mirror immediately.
	result, err = system.Root.RequestFuture(pid, &ToggleLikePostMsg{
		PostID: post.ID,
		UserID: liker.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.(*models.Post).LikeCount)

	waitFor(t, func() bool { return db.callCount("LikePost") == 1 }, "like write")

	result, err = system.Root.RequestFuture(pid, &ToggleLikePostMsg{
		PostID: post.ID,
		UserID: liker.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, 0, result.(*models.Post).LikeCount)

	waitFor(t, func() bool { return db.callCount("UnlikePost") == 1 }, "unlike write")

	stored := db.posts[post.ID]
	assert.Equal(t, 0, stored.LikeCount)
	assert.Empty(t, stored.LikedBy)
}

func TestToggleLikeRollsBackWhenWriteFails(t *testing.T) {
	db := newFakeDB()
	author := seedUser(db, "author")
	liker := seedUser(db, "liker")
	system, pid := spawnFeedActor(t, db)

	result, err := system.Root.RequestFuture(pid, &CreatePostMsg{
		AuthorID: author.ID,
		Content:  "flaky backend",
		Type:     models.PostTypeText,
	}, askTimeout).Result()
	require.NoError(t, err)
	post := result.(*models.Post)
	waitFor(t, func() bool { return db.callCount("SavePost") == 1 }, "post persistence")

	db.setFail("LikePost", true)

	// The optimistic answer still reports the like applied.
	result, err = system.Root.RequestFuture(pid, &ToggleLikePostMsg{
		PostID: post.ID,
		UserID: liker.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.(*models.Post).LikeCount)

	// The failed write triggers a refetch, which discards the like.
	waitFor(t, func() bool { return db.callCount("GetPost") >= 1 }, "rollback refetch")
	waitFor(t, func() bool {
		res, err := system.Root.RequestFuture(pid, &GetPostMsg{PostID: post.ID}, askTimeout).Result()
		if err != nil {
			return false
		}
		mirrored, ok := res.(*models.Post)
		return ok && mirrored.LikeCount == 0
	}, "mirror rollback")
}

func TestReplyBumpsReplyCount(t *testing.T) {
	db := newFakeDB()
	author := seedUser(db, "author")
	system, pid := spawnFeedActor(t, db)

	result, err := system.Root.RequestFuture(pid, &CreatePostMsg{
		AuthorID: author.ID,
		Content:  "discuss",
		Type:     models.PostTypeText,
	}, askTimeout).Result()
	require.NoError(t, err)
	post := result.(*models.Post)

	result, err = system.Root.RequestFuture(pid, &CreateReplyMsg{
		PostID:   post.ID,
		AuthorID: author.ID,
		Content:  "replying to myself",
	}, askTimeout).Result()
	require.NoError(t, err)
	reply, ok := result.(*models.Reply)
	require.True(t, ok, "expected a reply, got %T", result)
	assert.Equal(t, post.ID, reply.PostID)

	result, err = system.Root.RequestFuture(pid, &GetPostMsg{PostID: post.ID}, askTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, 1, result.(*models.Post).ReplyCount)

	waitFor(t, func() bool { return db.callCount("SaveReply") == 1 }, "reply persistence")
}
