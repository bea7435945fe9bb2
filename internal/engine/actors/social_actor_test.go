package actors

import (
	"testing"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnSocialActor(t *testing.T, db *fakeDB) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewSocialActor(db, utils.NewMetricsCollector(), nil)
	}))
	return system, pid
}

func TestReverseFriendRequestWhilePendingIsRejected(t *testing.T) {
	db := newFakeDB()
	alice := seedUser(db, "alice")
	bob := seedUser(db, "bob")
	system, pid := spawnSocialActor(t, db)

	result, err := system.Root.RequestFuture(pid, &SendFriendRequestMsg{
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
	}, askTimeout).Result()
	require.NoError(t, err)

	friendship, ok := result.(*models.Friendship)
	require.True(t, ok, "expected a friendship, got %T", result)
	assert.Equal(t, models.FriendshipPending, friendship.Status)
	assert.Equal(t, models.FriendshipKey(alice.ID, bob.ID), friendship.ID)

	// The reverse direction resolves to the same sorted-pair id and is
	// rejected while the first request is still pending.
	result, err = system.Root.RequestFuture(pid, &SendFriendRequestMsg{
		SenderID:   bob.ID,
		ReceiverID: alice.ID,
	}, askTimeout).Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok, "expected an error, got %T", result)
	assert.Equal(t, utils.ErrRequestPending, appErr.Code)
	assert.Equal(t, "Request already pending", appErr.Message)
}

func TestFriendRequestLifecycle(t *testing.T) {
	db := newFakeDB()
	alice := seedUser(db, "alice")
	bob := seedUser(db, "bob")
	system, pid := spawnSocialActor(t, db)

	result, err := system.Root.RequestFuture(pid, &SendFriendRequestMsg{
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	friendship := result.(*models.Friendship)
	waitFor(t, func() bool { return db.callCount("SaveFriendship") == 1 }, "friendship persistence")

	// The sender cannot accept their own request.
	result, err = system.Root.RequestFuture(pid, &RespondFriendRequestMsg{
		UserID:       alice.ID,
		FriendshipID: friendship.ID,
		Accept:       true,
	}, askTimeout).Result()
	require.NoError(t, err)
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	result, err = system.Root.RequestFuture(pid, &RespondFriendRequestMsg{
		UserID:       bob.ID,
		FriendshipID: friendship.ID,
		Accept:       true,
	}, askTimeout).Result()
	require.NoError(t, err)
	accepted := result.(*models.Friendship)
	assert.Equal(t, models.FriendshipAccepted, accepted.Status)

	// A repeat request after acceptance reports the existing friendship.
	result, err = system.Root.RequestFuture(pid, &SendFriendRequestMsg{
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrAlreadyFriends, appErr.Code)

	result, err = system.Root.RequestFuture(pid, &RemoveFriendMsg{
		UserID:   alice.ID,
		FriendID: bob.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, true, result)
	waitFor(t, func() bool { return db.callCount("DeleteFriendship") == 1 }, "friendship removal")
}

func TestDeclinedRequestCanBeResent(t *testing.T) {
	db := newFakeDB()
	alice := seedUser(db, "alice")
	bob := seedUser(db, "bob")
	system, pid := spawnSocialActor(t, db)

	result, err := system.Root.RequestFuture(pid, &SendFriendRequestMsg{
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	friendship := result.(*models.Friendship)
	waitFor(t, func() bool { return db.callCount("SaveFriendship") == 1 }, "friendship persistence")

	result, err = system.Root.RequestFuture(pid, &RespondFriendRequestMsg{
		UserID:       bob.ID,
		FriendshipID: friendship.ID,
		Accept:       false,
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipDeclined, result.(*models.Friendship).Status)

	// This time bob asks alice; the declined record is reused fresh.
	result, err = system.Root.RequestFuture(pid, &SendFriendRequestMsg{
		SenderID:   bob.ID,
		ReceiverID: alice.ID,
	}, askTimeout).Result()
	require.NoError(t, err)
	resent, ok := result.(*models.Friendship)
	require.True(t, ok, "expected a friendship, got %T", result)
	assert.Equal(t, models.FriendshipPending, resent.Status)
	assert.Equal(t, bob.ID, resent.SenderID)
	assert.Equal(t, alice.ID, resent.ReceiverID)
}

func TestFriendRequestRollsBackWhenWriteFails(t *testing.T) {
	db := newFakeDB()
	alice := seedUser(db, "alice")
	bob := seedUser(db, "bob")
	db.setFail("SaveFriendship", true)
	system, pid := spawnSocialActor(t, db)

	result, err := system.Root.RequestFuture(pid, &SendFriendRequestMsg{
		SenderID:   alice.ID,
		ReceiverID: bob.ID,
	}, askTimeout).Result()
	require.NoError(t, err)

	// The mirror answers optimistically before the write lands.
	friendship, ok := result.(*models.Friendship)
	require.True(t, ok, "expected a friendship, got %T", result)
	assert.Equal(t, models.FriendshipPending, friendship.Status)

	// The failed write triggers a reload of the sender's friendships; the
	// first GetUserFriendships call was the initial mirror load.
	waitFor(t, func() bool { return db.callCount("GetUserFriendships") >= 2 }, "friendship reload")
	waitFor(t, func() bool {
		res, err := system.Root.RequestFuture(pid, &GetFriendshipsMsg{UserID: alice.ID}, askTimeout).Result()
		if err != nil {
			return false
		}
		friendships, ok := res.([]*models.Friendship)
		return ok && len(friendships) == 0
	}, "mirror rollback")
}

func TestToggleFollowRoundTrip(t *testing.T) {
	db := newFakeDB()
	alice := seedUser(db, "alice")
	system, pid := spawnSocialActor(t, db)

	const authorID = "cms-author-1"

	result, err := system.Root.RequestFuture(pid, &ToggleFollowMsg{
		FollowerID: alice.ID,
		TargetID:   authorID,
		Author:     true,
	}, askTimeout).Result()
	require.NoError(t, err)
	toggle := result.(*ToggleResult)
	assert.True(t, toggle.Active)
	waitFor(t, func() bool { return db.callCount("SaveFollow") == 1 }, "follow write")

	result, err = system.Root.RequestFuture(pid, &GetFollowingMsg{
		UserID: alice.ID,
		Author: true,
	}, askTimeout).Result()
	require.NoError(t, err)
	following := result.([]*models.Follow)
	require.Len(t, following, 1)
	assert.Equal(t, authorID, following[0].TargetID)

	result, err = system.Root.RequestFuture(pid, &ToggleFollowMsg{
		FollowerID: alice.ID,
		TargetID:   authorID,
		Author:     true,
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.False(t, result.(*ToggleResult).Active)
	waitFor(t, func() bool { return db.callCount("DeleteFollow") == 1 }, "unfollow write")
}
