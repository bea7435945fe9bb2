package actors

import (
	stdctx "context"
	"log"
	"time"

	"english-tales/internal/database"
	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for the social graph
type (
	SendFriendRequestMsg struct {
		SenderID   uuid.UUID
		ReceiverID uuid.UUID
	}

	RespondFriendRequestMsg struct {
		UserID       uuid.UUID // must be the receiver
		FriendshipID string
		Accept       bool
	}

	RemoveFriendMsg struct {
		UserID   uuid.UUID
		FriendID uuid.UUID
	}

	GetFriendshipsMsg struct {
		UserID uuid.UUID
		Status models.FriendshipStatus // empty for all
	}

	ToggleFollowMsg struct {
		FollowerID uuid.UUID
		TargetID   string
		Author     bool // CMS author rather than app user
	}

	GetFollowingMsg struct {
		UserID uuid.UUID
		Author bool
	}

	GetFollowersMsg struct {
		TargetID string
	}

	refetchFriendshipsMsg struct {
		UserID uuid.UUID
	}

	refetchFollowsMsg struct {
		UserID uuid.UUID
		Author bool
	}
)

// SocialActor owns the friendship and follow mirrors. Friendship ids are
// the sorted user pair, so both directions of a request land on the same
// record and a reverse request while one is pending is rejected locally
// before any database work.
type SocialActor struct {
	friendships map[string]*models.Friendship
	follows     map[uuid.UUID]map[string]*models.Follow
	authorFol   map[uuid.UUID]map[string]*models.Follow
	loaded      map[uuid.UUID]bool
	db          database.DBAdapter
	metrics     *utils.MetricsCollector
	notifier    *actor.PID
	userCache   map[uuid.UUID]*models.User
}

func NewSocialActor(db database.DBAdapter, metrics *utils.MetricsCollector, notifier *actor.PID) actor.Actor {
	return &SocialActor{
		friendships: make(map[string]*models.Friendship),
		follows:     make(map[uuid.UUID]map[string]*models.Follow),
		authorFol:   make(map[uuid.UUID]map[string]*models.Follow),
		loaded:      make(map[uuid.UUID]bool),
		db:          db,
		metrics:     metrics,
		notifier:    notifier,
		userCache:   make(map[uuid.UUID]*models.User),
	}
}

func (a *SocialActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("SocialActor started with PID: %v", context.Self())

	case *SendFriendRequestMsg:
		a.handleSendFriendRequest(context, msg)

	case *RespondFriendRequestMsg:
		a.handleRespondFriendRequest(context, msg)

	case *RemoveFriendMsg:
		a.handleRemoveFriend(context, msg)

	case *GetFriendshipsMsg:
		a.handleGetFriendships(context, msg)

	case *ToggleFollowMsg:
		a.handleToggleFollow(context, msg)

	case *GetFollowingMsg:
		a.handleGetFollowing(context, msg)

	case *GetFollowersMsg:
		a.handleGetFollowers(context, msg)

	case *remoteWriteOKMsg:
		confirmWrite(msg.Op)

	case *remoteWriteFailedMsg:
		failedWrite(context, msg)
		a.metrics.IncrementErrors()

	case *refetchFriendshipsMsg:
		a.refetchFriendships(context, msg.UserID)

	case *refetchFollowsMsg:
		a.refetchFollows(context, msg.UserID, msg.Author)

	case *applyMirrorMsg:
		msg.Apply()

	default:
		log.Printf("SocialActor: Unknown message type %T", msg)
	}
}

func (a *SocialActor) ensureLoaded(userID uuid.UUID) error {
	if a.loaded[userID] {
		return nil
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	friendships, err := a.db.GetUserFriendships(ctx, userID, "")
	if err != nil {
		return err
	}
	for _, f := range friendships {
		a.friendships[f.ID] = f
	}

	follows, err := a.db.GetFollowing(ctx, userID, false)
	if err != nil {
		return err
	}
	a.mirrorFollows(userID, follows, false)

	authorFollows, err := a.db.GetFollowing(ctx, userID, true)
	if err != nil {
		return err
	}
	a.mirrorFollows(userID, authorFollows, true)

	a.loaded[userID] = true
	return nil
}

func (a *SocialActor) displayName(userID uuid.UUID) string {
	if user, ok := a.userCache[userID]; ok {
		return user.DisplayName
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	user, err := a.db.GetUser(ctx, userID)
	if err != nil {
		return "[unknown]"
	}
	a.userCache[userID] = user
	return user.DisplayName
}

func (a *SocialActor) handleSendFriendRequest(context actor.Context, msg *SendFriendRequestMsg) {
	startTime := time.Now()

	if msg.SenderID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if msg.SenderID == msg.ReceiverID {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Cannot friend yourself", nil))
		return
	}
	if err := a.ensureLoaded(msg.SenderID); err != nil {
		context.Respond(err)
		return
	}

	id := models.FriendshipKey(msg.SenderID, msg.ReceiverID)
	if existing, ok := a.friendships[id]; ok {
		switch existing.Status {
		case models.FriendshipPending:
			context.Respond(utils.NewRequestPendingError())
		case models.FriendshipAccepted:
			context.Respond(utils.NewAppError(utils.ErrAlreadyFriends, "Already friends", nil))
		default:
			// Declined earlier, allow a fresh request.
			existing.SenderID = msg.SenderID
			existing.ReceiverID = msg.ReceiverID
			existing.Status = models.FriendshipPending
			existing.UpdatedAt = time.Now()
			context.Respond(existing)
			a.persistFriendshipUpdate(context, existing)
		}
		return
	}

	now := time.Now()
	friendship := &models.Friendship{
		ID:         id,
		Users:      []string{msg.SenderID.String(), msg.ReceiverID.String()},
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Status:     models.FriendshipPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	a.friendships[id] = friendship

	a.metrics.AddOperationLatency("send_friend_request", time.Since(startTime))
	context.Respond(friendship)

	a.notify(context, msg.ReceiverID, msg.SenderID, models.NotificationFriendRequest, id)

	senderID := msg.SenderID
	writeThrough(context, "send_friend_request", &refetchFriendshipsMsg{UserID: senderID}, func(ctx stdctx.Context) error {
		err := a.db.SaveFriendship(ctx, friendship)
		if utils.IsErrorCode(err, utils.ErrRequestPending) {
			// The reverse request won the race remotely. Reload so the
			// mirror converges on the stored record.
			context.ActorSystem().Root.Send(context.Self(), &refetchFriendshipsMsg{UserID: senderID})
			return nil
		}
		return err
	})
}

func (a *SocialActor) handleRespondFriendRequest(context actor.Context, msg *RespondFriendRequestMsg) {
	friendship, ok := a.friendships[msg.FriendshipID]
	if !ok {
		if err := a.ensureLoaded(msg.UserID); err != nil {
			context.Respond(err)
			return
		}
		friendship, ok = a.friendships[msg.FriendshipID]
	}
	if !ok {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Friend request not found", nil))
		return
	}
	if friendship.ReceiverID != msg.UserID {
		context.Respond(utils.NewAppError(utils.ErrForbidden, "Only the receiver can respond", nil))
		return
	}
	if friendship.Status != models.FriendshipPending {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Request is not pending", nil))
		return
	}

	if msg.Accept {
		friendship.Status = models.FriendshipAccepted
	} else {
		friendship.Status = models.FriendshipDeclined
	}
	friendship.UpdatedAt = time.Now()
	context.Respond(friendship)

	if msg.Accept {
		a.notify(context, friendship.SenderID, msg.UserID, models.NotificationRequestAccepted, friendship.ID)
	}
	a.persistFriendshipUpdate(context, friendship)
}

func (a *SocialActor) persistFriendshipUpdate(context actor.Context, friendship *models.Friendship) {
	id := friendship.ID
	status := friendship.Status
	writeThrough(context, "update_friendship", &refetchFriendshipsMsg{UserID: friendship.SenderID}, func(ctx stdctx.Context) error {
		return a.db.UpdateFriendshipStatus(ctx, id, status)
	})
}

func (a *SocialActor) handleRemoveFriend(context actor.Context, msg *RemoveFriendMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}

	id := models.FriendshipKey(msg.UserID, msg.FriendID)
	if _, ok := a.friendships[id]; !ok {
		if err := a.ensureLoaded(msg.UserID); err != nil {
			context.Respond(err)
			return
		}
		if _, ok := a.friendships[id]; !ok {
			context.Respond(utils.NewAppError(utils.ErrNotFound, "Friendship not found", nil))
			return
		}
	}

	delete(a.friendships, id)
	context.Respond(true)

	writeThrough(context, "remove_friend", &refetchFriendshipsMsg{UserID: msg.UserID}, func(ctx stdctx.Context) error {
		return a.db.DeleteFriendship(ctx, id)
	})
}

func (a *SocialActor) handleGetFriendships(context actor.Context, msg *GetFriendshipsMsg) {
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	userKey := msg.UserID.String()
	result := make([]*models.Friendship, 0)
	for _, f := range a.friendships {
		if f.SenderID.String() != userKey && f.ReceiverID.String() != userKey {
			continue
		}
		if msg.Status != "" && f.Status != msg.Status {
			continue
		}
		result = append(result, f)
	}
	context.Respond(result)
}

func (a *SocialActor) followMirror(userID uuid.UUID, author bool) map[string]*models.Follow {
	store := a.follows
	if author {
		store = a.authorFol
	}
	byTarget := store[userID]
	if byTarget == nil {
		byTarget = make(map[string]*models.Follow)
		store[userID] = byTarget
	}
	return byTarget
}

func (a *SocialActor) handleToggleFollow(context actor.Context, msg *ToggleFollowMsg) {
	if msg.FollowerID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if msg.TargetID == "" || msg.TargetID == msg.FollowerID.String() {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Bad follow target", nil))
		return
	}
	if err := a.ensureLoaded(msg.FollowerID); err != nil {
		context.Respond(err)
		return
	}

	byTarget := a.followMirror(msg.FollowerID, msg.Author)
	_, active := byTarget[msg.TargetID]
	if active {
		delete(byTarget, msg.TargetID)
	} else {
		byTarget[msg.TargetID] = &models.Follow{
			ID:         models.FollowKey(msg.FollowerID, msg.TargetID),
			FollowerID: msg.FollowerID,
			TargetID:   msg.TargetID,
			CreatedAt:  time.Now(),
		}
	}
	context.Respond(&ToggleResult{TargetID: msg.TargetID, Active: !active})

	if !active && !msg.Author {
		if targetID, err := uuid.Parse(msg.TargetID); err == nil {
			a.notify(context, targetID, msg.FollowerID, models.NotificationNewFollower, msg.FollowerID.String())
		}
	}

	follow := byTarget[msg.TargetID]
	followerID := msg.FollowerID
	targetID := msg.TargetID
	isAuthor := msg.Author
	self := context.Self()
	root := context.ActorSystem().Root

	optimisticApplied.WithLabelValues("toggle_follow").Inc()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		var err error
		if active {
			_, err = a.db.DeleteFollow(ctx, followerID, targetID, isAuthor)
		} else {
			_, err = a.db.SaveFollow(ctx, follow, isAuthor)
		}
		if err != nil {
			rollbackWrite("toggle_follow", err)
			root.Send(self, &refetchFollowsMsg{UserID: followerID, Author: isAuthor})
			return
		}
		root.Send(self, &remoteWriteOKMsg{Op: "toggle_follow"})
	}()
}

func (a *SocialActor) handleGetFollowing(context actor.Context, msg *GetFollowingMsg) {
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	byTarget := a.followMirror(msg.UserID, msg.Author)
	follows := make([]*models.Follow, 0, len(byTarget))
	for _, f := range byTarget {
		follows = append(follows, f)
	}
	context.Respond(follows)
}

func (a *SocialActor) handleGetFollowers(context actor.Context, msg *GetFollowersMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	followers, err := a.db.GetFollowers(ctx, msg.TargetID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(followers)
}

func (a *SocialActor) notify(context actor.Context, recipient, actorID uuid.UUID, kind models.NotificationKind, refID string) {
	if a.notifier == nil {
		return
	}
	context.Send(a.notifier, &AddNotificationMsg{
		RecipientID: recipient,
		ActorID:     actorID,
		ActorName:   a.displayName(actorID),
		Kind:        kind,
		RefID:       refID,
	})
}

func (a *SocialActor) refetchFriendships(context actor.Context, userID uuid.UUID) {
	reloadMirror(context, "friendships", func(ctx stdctx.Context) (func(), error) {
		friendships, err := a.db.GetUserFriendships(ctx, userID, "")
		if err != nil {
			return nil, err
		}
		return func() {
			// Drop the user's mirrored records first so a friendship the
			// database never accepted does not linger.
			userKey := userID.String()
			for id, f := range a.friendships {
				if f.SenderID.String() == userKey || f.ReceiverID.String() == userKey {
					delete(a.friendships, id)
				}
			}
			for _, f := range friendships {
				a.friendships[f.ID] = f
			}
		}, nil
	})
}

func (a *SocialActor) refetchFollows(context actor.Context, userID uuid.UUID, author bool) {
	reloadMirror(context, "follows", func(ctx stdctx.Context) (func(), error) {
		follows, err := a.db.GetFollowing(ctx, userID, author)
		if err != nil {
			return nil, err
		}
		return func() {
			a.mirrorFollows(userID, follows, author)
		}, nil
	})
}

func (a *SocialActor) mirrorFollows(userID uuid.UUID, follows []*models.Follow, author bool) {
	byTarget := make(map[string]*models.Follow, len(follows))
	for _, f := range follows {
		byTarget[f.TargetID] = f
	}
	if author {
		a.authorFol[userID] = byTarget
	} else {
		a.follows[userID] = byTarget
	}
}
