package actors

import (
	stdctx "context"
	"log"
	"sort"
	"time"

	"english-tales/internal/database"
	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for community feed operations
type (
	CreatePostMsg struct {
		AuthorID uuid.UUID
		Content  string
		Type     models.PostType
		Metadata map[string]string
	}

	GetPostMsg struct {
		PostID uuid.UUID
	}

	GetFeedMsg struct {
		Limit int
	}

	ToggleLikePostMsg struct {
		PostID uuid.UUID
		UserID uuid.UUID
	}

	CreateReplyMsg struct {
		PostID   uuid.UUID
		AuthorID uuid.UUID
		Content  string
	}

	GetPostRepliesMsg struct {
		PostID uuid.UUID
	}

	GetCountsMsg struct{}

	loadFeedFromDBMsg struct{}

	refetchPostMsg struct {
		PostID uuid.UUID
	}

	refetchRepliesMsg struct {
		PostID uuid.UUID
	}
)

// FeedActor owns the community feed mirror. Posts and replies live in
// memory for reads; every mutation goes through the optimistic protocol
// against the database.
type FeedActor struct {
	postsByID   map[uuid.UUID]*models.Post
	postOrder   []uuid.UUID // newest first
	postReplies map[uuid.UUID][]*models.Reply
	db          database.DBAdapter
	metrics     *utils.MetricsCollector
	userCache   map[uuid.UUID]*models.User
}

func NewFeedActor(db database.DBAdapter, metrics *utils.MetricsCollector) actor.Actor {
	return &FeedActor{
		postsByID:   make(map[uuid.UUID]*models.Post),
		postReplies: make(map[uuid.UUID][]*models.Reply),
		db:          db,
		metrics:     metrics,
		userCache:   make(map[uuid.UUID]*models.User),
	}
}

func (a *FeedActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("FeedActor started with PID: %v", context.Self())
		context.Send(context.Self(), &loadFeedFromDBMsg{})

	case *loadFeedFromDBMsg:
		a.handleLoadFeed(context)

	case *CreatePostMsg:
		a.handleCreatePost(context, msg)

	case *GetPostMsg:
		a.handleGetPost(context, msg)

	case *GetFeedMsg:
		a.handleGetFeed(context, msg)

	case *ToggleLikePostMsg:
		a.handleToggleLike(context, msg)

	case *CreateReplyMsg:
		a.handleCreateReply(context, msg)

	case *GetPostRepliesMsg:
		a.handleGetReplies(context, msg)

	case *GetCountsMsg:
		context.Respond(len(a.postsByID))

	case *remoteWriteOKMsg:
		confirmWrite(msg.Op)

	case *remoteWriteFailedMsg:
		failedWrite(context, msg)
		a.metrics.IncrementErrors()

	case *refetchPostMsg:
		a.refetchPost(context, msg.PostID)

	case *refetchRepliesMsg:
		a.refetchReplies(context, msg.PostID)

	case *applyMirrorMsg:
		msg.Apply()

	default:
		log.Printf("FeedActor: Unknown message type %T", msg)
	}
}

func (a *FeedActor) handleLoadFeed(context actor.Context) {
	reloadMirror(context, "feed", func(ctx stdctx.Context) (func(), error) {
		posts, err := a.db.GetFeedPosts(ctx, 200)
		if err != nil {
			return nil, err
		}
		return func() {
			a.postsByID = make(map[uuid.UUID]*models.Post, len(posts))
			a.postOrder = a.postOrder[:0]
			for _, post := range posts {
				a.postsByID[post.ID] = post
				a.postOrder = append(a.postOrder, post.ID)
			}
			log.Printf("FeedActor: Loaded %d posts from database", len(posts))
		}, nil
	})
}

func (a *FeedActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()

	if msg.AuthorID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Post content is required", nil))
		return
	}

	author, ok := a.userCache[msg.AuthorID]
	if !ok {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()
		user, err := a.db.GetUser(ctx, msg.AuthorID)
		if err != nil {
			context.Respond(err)
			return
		}
		a.userCache[msg.AuthorID] = user
		author = user
	}

	newPost := &models.Post{
		ID:                uuid.New(),
		AuthorID:          msg.AuthorID,
		AuthorDisplayName: author.DisplayName,
		AuthorPhoto:       author.PhotoURL,
		Content:           msg.Content,
		Type:              msg.Type,
		Metadata:          msg.Metadata,
		Timestamp:         time.Now(),
		LikedBy:           []string{},
	}

	a.postsByID[newPost.ID] = newPost
	a.postOrder = append([]uuid.UUID{newPost.ID}, a.postOrder...)

	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(newPost)

	writeThrough(context, "create_post", &loadFeedFromDBMsg{}, func(ctx stdctx.Context) error {
		return a.db.SavePost(ctx, newPost)
	})
}

func (a *FeedActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	if post, exists := a.postsByID[msg.PostID]; exists {
		context.Respond(post)
	} else {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Post not found", nil))
	}
}

func (a *FeedActor) handleGetFeed(context actor.Context, msg *GetFeedMsg) {
	limit := msg.Limit
	if limit <= 0 || limit > len(a.postOrder) {
		limit = len(a.postOrder)
	}

	posts := make([]*models.Post, 0, limit)
	for _, id := range a.postOrder[:limit] {
		if post := a.postsByID[id]; post != nil {
			posts = append(posts, post)
		}
	}
	context.Respond(posts)
}

// handleToggleLike flips the caller's like on a post. The mirror is
// updated and answered first; the conditional database write runs after.
// A failed write triggers a refetch of the post, which discards the
// optimistic delta.
func (a *FeedActor) handleToggleLike(context actor.Context, msg *ToggleLikePostMsg) {
	startTime := time.Now()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}

	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Post not found", nil))
		return
	}

	userKey := msg.UserID.String()
	liked := post.LikedByUser(userKey)

	if liked {
		filtered := make([]string, 0, len(post.LikedBy))
		for _, id := range post.LikedBy {
			if id != userKey {
				filtered = append(filtered, id)
			}
		}
		post.LikedBy = filtered
		post.LikeCount--
	} else {
		post.LikedBy = append(post.LikedBy, userKey)
		post.LikeCount++
	}

	a.metrics.AddOperationLatency("toggle_like", time.Since(startTime))
	context.Respond(post)

	postID := msg.PostID
	userID := msg.UserID
	self := context.Self()
	root := context.ActorSystem().Root

	optimisticApplied.WithLabelValues("toggle_like").Inc()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		var err error
		if liked {
			_, err = a.db.UnlikePost(ctx, postID, userID)
		} else {
			_, err = a.db.LikePost(ctx, postID, userID)
		}
		if err != nil {
			rollbackWrite("toggle_like", err)
			root.Send(self, &refetchPostMsg{PostID: postID})
			return
		}
		root.Send(self, &remoteWriteOKMsg{Op: "toggle_like"})
	}()
}

func (a *FeedActor) refetchPost(context actor.Context, postID uuid.UUID) {
	reloadMirror(context, "post", func(ctx stdctx.Context) (func(), error) {
		post, err := a.db.GetPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		return func() {
			a.postsByID[postID] = post
		}, nil
	})
}

// refetchReplies reloads a post's reply list and the post itself, since a
// failed reply write also left an optimistic ReplyCount bump behind.
func (a *FeedActor) refetchReplies(context actor.Context, postID uuid.UUID) {
	reloadMirror(context, "replies", func(ctx stdctx.Context) (func(), error) {
		replies, err := a.db.GetPostReplies(ctx, postID)
		if err != nil {
			return nil, err
		}
		post, err := a.db.GetPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		return func() {
			a.postReplies[postID] = replies
			a.postsByID[postID] = post
		}, nil
	})
}

func (a *FeedActor) handleCreateReply(context actor.Context, msg *CreateReplyMsg) {
	if msg.AuthorID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	post, exists := a.postsByID[msg.PostID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Post not found", nil))
		return
	}
	if msg.Content == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Reply content is required", nil))
		return
	}

	displayName := "[unknown]"
	if author, ok := a.userCache[msg.AuthorID]; ok {
		displayName = author.DisplayName
	} else {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()
		if user, err := a.db.GetUser(ctx, msg.AuthorID); err == nil {
			a.userCache[msg.AuthorID] = user
			displayName = user.DisplayName
		}
	}

	reply := &models.Reply{
		ID:                uuid.New(),
		PostID:            msg.PostID,
		AuthorID:          msg.AuthorID,
		AuthorDisplayName: displayName,
		Content:           msg.Content,
		Timestamp:         time.Now(),
	}

	a.postReplies[msg.PostID] = append(a.postReplies[msg.PostID], reply)
	post.ReplyCount++
	context.Respond(reply)

	writeThrough(context, "create_reply", &refetchRepliesMsg{PostID: reply.PostID}, func(ctx stdctx.Context) error {
		return a.db.SaveReply(ctx, reply)
	})
}

func (a *FeedActor) handleGetReplies(context actor.Context, msg *GetPostRepliesMsg) {
	if replies, ok := a.postReplies[msg.PostID]; ok {
		sorted := append([]*models.Reply(nil), replies...)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})
		context.Respond(sorted)
		return
	}

	// Not mirrored yet, load synchronously. Replies are only fetched when
	// a post detail opens, so this stays off the hot path.
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	replies, err := a.db.GetPostReplies(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}
	a.postReplies[msg.PostID] = replies
	context.Respond(replies)
}
