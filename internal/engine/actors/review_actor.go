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

// Message types for story review operations
type (
	SubmitReviewMsg struct {
		StoryID    string
		StoryTitle string
		AuthorID   uuid.UUID
		Rating     int
		Comment    string
	}

	GetStoryReviewsMsg struct {
		StoryID string
	}

	GetUserReviewsMsg struct {
		UserID uuid.UUID
	}

	ToggleLikeReviewMsg struct {
		ReviewID string
		UserID   uuid.UUID
	}

	refetchStoryReviewsMsg struct {
		StoryID string
	}
)

// ReviewActor owns the review mirror, keyed by story. A user gets one
// review per story; resubmitting replaces rating and comment.
type ReviewActor struct {
	reviewsByID    map[string]*models.Review
	reviewsByStory map[string][]string
	db             database.DBAdapter
	metrics        *utils.MetricsCollector
	userCache      map[uuid.UUID]*models.User
}

func NewReviewActor(db database.DBAdapter, metrics *utils.MetricsCollector) actor.Actor {
	return &ReviewActor{
		reviewsByID:    make(map[string]*models.Review),
		reviewsByStory: make(map[string][]string),
		db:             db,
		metrics:        metrics,
		userCache:      make(map[uuid.UUID]*models.User),
	}
}

func (a *ReviewActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ReviewActor started with PID: %v", context.Self())

	case *SubmitReviewMsg:
		a.handleSubmitReview(context, msg)

	case *GetStoryReviewsMsg:
		a.handleGetStoryReviews(context, msg)

	case *GetUserReviewsMsg:
		a.handleGetUserReviews(context, msg)

	case *ToggleLikeReviewMsg:
		a.handleToggleLike(context, msg)

	case *remoteWriteOKMsg:
		confirmWrite(msg.Op)

	case *remoteWriteFailedMsg:
		failedWrite(context, msg)
		a.metrics.IncrementErrors()

	case *refetchStoryReviewsMsg:
		a.refetchStoryReviews(context, msg.StoryID)

	case *applyMirrorMsg:
		msg.Apply()

	default:
		log.Printf("ReviewActor: Unknown message type %T", msg)
	}
}

func (a *ReviewActor) handleSubmitReview(context actor.Context, msg *SubmitReviewMsg) {
	startTime := time.Now()

	if msg.AuthorID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if msg.Rating < 1 || msg.Rating > 5 {
		context.Respond(utils.NewInvalidRatingError(msg.Rating))
		return
	}
	if msg.StoryID == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "Story id is required", nil))
		return
	}

	authorName := "[unknown]"
	authorPhoto := ""
	if author, ok := a.userCache[msg.AuthorID]; ok {
		authorName = author.DisplayName
		authorPhoto = author.PhotoURL
	} else {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()
		if user, err := a.db.GetUser(ctx, msg.AuthorID); err == nil {
			a.userCache[msg.AuthorID] = user
			authorName = user.DisplayName
			authorPhoto = user.PhotoURL
		}
	}

	id := models.ReviewKey(msg.AuthorID, msg.StoryID)
	review, exists := a.reviewsByID[id]
	if exists {
		// Resubmit replaces rating and comment, preserving likes.
		review.Rating = msg.Rating
		review.Comment = msg.Comment
		review.Timestamp = time.Now()
	} else {
		review = &models.Review{
			ID:          id,
			StoryID:     msg.StoryID,
			StoryTitle:  msg.StoryTitle,
			AuthorID:    msg.AuthorID,
			AuthorName:  authorName,
			AuthorPhoto: authorPhoto,
			Rating:      msg.Rating,
			Comment:     msg.Comment,
			Timestamp:   time.Now(),
			LikedBy:     []string{},
		}
		a.reviewsByID[id] = review
		a.reviewsByStory[msg.StoryID] = append(a.reviewsByStory[msg.StoryID], id)
	}

	a.metrics.AddOperationLatency("submit_review", time.Since(startTime))
	context.Respond(review)

	writeThrough(context, "submit_review", &refetchStoryReviewsMsg{StoryID: msg.StoryID}, func(ctx stdctx.Context) error {
		return a.db.SaveReview(ctx, review)
	})
}

func (a *ReviewActor) handleGetStoryReviews(context actor.Context, msg *GetStoryReviewsMsg) {
	ids, mirrored := a.reviewsByStory[msg.StoryID]
	if mirrored {
		reviews := make([]*models.Review, 0, len(ids))
		for _, id := range ids {
			if review := a.reviewsByID[id]; review != nil {
				reviews = append(reviews, review)
			}
		}
		context.Respond(reviews)
		return
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	reviews, err := a.db.GetStoryReviews(ctx, msg.StoryID)
	if err != nil {
		context.Respond(err)
		return
	}
	a.mirrorStoryReviews(msg.StoryID, reviews)
	context.Respond(reviews)
}

func (a *ReviewActor) handleGetUserReviews(context actor.Context, msg *GetUserReviewsMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	reviews, err := a.db.GetUserReviews(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(reviews)
}

func (a *ReviewActor) handleToggleLike(context actor.Context, msg *ToggleLikeReviewMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}

	review, exists := a.reviewsByID[msg.ReviewID]
	if !exists {
		context.Respond(utils.NewAppError(utils.ErrNotFound, "Review not found", nil))
		return
	}

	userKey := msg.UserID.String()
	liked := review.LikedByUser(userKey)

	if liked {
		filtered := make([]string, 0, len(review.LikedBy))
		for _, id := range review.LikedBy {
			if id != userKey {
				filtered = append(filtered, id)
			}
		}
		review.LikedBy = filtered
		review.LikeCount--
	} else {
		review.LikedBy = append(review.LikedBy, userKey)
		review.LikeCount++
	}
	context.Respond(review)

	reviewID := msg.ReviewID
	storyID := review.StoryID
	userID := msg.UserID
	self := context.Self()
	root := context.ActorSystem().Root

	optimisticApplied.WithLabelValues("toggle_review_like").Inc()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		var err error
		if liked {
			_, err = a.db.UnlikeReview(ctx, reviewID, userID)
		} else {
			_, err = a.db.LikeReview(ctx, reviewID, userID)
		}
		if err != nil {
			rollbackWrite("toggle_review_like", err)
			root.Send(self, &refetchStoryReviewsMsg{StoryID: storyID})
			return
		}
		root.Send(self, &remoteWriteOKMsg{Op: "toggle_review_like"})
	}()
}

func (a *ReviewActor) refetchStoryReviews(context actor.Context, storyID string) {
	reloadMirror(context, "story reviews", func(ctx stdctx.Context) (func(), error) {
		reviews, err := a.db.GetStoryReviews(ctx, storyID)
		if err != nil {
			return nil, err
		}
		return func() {
			a.mirrorStoryReviews(storyID, reviews)
		}, nil
	})
}

func (a *ReviewActor) mirrorStoryReviews(storyID string, reviews []*models.Review) {
	// Clear the story's old entries so a review the database rejected
	// cannot survive the reload through reviewsByID.
	for _, id := range a.reviewsByStory[storyID] {
		delete(a.reviewsByID, id)
	}
	ids := make([]string, 0, len(reviews))
	for _, review := range reviews {
		a.reviewsByID[review.ID] = review
		ids = append(ids, review.ID)
	}
	a.reviewsByStory[storyID] = ids
}
