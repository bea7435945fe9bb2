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

// Progress saves are debounced so page turns do not hammer the database.
const progressFlushDelay = 1 * time.Second

// Message types for reading progress and gamification
type (
	SaveProgressMsg struct {
		UserID        uuid.UUID
		StoryID       string
		Percentage    float64
		LastBlockKey  string
		PageIndex     int
		ReadingTimeMs int64
	}

	GetProgressMsg struct {
		UserID  uuid.UUID
		StoryID string
	}

	GetUserProgressMsg struct {
		UserID uuid.UUID
	}

	CompleteStoryMsg struct {
		UserID    uuid.UUID
		StoryID   string
		QuizScore int
		QuizTotal int
	}

	GetLeaderboardMsg struct {
		Limit int
	}

	flushProgressMsg struct {
		Key string
	}

	refetchProgressMsg struct {
		UserID uuid.UUID
	}
)

// ProgressActor owns per-reader progress mirrors. Saves are coalesced
// per (user, story) and flushed after progressFlushDelay of quiet; the
// mirror always answers reads, so the debounce is invisible to callers.
// Completion is written through immediately and feeds the activity log
// and leaderboard exactly once per (user, story, type).
type ProgressActor struct {
	progress   map[string]*models.ReadingProgress
	flushTimer map[string]*time.Timer
	loaded     map[uuid.UUID]bool
	db         database.DBAdapter
	metrics    *utils.MetricsCollector
	userCache  map[uuid.UUID]*models.User
}

func NewProgressActor(db database.DBAdapter, metrics *utils.MetricsCollector) actor.Actor {
	return &ProgressActor{
		progress:   make(map[string]*models.ReadingProgress),
		flushTimer: make(map[string]*time.Timer),
		loaded:     make(map[uuid.UUID]bool),
		db:         db,
		metrics:    metrics,
		userCache:  make(map[uuid.UUID]*models.User),
	}
}

func (a *ProgressActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ProgressActor started with PID: %v", context.Self())

	case *SaveProgressMsg:
		a.handleSaveProgress(context, msg)

	case *flushProgressMsg:
		a.handleFlush(context, msg.Key)

	case *GetProgressMsg:
		a.handleGetProgress(context, msg)

	case *GetUserProgressMsg:
		a.handleGetUserProgress(context, msg)

	case *CompleteStoryMsg:
		a.handleCompleteStory(context, msg)

	case *GetLeaderboardMsg:
		a.handleGetLeaderboard(context, msg)

	case *remoteWriteOKMsg:
		confirmWrite(msg.Op)

	case *remoteWriteFailedMsg:
		failedWrite(context, msg)
		a.metrics.IncrementErrors()

	case *refetchProgressMsg:
		a.refetchProgress(context, msg.UserID)

	case *applyMirrorMsg:
		msg.Apply()

	default:
		log.Printf("ProgressActor: Unknown message type %T", msg)
	}
}

func (a *ProgressActor) ensureLoaded(userID uuid.UUID) error {
	if a.loaded[userID] {
		return nil
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	list, err := a.db.GetUserProgress(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range list {
		a.progress[p.ID] = p
	}
	a.loaded[userID] = true
	return nil
}

func (a *ProgressActor) handleSaveProgress(context actor.Context, msg *SaveProgressMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	key := models.ProgressKey(msg.UserID, msg.StoryID)
	p, ok := a.progress[key]
	if !ok {
		p = &models.ReadingProgress{
			ID:      key,
			UserID:  msg.UserID,
			StoryID: msg.StoryID,
		}
		a.progress[key] = p
	}

	// IsCompleted is not written here, so a save after completion can
	// move the position without clearing the completed flag.
	p.Percentage = msg.Percentage
	p.LastBlockKey = msg.LastBlockKey
	p.PageIndex = msg.PageIndex
	p.ReadingTimeMs += msg.ReadingTimeMs
	p.UpdatedAt = time.Now()

	context.Respond(p)
	a.scheduleFlush(context, key)
}

// scheduleFlush arms (or re-arms) the per-key debounce timer. The timer
// fires a message back into the actor so the write happens on the actor
// goroutine's schedule, not the timer's.
func (a *ProgressActor) scheduleFlush(context actor.Context, key string) {
	if timer, ok := a.flushTimer[key]; ok {
		timer.Stop()
	}

	self := context.Self()
	root := context.ActorSystem().Root
	a.flushTimer[key] = time.AfterFunc(progressFlushDelay, func() {
		root.Send(self, &flushProgressMsg{Key: key})
	})
}

func (a *ProgressActor) handleFlush(context actor.Context, key string) {
	delete(a.flushTimer, key)
	p, ok := a.progress[key]
	if !ok {
		return
	}

	snapshot := *p
	// No refetch on failure: the mirror keeps the latest position and the
	// next debounced flush retries the whole record.
	writeThrough(context, "save_progress", nil, func(ctx stdctx.Context) error {
		return a.db.SaveProgress(ctx, &snapshot)
	})
}

func (a *ProgressActor) refetchProgress(context actor.Context, userID uuid.UUID) {
	reloadMirror(context, "reading progress", func(ctx stdctx.Context) (func(), error) {
		list, err := a.db.GetUserProgress(ctx, userID)
		if err != nil {
			return nil, err
		}
		return func() {
			for id, p := range a.progress {
				if p.UserID == userID {
					delete(a.progress, id)
				}
			}
			for _, p := range list {
				a.progress[p.ID] = p
			}
		}, nil
	})
}

func (a *ProgressActor) handleGetProgress(context actor.Context, msg *GetProgressMsg) {
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	key := models.ProgressKey(msg.UserID, msg.StoryID)
	if p, ok := a.progress[key]; ok {
		context.Respond(p)
		return
	}
	context.Respond(utils.NewAppError(utils.ErrNotFound, "No progress for story", nil))
}

func (a *ProgressActor) handleGetUserProgress(context actor.Context, msg *GetUserProgressMsg) {
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	userKey := msg.UserID
	list := make([]*models.ReadingProgress, 0)
	for _, p := range a.progress {
		if p.UserID == userKey {
			list = append(list, p)
		}
	}
	context.Respond(list)
}

func (a *ProgressActor) handleCompleteStory(context actor.Context, msg *CompleteStoryMsg) {
	startTime := time.Now()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	key := models.ProgressKey(msg.UserID, msg.StoryID)
	p, ok := a.progress[key]
	if !ok {
		p = &models.ReadingProgress{
			ID:      key,
			UserID:  msg.UserID,
			StoryID: msg.StoryID,
		}
		a.progress[key] = p
	}

	p.Percentage = 100
	p.IsCompleted = true
	p.QuizScore = msg.QuizScore
	p.QuizTotal = msg.QuizTotal
	p.UpdatedAt = time.Now()

	if timer, exists := a.flushTimer[key]; exists {
		timer.Stop()
		delete(a.flushTimer, key)
	}

	a.metrics.AddOperationLatency("complete_story", time.Since(startTime))
	context.Respond(p)

	displayName := a.displayName(msg.UserID)
	snapshot := *p
	userID := msg.UserID
	storyID := msg.StoryID
	quizPassed := msg.QuizTotal > 0 && msg.QuizScore*2 >= msg.QuizTotal

	// Completion bypasses the debounce. Activity entries are keyed by
	// (user, story, type), so repeating a story never double-awards.
	writeThrough(context, "complete_story", &refetchProgressMsg{UserID: userID}, func(ctx stdctx.Context) error {
		if err := a.db.SaveProgress(ctx, &snapshot); err != nil {
			return err
		}

		if err := a.award(ctx, userID, displayName, storyID, models.ActivityStoryCompleted, 1); err != nil {
			return err
		}
		if quizPassed {
			if err := a.award(ctx, userID, displayName, storyID, models.ActivityQuizPassed, 0); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *ProgressActor) award(ctx stdctx.Context, userID uuid.UUID, displayName, storyID string, activity models.ActivityType, completedDelta int) error {
	points := models.PointsFor(activity)
	first, err := a.db.RecordActivity(ctx, &models.ActivityLogEntry{
		ID:        models.ActivityKey(userID, storyID, activity),
		UserID:    userID,
		StoryID:   storyID,
		Type:      activity,
		Points:    points,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	return a.db.AddLeaderboardPoints(ctx, userID, displayName, points, completedDelta)
}

func (a *ProgressActor) displayName(userID uuid.UUID) string {
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

func (a *ProgressActor) handleGetLeaderboard(context actor.Context, msg *GetLeaderboardMsg) {
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	entries, err := a.db.GetLeaderboard(ctx, msg.Limit)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(entries)
}
