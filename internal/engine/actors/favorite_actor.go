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

// Message types for favorites and the personal library
type (
	ToggleFavoriteMsg struct {
		UserID     uuid.UUID
		StoryID    string
		StoryTitle string
		CoverURL   string
	}

	GetFavoritesMsg struct {
		UserID uuid.UUID
	}

	ToggleLibraryMsg struct {
		UserID     uuid.UUID
		StoryID    string
		StoryTitle string
		CoverURL   string
	}

	GetLibraryMsg struct {
		UserID uuid.UUID
	}

	// ToggleResult reports the post-toggle state. TargetID is the story
	// id for favorite and library toggles and the followed user id for
	// follow toggles.
	ToggleResult struct {
		TargetID string
		Active   bool
	}

	refetchFavoritesMsg struct {
		UserID uuid.UUID
	}

	refetchLibraryMsg struct {
		UserID uuid.UUID
	}
)

// FavoriteActor owns per-user favorite and library mirrors. Both are
// pure toggles; the database insert is idempotent, so a double toggle
// settles on the same state regardless of write ordering.
type FavoriteActor struct {
	favorites map[uuid.UUID]map[string]*models.Favorite
	library   map[uuid.UUID]map[string]*models.LibraryItem
	loaded    map[uuid.UUID]bool
	db        database.DBAdapter
	metrics   *utils.MetricsCollector
}

func NewFavoriteActor(db database.DBAdapter, metrics *utils.MetricsCollector) actor.Actor {
	return &FavoriteActor{
		favorites: make(map[uuid.UUID]map[string]*models.Favorite),
		library:   make(map[uuid.UUID]map[string]*models.LibraryItem),
		loaded:    make(map[uuid.UUID]bool),
		db:        db,
		metrics:   metrics,
	}
}

func (a *FavoriteActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("FavoriteActor started with PID: %v", context.Self())

	case *ToggleFavoriteMsg:
		a.handleToggleFavorite(context, msg)

	case *GetFavoritesMsg:
		a.handleGetFavorites(context, msg)

	case *ToggleLibraryMsg:
		a.handleToggleLibrary(context, msg)

	case *GetLibraryMsg:
		a.handleGetLibrary(context, msg)

	case *remoteWriteOKMsg:
		confirmWrite(msg.Op)

	case *remoteWriteFailedMsg:
		failedWrite(context, msg)
		a.metrics.IncrementErrors()

	case *refetchFavoritesMsg:
		a.refetchFavorites(context, msg.UserID)

	case *refetchLibraryMsg:
		a.refetchLibrary(context, msg.UserID)

	case *applyMirrorMsg:
		msg.Apply()

	default:
		log.Printf("FavoriteActor: Unknown message type %T", msg)
	}
}

func (a *FavoriteActor) ensureLoaded(userID uuid.UUID) error {
	if a.loaded[userID] {
		return nil
	}

	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
	defer cancel()

	favorites, err := a.db.GetUserFavorites(ctx, userID)
	if err != nil {
		return err
	}
	items, err := a.db.GetUserLibrary(ctx, userID)
	if err != nil {
		return err
	}

	a.mirrorFavorites(userID, favorites)
	a.mirrorLibrary(userID, items)
	a.loaded[userID] = true
	return nil
}

func (a *FavoriteActor) handleToggleFavorite(context actor.Context, msg *ToggleFavoriteMsg) {
	startTime := time.Now()

	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	byStory := a.favorites[msg.UserID]
	if byStory == nil {
		byStory = make(map[string]*models.Favorite)
		a.favorites[msg.UserID] = byStory
	}

	_, active := byStory[msg.StoryID]
	if active {
		delete(byStory, msg.StoryID)
	} else {
		byStory[msg.StoryID] = &models.Favorite{
			ID:         models.FavoriteKey(msg.UserID, msg.StoryID),
			UserID:     msg.UserID,
			StoryID:    msg.StoryID,
			StoryTitle: msg.StoryTitle,
			CoverURL:   msg.CoverURL,
			CreatedAt:  time.Now(),
		}
	}

	a.metrics.AddOperationLatency("toggle_favorite", time.Since(startTime))
	context.Respond(&ToggleResult{TargetID: msg.StoryID, Active: !active})

	fav := byStory[msg.StoryID]
	userID := msg.UserID
	storyID := msg.StoryID
	self := context.Self()
	root := context.ActorSystem().Root

	optimisticApplied.WithLabelValues("toggle_favorite").Inc()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		var err error
		if active {
			_, err = a.db.DeleteFavorite(ctx, userID, storyID)
		} else {
			_, err = a.db.SaveFavorite(ctx, fav)
		}
		if err != nil {
			rollbackWrite("toggle_favorite", err)
			root.Send(self, &refetchFavoritesMsg{UserID: userID})
			return
		}
		root.Send(self, &remoteWriteOKMsg{Op: "toggle_favorite"})
	}()
}

func (a *FavoriteActor) handleGetFavorites(context actor.Context, msg *GetFavoritesMsg) {
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	byStory := a.favorites[msg.UserID]
	favorites := make([]*models.Favorite, 0, len(byStory))
	for _, fav := range byStory {
		favorites = append(favorites, fav)
	}
	context.Respond(favorites)
}

func (a *FavoriteActor) handleToggleLibrary(context actor.Context, msg *ToggleLibraryMsg) {
	if msg.UserID == uuid.Nil {
		context.Respond(utils.NewUnauthorizedError())
		return
	}
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	byStory := a.library[msg.UserID]
	if byStory == nil {
		byStory = make(map[string]*models.LibraryItem)
		a.library[msg.UserID] = byStory
	}

	_, active := byStory[msg.StoryID]
	if active {
		delete(byStory, msg.StoryID)
	} else {
		byStory[msg.StoryID] = &models.LibraryItem{
			ID:         models.FavoriteKey(msg.UserID, msg.StoryID),
			UserID:     msg.UserID,
			StoryID:    msg.StoryID,
			StoryTitle: msg.StoryTitle,
			CoverURL:   msg.CoverURL,
			AddedAt:    time.Now(),
		}
	}
	context.Respond(&ToggleResult{TargetID: msg.StoryID, Active: !active})

	item := byStory[msg.StoryID]
	userID := msg.UserID
	storyID := msg.StoryID
	self := context.Self()
	root := context.ActorSystem().Root

	optimisticApplied.WithLabelValues("toggle_library").Inc()
	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), remoteWriteTimeout)
		defer cancel()

		var err error
		if active {
			_, err = a.db.DeleteLibraryItem(ctx, userID, storyID)
		} else {
			_, err = a.db.SaveLibraryItem(ctx, item)
		}
		if err != nil {
			rollbackWrite("toggle_library", err)
			root.Send(self, &refetchLibraryMsg{UserID: userID})
			return
		}
		root.Send(self, &remoteWriteOKMsg{Op: "toggle_library"})
	}()
}

func (a *FavoriteActor) handleGetLibrary(context actor.Context, msg *GetLibraryMsg) {
	if err := a.ensureLoaded(msg.UserID); err != nil {
		context.Respond(err)
		return
	}

	byStory := a.library[msg.UserID]
	items := make([]*models.LibraryItem, 0, len(byStory))
	for _, item := range byStory {
		items = append(items, item)
	}
	context.Respond(items)
}

func (a *FavoriteActor) refetchFavorites(context actor.Context, userID uuid.UUID) {
	reloadMirror(context, "favorites", func(ctx stdctx.Context) (func(), error) {
		favorites, err := a.db.GetUserFavorites(ctx, userID)
		if err != nil {
			return nil, err
		}
		return func() {
			a.mirrorFavorites(userID, favorites)
		}, nil
	})
}

func (a *FavoriteActor) refetchLibrary(context actor.Context, userID uuid.UUID) {
	reloadMirror(context, "library", func(ctx stdctx.Context) (func(), error) {
		items, err := a.db.GetUserLibrary(ctx, userID)
		if err != nil {
			return nil, err
		}
		return func() {
			a.mirrorLibrary(userID, items)
		}, nil
	})
}

func (a *FavoriteActor) mirrorFavorites(userID uuid.UUID, favorites []*models.Favorite) {
	byStory := make(map[string]*models.Favorite, len(favorites))
	for _, fav := range favorites {
		byStory[fav.StoryID] = fav
	}
	a.favorites[userID] = byStory
}

func (a *FavoriteActor) mirrorLibrary(userID uuid.UUID, items []*models.LibraryItem) {
	byStory := make(map[string]*models.LibraryItem, len(items))
	for _, item := range items {
		byStory[item.StoryID] = item
	}
	a.library[userID] = byStory
}
