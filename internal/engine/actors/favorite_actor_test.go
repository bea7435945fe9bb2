package actors

import (
	"testing"

	"english-tales/internal/models"
	"english-tales/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnFavoriteActor(t *testing.T, db *fakeDB) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewFavoriteActor(db, utils.NewMetricsCollector())
	}))
	return system, pid
}

func TestToggleFavoriteRoundTrip(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnFavoriteActor(t, db)

	toggle := &ToggleFavoriteMsg{
		UserID:     reader.ID,
		StoryID:    "story-1",
		StoryTitle: "The Lighthouse",
	}

	result, err := system.Root.RequestFuture(pid, toggle, askTimeout).Result()
	require.NoError(t, err)
	assert.True(t, result.(*ToggleResult).Active)
	waitFor(t, func() bool { return db.callCount("SaveFavorite") == 1 }, "favorite write")

	result, err = system.Root.RequestFuture(pid, &GetFavoritesMsg{UserID: reader.ID}, askTimeout).Result()
	require.NoError(t, err)
	favorites := result.([]*models.Favorite)
	require.Len(t, favorites, 1)
	assert.Equal(t, "The Lighthouse", favorites[0].StoryTitle)

	result, err = system.Root.RequestFuture(pid, toggle, askTimeout).Result()
	require.NoError(t, err)
	assert.False(t, result.(*ToggleResult).Active)
	waitFor(t, func() bool { return db.callCount("DeleteFavorite") == 1 }, "favorite removal")

	result, err = system.Root.RequestFuture(pid, &GetFavoritesMsg{UserID: reader.ID}, askTimeout).Result()
	require.NoError(t, err)
	assert.Empty(t, result.([]*models.Favorite))
}

func TestFavoritesAndLibraryAreIndependent(t *testing.T) {
	db := newFakeDB()
	reader := seedUser(db, "reader")
	system, pid := spawnFavoriteActor(t, db)

	_, err := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{
		UserID:  reader.ID,
		StoryID: "story-1",
	}, askTimeout).Result()
	require.NoError(t, err)

	result, err := system.Root.RequestFuture(pid, &ToggleLibraryMsg{
		UserID:  reader.ID,
		StoryID: "story-2",
	}, askTimeout).Result()
	require.NoError(t, err)
	assert.True(t, result.(*ToggleResult).Active)

	result, err = system.Root.RequestFuture(pid, &GetLibraryMsg{UserID: reader.ID}, askTimeout).Result()
	require.NoError(t, err)
	library := result.([]*models.LibraryItem)
	require.Len(t, library, 1)
	assert.Equal(t, "story-2", library[0].StoryID)

	result, err = system.Root.RequestFuture(pid, &GetFavoritesMsg{UserID: reader.ID}, askTimeout).Result()
	require.NoError(t, err)
	favorites := result.([]*models.Favorite)
	require.Len(t, favorites, 1)
	assert.Equal(t, "story-1", favorites[0].StoryID)
}
