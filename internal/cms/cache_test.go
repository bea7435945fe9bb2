package cms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"english-tales/internal/config"
	"english-tales/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestBackend serves a canned query result and counts requests.
func newTestBackend(t *testing.T, handler http.HandlerFunc) (*QueryCache, *int64, func()) {
	t.Helper()
	var requests int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		handler(w, r)
	}))

	client := NewClient(&config.CMSConfig{BaseURL: server.URL, Dataset: "test"})
	return NewQueryCache(client), &requests, func() {
		client.Close()
		server.Close()
	}
}

func storiesJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"result": [
		{"_id": "s1", "title": "The Lighthouse", "slug": "the-lighthouse"},
		{"_id": "s2", "title": "Night Train", "slug": "night-train"}
	]}`))
}

func TestQueryCacheServesRepeatsFromCache(t *testing.T) {
	cache, requests, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		storiesJSON(w)
	})
	defer done()

	first, err := cache.ListStories(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := cache.ListStories(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), atomic.LoadInt64(requests), "second read is served from cache")

	// A different limit is a different query identity.
	_, err = cache.ListStories(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(requests))
}

func TestQueryCacheExpiredEntryMisses(t *testing.T) {
	cache, _, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		storiesJSON(w)
	})
	defer done()

	cache.store("stories:10", "stale", -time.Second)
	_, ok := cache.lookup("stories:10")
	assert.False(t, ok, "expired entries do not serve")

	cache.store("stories:10", "fresh", time.Minute)
	value, ok := cache.lookup("stories:10")
	assert.True(t, ok)
	assert.Equal(t, "fresh", value)
}

func TestQueryCacheInvalidateDropsOnlyTheFamily(t *testing.T) {
	cache, requests, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		storiesJSON(w)
	})
	defer done()

	_, err := cache.ListStories(context.Background(), 10)
	require.NoError(t, err)
	_, err = cache.FeaturedStories(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(requests))

	cache.Invalidate("stories")

	_, err = cache.ListStories(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(requests), "invalidated family refetches")

	_, err = cache.FeaturedStories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(requests), "other families keep their entries")
}

func TestQueryCacheNeverCachesErrors(t *testing.T) {
	var failing int64 = 1
	cache, requests, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt64(&failing) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		storiesJSON(w)
	})
	defer done()

	_, err := cache.ListStories(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrContentBackend))

	atomic.StoreInt64(&failing, 0)

	stories, err := cache.ListStories(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, stories, 2)
	assert.Equal(t, int64(2), atomic.LoadInt64(requests))
}

func TestQueryCacheCollapsesConcurrentFetches(t *testing.T) {
	release := make(chan struct{})
	cache, requests, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		storiesJSON(w)
	})
	defer done()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stories, err := cache.Search(context.Background(), "lighthouse")
			assert.NoError(t, err)
			assert.Len(t, stories, 2)
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(requests), "concurrent identical queries share one fetch")
}

func TestSearchNormalizesQueryIdentity(t *testing.T) {
	cache, requests, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		storiesJSON(w)
	})
	defer done()

	_, err := cache.Search(context.Background(), "  Dragons ")
	require.NoError(t, err)
	_, err = cache.Search(context.Background(), "dragons")
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(requests))
}

func TestGetStoryBySlugNotFound(t *testing.T) {
	cache, _, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": null}`))
	})
	defer done()

	_, err := cache.GetStoryBySlug(context.Background(), "missing-story")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrStoryNotFound))
}

func TestSearchNoMatchesIsEmptyNotError(t *testing.T) {
	cache, _, done := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": null}`))
	})
	defer done()

	stories, err := cache.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, stories)
}
