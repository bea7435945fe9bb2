package cms

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"english-tales/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// TTL per query family. Story bodies are effectively immutable once
// published, search results go stale quickly.
const (
	TTLSearch = 5 * time.Minute
	TTLList   = 1 * time.Hour
	TTLDaily  = 6 * time.Hour
	TTLStory  = 24 * time.Hour
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "englishtales_cms_cache_hits_total",
		Help: "Content cache hits by query family.",
	}, []string{"family"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "englishtales_cms_cache_misses_total",
		Help: "Content cache misses by query family.",
	}, []string{"family"})
)

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// QueryCache memoizes CMS reads keyed by query identity. Concurrent
// requests for the same key are collapsed into one upstream call.
type QueryCache struct {
	client *Client

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func NewQueryCache(client *Client) *QueryCache {
	return &QueryCache{
		client:  client,
		entries: make(map[string]cacheEntry),
	}
}

// queryKey builds a stable cache key from the query family and its
// parameters. Two requests with the same family and parameters hit the
// same entry regardless of where they originate.
func queryKey(family string, params ...string) string {
	if len(params) == 0 {
		return family
	}
	return family + ":" + strings.Join(params, ":")
}

func family(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

func (q *QueryCache) lookup(key string) (interface{}, bool) {
	q.mu.RLock()
	entry, ok := q.entries[key]
	q.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (q *QueryCache) store(key string, value interface{}, ttl time.Duration) {
	q.mu.Lock()
	q.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	q.mu.Unlock()
}

// get serves from cache, otherwise runs fetch once per key and caches the
// result. Errors are never cached.
func (q *QueryCache) get(key string, ttl time.Duration, fetch func() (interface{}, error)) (interface{}, error) {
	if value, ok := q.lookup(key); ok {
		cacheHits.WithLabelValues(family(key)).Inc()
		return value, nil
	}
	cacheMisses.WithLabelValues(family(key)).Inc()

	value, err, _ := q.group.Do(key, func() (interface{}, error) {
		if value, ok := q.lookup(key); ok {
			return value, nil
		}
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		q.store(key, value, ttl)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Invalidate drops every entry whose key starts with the given family.
func (q *QueryCache) Invalidate(fam string) {
	q.mu.Lock()
	for key := range q.entries {
		if family(key) == fam {
			delete(q.entries, key)
		}
	}
	q.mu.Unlock()
}

func (q *QueryCache) ListStories(ctx context.Context, limit int) ([]*models.Story, error) {
	value, err := q.get(queryKey("stories", strconv.Itoa(limit)), TTLList, func() (interface{}, error) {
		return q.client.ListStories(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return value.([]*models.Story), nil
}

func (q *QueryCache) GetStoryBySlug(ctx context.Context, slug string) (*models.Story, error) {
	value, err := q.get(queryKey("story", slug), TTLStory, func() (interface{}, error) {
		return q.client.GetStoryBySlug(ctx, slug)
	})
	if err != nil {
		return nil, err
	}
	return value.(*models.Story), nil
}

func (q *QueryCache) GetAuthor(ctx context.Context, authorID string) (*models.Author, error) {
	value, err := q.get(queryKey("author", authorID), TTLList, func() (interface{}, error) {
		return q.client.GetAuthor(ctx, authorID)
	})
	if err != nil {
		return nil, err
	}
	return value.(*models.Author), nil
}

func (q *QueryCache) ListCategories(ctx context.Context) ([]*models.Category, error) {
	value, err := q.get(queryKey("categories"), TTLList, func() (interface{}, error) {
		return q.client.ListCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]*models.Category), nil
}

func (q *QueryCache) StoriesByCategory(ctx context.Context, categoryID string) ([]*models.Story, error) {
	value, err := q.get(queryKey("category", categoryID), TTLList, func() (interface{}, error) {
		return q.client.StoriesByCategory(ctx, categoryID)
	})
	if err != nil {
		return nil, err
	}
	return value.([]*models.Story), nil
}

func (q *QueryCache) Search(ctx context.Context, term string) ([]*models.Story, error) {
	normalized := strings.ToLower(strings.TrimSpace(term))
	value, err := q.get(queryKey("search", normalized), TTLSearch, func() (interface{}, error) {
		return q.client.Search(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}
	return value.([]*models.Story), nil
}

func (q *QueryCache) FeaturedStories(ctx context.Context) ([]*models.Story, error) {
	value, err := q.get(queryKey("featured"), TTLDaily, func() (interface{}, error) {
		return q.client.FeaturedStories(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]*models.Story), nil
}

func (q *QueryCache) DailyPick(ctx context.Context, date string) (*models.Story, error) {
	value, err := q.get(queryKey("daily", date), TTLDaily, func() (interface{}, error) {
		return q.client.DailyPick(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	return value.(*models.Story), nil
}

