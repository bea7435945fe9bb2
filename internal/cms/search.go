package cms

import (
	"context"
	"strings"
	"sync"
	"time"

	"english-tales/internal/models"

	"github.com/samber/lo"
)

const (
	// MinSearchLength is the shortest term that triggers a backend query.
	MinSearchLength = 2

	// DebounceInterval is how long typing must pause before a query fires.
	DebounceInterval = 300 * time.Millisecond

	// MaxRecentSearches bounds the remembered search list.
	MaxRecentSearches = 5
)

// SearchResult is delivered to the callback after a debounced query runs.
// Term is the input the results belong to, so late deliveries for stale
// input can be ignored by the consumer.
type SearchResult struct {
	Term    string
	Stories []*models.Story
	Err     error
}

// SearchManager debounces keystroke-level query input into backend
// searches and keeps the recent-search history. One manager per search
// surface; results arrive on the callback, not a return value, because
// the query fires after the caller has moved on.
type SearchManager struct {
	cache   *QueryCache
	deliver func(SearchResult)

	mu      sync.Mutex
	pending string
	recent  []string

	debounced func()
	cancel    func()
}

func NewSearchManager(cache *QueryCache, deliver func(SearchResult)) *SearchManager {
	m := &SearchManager{
		cache:   cache,
		deliver: deliver,
	}
	m.debounced, m.cancel = lo.NewDebounce(DebounceInterval, m.fire)
	return m
}

// SetQuery registers the latest input. Terms shorter than MinSearchLength
// cancel any pending query and deliver an empty result immediately.
func (m *SearchManager) SetQuery(term string) {
	term = strings.TrimSpace(term)

	if len(term) < MinSearchLength {
		m.cancel()
		m.mu.Lock()
		m.pending = ""
		m.mu.Unlock()
		m.deliver(SearchResult{Term: term, Stories: []*models.Story{}})
		return
	}

	m.mu.Lock()
	m.pending = term
	m.mu.Unlock()
	m.debounced()
}

func (m *SearchManager) fire() {
	m.mu.Lock()
	term := m.pending
	m.mu.Unlock()
	if len(term) < MinSearchLength {
		return
	}

	stories, err := m.cache.Search(context.Background(), term)
	if err == nil {
		m.remember(term)
	}
	m.deliver(SearchResult{Term: term, Stories: stories, Err: err})
}

// remember puts the term at the head of the recent list, deduplicated,
// capped at MaxRecentSearches.
func (m *SearchManager) remember(term string) {
	normalized := strings.ToLower(term)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent = lo.Filter(m.recent, func(existing string, _ int) bool {
		return existing != normalized
	})
	m.recent = append([]string{normalized}, m.recent...)
	if len(m.recent) > MaxRecentSearches {
		m.recent = m.recent[:MaxRecentSearches]
	}
}

// RecentSearches returns the remembered terms, most recent first.
func (m *SearchManager) RecentSearches() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recent...)
}

// ClearRecentSearches empties the history.
func (m *SearchManager) ClearRecentSearches() {
	m.mu.Lock()
	m.recent = nil
	m.mu.Unlock()
}

// Close cancels any pending debounced query.
func (m *SearchManager) Close() {
	m.cancel()
}
