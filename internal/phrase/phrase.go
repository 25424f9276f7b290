package phrase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Entry is one approved phrase pair
type Entry struct {
	LocalPhrase    string `json:"local_phrase"`
	EnglishMeaning string `json:"english_meaning"`
	Context        string `json:"context,omitempty"`
}

// Source fetches the approved phrases for a language from the community backend
type Source interface {
	FetchApproved(ctx context.Context, languageCode string) ([]Entry, error)
}

// Cache holds approved phrases per language for the lifetime of the process.
// Fetch failures are never cached.
type Cache struct {
	source Source
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string][]Entry
	group   singleflight.Group
}

// NewCache creates a cache in front of source
func NewCache(source Source, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source:  source,
		logger:  logger,
		entries: make(map[string][]Entry),
	}
}

// Get returns the approved phrases for languageCode, fetching them on the
// first call. A failed fetch yields an empty list and the next call retries.
func (c *Cache) Get(ctx context.Context, languageCode string) []Entry {
	c.mu.RLock()
	cached, ok := c.entries[languageCode]
	c.mu.RUnlock()
	if ok {
		return clone(cached)
	}

	// The shared fetch outlives the caller that started it. A caller that
	// gives up only stops waiting.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(languageCode, func() (any, error) {
		entries, err := c.source.FetchApproved(fetchCtx, languageCode)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []Entry{}
		}

		c.mu.Lock()
		c.entries[languageCode] = entries
		c.mu.Unlock()
		return entries, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return []Entry{}
	}
	if res.Err != nil {
		c.logger.Warn("failed to load approved phrases", "language", languageCode, "error", res.Err)
		return []Entry{}
	}

	return clone(res.Val.([]Entry))
}

// Invalidate drops the cached list for languageCode so the next Get refetches it
func (c *Cache) Invalidate(languageCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, languageCode)
}

// Cached reports whether languageCode has a cached list
func (c *Cache) Cached(languageCode string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.entries[languageCode]
	return ok
}

// Match returns the first entry whose English meaning or local phrase
// contains query, or is contained in it, ignoring case. Entries are checked in
// the order the backend returned them; there is no ranking.
func Match(entries []Entry, query string) (Entry, bool) {
	q := normalize(query)
	if q == "" {
		return Entry{}, false
	}

	for _, e := range entries {
		if overlaps(normalize(e.EnglishMeaning), q) || overlaps(normalize(e.LocalPhrase), q) {
			return e, true
		}
	}
	return Entry{}, false
}

func overlaps(field, query string) bool {
	if field == "" {
		return false
	}
	return strings.Contains(field, query) || strings.Contains(query, field)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
