package guide

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sepehrdad/guidely/internal/cache"
	"github.com/sepehrdad/guidely/tools/websearch"
	"github.com/sepehrdad/guidely/tools/websearch/models"
)

// WebSearchAdapter queries a web search provider with progressively
// broader query variants and stops at the first variant that returns
// results. Raw results are cached per variant so repeated lookups for
// the same achievement do not burn provider quota.
type WebSearchAdapter struct {
	searcher   websearch.Searcher
	store      cache.Store
	limiter    *Limiter
	ttl        time.Duration
	maxResults int
	logger     *log.Logger
}

// NewWebSearchAdapter builds the adapter. store and limiter may be nil,
// which disables caching and rate limiting respectively.
func NewWebSearchAdapter(searcher websearch.Searcher, store cache.Store, limiter *Limiter, ttl time.Duration, maxResults int) *WebSearchAdapter {
	if maxResults <= 0 {
		maxResults = 5
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &WebSearchAdapter{
		searcher:   searcher,
		store:      store,
		limiter:    limiter,
		ttl:        ttl,
		maxResults: maxResults,
		logger:     log.New(log.Writer(), "[WEBSEARCH] ", log.LstdFlags),
	}
}

func (a *WebSearchAdapter) Kind() SourceKind { return SourceWebSearch }

func (a *WebSearchAdapter) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	for _, query := range SearchQueries(req.Query) {
		results, err := a.search(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			continue
		}
		now := time.Now().UTC()
		candidates := make([]Candidate, 0, len(results))
		for rank, r := range results {
			if r.URL == "" || r.Title == "" {
				continue
			}
			score := 70.0 - 5.0*float64(rank)
			if score < 0 {
				score = 0
			}
			candidates = append(candidates, Candidate{
				Kind:         SourceWebSearch,
				Title:        r.Title,
				URL:          r.URL,
				Snippet:      r.Snippet,
				QualityScore: score,
				FetchedAt:    now,
			})
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	return nil, nil
}

func (a *WebSearchAdapter) search(ctx context.Context, query string) ([]models.Result, error) {
	key := fmt.Sprintf("websearch:%s", query)
	if a.store != nil {
		var cached []models.Result
		hit, err := a.store.Get(ctx, key, &cached)
		if err != nil {
			a.logger.Printf("cache read failed for %q: %v", query, err)
		} else if hit {
			return cached, nil
		}
	}
	if a.limiter != nil && !a.limiter.Allow(time.Now()) {
		return nil, fmt.Errorf("web search for %q: %w", query, ErrRateLimited)
	}
	results, err := a.searcher.Search(ctx, query, a.maxResults)
	if err != nil {
		return nil, fmt.Errorf("web search for %q: %w", query, err)
	}
	if a.store != nil {
		if err := a.store.Set(ctx, key, results, a.ttl); err != nil {
			a.logger.Printf("cache write failed for %q: %v", query, err)
		}
	}
	return results, nil
}
