package guide

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sepehrdad/guidely/internal/cache"
	"github.com/sepehrdad/guidely/internal/telemetry"
)

// AIGuideAdapter wraps a language model behind the Adapter interface.
// Generated guides are cached for a long window because generation is
// the most expensive source by far. ForceRegenerate on the request
// bypasses the cache read but still writes the fresh guide back.
type AIGuideAdapter struct {
	generator Generator
	store     cache.Store
	limiter   *Limiter
	ttl       time.Duration
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

func NewAIGuideAdapter(generator Generator, store cache.Store, limiter *Limiter, ttl time.Duration, tel *telemetry.Telemetry) *AIGuideAdapter {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &AIGuideAdapter{
		generator: generator,
		store:     store,
		limiter:   limiter,
		ttl:       ttl,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[AIGUIDE] ", log.LstdFlags),
	}
}

func (a *AIGuideAdapter) Kind() SourceKind { return SourceAIGenerated }

// CacheKey identifies a generated guide for one achievement of one game.
func (a *AIGuideAdapter) CacheKey(q Query) string {
	name := strings.ToLower(strings.TrimSpace(q.AchievementName))
	return fmt.Sprintf("aiguide:%d:%s", q.AppID, name)
}

func (a *AIGuideAdapter) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	key := a.CacheKey(req.Query)
	if a.store != nil && !req.ForceRegenerate {
		var cached AIGuide
		hit, err := a.store.Get(ctx, key, &cached)
		if err != nil {
			a.logger.Printf("cache read failed for %s: %v", key, err)
		} else if hit {
			return []Candidate{a.candidate(req.Query, &cached, true)}, nil
		}
	}
	if a.limiter != nil && !a.limiter.Allow(time.Now()) {
		a.record("rate_limited")
		return nil, fmt.Errorf("ai guide for %q: %w", req.Query.AchievementName, ErrRateLimited)
	}
	generated, err := a.generator.GenerateGuide(ctx, req.Query)
	if err != nil {
		a.record("error")
		return nil, fmt.Errorf("ai guide for %q: %w", req.Query.AchievementName, err)
	}
	a.record("ok")
	if a.store != nil {
		if err := a.store.Set(ctx, key, generated, a.ttl); err != nil {
			a.logger.Printf("cache write failed for %s: %v", key, err)
		}
	}
	return []Candidate{a.candidate(req.Query, generated, false)}, nil
}

func (a *AIGuideAdapter) candidate(q Query, g *AIGuide, fromCache bool) Candidate {
	return Candidate{
		Kind:         SourceAIGenerated,
		Title:        fmt.Sprintf("AI Guide: %s", q.AchievementName),
		Snippet:      g.Summary,
		Content:      g,
		QualityScore: 85,
		FetchedAt:    time.Now().UTC(),
		FromCache:    fromCache,
	}
}

func (a *AIGuideAdapter) record(status string) {
	a.telemetry.RecordGeneration(status)
}
