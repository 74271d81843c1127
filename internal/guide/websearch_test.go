package guide

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sepehrdad/guidely/internal/cache"
	"github.com/sepehrdad/guidely/tools/websearch/models"
)

type stubSearcher struct {
	byQuery map[string][]models.Result
	calls   []string
	err     error
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int) ([]models.Result, error) {
	s.calls = append(s.calls, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.byQuery[query], nil
}

func webRequest() Request {
	return Request{Query: Query{AppID: 620, GameName: "Portal 2", AchievementName: "Lunacy"}}
}

func TestWebSearchStopsAtFirstNonEmptyVariant(t *testing.T) {
	variants := SearchQueries(webRequest().Query)
	searcher := &stubSearcher{byQuery: map[string][]models.Result{
		variants[0]: {
			{Title: "Lunacy guide", URL: "https://example.com/lunacy", Snippet: "moon it"},
			{Title: "Second hit", URL: "https://example.com/two", Snippet: "also"},
		},
	}}
	adapter := NewWebSearchAdapter(searcher, nil, nil, 0, 5)

	out, err := adapter.Fetch(context.Background(), webRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(searcher.calls) != 1 {
		t.Errorf("searcher called %d times, want 1", len(searcher.calls))
	}
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	if out[0].QualityScore != 70 || out[1].QualityScore != 65 {
		t.Errorf("rank scores = %v, %v; want 70, 65", out[0].QualityScore, out[1].QualityScore)
	}
}

func TestWebSearchFallsBackThroughVariants(t *testing.T) {
	variants := SearchQueries(webRequest().Query)
	searcher := &stubSearcher{byQuery: map[string][]models.Result{
		variants[2]: {{Title: "Broad hit", URL: "https://example.com/broad", Snippet: "s"}},
	}}
	adapter := NewWebSearchAdapter(searcher, nil, nil, 0, 5)

	out, err := adapter.Fetch(context.Background(), webRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(searcher.calls) != 3 {
		t.Errorf("searcher called %d times, want all 3 variants", len(searcher.calls))
	}
	if len(out) != 1 || out[0].Title != "Broad hit" {
		t.Errorf("got %+v, want the broad-variant hit", out)
	}
}

func TestWebSearchUsesCache(t *testing.T) {
	variants := SearchQueries(webRequest().Query)
	searcher := &stubSearcher{byQuery: map[string][]models.Result{
		variants[0]: {{Title: "Hit", URL: "https://example.com/a", Snippet: "s"}},
	}}
	adapter := NewWebSearchAdapter(searcher, cache.NewMemory(), nil, time.Hour, 5)

	if _, err := adapter.Fetch(context.Background(), webRequest()); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	out, err := adapter.Fetch(context.Background(), webRequest())
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if len(searcher.calls) != 1 {
		t.Errorf("searcher called %d times, want 1 with a warm cache", len(searcher.calls))
	}
	if len(out) != 1 {
		t.Errorf("cached fetch returned %d candidates, want 1", len(out))
	}
}

func TestWebSearchRateLimited(t *testing.T) {
	searcher := &stubSearcher{}
	limiter := NewLimiter(1, 0)
	adapter := NewWebSearchAdapter(searcher, nil, limiter, 0, 5)

	// The first fetch exhausts the budget across the empty variants.
	_, err := adapter.Fetch(context.Background(), webRequest())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited once the window is spent", err)
	}
	if len(searcher.calls) != 1 {
		t.Errorf("searcher called %d times, want 1", len(searcher.calls))
	}
}

func TestWebSearchDropsIncompleteResults(t *testing.T) {
	variants := SearchQueries(webRequest().Query)
	searcher := &stubSearcher{byQuery: map[string][]models.Result{
		variants[0]: {
			{Title: "", URL: "https://example.com/a"},
			{Title: "No link"},
		},
		variants[1]: {{Title: "Good", URL: "https://example.com/b", Snippet: "s"}},
	}}
	adapter := NewWebSearchAdapter(searcher, nil, nil, 0, 5)

	out, err := adapter.Fetch(context.Background(), webRequest())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 1 || out[0].Title != "Good" {
		t.Errorf("got %+v, want only the complete second-variant hit", out)
	}
}
