package guide

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultCommunityBaseURL = "https://steamcommunity.com"

// CommunityAdapter scrapes the Steam Community guide listing for a game,
// filtered by the achievement name. The listing is plain server rendered
// HTML, so a single GET and a selector walk is enough.
type CommunityAdapter struct {
	httpClient *http.Client
	baseURL    string
	limiter    *Limiter
	maxResults int
}

// NewCommunityAdapter builds the adapter. limiter may be nil, which
// disables the courtesy gate on the scrape target.
func NewCommunityAdapter(httpClient *http.Client, baseURL string, limiter *Limiter, maxResults int) *CommunityAdapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultCommunityBaseURL
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &CommunityAdapter{httpClient: httpClient, baseURL: baseURL, limiter: limiter, maxResults: maxResults}
}

func (a *CommunityAdapter) Kind() SourceKind { return SourceCommunityForum }

func (a *CommunityAdapter) Fetch(ctx context.Context, req Request) ([]Candidate, error) {
	if a.limiter != nil && !a.limiter.Allow(time.Now()) {
		return nil, fmt.Errorf("community guides for app %d: %w", req.Query.AppID, ErrRateLimited)
	}

	listing := fmt.Sprintf("%s/app/%d/guides/?searchText=%s&browsefilter=trend",
		a.baseURL, req.Query.AppID, url.QueryEscape(req.Query.AchievementName))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, listing, nil)
	if err != nil {
		return nil, fmt.Errorf("building community request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; guidely/1.0)")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetching community guides: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("community guides for app %d: %w", req.Query.AppID, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("community guides returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing community listing: %w", err)
	}

	now := time.Now().UTC()
	var candidates []Candidate
	doc.Find("a.workshop_item_link").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		title := strings.TrimSpace(sel.Find(".workshopItemTitle").Text())
		if title == "" {
			return true
		}
		snippet := strings.TrimSpace(sel.Find(".workshopItemShortDesc").Text())
		candidates = append(candidates, Candidate{
			Kind:         SourceCommunityForum,
			Title:        title,
			URL:          href,
			Snippet:      snippet,
			QualityScore: 80,
			FetchedAt:    now,
		})
		return len(candidates) < a.maxResults
	})
	return candidates, nil
}
