package guide

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Link adapters build deterministic search links instead of calling an
// API. They never fail and cost nothing, so they run on every request
// and give the user a useful jumping-off point even when the richer
// sources come back empty.

// VideoLinkAdapter points at a YouTube search for the achievement.
type VideoLinkAdapter struct{}

func (VideoLinkAdapter) Kind() SourceKind { return SourceVideoPlatform }

func (VideoLinkAdapter) Fetch(_ context.Context, req Request) ([]Candidate, error) {
	q := fmt.Sprintf("%s %s achievement guide", req.Query.GameName, req.Query.AchievementName)
	return []Candidate{{
		Kind:         SourceVideoPlatform,
		Title:        fmt.Sprintf("Video guides for %q", req.Query.AchievementName),
		URL:          "https://www.youtube.com/results?search_query=" + url.QueryEscape(q),
		Snippet:      fmt.Sprintf("Video walkthroughs for the %s achievement in %s.", req.Query.AchievementName, req.Query.GameName),
		QualityScore: 65,
		FetchedAt:    time.Now().UTC(),
	}}, nil
}

// DiscussionLinkAdapter points at a Reddit search scoped to the game.
type DiscussionLinkAdapter struct{}

func (DiscussionLinkAdapter) Kind() SourceKind { return SourceDiscussionBoard }

func (DiscussionLinkAdapter) Fetch(_ context.Context, req Request) ([]Candidate, error) {
	q := fmt.Sprintf("%s %s achievement", req.Query.GameName, req.Query.AchievementName)
	return []Candidate{{
		Kind:         SourceDiscussionBoard,
		Title:        fmt.Sprintf("Reddit discussions for %q", req.Query.AchievementName),
		URL:          "https://www.reddit.com/search/?q=" + url.QueryEscape(q),
		Snippet:      fmt.Sprintf("Community threads about unlocking %s in %s.", req.Query.AchievementName, req.Query.GameName),
		QualityScore: 60,
		FetchedAt:    time.Now().UTC(),
	}}, nil
}

// WikiLinkAdapter points at the PCGamingWiki page for the game.
type WikiLinkAdapter struct{}

func (WikiLinkAdapter) Kind() SourceKind { return SourceWiki }

func (WikiLinkAdapter) Fetch(_ context.Context, req Request) ([]Candidate, error) {
	return []Candidate{{
		Kind:         SourceWiki,
		Title:        fmt.Sprintf("PCGamingWiki: %s", req.Query.GameName),
		URL:          "https://www.pcgamingwiki.com/w/index.php?search=" + url.QueryEscape(req.Query.GameName),
		Snippet:      fmt.Sprintf("Reference wiki entry for %s, including achievement notes.", req.Query.GameName),
		QualityScore: 75,
		FetchedAt:    time.Now().UTC(),
	}}, nil
}
