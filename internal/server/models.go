package server

import "github.com/sepehrdad/guidely/internal/guide"

// HTTPError is the JSON error envelope.
type HTTPError struct {
	Error string `json:"error"`
}

// GuideSearchRequest is the body of POST /api/guides.
type GuideSearchRequest struct {
	AppID                  int64    `json:"app_id"`
	GameName               string   `json:"game_name,omitempty"`
	AchievementName        string   `json:"achievement_name"`
	AchievementDescription string   `json:"achievement_description,omitempty"`
	RarityPercent          *float64 `json:"rarity_percent,omitempty"`
	Sources                []string `json:"sources,omitempty"`
	MaxResults             int      `json:"max_results,omitempty"`
	ForceRegenerate        bool     `json:"force_regenerate,omitempty"`
}

// GuideSearchResponse is the body returned by POST /api/guides.
type GuideSearchResponse struct {
	Result *guide.Result `json:"result"`
}

// PreviewResponse is a readable extraction of one guide page.
type PreviewResponse struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Byline   string `json:"byline,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	Markdown string `json:"markdown"`
}

// BookmarkRequest is the body of POST /api/bookmarks.
type BookmarkRequest struct {
	AppID           int64  `json:"app_id"`
	AchievementName string `json:"achievement_name"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Kind            string `json:"kind,omitempty"`
}

// PreferencesRequest is the body of PUT /api/preferences.
type PreferencesRequest struct {
	Sources    []string `json:"sources"`
	MaxResults int      `json:"max_results"`
}

// ViewRequest is the body of POST /api/guides/view.
type ViewRequest struct {
	AppID           int64  `json:"app_id"`
	AchievementName string `json:"achievement_name"`
}

// RatingRequest is the body of POST /api/guides/rating.
type RatingRequest struct {
	URL    string `json:"url"`
	Rating int    `json:"rating"`
}

// RatingResponse summarises the votes on one guide link.
type RatingResponse struct {
	URL     string  `json:"url"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
