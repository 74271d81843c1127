package guide

import (
	"errors"
	"time"
)

// SourceKind is the origin category of a guide candidate.
type SourceKind string

const (
	SourceAIGenerated     SourceKind = "ai_generated"
	SourceCommunityForum  SourceKind = "community_forum"
	SourceWebSearch       SourceKind = "web_search"
	SourceVideoPlatform   SourceKind = "video_platform"
	SourceDiscussionBoard SourceKind = "discussion_board"
	SourceWiki            SourceKind = "wiki"
)

// kindPriority orders source kinds for ranking tie-breaks. Lower is better.
var kindPriority = map[SourceKind]int{
	SourceAIGenerated:     0,
	SourceCommunityForum:  1,
	SourceWebSearch:       2,
	SourceVideoPlatform:   3,
	SourceDiscussionBoard: 4,
	SourceWiki:            5,
}

// Priority returns the fixed tie-break rank of a kind. Unknown kinds sort last.
func (k SourceKind) Priority() int {
	if p, ok := kindPriority[k]; ok {
		return p
	}
	return len(kindPriority)
}

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	_, ok := kindPriority[k]
	return ok
}

// AIGuide is the structured content of a generated guide. It is always a
// complete record: adapters must never emit a partially populated one.
type AIGuide struct {
	Summary       string   `json:"summary"`
	Strategies    []string `json:"strategies"`
	Tips          []string `json:"tips"`
	Difficulty    int      `json:"difficulty_rating"`
	EstimatedTime string   `json:"estimated_time"`
}

// Candidate is one discovered piece of guide material, normalised into a
// common shape regardless of which adapter produced it.
type Candidate struct {
	ID           string     `json:"id"`
	Kind         SourceKind `json:"kind"`
	Title        string     `json:"title"`
	URL          string     `json:"url,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	Content      *AIGuide   `json:"content,omitempty"`
	QualityScore float64    `json:"quality_score"`
	FetchedAt    time.Time  `json:"fetched_at"`
	FromCache    bool       `json:"from_cache"`
}

// Query identifies the achievement a lookup is about.
type Query struct {
	AppID                  int64    `json:"app_id"`
	GameName               string   `json:"game_name"`
	AchievementName        string   `json:"achievement_name"`
	AchievementDescription string   `json:"achievement_description,omitempty"`
	RarityPercent          *float64 `json:"rarity_percent,omitempty"`
}

// Request is the single logical call into the aggregation core.
type Request struct {
	Query           Query
	Sources         []SourceKind
	MaxResults      int
	ForceRegenerate bool
}

// Result is one aggregated, ranked outcome.
type Result struct {
	Candidates  []Candidate           `json:"candidates"`
	FromCache   bool                  `json:"from_cache"`
	SourcesUsed map[SourceKind]int    `json:"sources_used"`
	Errors      map[SourceKind]string `json:"errors,omitempty"`
	ComputedAt  time.Time             `json:"computed_at"`
}

// Adapter failure taxonomy. Per-adapter failures are absorbed by the
// aggregator; only ErrQuotaExceeded is surfaced distinctly so callers can
// explain "try later" instead of "no guides exist".
var (
	ErrRateLimited   = errors.New("source rate limited")
	ErrQuotaExceeded = errors.New("generation quota exceeded")
	ErrMalformed     = errors.New("malformed source response")
)
