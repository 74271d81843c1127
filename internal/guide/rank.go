package guide

import (
	"sort"
	"strings"
)

// Base score per source kind. The values are policy, not contract, but they
// must stay monotonic with the kind tie-break priority so equally relevant
// candidates order the same way either path resolves them.
var kindBaseScore = map[SourceKind]float64{
	SourceAIGenerated:     60,
	SourceCommunityForum:  52,
	SourceWebSearch:       44,
	SourceVideoPlatform:   40,
	SourceDiscussionBoard: 36,
	SourceWiki:            32,
}

const (
	keywordBonusScale     = 30.0
	missingSnippetPenalty = 8.0
)

// Score computes the quality score for one candidate against the query
// keywords. The result is clamped to [0,100].
func Score(c Candidate, keywords []string) float64 {
	score := kindBaseScore[c.Kind]

	if len(keywords) > 0 {
		haystack := strings.ToLower(c.Title + " " + c.Snippet)
		matched := 0
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				matched++
			}
		}
		score += keywordBonusScale * float64(matched) / float64(len(keywords))
	}

	if c.Kind != SourceAIGenerated && strings.TrimSpace(c.Snippet) == "" {
		score -= missingSnippetPenalty
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Rank assigns quality scores and sorts candidates into the canonical order:
// score descending, then fixed source-kind priority, then lexicographic
// title. The order depends only on candidate content, never on adapter
// completion order.
func Rank(candidates []Candidate, q Query) []Candidate {
	keywords := Keywords(q)
	for i := range candidates {
		candidates[i].QualityScore = Score(candidates[i], keywords)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.QualityScore != b.QualityScore {
			return a.QualityScore > b.QualityScore
		}
		if a.Kind.Priority() != b.Kind.Priority() {
			return a.Kind.Priority() < b.Kind.Priority()
		}
		return a.Title < b.Title
	})
	return candidates
}
