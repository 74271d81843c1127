package guide

import (
	"fmt"
	"strings"
)

// SearchQueries builds up to three search-string variants for a lookup,
// ordered most specific first. Keyword-searching adapters try them in order
// and stop at the first variant that yields an acceptable result, to conserve
// rate budget.
func SearchQueries(q Query) []string {
	game := strings.TrimSpace(q.GameName)
	ach := strings.TrimSpace(q.AchievementName)

	var out []string
	if game != "" && ach != "" {
		out = append(out,
			fmt.Sprintf("%q %q achievement guide walkthrough", game, ach),
			fmt.Sprintf("%q %q how to unlock", game, ach),
			fmt.Sprintf("%s %s achievement guide", game, ach),
		)
	} else if ach != "" {
		out = append(out, fmt.Sprintf("%q achievement guide", ach))
	} else if game != "" {
		out = append(out, fmt.Sprintf("%q achievement guide", game))
	}
	return out
}

// Keywords returns the lowercase query terms used for relevance scoring.
func Keywords(q Query) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, field := range []string{q.GameName, q.AchievementName} {
		for _, word := range strings.Fields(strings.ToLower(field)) {
			word = strings.Trim(word, `"',.:;!?`)
			if len(word) < 2 {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			out = append(out, word)
		}
	}
	return out
}
