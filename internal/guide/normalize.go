package guide

import (
	"net/url"
	"strings"

	"github.com/sepehrdad/guidely/internal/helpers"
)

// hostKinds maps host suffixes to the source kind they imply. Checked in
// order so more specific suffixes win.
var hostKinds = []struct {
	suffix string
	kind   SourceKind
}{
	{"youtube.com", SourceVideoPlatform},
	{"youtu.be", SourceVideoPlatform},
	{"twitch.tv", SourceVideoPlatform},
	{"reddit.com", SourceDiscussionBoard},
	{"gamefaqs.gamespot.com", SourceDiscussionBoard},
	{"steamcommunity.com", SourceCommunityForum},
	{"truesteamachievements.com", SourceCommunityForum},
	{"fandom.com", SourceWiki},
	{"wikia.com", SourceWiki},
	{"wiki.gg", SourceWiki},
	{"gamepedia.com", SourceWiki},
	{"pcgamingwiki.com", SourceWiki},
}

// ClassifyURL derives a source kind from the link's host. Unclassifiable
// links default to plain web search results.
func ClassifyURL(raw string) SourceKind {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return SourceWebSearch
	}
	host := strings.ToLower(parsed.Hostname())
	for _, hk := range hostKinds {
		if host == hk.suffix || strings.HasSuffix(host, "."+hk.suffix) {
			return hk.kind
		}
	}
	return SourceWebSearch
}

// Normalize merges adapter outputs into one clean candidate list: malformed
// entries are dropped, URLs are canonicalised, duplicates collapse to the
// first-seen candidate, and untagged candidates get a kind from their host.
// At most one AI-generated candidate survives.
func Normalize(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	haveAI := false

	for _, c := range candidates {
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			continue
		}

		if c.Kind == SourceAIGenerated {
			if haveAI || c.Content == nil {
				continue
			}
			haveAI = true
			out = append(out, c)
			continue
		}

		if !helpers.ValidGuideURL(c.URL) {
			continue
		}
		canonical, err := helpers.CanonicalURL(c.URL)
		if err != nil {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		c.URL = canonical

		// web_search is the generic tag search adapters use; refine it
		// from the host when the link points somewhere recognisable.
		if !c.Kind.Valid() || c.Kind == SourceWebSearch {
			c.Kind = ClassifyURL(canonical)
		}
		out = append(out, c)
	}
	return out
}
