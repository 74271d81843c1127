package guide

import (
	"context"
	"strings"
	"testing"
)

func TestLinkAdapters(t *testing.T) {
	req := Request{Query: Query{AppID: 620, GameName: "Portal 2", AchievementName: "Lunacy"}}
	tests := []struct {
		adapter  Adapter
		kind     SourceKind
		wantHost string
		score    float64
	}{
		{VideoLinkAdapter{}, SourceVideoPlatform, "youtube.com", 65},
		{DiscussionLinkAdapter{}, SourceDiscussionBoard, "reddit.com", 60},
		{WikiLinkAdapter{}, SourceWiki, "pcgamingwiki.com", 75},
	}
	for _, tt := range tests {
		out, err := tt.adapter.Fetch(context.Background(), req)
		if err != nil {
			t.Fatalf("%s: Fetch: %v", tt.kind, err)
		}
		if len(out) != 1 {
			t.Fatalf("%s: got %d candidates, want 1", tt.kind, len(out))
		}
		c := out[0]
		if c.Kind != tt.kind {
			t.Errorf("%s: kind = %s", tt.kind, c.Kind)
		}
		if !strings.Contains(c.URL, tt.wantHost) {
			t.Errorf("%s: url %q does not point at %s", tt.kind, c.URL, tt.wantHost)
		}
		if c.QualityScore != tt.score {
			t.Errorf("%s: score %v, want %v", tt.kind, c.QualityScore, tt.score)
		}
		if tt.adapter.Kind() != tt.kind {
			t.Errorf("%s: Kind() = %s", tt.kind, tt.adapter.Kind())
		}
	}
}
