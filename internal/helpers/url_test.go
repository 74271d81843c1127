package helpers

import "testing"

func TestCanonicalURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "defaults https and cleans path",
			in:   "Example.com/guides/../achievements/latest",
			want: "https://example.com/achievements/latest",
		},
		{
			name: "removes default port and tracking params",
			in:   "http://steamcommunity.com:80/sharedfiles/filedetails?id=123&utm_source=rss#comments",
			want: "http://steamcommunity.com/sharedfiles/filedetails?id=123",
		},
		{
			name: "sorts query parameters and preserves trailing slash",
			in:   "https://example.com/guide/?b=2&a=1&fbclid=xyz",
			want: "https://example.com/guide/?a=1&b=2",
		},
		{
			name: "schemeless with double slash",
			in:   "//www.youtube.com/watch?v=abc&utm_medium=email",
			want: "https://www.youtube.com/watch?v=abc",
		},
		{
			name: "collapses repeated slashes",
			in:   "https://example.com//a//b///c",
			want: "https://example.com/a/b/c",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalURL(tt.in)
			if err != nil {
				t.Fatalf("CanonicalURL() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("CanonicalURL() got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalURLErrors(t *testing.T) {
	t.Parallel()
	if _, err := CanonicalURL(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := CanonicalURL(":///invalid"); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}

func TestValidGuideURL(t *testing.T) {
	t.Parallel()
	valid := []string{
		"https://steamcommunity.com/sharedfiles/filedetails/?id=1",
		"http://example.com/guide",
	}
	invalid := []string{
		"",
		"javascript:alert(1)",
		"ftp://example.com/file",
		"/relative/path",
		"data:text/html,hello",
	}
	for _, u := range valid {
		if !ValidGuideURL(u) {
			t.Errorf("ValidGuideURL(%q) = false, want true", u)
		}
	}
	for _, u := range invalid {
		if ValidGuideURL(u) {
			t.Errorf("ValidGuideURL(%q) = true, want false", u)
		}
	}
}

func TestSanitizeSnippet(t *testing.T) {
	t.Parallel()
	got := SanitizeSnippet("  lots   of\n\twhitespace here  ", 200)
	if got != "lots of whitespace here" {
		t.Fatalf("unexpected snippet: %q", got)
	}
	long := SanitizeSnippet("one two three four five", 13)
	if long != "one two..." {
		t.Fatalf("unexpected truncation: %q", long)
	}
	if SanitizeSnippet("", 100) != "" {
		t.Fatalf("empty snippet should stay empty")
	}
}
