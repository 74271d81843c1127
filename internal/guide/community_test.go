package guide

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const communityListingHTML = `
<html><body>
<div id="profileBlock">
  <a class="workshop_item_link" href="https://steamcommunity.com/sharedfiles/filedetails/?id=111">
    <div class="workshopItemTitle">Lunacy 100% walkthrough</div>
    <div class="workshopItemShortDesc">Every step to the moon shot.</div>
  </a>
  <a class="workshop_item_link" href="https://steamcommunity.com/sharedfiles/filedetails/?id=222">
    <div class="workshopItemTitle">Co-op achievements</div>
  </a>
  <a class="workshop_item_link" href="">
    <div class="workshopItemTitle">Broken entry</div>
  </a>
</div>
</body></html>`

func TestCommunityAdapterParsesListing(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("searchText")
		fmt.Fprint(w, communityListingHTML)
	}))
	defer srv.Close()

	adapter := NewCommunityAdapter(srv.Client(), srv.URL, nil, 5)
	out, err := adapter.Fetch(context.Background(), Request{
		Query: Query{AppID: 620, GameName: "Portal 2", AchievementName: "Lunacy"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotPath != "/app/620/guides/" {
		t.Errorf("requested %q, want /app/620/guides/", gotPath)
	}
	if gotQuery != "Lunacy" {
		t.Errorf("searchText = %q, want Lunacy", gotQuery)
	}
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(out), out)
	}
	if out[0].Title != "Lunacy 100% walkthrough" {
		t.Errorf("first title = %q", out[0].Title)
	}
	if out[0].Snippet != "Every step to the moon shot." {
		t.Errorf("first snippet = %q", out[0].Snippet)
	}
	if out[1].Snippet != "" {
		t.Errorf("entry without a description got snippet %q", out[1].Snippet)
	}
	for _, c := range out {
		if c.Kind != SourceCommunityForum {
			t.Errorf("candidate %q has kind %s", c.Title, c.Kind)
		}
		if c.QualityScore != 80 {
			t.Errorf("candidate %q score %v, want 80", c.Title, c.QualityScore)
		}
	}
}

func TestCommunityAdapterMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, communityListingHTML)
	}))
	defer srv.Close()

	adapter := NewCommunityAdapter(srv.Client(), srv.URL, nil, 1)
	out, err := adapter.Fetch(context.Background(), Request{Query: Query{AppID: 620, AchievementName: "Lunacy"}})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("got %d candidates, want 1", len(out))
	}
}

func TestCommunityAdapterRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := NewCommunityAdapter(srv.Client(), srv.URL, nil, 5)
	_, err := adapter.Fetch(context.Background(), Request{Query: Query{AppID: 620, AchievementName: "Lunacy"}})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

func TestCommunityAdapterUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	adapter := NewCommunityAdapter(srv.Client(), srv.URL, nil, 5)
	if _, err := adapter.Fetch(context.Background(), Request{Query: Query{AppID: 620, AchievementName: "Lunacy"}}); err == nil {
		t.Error("bad gateway accepted")
	}
}

func TestCommunityAdapterConsultsLimiterBeforeNetwork(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		fmt.Fprint(w, communityListingHTML)
	}))
	defer srv.Close()

	adapter := NewCommunityAdapter(srv.Client(), srv.URL, NewLimiter(1, 0), 5)
	req := Request{Query: Query{AppID: 620, GameName: "Portal 2", AchievementName: "Lunacy"}}

	if _, err := adapter.Fetch(context.Background(), req); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	_, err := adapter.Fetch(context.Background(), req)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Fetch err = %v, want ErrRateLimited", err)
	}
	if hits != 1 {
		t.Errorf("scrape target hit %d times, want 1 with the gate closed", hits)
	}
}
