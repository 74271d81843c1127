package guide

import (
	"reflect"
	"testing"
)

func TestSearchQueriesVariants(t *testing.T) {
	q := Query{GameName: "Portal 2", AchievementName: "Ship Overboard"}
	got := SearchQueries(q)
	want := []string{
		`"Portal 2" "Ship Overboard" achievement guide walkthrough`,
		`"Portal 2" "Ship Overboard" how to unlock`,
		`Portal 2 Ship Overboard achievement guide`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSearchQueriesPartialInput(t *testing.T) {
	if got := SearchQueries(Query{AchievementName: "Ship Overboard"}); len(got) != 1 {
		t.Errorf("achievement-only query produced %d variants, want 1", len(got))
	}
	if got := SearchQueries(Query{}); len(got) != 0 {
		t.Errorf("empty query produced %d variants, want 0", len(got))
	}
}

func TestKeywords(t *testing.T) {
	q := Query{GameName: "Portal 2", AchievementName: "Portal Ship Overboard!"}
	got := Keywords(q)
	want := []string{"portal", "ship", "overboard"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
