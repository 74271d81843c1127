package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/sepehrdad/guidely/internal/guide"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestUpsertUser(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
INSERT INTO users (steam_id, persona_name, avatar, profile_url, last_login_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (steam_id) DO UPDATE SET
  persona_name = EXCLUDED.persona_name,
  avatar = EXCLUDED.avatar,
  profile_url = EXCLUDED.profile_url,
  last_login_at = NOW()
RETURNING id, steam_id, persona_name, avatar, profile_url, created_at, last_login_at`)
	mock.ExpectQuery(query).
		WithArgs("76561197960287930", "gaben", "https://a/avatar.jpg", "https://p").
		WillReturnRows(sqlmock.NewRows([]string{"id", "steam_id", "persona_name", "avatar", "profile_url", "created_at", "last_login_at"}).
			AddRow("u-1", "76561197960287930", "gaben", "https://a/avatar.jpg", "https://p", now, now))

	u, err := st.UpsertUser(context.Background(), "76561197960287930", "gaben", "https://a/avatar.jpg", "https://p")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if u.ID != "u-1" || u.PersonaName != "gaben" {
		t.Errorf("user = %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT id, steam_id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, found, err := st.GetUser(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if found {
		t.Error("missing user reported as found")
	}
}

func TestSaveAndGetAIGuide(t *testing.T) {
	st, mock := newMockStore(t)
	rec := AIGuideRecord{
		AppID:           620,
		AchievementName: "Lunacy",
		Model:           "openrouter/auto",
		Guide: guide.AIGuide{
			Summary:       "Portal the moon.",
			Strategies:    []string{"finish the campaign"},
			Difficulty:    2,
			EstimatedTime: "8 hours",
		},
	}

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO ai_guides (app_id, achievement_name, model, content, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (app_id, achievement_name) DO UPDATE SET
  model = EXCLUDED.model,
  content = EXCLUDED.content,
  updated_at = NOW()`)).
		WithArgs(rec.AppID, rec.AchievementName, rec.Model, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.SaveAIGuide(context.Background(), rec); err != nil {
		t.Fatalf("SaveAIGuide: %v", err)
	}

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT model, content, views, created_at, updated_at
FROM ai_guides WHERE app_id=$1 AND achievement_name=$2`)).
		WithArgs(rec.AppID, rec.AchievementName).
		WillReturnRows(sqlmock.NewRows([]string{"model", "content", "views", "created_at", "updated_at"}).
			AddRow(rec.Model, []byte(`{"summary":"Portal the moon.","strategies":["finish the campaign"],"tips":null,"difficulty_rating":2,"estimated_time":"8 hours"}`), 0, now, now))

	got, found, err := st.GetAIGuide(context.Background(), rec.AppID, rec.AchievementName)
	if err != nil {
		t.Fatalf("GetAIGuide: %v", err)
	}
	if !found {
		t.Fatal("saved guide not found")
	}
	if got.Guide.Summary != rec.Guide.Summary || got.Guide.Difficulty != 2 {
		t.Errorf("round trip lost content: %+v", got.Guide)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIncrementGuideViews(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectExec(regexp.QuoteMeta(`
UPDATE ai_guides SET views = views + 1
WHERE app_id=$1 AND achievement_name=$2`)).
		WithArgs(int64(620), "Lunacy").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.IncrementGuideViews(context.Background(), 620, "Lunacy"); err != nil {
		t.Fatalf("IncrementGuideViews: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddAndListBookmarks(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
INSERT INTO bookmarks (user_id, app_id, achievement_name, title, url, kind)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id, url) DO UPDATE SET title = EXCLUDED.title
RETURNING id, created_at`)).
		WithArgs("u-1", int64(620), "Lunacy", "Lunacy guide", "https://example.com/a", "web_search").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("b-1", now))

	b, err := st.AddBookmark(context.Background(), Bookmark{
		UserID: "u-1", AppID: 620, AchievementName: "Lunacy",
		Title: "Lunacy guide", URL: "https://example.com/a", Kind: "web_search",
	})
	if err != nil {
		t.Fatalf("AddBookmark: %v", err)
	}
	if b.ID != "b-1" {
		t.Errorf("bookmark id = %q", b.ID)
	}

	mock.ExpectQuery("SELECT id, user_id, app_id").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "app_id", "achievement_name", "title", "url", "kind", "created_at"}).
			AddRow("b-1", "u-1", int64(620), "Lunacy", "Lunacy guide", "https://example.com/a", "web_search", now))

	list, err := st.ListBookmarks(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListBookmarks: %v", err)
	}
	if len(list) != 1 || list[0].URL != "https://example.com/a" {
		t.Errorf("bookmarks = %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteBookmarkMissing(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM bookmarks").
		WithArgs("b-404", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := st.DeleteBookmark(context.Background(), "u-1", "b-404")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("got %v, want sql.ErrNoRows", err)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO preferences (user_id, sources, max_results, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (user_id) DO UPDATE SET
  sources = EXCLUDED.sources,
  max_results = EXCLUDED.max_results,
  updated_at = NOW()`)).
		WithArgs("u-1", sqlmock.AnyArg(), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := st.UpsertPreferences(context.Background(), Preferences{
		UserID: "u-1", Sources: []string{"ai_generated", "web_search"}, MaxResults: 5,
	})
	if err != nil {
		t.Fatalf("UpsertPreferences: %v", err)
	}

	mock.ExpectQuery("SELECT sources, max_results").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"sources", "max_results", "updated_at"}).
			AddRow(`{ai_generated,web_search}`, 5, now))

	p, found, err := st.GetPreferences(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	if !found {
		t.Fatal("preferences not found")
	}
	if len(p.Sources) != 2 || p.MaxResults != 5 {
		t.Errorf("preferences = %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRateGuideValidation(t *testing.T) {
	st, _ := newMockStore(t)
	if err := st.RateGuide(context.Background(), "u-1", "https://example.com/a", 0); err == nil {
		t.Error("rating 0 accepted")
	}
	if err := st.RateGuide(context.Background(), "u-1", "https://example.com/a", 6); err == nil {
		t.Error("rating 6 accepted")
	}
}

func TestGuideRating(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("https://example.com/a").
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(4.5, 2))

	avg, count, err := st.GuideRating(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("GuideRating: %v", err)
	}
	if avg != 4.5 || count != 2 {
		t.Errorf("rating = %v over %d votes", avg, count)
	}
}
