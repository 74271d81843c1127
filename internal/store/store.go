package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"

	"github.com/sepehrdad/guidely/internal/guide"
)

// Store wraps the Postgres connection. Redis holds the hot caches; this
// is the durable side: accounts, the generated-guide archive, bookmarks
// and per-user preferences.
type Store struct {
	DB *sql.DB
}

// New connects using DATABASE_URL or the POSTGRES_* variables.
func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// User is one authenticated Steam account.
type User struct {
	ID          string
	SteamID     string
	PersonaName string
	Avatar      string
	ProfileURL  string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// UpsertUser records a login: first sight creates the account, any later
// login refreshes the profile fields and the login stamp.
func (s *Store) UpsertUser(ctx context.Context, steamID, persona, avatar, profileURL string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO users (steam_id, persona_name, avatar, profile_url, last_login_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (steam_id) DO UPDATE SET
  persona_name = EXCLUDED.persona_name,
  avatar = EXCLUDED.avatar,
  profile_url = EXCLUDED.profile_url,
  last_login_at = NOW()
RETURNING id, steam_id, persona_name, avatar, profile_url, created_at, last_login_at`,
		steamID, persona, avatar, profileURL).
		Scan(&u.ID, &u.SteamID, &u.PersonaName, &u.Avatar, &u.ProfileURL, &u.CreatedAt, &u.LastLoginAt)
	return u, err
}

// GetUser loads one account by internal id.
func (s *Store) GetUser(ctx context.Context, id string) (User, bool, error) {
	var u User
	err := s.DB.QueryRowContext(ctx, `
SELECT id, steam_id, persona_name, avatar, profile_url, created_at, last_login_at
FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.SteamID, &u.PersonaName, &u.Avatar, &u.ProfileURL, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, err
	}
	return u, true, nil
}

// AIGuideRecord is one archived generation. The cache layer serves reads;
// the archive survives cache flushes and feeds regeneration history.
type AIGuideRecord struct {
	AppID           int64
	AchievementName string
	Model           string
	Guide           guide.AIGuide
	Views           int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SaveAIGuide upserts the archived guide for one achievement.
func (s *Store) SaveAIGuide(ctx context.Context, rec AIGuideRecord) error {
	content, err := json.Marshal(rec.Guide)
	if err != nil {
		return fmt.Errorf("encoding guide: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO ai_guides (app_id, achievement_name, model, content, updated_at)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (app_id, achievement_name) DO UPDATE SET
  model = EXCLUDED.model,
  content = EXCLUDED.content,
  updated_at = NOW()`,
		rec.AppID, rec.AchievementName, rec.Model, content)
	return err
}

// GetAIGuide loads the archived guide for one achievement.
func (s *Store) GetAIGuide(ctx context.Context, appID int64, achievementName string) (AIGuideRecord, bool, error) {
	rec := AIGuideRecord{AppID: appID, AchievementName: achievementName}
	var content []byte
	err := s.DB.QueryRowContext(ctx, `
SELECT model, content, views, created_at, updated_at
FROM ai_guides WHERE app_id=$1 AND achievement_name=$2`, appID, achievementName).
		Scan(&rec.Model, &content, &rec.Views, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AIGuideRecord{}, false, nil
	}
	if err != nil {
		return AIGuideRecord{}, false, err
	}
	if err := json.Unmarshal(content, &rec.Guide); err != nil {
		return AIGuideRecord{}, false, fmt.Errorf("decoding guide: %w", err)
	}
	return rec, true, nil
}

// IncrementGuideViews bumps the view counter of an archived guide. A miss
// is not an error; views for never-archived guides are simply not tracked.
func (s *Store) IncrementGuideViews(ctx context.Context, appID int64, achievementName string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE ai_guides SET views = views + 1
WHERE app_id=$1 AND achievement_name=$2`, appID, achievementName)
	return err
}

// Bookmark is one saved guide candidate.
type Bookmark struct {
	ID              string
	UserID          string
	AppID           int64
	AchievementName string
	Title           string
	URL             string
	Kind            string
	CreatedAt       time.Time
}

// AddBookmark saves a candidate for a user. Saving the same link twice
// is a no-op and returns the existing row.
func (s *Store) AddBookmark(ctx context.Context, b Bookmark) (Bookmark, error) {
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO bookmarks (user_id, app_id, achievement_name, title, url, kind)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id, url) DO UPDATE SET title = EXCLUDED.title
RETURNING id, created_at`,
		b.UserID, b.AppID, b.AchievementName, b.Title, b.URL, b.Kind).
		Scan(&b.ID, &b.CreatedAt)
	return b, err
}

// ListBookmarks returns a user's bookmarks, newest first.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]Bookmark, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, app_id, achievement_name, title, url, kind, created_at
FROM bookmarks WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.AppID, &b.AchievementName, &b.Title, &b.URL, &b.Kind, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBookmark removes one bookmark owned by the user.
func (s *Store) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM bookmarks WHERE id=$1 AND user_id=$2`, bookmarkID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Preferences holds per-user lookup defaults.
type Preferences struct {
	UserID     string
	Sources    []string
	MaxResults int
	UpdatedAt  time.Time
}

// UpsertPreferences replaces the user's lookup defaults.
func (s *Store) UpsertPreferences(ctx context.Context, p Preferences) error {
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO preferences (user_id, sources, max_results, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (user_id) DO UPDATE SET
  sources = EXCLUDED.sources,
  max_results = EXCLUDED.max_results,
  updated_at = NOW()`,
		p.UserID, pq.Array(p.Sources), p.MaxResults)
	return err
}

// GetPreferences loads the user's lookup defaults.
func (s *Store) GetPreferences(ctx context.Context, userID string) (Preferences, bool, error) {
	p := Preferences{UserID: userID}
	err := s.DB.QueryRowContext(ctx, `
SELECT sources, max_results, updated_at FROM preferences WHERE user_id=$1`, userID).
		Scan(pq.Array(&p.Sources), &p.MaxResults, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, false, nil
	}
	if err != nil {
		return Preferences{}, false, err
	}
	return p, true, nil
}

// RateGuide records or replaces a user's rating of a guide link.
// Ratings run 1 to 5.
func (s *Store) RateGuide(ctx context.Context, userID, url string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating %d out of range", rating)
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO guide_ratings (user_id, url, rating)
VALUES ($1,$2,$3)
ON CONFLICT (user_id, url) DO UPDATE SET rating = EXCLUDED.rating`,
		userID, url, rating)
	return err
}

// GuideRating returns the average rating and vote count for a guide link.
func (s *Store) GuideRating(ctx context.Context, url string) (avg float64, count int, err error) {
	err = s.DB.QueryRowContext(ctx, `
SELECT COALESCE(AVG(rating),0), COUNT(*) FROM guide_ratings WHERE url=$1`, url).
		Scan(&avg, &count)
	return avg, count, err
}
