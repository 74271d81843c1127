package server

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"
	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/guidely/internal/guide"
	"github.com/sepehrdad/guidely/internal/helpers"
	"github.com/sepehrdad/guidely/internal/store"
)

type guideAggregator interface {
	Aggregate(ctx context.Context, req guide.Request) (*guide.Result, error)
	Sources() []guide.SourceKind
}

type gameNamer interface {
	GameName(ctx context.Context, appID int64) (string, error)
}

// GuidesHandler serves guide aggregation, page previews, bookmarks,
// preferences and ratings.
type GuidesHandler struct {
	Store      *store.Store
	Agg        guideAggregator
	Names      gameNamer
	Model      string
	HTTPClient *http.Client
}

func (h *GuidesHandler) Register(g *echo.Group) {
	g.POST("", h.search)
	g.GET("/sources", h.sources)
	g.GET("/preview", h.preview)
	g.POST("/view", h.view)
	g.POST("/rating", h.rate)
	g.GET("/rating", h.rating)
}

// RegisterBookmarks mounts the bookmark routes.
func (h *GuidesHandler) RegisterBookmarks(g *echo.Group) {
	g.POST("", h.addBookmark)
	g.GET("", h.listBookmarks)
	g.DELETE("/:id", h.deleteBookmark)
}

// RegisterPreferences mounts the preference routes.
func (h *GuidesHandler) RegisterPreferences(g *echo.Group) {
	g.GET("", h.getPreferences)
	g.PUT("", h.putPreferences)
}

func (h *GuidesHandler) search(c echo.Context) error {
	var req GuideSearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AppID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "app_id required")
	}
	if strings.TrimSpace(req.AchievementName) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "achievement_name required")
	}

	ctx := c.Request().Context()
	if req.GameName == "" && h.Names != nil {
		name, err := h.Names.GameName(ctx, req.AppID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		req.GameName = name
	}

	sources := make([]guide.SourceKind, 0, len(req.Sources))
	for _, s := range req.Sources {
		kind := guide.SourceKind(s)
		if !kind.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown source "+s)
		}
		sources = append(sources, kind)
	}

	maxResults := req.MaxResults
	if len(sources) == 0 || maxResults <= 0 {
		if prefs, found := h.userPreferences(c); found {
			if len(sources) == 0 {
				for _, s := range prefs.Sources {
					if kind := guide.SourceKind(s); kind.Valid() {
						sources = append(sources, kind)
					}
				}
			}
			if maxResults <= 0 {
				maxResults = prefs.MaxResults
			}
		}
	}

	result, err := h.Agg.Aggregate(ctx, guide.Request{
		Query: guide.Query{
			AppID:                  req.AppID,
			GameName:               req.GameName,
			AchievementName:        req.AchievementName,
			AchievementDescription: req.AchievementDescription,
			RarityPercent:          req.RarityPercent,
		},
		Sources:         sources,
		MaxResults:      maxResults,
		ForceRegenerate: req.ForceRegenerate,
	})
	if errors.Is(err, guide.ErrRateLimited) || errors.Is(err, guide.ErrQuotaExceeded) {
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// A lookup that produced nothing because generation quota ran out is
	// a "try later", not an empty result set. Partial results still win.
	if len(result.Candidates) == 0 {
		for _, status := range result.Errors {
			if status == guide.StatusQuotaExceeded {
				return echo.NewHTTPError(http.StatusTooManyRequests, "guide generation quota exhausted, try again later")
			}
		}
	}
	h.archiveAIGuide(ctx, req, result, c)
	return c.JSON(http.StatusOK, GuideSearchResponse{Result: result})
}

// archiveAIGuide keeps a durable copy of a freshly generated guide so it
// survives cache flushes. Best effort; archival never fails the request.
func (h *GuidesHandler) archiveAIGuide(ctx context.Context, req GuideSearchRequest, result *guide.Result, c echo.Context) {
	if h.Store == nil || result.FromCache {
		return
	}
	for _, cand := range result.Candidates {
		if cand.Kind != guide.SourceAIGenerated || cand.Content == nil || cand.FromCache {
			continue
		}
		err := h.Store.SaveAIGuide(ctx, store.AIGuideRecord{
			AppID:           req.AppID,
			AchievementName: req.AchievementName,
			Model:           h.Model,
			Guide:           *cand.Content,
		})
		if err != nil {
			c.Logger().Warnf("archiving ai guide for app %d: %v", req.AppID, err)
		}
		return
	}
}

// view bumps the view counter of an archived AI guide.
func (h *GuidesHandler) view(c echo.Context) error {
	var req ViewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.AppID <= 0 || strings.TrimSpace(req.AchievementName) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "app_id and achievement_name required")
	}
	if err := h.Store.IncrementGuideViews(c.Request().Context(), req.AppID, req.AchievementName); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuidesHandler) userPreferences(c echo.Context) (store.Preferences, bool) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" || h.Store == nil {
		return store.Preferences{}, false
	}
	prefs, found, err := h.Store.GetPreferences(c.Request().Context(), userID)
	if err != nil || !found {
		return store.Preferences{}, false
	}
	return prefs, true
}

func (h *GuidesHandler) sources(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Agg.Sources())
}

// preview fetches a guide page and returns a readable markdown rendering.
func (h *GuidesHandler) preview(c echo.Context) error {
	raw := c.QueryParam("url")
	if !helpers.ValidGuideURL(raw) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}

	client := h.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, raw, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; guidely/1.0)")
	resp, err := client.Do(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream returned "+resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	article, err := readability.FromReader(strings.NewReader(string(body)), parsed)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "page is not readable")
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(helpers.SanitizeHTMLRichText(article.Content))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	return c.JSON(http.StatusOK, PreviewResponse{
		URL:      raw,
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		Excerpt:  helpers.SanitizeSnippet(article.TextContent, 280),
		Markdown: strings.TrimSpace(markdown),
	})
}

func (h *GuidesHandler) addBookmark(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	var req BookmarkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !helpers.ValidGuideURL(req.URL) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	if req.AppID <= 0 || strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "app_id and title required")
	}
	canonical, err := helpers.CanonicalURL(req.URL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	b, err := h.Store.AddBookmark(c.Request().Context(), store.Bookmark{
		UserID:          userID,
		AppID:           req.AppID,
		AchievementName: req.AchievementName,
		Title:           req.Title,
		URL:             canonical,
		Kind:            req.Kind,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *GuidesHandler) listBookmarks(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	bookmarks, err := h.Store.ListBookmarks(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if bookmarks == nil {
		bookmarks = []store.Bookmark{}
	}
	return c.JSON(http.StatusOK, bookmarks)
}

func (h *GuidesHandler) deleteBookmark(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	err := h.Store.DeleteBookmark(c.Request().Context(), userID, c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "bookmark not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuidesHandler) getPreferences(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	prefs, found, err := h.Store.GetPreferences(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		prefs = store.Preferences{UserID: userID, MaxResults: 10}
	}
	return c.JSON(http.StatusOK, prefs)
}

func (h *GuidesHandler) putPreferences(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	var req PreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, s := range req.Sources {
		if !guide.SourceKind(s).Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown source "+s)
		}
	}
	if req.MaxResults < 1 || req.MaxResults > 50 {
		return echo.NewHTTPError(http.StatusBadRequest, "max_results must be between 1 and 50")
	}
	err := h.Store.UpsertPreferences(c.Request().Context(), store.Preferences{
		UserID:     userID,
		Sources:    req.Sources,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuidesHandler) rate(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	var req RatingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !helpers.ValidGuideURL(req.URL) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	canonical, err := helpers.CanonicalURL(req.URL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	if err := h.Store.RateGuide(c.Request().Context(), userID, canonical, req.Rating); err != nil {
		if strings.Contains(err.Error(), "out of range") {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuidesHandler) rating(c echo.Context) error {
	raw := c.QueryParam("url")
	canonical, err := helpers.CanonicalURL(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid url")
	}
	avg, count, err := h.Store.GuideRating(c.Request().Context(), canonical)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, RatingResponse{URL: canonical, Average: avg, Count: count})
}
