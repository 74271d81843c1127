package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/guidely/internal/steam"
	"github.com/sepehrdad/guidely/internal/store"
)

type libraryFetcher interface {
	OwnedGames(ctx context.Context, steamID string) ([]steam.Game, bool, error)
	Achievements(ctx context.Context, steamID string, appID int64) ([]steam.Achievement, bool, error)
}

// GamesHandler serves the authenticated user's Steam library.
type GamesHandler struct {
	Store *store.Store
	Steam libraryFetcher
}

func (h *GamesHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:app_id/achievements", h.achievements)
}

func (h *GamesHandler) steamID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	user, found, err := h.Store.GetUser(c.Request().Context(), userID)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	return user.SteamID, nil
}

func (h *GamesHandler) list(c echo.Context) error {
	steamID, err := h.steamID(c)
	if err != nil {
		return err
	}
	games, fromCache, err := h.Steam.OwnedGames(c.Request().Context(), steamID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	type gameView struct {
		AppID           int64  `json:"app_id"`
		Name            string `json:"name"`
		PlaytimeMinutes int    `json:"playtime_minutes"`
		IconURL         string `json:"icon_url,omitempty"`
		HasStats        bool   `json:"has_stats"`
	}
	out := make([]gameView, 0, len(games))
	for _, g := range games {
		out = append(out, gameView{
			AppID:           g.AppID,
			Name:            g.Name,
			PlaytimeMinutes: g.PlaytimeMinutes,
			IconURL:         g.IconURL(),
			HasStats:        g.HasStats,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"games":      out,
		"from_cache": fromCache,
	})
}

func (h *GamesHandler) achievements(c echo.Context) error {
	steamID, err := h.steamID(c)
	if err != nil {
		return err
	}
	appID, err := strconv.ParseInt(c.Param("app_id"), 10, 64)
	if err != nil || appID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid app id")
	}
	achievements, fromCache, err := h.Steam.Achievements(c.Request().Context(), steamID, appID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"achievements": achievements,
		"from_cache":   fromCache,
	})
}
