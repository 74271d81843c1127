package server

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sepehrdad/guidely/internal/runtime"
	"github.com/sepehrdad/guidely/internal/steam"
	"github.com/sepehrdad/guidely/internal/store"
)

type openIDProvider interface {
	LoginURL(realm, returnTo string) string
	Verify(ctx context.Context, params url.Values) (string, error)
}

type profileFetcher interface {
	Player(ctx context.Context, steamID string) (*steam.Player, error)
}

// AuthHandler runs the Steam OpenID login flow and session issuance.
type AuthHandler struct {
	Store   *store.Store
	OpenID  openIDProvider
	Profile profileFetcher
	Secret  []byte
	BaseURL string
}

func (a *AuthHandler) Register(g *echo.Group) {
	g.GET("/steam/login", a.login)
	g.GET("/steam/callback", a.callback)
	g.POST("/logout", a.logout)
}

// login redirects the browser into the Steam OpenID flow.
func (a *AuthHandler) login(c echo.Context) error {
	returnTo := a.BaseURL + "/api/auth/steam/callback"
	return c.Redirect(http.StatusFound, a.OpenID.LoginURL(a.BaseURL, returnTo))
}

// callback validates the OpenID assertion, provisions the account and
// issues the session cookie.
func (a *AuthHandler) callback(c echo.Context) error {
	ctx := c.Request().Context()
	steamID, err := a.OpenID.Verify(ctx, c.QueryParams())
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "steam login rejected")
	}

	player, err := a.Profile.Player(ctx, steamID)
	if err != nil {
		// Profile details are cosmetic; the verified id is what matters.
		player = &steam.Player{SteamID: steamID}
	}
	user, err := a.Store.UpsertUser(ctx, steamID, player.PersonaName, player.Avatar, player.ProfileURL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	signed, err := runtime.SignJWT(user.ID, a.Secret, 24*time.Hour)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = signed
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	if os.Getenv("GUIDELY_ENV") == "prod" {
		cookie.Secure = true
	}
	c.SetCookie(cookie)
	c.Response().Header().Set("Authorization", "Bearer "+signed)
	return c.JSON(http.StatusOK, map[string]string{"token": signed})
}

func (a *AuthHandler) logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.NoContent(http.StatusOK)
}

// Me returns the authenticated user's profile.
func (a *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	user, found, err := a.Store.GetUser(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"id":           user.ID,
		"steam_id":     user.SteamID,
		"persona_name": user.PersonaName,
		"avatar":       user.Avatar,
		"profile_url":  user.ProfileURL,
	})
}
