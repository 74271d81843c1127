package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sepehrdad/guidely/internal/cache"
)

const defaultAPIBaseURL = "https://api.steampowered.com"

// Player is a Steam profile summary.
type Player struct {
	SteamID     string `json:"steam_id"`
	PersonaName string `json:"persona_name"`
	Avatar      string `json:"avatar"`
	ProfileURL  string `json:"profile_url"`
}

// Game is one entry in a player's library.
type Game struct {
	AppID           int64  `json:"app_id"`
	Name            string `json:"name"`
	PlaytimeMinutes int    `json:"playtime_minutes"`
	IconHash        string `json:"icon_hash,omitempty"`
	HasStats        bool   `json:"has_stats"`
}

// IconURL builds the CDN link for the game's icon, or "" when Steam did
// not provide one.
func (g Game) IconURL() string {
	if g.IconHash == "" {
		return ""
	}
	return fmt.Sprintf("https://media.steampowered.com/steamcommunity/public/images/apps/%d/%s.jpg", g.AppID, g.IconHash)
}

// Achievement is one achievement of a game, merged from the game schema,
// the player's unlock state and the global rarity statistics.
type Achievement struct {
	APIName       string   `json:"api_name"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Icon          string   `json:"icon,omitempty"`
	IconGray      string   `json:"icon_gray,omitempty"`
	Achieved      bool     `json:"achieved"`
	UnlockTime    int64    `json:"unlock_time,omitempty"`
	GlobalPercent *float64 `json:"global_percent,omitempty"`
}

// Client talks to the Steam Web API. Library and achievement reads are
// cached because Steam throttles aggressively and the data moves slowly.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	store      cache.Store
	gamesTTL   time.Duration
	achTTL     time.Duration
	logger     *log.Logger
}

// Options configures a Client. BaseURL and HTTPClient exist for tests;
// zero TTLs fall back to the defaults.
type Options struct {
	APIKey          string
	BaseURL         string
	HTTPClient      *http.Client
	Store           cache.Store
	GamesTTL        time.Duration
	AchievementsTTL time.Duration
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultAPIBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.GamesTTL <= 0 {
		opts.GamesTTL = time.Hour
	}
	if opts.AchievementsTTL <= 0 {
		opts.AchievementsTTL = 30 * time.Minute
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		gamesTTL:   opts.GamesTTL,
		achTTL:     opts.AchievementsTTL,
		logger:     log.New(log.Writer(), "[STEAM] ", log.LstdFlags),
	}
}

// Player fetches the profile summary for one Steam id.
func (c *Client) Player(ctx context.Context, steamID string) (*Player, error) {
	var payload struct {
		Response struct {
			Players []struct {
				SteamID     string `json:"steamid"`
				PersonaName string `json:"personaname"`
				AvatarFull  string `json:"avatarfull"`
				ProfileURL  string `json:"profileurl"`
			} `json:"players"`
		} `json:"response"`
	}
	params := url.Values{"steamids": {steamID}}
	if err := c.get(ctx, "/ISteamUser/GetPlayerSummaries/v2/", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.Response.Players) == 0 {
		return nil, fmt.Errorf("steam profile %s not found", steamID)
	}
	p := payload.Response.Players[0]
	return &Player{
		SteamID:     p.SteamID,
		PersonaName: p.PersonaName,
		Avatar:      p.AvatarFull,
		ProfileURL:  p.ProfileURL,
	}, nil
}

// OwnedGames fetches the player's library sorted by playtime descending.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]Game, bool, error) {
	key := "steam:games:" + steamID
	if c.store != nil {
		var cached []Game
		hit, err := c.store.Get(ctx, key, &cached)
		if err != nil {
			c.logger.Printf("cache read failed for %s: %v", key, err)
		} else if hit {
			return cached, true, nil
		}
	}

	var payload struct {
		Response struct {
			Games []struct {
				AppID           int64  `json:"appid"`
				Name            string `json:"name"`
				PlaytimeForever int    `json:"playtime_forever"`
				ImgIconURL      string `json:"img_icon_url"`
				HasStats        bool   `json:"has_community_visible_stats"`
			} `json:"games"`
		} `json:"response"`
	}
	params := url.Values{
		"steamid":                   {steamID},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
	}
	if err := c.get(ctx, "/IPlayerService/GetOwnedGames/v1/", params, &payload); err != nil {
		return nil, false, err
	}

	games := make([]Game, 0, len(payload.Response.Games))
	for _, g := range payload.Response.Games {
		games = append(games, Game{
			AppID:           g.AppID,
			Name:            g.Name,
			PlaytimeMinutes: g.PlaytimeForever,
			IconHash:        g.ImgIconURL,
			HasStats:        g.HasStats,
		})
	}
	sort.SliceStable(games, func(i, j int) bool { return games[i].PlaytimeMinutes > games[j].PlaytimeMinutes })

	if c.store != nil {
		if err := c.store.Set(ctx, key, games, c.gamesTTL); err != nil {
			c.logger.Printf("cache write failed for %s: %v", key, err)
		}
	}
	return games, false, nil
}

// GameName resolves a display name for an app id from the game schema.
func (c *Client) GameName(ctx context.Context, appID int64) (string, error) {
	schema, err := c.schema(ctx, appID)
	if err != nil {
		return "", err
	}
	return schema.name, nil
}

// Achievements merges the game schema, the player's unlock state and the
// global unlock percentages into one list, rarest first among the schema
// order.
func (c *Client) Achievements(ctx context.Context, steamID string, appID int64) ([]Achievement, bool, error) {
	key := fmt.Sprintf("steam:achievements:%s:%d", steamID, appID)
	if c.store != nil {
		var cached []Achievement
		hit, err := c.store.Get(ctx, key, &cached)
		if err != nil {
			c.logger.Printf("cache read failed for %s: %v", key, err)
		} else if hit {
			return cached, true, nil
		}
	}

	schema, err := c.schema(ctx, appID)
	if err != nil {
		return nil, false, err
	}
	unlocks, err := c.playerAchievements(ctx, steamID, appID)
	if err != nil {
		return nil, false, err
	}
	percents, err := c.globalPercentages(ctx, appID)
	if err != nil {
		// Rarity is decoration; the merged list is still useful without it.
		c.logger.Printf("global percentages for app %d unavailable: %v", appID, err)
		percents = nil
	}

	achievements := make([]Achievement, 0, len(schema.achievements))
	for _, a := range schema.achievements {
		merged := Achievement{
			APIName:     a.APIName,
			Name:        a.DisplayName,
			Description: a.Description,
			Icon:        a.Icon,
			IconGray:    a.IconGray,
		}
		if u, ok := unlocks[a.APIName]; ok {
			merged.Achieved = u.achieved
			merged.UnlockTime = u.unlockTime
		}
		if p, ok := percents[a.APIName]; ok {
			pct := p
			merged.GlobalPercent = &pct
		}
		achievements = append(achievements, merged)
	}

	if c.store != nil {
		if err := c.store.Set(ctx, key, achievements, c.achTTL); err != nil {
			c.logger.Printf("cache write failed for %s: %v", key, err)
		}
	}
	return achievements, false, nil
}

type schemaAchievement struct {
	APIName     string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconGray    string `json:"icongray"`
}

type gameSchema struct {
	name         string
	achievements []schemaAchievement
}

func (c *Client) schema(ctx context.Context, appID int64) (*gameSchema, error) {
	var payload struct {
		Game struct {
			GameName           string `json:"gameName"`
			AvailableGameStats struct {
				Achievements []schemaAchievement `json:"achievements"`
			} `json:"availableGameStats"`
		} `json:"game"`
	}
	params := url.Values{"appid": {strconv.FormatInt(appID, 10)}, "l": {"english"}}
	if err := c.get(ctx, "/ISteamUserStats/GetSchemaForGame/v2/", params, &payload); err != nil {
		return nil, err
	}
	return &gameSchema{
		name:         payload.Game.GameName,
		achievements: payload.Game.AvailableGameStats.Achievements,
	}, nil
}

type unlockState struct {
	achieved   bool
	unlockTime int64
}

func (c *Client) playerAchievements(ctx context.Context, steamID string, appID int64) (map[string]unlockState, error) {
	var payload struct {
		PlayerStats struct {
			Success      bool   `json:"success"`
			Error        string `json:"error"`
			Achievements []struct {
				APIName    string `json:"apiname"`
				Achieved   int    `json:"achieved"`
				UnlockTime int64  `json:"unlocktime"`
			} `json:"achievements"`
		} `json:"playerstats"`
	}
	params := url.Values{
		"steamid": {steamID},
		"appid":   {strconv.FormatInt(appID, 10)},
		"l":       {"english"},
	}
	if err := c.get(ctx, "/ISteamUserStats/GetPlayerAchievements/v1/", params, &payload); err != nil {
		return nil, err
	}
	if !payload.PlayerStats.Success && payload.PlayerStats.Error != "" {
		return nil, fmt.Errorf("steam achievements for app %d: %s", appID, payload.PlayerStats.Error)
	}
	unlocks := make(map[string]unlockState, len(payload.PlayerStats.Achievements))
	for _, a := range payload.PlayerStats.Achievements {
		unlocks[a.APIName] = unlockState{achieved: a.Achieved == 1, unlockTime: a.UnlockTime}
	}
	return unlocks, nil
}

func (c *Client) globalPercentages(ctx context.Context, appID int64) (map[string]float64, error) {
	var payload struct {
		AchievementPercentages struct {
			Achievements []struct {
				Name    string  `json:"name"`
				Percent float64 `json:"percent"`
			} `json:"achievements"`
		} `json:"achievementpercentages"`
	}
	params := url.Values{"gameid": {strconv.FormatInt(appID, 10)}}
	if err := c.get(ctx, "/ISteamUserStats/GetGlobalAchievementPercentagesForApp/v2/", params, &payload); err != nil {
		return nil, err
	}
	percents := make(map[string]float64, len(payload.AchievementPercentages.Achievements))
	for _, a := range payload.AchievementPercentages.Achievements {
		percents[a.Name] = a.Percent
	}
	return percents, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building steam request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling steam api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("steam api %s returned status %d: %s", path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding steam response: %w", err)
	}
	return nil
}
