package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/sepehrdad/guidely/config"
	"github.com/sepehrdad/guidely/internal/cache"
	"github.com/sepehrdad/guidely/internal/guide"
	"github.com/sepehrdad/guidely/internal/runtime"
	"github.com/sepehrdad/guidely/internal/steam"
	"github.com/sepehrdad/guidely/internal/store"
	"github.com/sepehrdad/guidely/internal/telemetry"
	"github.com/sepehrdad/guidely/provider"
	"github.com/sepehrdad/guidely/tools/websearch"
)

// Run wires the full service and serves HTTP until the listener fails.
func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		baseLogger.Printf("migrations: %v", err)
	}
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}

	// Redis backs the caches when reachable; an in-process store with a
	// cron sweeper covers local runs.
	var cacheStore cache.Store
	redisClient, err := cache.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
		cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
	if err != nil {
		baseLogger.Printf("redis unavailable (%v), using in-process cache", err)
		mem := cache.NewMemory()
		sweeper, serr := cache.NewSweeper(mem, cfg.Guides.SweepSchedule)
		if serr != nil {
			return fmt.Errorf("parsing sweep schedule: %w", serr)
		}
		sweeper.Start()
		defer sweeper.Stop()
		cacheStore = mem
	} else {
		cacheStore = cache.NewRedis(redisClient, "guidely:")
	}

	tel := telemetry.New(prometheus.DefaultRegisterer)

	steamClient := steam.NewClient(steam.Options{
		APIKey:          cfg.Steam.APIKey,
		Store:           cacheStore,
		GamesTTL:        cfg.Steam.GamesTTL,
		AchievementsTTL: cfg.Steam.AchievementsTTL,
	})
	openID := steam.NewOpenID("", nil)

	generator, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), provider.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("building llm provider: %w", err)
	}
	searcher, err := websearch.NewSearcher(websearch.Provider(cfg.Search.Provider), cfg.Search.APIKey)
	if err != nil {
		return fmt.Errorf("building search provider: %w", err)
	}

	adapters := []guide.Adapter{
		guide.NewAIGuideAdapter(generator, cacheStore,
			guide.NewLimiter(cfg.LLM.PerMinute, cfg.LLM.PerDay), cfg.Guides.AIGuideTTL, tel),
		guide.NewWebSearchAdapter(searcher, cacheStore,
			guide.NewLimiter(cfg.Search.PerMinute, 0), cfg.Guides.ResultTTL, cfg.Search.MaxResults),
		guide.NewCommunityAdapter(nil, "",
			guide.NewLimiter(cfg.Guides.CommunityPerMinute, 0), cfg.Search.MaxResults),
		guide.VideoLinkAdapter{},
		guide.DiscussionLinkAdapter{},
		guide.WikiLinkAdapter{},
	}
	agg := guide.NewAggregator(adapters, cacheStore, guide.AggregatorOptions{
		ResultTTL: cfg.Guides.ResultTTL,
		Timeout:   cfg.Guides.FanoutTimeout,
		Telemetry: tel,
	})

	secret := []byte(cfg.Server.JWTSecret)
	auth := &AuthHandler{
		Store:   st,
		OpenID:  openID,
		Profile: steamClient,
		Secret:  secret,
		BaseURL: cfg.Server.BaseURL,
	}
	games := &GamesHandler{Store: st, Steam: steamClient}
	guides := &GuidesHandler{Store: st, Agg: agg, Names: steamClient, Model: cfg.LLM.Model}

	api := e.Group("/api")
	auth.Register(api.Group("/auth"))

	authed := runtime.EchoAuthMiddleware(secret)
	me := api.Group("/me", authed)
	me.GET("", auth.Me)

	games.Register(api.Group("/games", authed))
	guides.Register(api.Group("/guides", authed))
	guides.RegisterBookmarks(api.Group("/bookmarks", authed))
	guides.RegisterPreferences(api.Group("/preferences", authed))

	return e.Start(cfg.Server.Address)
}
