// Package pubtree is a small publishing engine built with Go, Echo, and templ.
// Content is stored as document trees: plain text submitted through the
// create-post API is parsed with textdoc, persisted as Lexical JSON, rendered
// with richtext and summarized (excerpts, reading time) with summary.
//
// Users provide their own templ templates via the ViewFuncs struct,
// and pubtree handles all the handler logic, middleware, and database operations.
package pubtree

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages.
type ViewFuncs struct {
	Home        func(data HomeData) templ.Component
	Post        func(data PostData) templ.Component
	Category    func(data CategoryData) templ.Component
	Page        func(data PageData) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central pubtree application. It wires together the store,
// cache, handlers, middleware, and user-provided templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Cache  *PostCache
	Views  ViewFuncs
	Logger zerolog.Logger

	authLimiter  *AuthLimiter
	httpClient   *http.Client
	location     *time.Location
	customRoutes []func(*App)
	ownStore     bool
}

// New creates a new pubtree App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  views,
		Logger: log.Logger,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: a.Config.ImageFetchTimeout}
	}
	return a
}

// Init opens the store and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("pubtree: init store: %w", err)
		}
		a.Store = store
		a.ownStore = true
	}

	loc, err := time.LoadLocation(a.Config.TimeZone)
	if err != nil {
		a.Logger.Warn().Err(err).Str("zone", a.Config.TimeZone).Msg("unknown time zone, using UTC")
		loc = time.UTC
	}
	a.location = loc

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.authLimiter = NewAuthLimiter(a.Config.FailedAuthLimit, a.Config.FailedAuthWindow)

	if a.Config.APIKey == "" {
		a.Logger.Warn().Msg("API_KEY is not set, /api/create-post will reject all requests")
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info().Str("addr", a.Config.Addr).Str("url", a.Config.URL).Msg("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	api := e.Group("/api", a.bodyLimit())
	api.GET("/create-post", handleCreatePostMethod)
	api.POST("/create-post", a.handleCreatePost, a.requireAPIKey)

	e.GET("/", a.handleHome)
	e.GET("/page/:n/", a.handlePage)
	e.GET("/:slug/", a.handleSlug)
}

// Close cleans up resources. Call this when the app is shutting down.
// A store passed in with WithStore is left open.
func (a *App) Close() error {
	if a.authLimiter != nil {
		a.authLimiter.Stop()
	}
	if a.Store != nil && a.ownStore {
		return a.Store.Close()
	}
	return nil
}

// inZone converts t to the site's display zone.
func (a *App) inZone(t time.Time) time.Time {
	if a.location == nil {
		return t
	}
	return t.In(a.location)
}
