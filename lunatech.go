// Package lunatech serves the Lunatech marketing site and its blog.
//
// The App wires the SQLite store, the content repository, the post cache,
// the cookie session store and the admin editor onto an Echo server. Page
// markup comes from the ViewFuncs the caller passes in.
package lunatech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Malmeu/LunatechWeb-main/markdown"
	"github.com/Malmeu/LunatechWeb-main/storage"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// App is the central application. It owns every long-lived service.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Repo     *Repository
	Cache    *PostCache
	Sessions *SessionStore
	Views    ViewFuncs
	Log      zerolog.Logger

	objects      ObjectStore
	registry     *prometheus.Registry
	loginLimiter *LoginLimiter
	editors      *editorRegistry
	customRoutes []func(*App)
	ready        bool
}

// New creates an App. Nothing is opened until Init or Start.
func New(cfg SiteConfig, views ViewFuncs, log zerolog.Logger, opts ...Option) *App {
	cfg.setDefaults()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Views:  views,
		Log:    log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init opens the database, builds the services, seeds the admin account and
// registers middleware and routes. Start calls it; tests call it directly.
func (a *App) Init(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("lunatech: %w", err)
	}

	store, err := NewStore(a.Config.DatabasePath, a.Log)
	if err != nil {
		return fmt.Errorf("lunatech: init store: %w", err)
	}
	a.Store = store

	if a.objects == nil {
		objects, err := newObjectStore(ctx, a.Config.StorageConfig)
		if err != nil {
			return fmt.Errorf("lunatech: init storage: %w", err)
		}
		a.objects = objects
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.Repo = NewRepository(store, markdown.New(), a.objects, a.Log, a.registry)
	a.Cache = NewPostCache(a.Repo, a.Config.PostCacheTTL)
	a.Repo.OnWrite(a.Cache.Invalidate)

	a.Sessions = NewSessionStore(NewPasswordAuthenticator(store), a.Config.SessionTTL, a.Log)
	a.editors = newEditorRegistry(a.Repo)
	a.Sessions.OnChange(a.editors.handle)

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if err := a.seedAdmin(ctx); err != nil {
		return fmt.Errorf("lunatech: %w", err)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start initializes the App and serves until ctx is cancelled, then shuts
// the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		a.Log.Info().Str("addr", a.Config.Addr).Str("version", Version).Msg("listening")
		if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.Log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

func newObjectStore(ctx context.Context, cfg StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.PublicURL,
		})
	default:
		return storage.NewLocal(cfg.UploadDir, cfg.PublicURL)
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	if local, ok := a.objects.(*storage.Local); ok && strings.HasPrefix(a.Config.PublicURL, "/") {
		e.Static(a.Config.PublicURL, local.Dir())
	}
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", a.metricsHandler())

	// Public routes
	e.GET("/", a.handleLanding)
	e.GET("/blog", a.handleBlogList)
	e.GET("/blog/:slug", a.handlePost)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Sign-in
	e.GET("/admin/login", a.handleLoginForm)
	e.POST("/admin/login", a.handleLogin)
	e.POST("/admin/logout", a.handleLogout)

	// Editor
	admin := e.Group("/admin/blog", RequireSession(a.Sessions, "/admin/login"))
	admin.GET("", a.handleEditor)
	admin.GET("/new", a.handleEditorNew)
	admin.GET("/edit/:id", a.handleEditorEdit)
	admin.POST("/save", a.handleEditorSave)
	admin.POST("/delete/:id", a.handleEditorDelete)
	admin.POST("/image", a.handleEditorImage,
		middleware.BodyLimit("12M"),
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(1), Burst: 10, ExpiresIn: 5 * time.Minute},
		)),
	)
	admin.POST("/image/remove", a.handleEditorImageRemove)
	e.GET("/admin", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/admin/blog")
	})
}

// Close releases the database and stops background work.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
