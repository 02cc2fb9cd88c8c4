// Package gitpress is a blog engine that keeps its posts as Markdown files in
// a GitHub repository. It serves the public pages, an RSS feed and a sitemap,
// and a password-gated admin for writing posts and uploading images.
//
// Pages are rendered through the ViewFuncs struct; DefaultViews supplies the
// built-in templates and any field can be replaced with a custom component.
package gitpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/eringen/gitpress/content"
	"github.com/eringen/gitpress/views"
)

// ViewFuncs holds the components the App calls when rendering pages.
type ViewFuncs struct {
	Home           func(site views.SiteConfig, posts []content.Post) templ.Component
	Post           func(site views.SiteConfig, post content.Post) templ.Component
	AdminLogin     func(site views.SiteConfig, showError bool, csrfToken string) templ.Component
	AdminDashboard func(site views.SiteConfig, posts []content.Post, message, csrfToken string) templ.Component
	AdminEditor    func(site views.SiteConfig, post content.Post, isNew bool, message, csrfToken string) templ.Component
	NotFound       func(site views.SiteConfig) templ.Component
	ServerError    func(site views.SiteConfig) templ.Component
}

// DefaultViews returns the built-in templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:           views.Home,
		Post:           views.Post,
		AdminLogin:     views.AdminLogin,
		AdminDashboard: views.AdminDashboard,
		AdminEditor:    views.AdminEditor,
		NotFound:       views.NotFound,
		ServerError:    views.ServerError,
	}
}

func (v *ViewFuncs) setDefaults() {
	d := DefaultViews()
	if v.Home == nil {
		v.Home = d.Home
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.AdminLogin == nil {
		v.AdminLogin = d.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = d.AdminDashboard
	}
	if v.AdminEditor == nil {
		v.AdminEditor = d.AdminEditor
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
}

// App is the central gitpress application. It wires together the store,
// cache, handlers, middleware, and templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  Store
	Cache  *PostCache
	Views  ViewFuncs

	log          zerolog.Logger
	registry     *prometheus.Registry
	metrics      *httpMetrics
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	initialized  bool
}

// New creates a new App with the given configuration and views. Nil view
// fields fall back to DefaultViews.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	views.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		log:       zerolog.Nop(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	return a
}

// Init builds the store, cache, middleware and routes. Start calls it; tests
// call it directly and drive a.Echo as an http.Handler.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("gitpress: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("gitpress: SessionSecret is required")
	}

	if a.Store == nil {
		if err := a.Config.Content.Validate(); err != nil {
			a.log.Warn().Err(err).Msg("content repository is not configured, pages will be empty")
		}
		a.Store = content.New(a.Config.Content,
			content.WithLogger(a.log.With().Str("component", "content").Logger()),
			content.WithMetrics(content.NewMetrics(a.registry)),
		)
	}

	a.Cache = NewPostCache(a.Store, a.Config.Revalidate)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)
	a.metrics = newHTTPMetrics(a.registry)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.initialized = true
	return nil
}

// Start initializes the App and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.log.Info().Str("addr", a.Config.Addr).Str("repo", a.Config.Content.Owner+"/"+a.Config.Content.Repo).Msg("listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases background workers.
func (a *App) Shutdown(ctx context.Context) error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/metrics", a.handleMetrics())
	e.GET("/healthz", handleHealth)
	e.GET("/", a.handleHome)
	e.GET("/posts/:slug/", a.handlePost)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)

	admin := e.Group("/admin", requireAdmin)
	admin.GET("/new/", a.handleAdminNew)
	admin.GET("/edit/:slug/", a.handleAdminEdit)
	admin.POST("/save/", a.handleAdminSave)
	admin.POST("/delete/:slug/", a.handleAdminDelete)
	admin.POST("/images/", a.handleImageUpload)
}

// site is the subset of the configuration the templates see.
func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}
