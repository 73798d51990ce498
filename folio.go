// Package folio is a small personal site: a project portfolio, a markdown
// blog and a guestbook, served with Echo.
//
// Content lives on disk (a projects JSON file and a directory of markdown
// posts) and is re-read on every request. Pages are rendered through the
// ViewFuncs struct, so a site can swap in its own templ components while
// folio keeps the handler logic, middleware and comment storage.
package folio

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/folio/comments"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/guard"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/views"
)

// ViewFuncs holds the components the handlers render. Any nil field falls
// back to the matching page from the views package.
type ViewFuncs struct {
	Home        func(projects []content.Project, posts []content.Post) templ.Component
	Projects    func(projects []content.Project, filter views.ProjectFilter) templ.Component
	Blog        func(posts []content.Post) templ.Component
	Post        func(post content.Post) templ.Component
	About       func() templ.Component
	Contact     func() templ.Component
	Comments    func(page views.CommentsPage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// DefaultViews returns the built-in pages bound to site.
func DefaultViews(site views.Site) ViewFuncs {
	return ViewFuncs{
		Home: func(projects []content.Project, posts []content.Post) templ.Component {
			return views.Home(site, projects, posts)
		},
		Projects: func(projects []content.Project, filter views.ProjectFilter) templ.Component {
			return views.Projects(site, projects, filter)
		},
		Blog:        func(posts []content.Post) templ.Component { return views.Blog(site, posts) },
		Post:        func(post content.Post) templ.Component { return views.Post(site, post) },
		About:       func() templ.Component { return views.About(site) },
		Contact:     func() templ.Component { return views.Contact(site) },
		Comments:    func(page views.CommentsPage) templ.Component { return views.Comments(site, page) },
		NotFound:    func() templ.Component { return views.NotFound(site) },
		ServerError: func() templ.Component { return views.ServerError(site) },
	}
}

func (v ViewFuncs) withDefaults(site views.Site) ViewFuncs {
	d := DefaultViews(site)
	if v.Home == nil {
		v.Home = d.Home
	}
	if v.Projects == nil {
		v.Projects = d.Projects
	}
	if v.Blog == nil {
		v.Blog = d.Blog
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.About == nil {
		v.About = d.About
	}
	if v.Contact == nil {
		v.Contact = d.Contact
	}
	if v.Comments == nil {
		v.Comments = d.Comments
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// App wires together the content store, the comment log, the submission
// guard, the handlers and the middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Logger   *log.Logger
	Content  *content.Store
	Comments comments.Log
	Guard    *guard.Guard
	Views    ViewFuncs

	limiter      *IPLimiter
	customRoutes []func(*App)
	staticDir    string
	initialized  bool
}

// New creates an App. Nothing touches the disk until Init or Start.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: cfg.StaticDir,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Site returns the values every page needs from the config.
func (a *App) Site() views.Site {
	return views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Author:      a.Config.Author,
	}
}

// Init validates the config, opens the comment log and registers middleware
// and routes. It is safe to call more than once; only the first call does
// anything. Tests call Init and drive a.Echo directly.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("folio: invalid config: %w", err)
	}

	if a.Logger == nil {
		a.Logger = newLogger(a.Config.LogLevel)
	}
	a.Echo.Logger = a.Logger

	if a.Content == nil {
		md := markdown.New(markdown.Options{})
		a.Content = content.NewStore(content.Config{
			ProjectsPath: a.Config.ProjectsPath,
			PostsDir:     a.Config.PostsDir,
		}, md, a.Logger)
	}

	if a.Comments == nil {
		cl, err := a.openCommentLog()
		if err != nil {
			return fmt.Errorf("folio: open comments: %w", err)
		}
		a.Comments = cl
	}

	if a.Guard == nil {
		var gopts []guard.Option
		if a.Config.CommentIPLimit > 0 {
			a.limiter = NewIPLimiter(a.Config.CommentIPLimit, a.Config.CommentIPWindow)
			gopts = append(gopts, guard.WithLimiter(a.limiter))
		}
		a.Guard = guard.New(a.Comments, guard.Config{
			NameMax:    a.Config.CommentNameMax,
			MessageMax: a.Config.CommentMessageMax,
			Interval:   a.Config.CommentInterval,
		}, gopts...)
	}

	a.Views = a.Views.withDefaults(a.Site())

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.initialized = true
	return nil
}

func (a *App) openCommentLog() (comments.Log, error) {
	switch a.Config.CommentsBackend {
	case BackendSQLite:
		return comments.NewSQLiteLog(a.Config.CommentsDatabasePath, a.Config.CommentRetention)
	default:
		return comments.NewFileLog(a.Config.CommentsPath, a.Config.CommentRetention, a.Logger)
	}
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Infof("folio: serving %s on %s", a.Config.Name, a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework stylesheet first, then the site's own assets.
	e.GET("/public/style.css", a.handleStylesheet)
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/projects", a.handleProjects)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/:slug", a.handlePost)
	e.GET("/about", a.handleAbout)
	e.GET("/contact", a.handleContact)

	e.GET("/comments", a.handleComments)
	e.POST("/comments", a.handleCommentSubmit)

	api := e.Group("/api")
	api.GET("/projects", a.handleAPIProjects)
	api.GET("/comments", a.handleAPIComments)
}

// Close releases the comment log and stops background work.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Comments != nil {
		return a.Comments.Close()
	}
	return nil
}

func newLogger(level string) *log.Logger {
	l := log.New("folio")
	l.SetHeader("${time_rfc3339} ${level} ${prefix}")
	switch strings.ToLower(level) {
	case "debug":
		l.SetLevel(log.DEBUG)
	case "warn":
		l.SetLevel(log.WARN)
	case "error":
		l.SetLevel(log.ERROR)
	case "off":
		l.SetLevel(log.OFF)
	default:
		l.SetLevel(log.INFO)
	}
	return l
}
