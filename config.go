package folio

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"

	"github.com/eringen/folio/comments"
)

// Comment storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// SiteConfig holds all configuration for a folio site. It is built once at
// startup and handed to constructors; nothing reads the environment later.
type SiteConfig struct {
	Name        string `mapstructure:"name"`        // Site name (default "Portfolio")
	URL         string `mapstructure:"url"`         // Canonical URL (default "http://localhost:5000")
	Description string `mapstructure:"description"` // Site description for RSS and meta tags
	Author      string `mapstructure:"author"`      // Author name for JSON-LD

	Addr      string `mapstructure:"addr"`       // Listen address (default ":5000")
	StaticDir string `mapstructure:"static_dir"` // User static assets (default "public")
	LogLevel  string `mapstructure:"log_level"`  // debug, info, warn, error, off (default "info")

	ProjectsPath string `mapstructure:"projects_path"` // default "data/projects.json"
	PostsDir     string `mapstructure:"posts_dir"`     // default "posts"
	HomeItems    int    `mapstructure:"home_items"`    // projects and posts on the home page (default 3)

	CommentsBackend      string        `mapstructure:"comments_backend"`       // "file" (default) or "sqlite"
	CommentsPath         string        `mapstructure:"comments_path"`          // default "data/comments.json"
	CommentsDatabasePath string        `mapstructure:"comments_database_path"` // default "data/comments.db"
	CommentRetention     int           `mapstructure:"comment_retention"`      // newest N kept on disk; 0 keeps all
	CommentDisplayLimit  int           `mapstructure:"comment_display_limit"`  // default 200
	CommentNameMax       int           `mapstructure:"comment_name_max"`       // default 60
	CommentMessageMax    int           `mapstructure:"comment_message_max"`    // default 1000
	CommentInterval      time.Duration `mapstructure:"comment_interval"`       // default 20s
	CommentCookieMaxAge  time.Duration `mapstructure:"comment_cookie_max_age"` // default 1h
	CommentIPLimit       int           `mapstructure:"comment_ip_limit"`       // accepted comments per IP per window; 0 disables
	CommentIPWindow      time.Duration `mapstructure:"comment_ip_window"`      // default 1h

	SessionSecret string `mapstructure:"session_secret"` // Required: signs the flash-message cookie
	CookieSecure  bool   `mapstructure:"cookie_secure"`  // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:5000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ProjectsPath == "" {
		c.ProjectsPath = "data/projects.json"
	}
	if c.PostsDir == "" {
		c.PostsDir = "posts"
	}
	if c.HomeItems <= 0 {
		c.HomeItems = 3
	}
	if c.CommentsBackend == "" {
		c.CommentsBackend = BackendFile
	}
	if c.CommentsPath == "" {
		c.CommentsPath = "data/comments.json"
	}
	if c.CommentsDatabasePath == "" {
		c.CommentsDatabasePath = "data/comments.db"
	}
	if c.CommentDisplayLimit <= 0 {
		c.CommentDisplayLimit = comments.DisplayLimit
	}
	if c.CommentNameMax <= 0 {
		c.CommentNameMax = 60
	}
	if c.CommentMessageMax <= 0 {
		c.CommentMessageMax = 1000
	}
	if c.CommentInterval <= 0 {
		c.CommentInterval = 20 * time.Second
	}
	if c.CommentCookieMaxAge <= 0 {
		c.CommentCookieMaxAge = time.Hour
	}
	if c.CommentIPWindow <= 0 {
		c.CommentIPWindow = time.Hour
	}
}

// Validate reports missing or contradictory settings.
func (c SiteConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SessionSecret, validation.Required.Error("is required (FOLIO_SESSION_SECRET)")),
		validation.Field(&c.CommentsBackend, validation.In(BackendFile, BackendSQLite)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error", "off")),
		validation.Field(&c.CommentRetention, validation.Min(0)),
		validation.Field(&c.CommentIPLimit, validation.Min(0)),
	)
}

// LoadConfig reads settings from an optional YAML/TOML/JSON file at path and
// from FOLIO_* environment variables, which take precedence. Unset values
// get the defaults documented on SiteConfig.
func LoadConfig(path string) (SiteConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	var defaults SiteConfig
	defaults.setDefaults()
	for key, val := range map[string]any{
		"name":                   defaults.Name,
		"url":                    defaults.URL,
		"description":            "",
		"author":                 "",
		"addr":                   defaults.Addr,
		"static_dir":             defaults.StaticDir,
		"log_level":              defaults.LogLevel,
		"projects_path":          defaults.ProjectsPath,
		"posts_dir":              defaults.PostsDir,
		"home_items":             defaults.HomeItems,
		"comments_backend":       defaults.CommentsBackend,
		"comments_path":          defaults.CommentsPath,
		"comments_database_path": defaults.CommentsDatabasePath,
		"comment_retention":      0,
		"comment_display_limit":  defaults.CommentDisplayLimit,
		"comment_name_max":       defaults.CommentNameMax,
		"comment_message_max":    defaults.CommentMessageMax,
		"comment_interval":       defaults.CommentInterval,
		"comment_cookie_max_age": defaults.CommentCookieMaxAge,
		"comment_ip_limit":       0,
		"comment_ip_window":      defaults.CommentIPWindow,
		"session_secret":         "",
		"cookie_secure":          false,
	} {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return SiteConfig{}, fmt.Errorf("folio: read config %s: %w", path, err)
		}
	}

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("folio: decode config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithViews replaces some or all of the built-in pages.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithCustomRoutes registers a function that adds custom routes to the Echo instance.
// The function is called after all built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithCommentLog uses l instead of opening the configured backend.
func WithCommentLog(l comments.Log) Option {
	return func(a *App) {
		a.Comments = l
	}
}

// WithLogger replaces the default gommon logger.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}
