// Package content loads the site's projects file and markdown posts from disk
// and turns them into display-ready records. Nothing is cached: every call
// re-reads the files.
package content

import (
	"github.com/eringen/folio/markdown"
)

// Logger receives warnings about content that loaded in a degraded state.
// *log.Logger from labstack/gommon satisfies it.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// Config locates the content on disk.
type Config struct {
	ProjectsPath string // JSON array of project objects
	PostsDir     string // one markdown file per post
}

// Store reads projects and posts. It owns no mutable state.
type Store struct {
	cfg    Config
	md     *markdown.Renderer
	logger Logger
}

// NewStore creates a Store. A nil renderer gets the default goldmark setup.
func NewStore(cfg Config, md *markdown.Renderer, logger Logger) *Store {
	if md == nil {
		md = markdown.New(markdown.Options{})
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Store{cfg: cfg, md: md, logger: logger}
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{}) {}
