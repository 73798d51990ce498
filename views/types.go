package views

import (
	"github.com/eringen/folio/comments"
	"github.com/eringen/folio/content"
)

// Site holds site-wide settings passed to every page so nothing is hardcoded.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// CommentsPage is the guestbook view model.
type CommentsPage struct {
	Comments   []comments.Comment
	Flashes    []string
	CSRFToken  string
	NameMax    int
	MessageMax int
}

// ProjectFilter drives the tag bar on the projects page. Active is "" when
// every project is shown.
type ProjectFilter struct {
	Active string
	Tags   []string
}

// page is the data handed to every template; each page reads the fields it needs.
type page struct {
	Site     Site
	Meta     PageMeta
	JSONLD   string
	Projects []content.Project
	Filter   ProjectFilter
	Posts    []content.Post
	Post     content.Post
	Comments CommentsPage
}
