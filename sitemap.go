package folio

import (
	"encoding/xml"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// sitemapPages are the fixed routes listed ahead of the posts.
var sitemapPages = []string{"projects", "blog", "comments", "about", "contact"}

func (a *App) renderSitemap(c echo.Context, posts []content.Post) error {
	base := a.Config.URL
	urls := []sitemapURL{{Loc: views.BuildURL(base)}}
	for _, p := range sitemapPages {
		urls = append(urls, sitemapURL{Loc: views.BuildURL(base, p)})
	}
	for _, p := range posts {
		u := sitemapURL{Loc: views.BuildURL(base, "blog", p.Slug)}
		if p.HasDate() {
			u.LastMod = p.Date.Format(time.DateOnly)
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	return writeXML(c, "application/xml; charset=utf-8", sitemap)
}
