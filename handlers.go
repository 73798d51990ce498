package folio

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/comments"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/views"
)

// failOpen applies the read policy shared by every page: a malformed data
// file is logged and served as an empty list, anything else is returned so
// the error handler can answer with a 500.
func failOpen(c echo.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if content.IsMalformed(err) {
		c.Logger().Warnf("%s unavailable, serving empty list: %v", what, err)
		return nil
	}
	return err
}

func (a *App) loadProjects(c echo.Context) ([]content.Project, error) {
	projects, err := a.Content.Projects()
	if err := failOpen(c, "projects", err); err != nil {
		return nil, err
	}
	return projects, nil
}

func (a *App) loadPosts(c echo.Context) ([]content.Post, error) {
	posts, err := a.Content.Posts()
	if err := failOpen(c, "posts", err); err != nil {
		return nil, err
	}
	return posts, nil
}

func (a *App) loadComments(c echo.Context) ([]comments.Comment, error) {
	items, err := a.Comments.Load()
	if err := failOpen(c, "comments", err); err != nil {
		return nil, err
	}
	return comments.Latest(items, a.Config.CommentDisplayLimit), nil
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func (a *App) handleHome(c echo.Context) error {
	projects, err := a.loadProjects(c)
	if err != nil {
		return err
	}
	posts, err := a.loadPosts(c)
	if err != nil {
		return err
	}
	n := a.Config.HomeItems
	return Render(c, a.Views.Home(firstN(projects, n), firstN(posts, n)))
}

// handleProjects lists projects, narrowed to one tag by ?tag=.
func (a *App) handleProjects(c echo.Context) error {
	projects, err := a.loadProjects(c)
	if err != nil {
		return err
	}
	tag := content.NormalizeTag(c.QueryParam("tag"))
	filter := views.ProjectFilter{Active: tag, Tags: content.ProjectTags(projects)}
	return Render(c, a.Views.Projects(content.FilterProjects(projects, tag), filter))
}

func (a *App) handleBlog(c echo.Context) error {
	posts, err := a.loadPosts(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Blog(posts))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Content.Post(c.Param("slug"))
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	return Render(c, a.Views.Post(post))
}

func (a *App) handleAbout(c echo.Context) error {
	return Render(c, a.Views.About())
}

func (a *App) handleContact(c echo.Context) error {
	return Render(c, a.Views.Contact())
}

func (a *App) handleAPIProjects(c echo.Context) error {
	projects, err := a.loadProjects(c)
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []content.Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

func (a *App) handleAPIComments(c echo.Context) error {
	items, err := a.loadComments(c)
	if err != nil {
		return err
	}
	if items == nil {
		items = []comments.Comment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.loadPosts(c)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.loadPosts(c)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleStylesheet(c echo.Context) error {
	data, err := fs.ReadFile(EmbeddedAssets, "embedded/style.css")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", data)
}

// handleRobots serves the site's robots.txt when it has one and a
// permissive default pointing at the sitemap otherwise.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nSitemap: "+views.BuildURL(a.Config.URL, "sitemap.xml")+"\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error on %s: %v", c.Request().URL.Path, err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
