// Package views holds the default page components. Each page is an embedded
// html/template file rendered inside layout.html and exposed as a
// templ.Component so handlers can swap in their own templ views.
package views

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"

	"github.com/eringen/folio/content"
)

//go:embed templates/*.html
var files embed.FS

var pages = map[string]*template.Template{}

func init() {
	layout := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html"))
	for _, name := range []string{
		"index.html", "projects.html", "blog.html", "post.html",
		"about.html", "contact.html", "comments.html", "404.html", "500.html",
	} {
		t := template.Must(layout.Clone())
		pages[name] = template.Must(t.ParseFS(files, "templates/"+name))
	}
}

func render(name string, p page) templ.Component {
	if p.Meta.OGType == "" {
		p.Meta.OGType = "website"
	}
	if p.Meta.Description == "" {
		p.Meta.Description = p.Site.Description
	}
	if p.JSONLD == "" {
		p.JSONLD = WebsiteJsonLD(p.Site)
	}
	return templ.FromGoHTML(pages[name], p)
}

// Home shows the newest projects and posts.
func Home(site Site, projects []content.Project, posts []content.Post) templ.Component {
	return render("index.html", page{
		Site:     site,
		Meta:     PageMeta{Title: site.Name, URL: BuildURL(site.URL)},
		Projects: projects,
		Posts:    posts,
	})
}

// Projects lists the projects matching filter.Active under a tag bar.
func Projects(site Site, projects []content.Project, filter ProjectFilter) templ.Component {
	title := "Projects · " + site.Name
	if filter.Active != "" {
		title = "Projects tagged " + filter.Active + " · " + site.Name
	}
	return render("projects.html", page{
		Site:     site,
		Meta:     PageMeta{Title: title, URL: BuildURL(site.URL, "projects")},
		Projects: projects,
		Filter:   filter,
	})
}

// Blog lists every post.
func Blog(site Site, posts []content.Post) templ.Component {
	return render("blog.html", page{
		Site:  site,
		Meta:  PageMeta{Title: "Blog · " + site.Name, URL: BuildURL(site.URL, "blog")},
		Posts: posts,
	})
}

// Post renders a single post.
func Post(site Site, post content.Post) templ.Component {
	return render("post.html", page{
		Site: site,
		Meta: PageMeta{
			Title:       post.Title + " · " + site.Name,
			Description: post.Excerpt,
			URL:         BuildURL(site.URL, "blog", post.Slug),
			OGType:      "article",
		},
		JSONLD: BlogPostingJsonLD(site, post),
		Post:   post,
	})
}

// About is a static page.
func About(site Site) templ.Component {
	return render("about.html", page{
		Site: site,
		Meta: PageMeta{Title: "About · " + site.Name, URL: BuildURL(site.URL, "about")},
	})
}

// Contact is a static page.
func Contact(site Site) templ.Component {
	return render("contact.html", page{
		Site: site,
		Meta: PageMeta{Title: "Contact · " + site.Name, URL: BuildURL(site.URL, "contact")},
	})
}

// Comments renders the guestbook with its form and any flash messages.
func Comments(site Site, data CommentsPage) templ.Component {
	return render("comments.html", page{
		Site:     site,
		Meta:     PageMeta{Title: "Comments · " + site.Name, URL: BuildURL(site.URL, "comments")},
		Comments: data,
	})
}

// NotFound is the 404 page.
func NotFound(site Site) templ.Component {
	return render("404.html", page{Site: site, Meta: PageMeta{Title: "Not found · " + site.Name}})
}

// ServerError is the 5xx page.
func ServerError(site Site) templ.Component {
	return render("500.html", page{Site: site, Meta: PageMeta{Title: "Error · " + site.Name}})
}
