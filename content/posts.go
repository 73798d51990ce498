package content

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const postExt = ".md"

// Post is a markdown file rendered for display.
type Post struct {
	Slug    string
	Title   string
	Excerpt string
	HTML    string
	Date    time.Time // zero when neither front matter nor slug carries a date
	Link    string
}

// HasDate reports whether the post carries a publish date.
func (p Post) HasDate() bool { return !p.Date.IsZero() }

// frontMatter is the optional YAML header of a post. Every field is optional
// and files without a header are read as plain markdown.
type frontMatter struct {
	Title   string    `yaml:"title"`
	Date    time.Time `yaml:"date"`
	Summary string    `yaml:"summary"`
}

// Posts returns every post in the posts directory sorted by slug descending.
// The directory is created when missing. Unreadable files are skipped.
func (s *Store) Posts() ([]Post, error) {
	dir := s.cfg.PostsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Op: "create posts dir", Path: dir, Kind: IO, Err: err}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &Error{Op: "list posts", Path: dir, Kind: IO, Err: err}
	}

	var posts []Post
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != postExt {
			continue
		}
		slug := strings.TrimSuffix(name, postExt)
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warnf("content: skipping post %s: %v", path, err)
			continue
		}
		post, err := s.parsePost(slug, data, titleFromSlug)
		if err != nil {
			s.logger.Warnf("content: skipping post %s: %v", path, err)
			continue
		}
		if !post.HasDate() {
			s.logger.Warnf("content: post %q has no YYYY-MM-DD slug prefix or front matter date; slug order may not match publish order", slug)
		}
		posts = append(posts, post)
	}

	sort.Slice(posts, func(i, j int) bool { return posts[i].Slug > posts[j].Slug })
	return posts, nil
}

// Post returns the post stored as <slug>.md. Without a heading or front
// matter title the raw slug is used as the title.
func (s *Store) Post(slug string) (Post, error) {
	if !validSlug(slug) {
		return Post{}, ErrNotFound
	}
	path := filepath.Join(s.cfg.PostsDir, slug+postExt)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Post{}, ErrNotFound
		}
		return Post{}, &Error{Op: "read post", Path: path, Kind: IO, Err: err}
	}
	post, err := s.parsePost(slug, data, func(slug string) string { return slug })
	if err != nil {
		return Post{}, &Error{Op: "render post", Path: path, Kind: Malformed, Err: err}
	}
	return post, nil
}

func (s *Store) parsePost(slug string, data []byte, fallbackTitle func(string) string) (Post, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		// A leading "---" rule that is not YAML; treat the whole file as markdown.
		s.logger.Warnf("content: post %q front matter ignored: %v", slug, err)
		fm = frontMatter{}
		body = data
	}

	text := strings.ReplaceAll(string(body), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(text), "\n")

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = headingTitle(lines)
	}
	if title == "" {
		title = fallbackTitle(slug)
	}

	excerpt := strings.TrimSpace(fm.Summary)
	if excerpt == "" {
		excerpt = firstBodyLine(lines)
	}

	html, err := s.md.Render(body)
	if err != nil {
		return Post{}, err
	}

	date := fm.Date
	if date.IsZero() {
		date = dateFromSlug(slug)
	}

	return Post{
		Slug:    slug,
		Title:   title,
		Excerpt: excerpt,
		HTML:    html,
		Date:    date,
		Link:    "/blog/" + slug,
	}, nil
}

// headingTitle returns the text of the first line when it is a heading.
func headingTitle(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, "#") {
		return ""
	}
	return strings.TrimSpace(strings.TrimLeft(first, "# "))
}

// firstBodyLine returns the first non-empty line that does not start a heading.
func firstBodyLine(lines []string) string {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" && !strings.HasPrefix(line, "#") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// titleFromSlug turns "my-first-post" into "My First Post".
func titleFromSlug(slug string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(slug, "-", " "))
}

// dateFromSlug parses a leading YYYY-MM-DD from slug.
func dateFromSlug(slug string) time.Time {
	if len(slug) < len(time.DateOnly) {
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, slug[:len(time.DateOnly)])
	if err != nil {
		return time.Time{}
	}
	if len(slug) > len(time.DateOnly) && slug[len(time.DateOnly)] != '-' {
		return time.Time{}
	}
	return t
}

func validSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`+"\x00")
}
