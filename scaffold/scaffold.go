// Package scaffold lays out a new folio site: a config file, a sample
// projects file and a first post.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/natefinch/atomic"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// Data holds the template variables passed to every scaffold template.
type Data struct {
	SiteName      string
	Author        string
	URL           string
	SessionSecret string
	Date          time.Time
}

// Generate writes the site skeleton into dir, reporting each created file to
// out. dir may exist but must be empty.
func Generate(dir string, data Data, out io.Writer) error {
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return fmt.Errorf("directory %q is not empty", dir)
	}
	if data.Date.IsZero() {
		data.Date = time.Now().UTC()
	}

	const root = "templates"
	return fs.WalkDir(Templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		outPath := filepath.Join(dir, filepath.FromSlash(outputName(rel, data)))
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		src, err := Templates.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		tmpl, err := template.New(path.Base(p)).Parse(string(src))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", p, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("execute template %s: %w", p, err)
		}
		if err := atomic.WriteFile(outPath, &buf); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
}

// outputName strips .tmpl, renames dotenv to .env and dates the sample post.
func outputName(rel string, data Data) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	switch path.Base(rel) {
	case "dotenv":
		return path.Join(path.Dir(rel), ".env")
	case "hello-world.md":
		return path.Join(path.Dir(rel), data.Date.Format(time.DateOnly)+"-hello-world.md")
	}
	return rel
}
