// Package markdown renders post bodies to HTML with goldmark, configured for
// fenced code blocks and tables.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown source to HTML. It holds no per-call state and
// is safe for concurrent use.
type Renderer struct {
	engine goldmark.Markdown
}

// Options tunes the goldmark engine.
type Options struct {
	// Safe drops raw HTML embedded in the markdown source.
	Safe bool
	// HardWraps turns single newlines into <br>.
	HardWraps bool
}

// New builds a Renderer. Fenced code blocks are part of CommonMark; tables
// come from the GFM table extension.
func New(opts Options) *Renderer {
	var rendererOptions []renderer.Option
	if !opts.Safe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithExtensions(extension.Table, extension.Strikethrough),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	return &Renderer{engine: goldmark.New(engineOptions...)}
}

// Render returns the HTML for src.
func (r *Renderer) Render(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}
