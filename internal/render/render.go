// Package render turns markdown documents into markup trees and highlights
// the code blocks inside them.
package render

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/config"
	"github.com/turumba/docview/internal/dom"
)

// BodyClass marks the container every rendered document is placed in.
const BodyClass = "markdown-body"

// Renderer converts markdown text to a markup tree rooted at a container element.
type Renderer interface {
	Render(markdown string) (*html.Node, error)
}

// Goldmark renders GitHub-flavoured markdown with goldmark.
type Goldmark struct {
	md goldmark.Markdown
}

// GoldmarkOptions configures NewGoldmark.
type GoldmarkOptions struct {
	// Highlight enables render-time syntax highlighting of fenced code.
	Highlight bool
	// Style is the chroma style name used for highlighting.
	Style string
}

// NewGoldmark creates a goldmark-backed Renderer.
func NewGoldmark(opts GoldmarkOptions) *Goldmark {
	extensions := []goldmark.Extender{extension.GFM}
	if opts.Highlight {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(opts.Style),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	}
	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)
	return &Goldmark{md: md}
}

// Render converts markdown into a div.markdown-body tree.
func (g *Goldmark) Render(markdown string) (*html.Node, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	nodes, err := dom.ParseFragment(buf.String(), "div")
	if err != nil {
		return nil, fmt.Errorf("parsing rendered markup: %w", err)
	}
	return dom.Append(dom.Element("div", BodyClass), nodes...), nil
}

// Preformatted is the degraded rendering used when no Renderer is
// available: the raw text as an escaped <pre> block.
func Preformatted(text string) *html.Node {
	pre := dom.Append(dom.Element("pre", "raw"), dom.Text(text))
	return dom.Append(dom.Element("div", BodyClass+" degraded"), pre)
}

// NewFromConfig builds the renderer and highlighter for rc. The renderer is
// nil when markdown rendering is disabled; the highlighter is nil unless
// highlighting runs after rendering.
func NewFromConfig(rc config.RenderConfig) (Renderer, Highlighter) {
	if !rc.Markdown {
		return nil, nil
	}
	switch rc.Highlight {
	case config.HighlightRender:
		return NewGoldmark(GoldmarkOptions{Highlight: true, Style: rc.Style}), nil
	case config.HighlightPost:
		return NewGoldmark(GoldmarkOptions{}), NewChroma(rc.Style)
	default:
		return NewGoldmark(GoldmarkOptions{}), nil
	}
}
