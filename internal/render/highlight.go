package render

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/dom"
)

// Highlighter syntax-highlights one code element in place. Implementations
// must be idempotent.
type Highlighter interface {
	Highlight(code *html.Node) error
}

// highlightedAttr marks code elements that have already been processed.
const highlightedAttr = "data-highlighted"

// Chroma highlights code blocks with chroma, emitting class-based markup.
type Chroma struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChroma creates a Chroma highlighter. Unknown style names fall back to
// chroma's default style.
func NewChroma(styleName string) *Chroma {
	return &Chroma{
		style: styles.Get(styleName),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// Highlight replaces code's text with highlighted spans. Code outside a
// <pre>, and blocks already highlighted here or at render time, are left alone.
func (c *Chroma) Highlight(code *html.Node) error {
	if !IsCodeBlock(code) || Highlighted(code) {
		return nil
	}
	source := dom.TextContent(code)

	var lexer chroma.Lexer
	if lang, ok := dom.ClassWithPrefix(code, "language-"); ok {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("tokenising code block: %w", err)
	}
	var buf bytes.Buffer
	if err := c.formatter.Format(&buf, c.style, iterator); err != nil {
		return fmt.Errorf("formatting code block: %w", err)
	}
	nodes, err := dom.ParseFragment(buf.String(), "code")
	if err != nil {
		return fmt.Errorf("parsing highlighted markup: %w", err)
	}

	dom.ReplaceChildren(code, nodes...)
	dom.SetAttr(code, highlightedAttr, "true")
	dom.AddClass(code.Parent, "chroma")
	return nil
}

// StyleSheet returns the CSS for the highlighter's style.
func (c *Chroma) StyleSheet() (string, error) {
	var buf bytes.Buffer
	if err := c.formatter.WriteCSS(&buf, c.style); err != nil {
		return "", fmt.Errorf("writing chroma css: %w", err)
	}
	return buf.String(), nil
}

// IsCodeBlock reports whether n is a <code> element directly inside a <pre>.
func IsCodeBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == "code" &&
		n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == "pre"
}

// Highlighted reports whether the code block was already highlighted,
// either by a Highlighter or by render-time highlighting.
func Highlighted(code *html.Node) bool {
	if dom.HasAttr(code, highlightedAttr) {
		return true
	}
	return code.Parent != nil && dom.HasClass(code.Parent, "chroma")
}

// HighlightAll applies h to every code block below root and returns how
// many blocks it processed. A nil h is a no-op. Errors leave the block
// unhighlighted; the first one is returned after all blocks are tried.
func HighlightAll(root *html.Node, h Highlighter) (int, error) {
	if h == nil || root == nil {
		return 0, nil
	}
	var firstErr error
	n := 0
	for _, code := range dom.QueryAll(root, "pre > code") {
		if Highlighted(code) {
			continue
		}
		if err := h.Highlight(code); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}
