// Package linkrewrite turns intra-corpus references in rendered documents
// into in-app navigation links.
package linkrewrite

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/dom"
	"github.com/turumba/docview/internal/section"
)

// SectionAttr carries the target section id on rewritten anchors.
const SectionAttr = "data-section"

// Navigator receives the navigation command posted by a clicked binding.
type Navigator interface {
	Navigate(id string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(id string)

// Navigate calls f(id).
func (f NavigatorFunc) Navigate(id string) { f(id) }

// Binding ties a rewritten anchor to the section it activates.
type Binding struct {
	Anchor    *html.Node
	SectionID string
	nav       Navigator
}

// Click posts the navigation command for the binding's section.
func (b Binding) Click() {
	if b.nav != nil {
		b.nav.Navigate(b.SectionID)
	}
}

// Result summarises one rewrite pass.
type Result struct {
	Bindings []Binding
	External int // protocol-prefixed links left untouched
	Anchors  int // same-page anchors left untouched
	Unmapped int // relative links with no matching section, left as-is
}

// Rewritten returns the number of anchors bound to a section.
func (r Result) Rewritten() int { return len(r.Bindings) }

// Rewriter rewrites anchors whose relative path names a known content source.
type Rewriter struct {
	targets *section.LinkTargets
	nav     Navigator
}

// New creates a Rewriter posting clicks to nav.
func New(targets *section.LinkTargets, nav Navigator) *Rewriter {
	return &Rewriter{targets: targets, nav: nav}
}

// Rewrite scans every anchor below root. Matching anchors get
// href="#<id>" and a Binding; everything else is left untouched.
func (rw *Rewriter) Rewrite(root *html.Node) Result {
	var res Result
	if root == nil {
		return res
	}
	for _, a := range dom.QueryAll(root, "a[href]") {
		href := strings.TrimSpace(dom.Attr(a, "href"))
		switch {
		case IsExternal(href):
			res.External++
			continue
		case href == "" || strings.HasPrefix(href, "#"):
			res.Anchors++
			continue
		}

		id, ok := rw.targets.Lookup(section.CleanPath(unescape(href)))
		if !ok {
			res.Unmapped++
			continue
		}
		dom.SetAttr(a, "href", "#"+id)
		dom.SetAttr(a, SectionAttr, id)
		dom.AddClass(a, "internal-link")
		res.Bindings = append(res.Bindings, Binding{Anchor: a, SectionID: id, nav: rw.nav})
	}
	return res
}

// IsExternal reports whether href is absolute: it has a scheme
// ("https:", "mailto:") or is protocol-relative ("//host/...").
func IsExternal(href string) bool {
	if strings.HasPrefix(href, "//") {
		return true
	}
	u, err := url.Parse(href)
	if err != nil {
		// Unparseable references cannot be resolved locally either; only
		// a scheme-looking prefix counts as external.
		scheme, _, ok := strings.Cut(href, ":")
		return ok && !strings.ContainsAny(scheme, "/.#?")
	}
	return u.Scheme != ""
}

// unescape decodes percent-escapes so "My%20Doc.md" matches "My Doc.md".
func unescape(href string) string {
	if s, err := url.PathUnescape(href); err == nil {
		return s
	}
	return href
}
