// Package loader fetches section content on demand, caches it for the
// session and hands rendered output to the view.
package loader

import (
	"context"
	"io"
	"log"

	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/cache"
	"github.com/turumba/docview/internal/content"
	"github.com/turumba/docview/internal/linkrewrite"
	"github.com/turumba/docview/internal/render"
	"github.com/turumba/docview/internal/section"
	"github.com/turumba/docview/internal/view"
)

// Result is the outcome of one fetch: Ready when Err is nil, Failed otherwise.
type Result struct {
	ID     string
	Source string
	Text   string
	Err    error
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Options configures a Loader. Renderer and Highlighter may be nil.
type Options struct {
	Registry    *section.Registry
	Cache       *cache.Cache
	Fetcher     content.Fetcher
	Renderer    render.Renderer
	Highlighter render.Highlighter
	Rewriter    *linkrewrite.Rewriter
	View        view.View
	Logger      *log.Logger
}

// Loader drives the Absent → Pending → Ready/Failed lifecycle of section
// content. Every method except the fetch goroutines runs on the session
// loop; results come back through Results and are applied with Complete.
type Loader struct {
	ctx      context.Context
	opts     Options
	logger   *log.Logger
	results  chan Result
	bindings map[string][]linkrewrite.Binding
	unmapped map[string]int
	inFlight int
	issued   int
}

// New creates a Loader. Fetches run under ctx; cancelling it abandons
// undelivered results.
func New(ctx context.Context, opts Options) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Loader{
		ctx:      ctx,
		opts:     opts,
		logger:   logger,
		results:  make(chan Result),
		bindings: make(map[string][]linkrewrite.Binding),
		unmapped: make(map[string]int),
	}
}

// Results delivers completed fetches. Each issued fetch yields exactly one
// Result unless the loader's context is cancelled first.
func (l *Loader) Results() <-chan Result { return l.results }

// Load starts a fetch for id and reports whether it did. It is a no-op for
// unknown or static sections and while the entry is Pending or Ready.
func (l *Loader) Load(id string) bool {
	d, ok := l.opts.Registry.Resolve(id)
	if !ok || !d.HasContent() {
		return false
	}
	if !l.opts.Cache.SetPending(id) {
		return false
	}
	l.inFlight++
	l.issued++
	l.opts.View.ShowLoading(id, d.Source)
	l.logger.Printf("loader: fetching %s for %s", d.Source, id)

	go l.fetch(id, d.Source)
	return true
}

func (l *Loader) fetch(id, source string) {
	text, err := l.opts.Fetcher.Fetch(l.ctx, source)
	select {
	case l.results <- Result{ID: id, Source: source, Text: text, Err: err}:
	case <-l.ctx.Done():
	}
}

// Ensure loads id only if it has never been requested. A Failed entry keeps
// its error panel until the user retries.
func (l *Loader) Ensure(id string) bool {
	if l.opts.Cache.Get(id).State != cache.Absent {
		return false
	}
	return l.Load(id)
}

// Retry clears a Failed entry and issues exactly one new fetch.
func (l *Loader) Retry(id string) bool {
	if l.opts.Cache.Get(id).State != cache.Failed {
		return false
	}
	if err := l.opts.Cache.Clear(id); err != nil {
		l.logger.Printf("loader: retry %s: %v", id, err)
		return false
	}
	return l.Load(id)
}

// Complete applies a fetch result. It only touches the cache entry and
// panel of the id the fetch was issued for, and drops the result if that
// entry is no longer Pending.
func (l *Loader) Complete(r Result) {
	l.inFlight--
	if st := l.opts.Cache.Get(r.ID).State; st != cache.Pending {
		l.logger.Printf("loader: dropping result for %s in state %s", r.ID, st)
		return
	}

	if !r.OK() {
		msg := content.Message(r.Err)
		if err := l.opts.Cache.SetFailed(r.ID, msg); err != nil {
			l.logger.Printf("loader: %v", err)
			return
		}
		l.logger.Printf("loader: %s failed: %v", r.ID, r.Err)
		l.opts.View.ShowError(r.ID, r.Source, msg)
		return
	}

	if err := l.opts.Cache.SetReady(r.ID, r.Text); err != nil {
		l.logger.Printf("loader: %v", err)
		return
	}
	l.display(r.ID, r.Text)
}

// display renders text, highlights and rewrites it, then replaces the panel.
// Without a renderer, or when rendering fails, the raw text is shown
// preformatted instead.
func (l *Loader) display(id, text string) {
	var root *html.Node
	if l.opts.Renderer != nil {
		var err error
		root, err = l.opts.Renderer.Render(text)
		if err != nil {
			l.logger.Printf("loader: rendering %s: %v", id, err)
			root = nil
		}
	}
	if root == nil {
		root = render.Preformatted(text)
	} else if _, err := render.HighlightAll(root, l.opts.Highlighter); err != nil {
		l.logger.Printf("loader: highlighting %s: %v", id, err)
	}

	if l.opts.Rewriter != nil {
		res := l.opts.Rewriter.Rewrite(root)
		l.bindings[id] = res.Bindings
		l.unmapped[id] = res.Unmapped
		if res.Unmapped > 0 {
			l.logger.Printf("loader: %s has %d unmapped links", id, res.Unmapped)
		}
	}
	l.opts.View.ShowContent(id, root)
}

// Bindings returns the in-app links rewritten in id's content.
func (l *Loader) Bindings(id string) []linkrewrite.Binding { return l.bindings[id] }

// Unmapped returns how many relative links in id's content matched no section.
func (l *Loader) Unmapped(id string) int { return l.unmapped[id] }

// BindingFor returns the binding created for a rewritten anchor.
func (l *Loader) BindingFor(anchor *html.Node) (linkrewrite.Binding, bool) {
	for _, bs := range l.bindings {
		for _, b := range bs {
			if b.Anchor == anchor {
				return b, true
			}
		}
	}
	return linkrewrite.Binding{}, false
}

// InFlight returns the number of fetches whose results have not been applied.
func (l *Loader) InFlight() int { return l.inFlight }

// Issued returns the total number of fetches started this session.
func (l *Loader) Issued() int { return l.issued }
