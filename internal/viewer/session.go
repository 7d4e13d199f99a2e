// Package viewer runs a documentation viewing session: a single event loop
// owning the section registry, content cache, loader, router and shell.
package viewer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/cache"
	"github.com/turumba/docview/internal/content"
	"github.com/turumba/docview/internal/dom"
	"github.com/turumba/docview/internal/linkrewrite"
	"github.com/turumba/docview/internal/loader"
	"github.com/turumba/docview/internal/render"
	"github.com/turumba/docview/internal/router"
	"github.com/turumba/docview/internal/section"
	"github.com/turumba/docview/internal/shell"
	"github.com/turumba/docview/internal/view"
)

// Options configures a Session. Renderer and Highlighter may be nil.
type Options struct {
	Registry    *section.Registry
	Fetcher     content.Fetcher
	Renderer    render.Renderer
	Highlighter render.Highlighter
	View        view.View
	// Fragment is the address fragment the session starts on.
	Fragment string
	// LogOutput receives session logs; nil discards them.
	LogOutput io.Writer
}

// Session is one viewer instance. Handle and the accessors must only be
// called from the goroutine running the loop (or, without Run, from a
// single goroutine); other goroutines communicate through Send.
type Session struct {
	ID     string
	reg    *section.Registry
	cache  *cache.Cache
	loader *loader.Loader
	router *router.Router
	shell  *shell.Shell
	addr   *address
	logger *log.Logger

	inbox    chan Event
	queue    []Event
	draining bool
	started  bool
}

// New wires a session together. Call Start (or Run) to resolve the
// initial fragment.
func New(ctx context.Context, opts Options) *Session {
	out := opts.LogOutput
	if out == nil {
		out = io.Discard
	}
	id := uuid.NewString()
	s := &Session{
		ID:     id,
		reg:    opts.Registry,
		cache:  cache.New(),
		logger: log.New(out, fmt.Sprintf("docview[%s] ", id[:8]), log.LstdFlags),
		inbox:  make(chan Event, 16),
	}
	s.addr = &address{fragment: strings.TrimPrefix(opts.Fragment, "#"), session: s}
	s.shell = shell.New(opts.View)

	nav := linkrewrite.NavigatorFunc(func(id string) { s.enqueue(NavigateTo{ID: id}) })
	s.loader = loader.New(ctx, loader.Options{
		Registry:    opts.Registry,
		Cache:       s.cache,
		Fetcher:     opts.Fetcher,
		Renderer:    opts.Renderer,
		Highlighter: opts.Highlighter,
		Rewriter:    linkrewrite.New(section.NewLinkTargets(opts.Registry), nav),
		View:        opts.View,
		Logger:      s.logger,
	})
	s.router = router.New(opts.Registry, s.addr, opts.View, s.shell, s.loader)
	return s
}

// Start resolves the initial fragment. It is idempotent.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	s.dispatch(func() { s.router.Start() })
}

// Run starts the session and processes events until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.Start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.inbox:
			s.Handle(ev)
		case r := <-s.loader.Results():
			s.Handle(FetchCompleted{Result: r})
		}
	}
}

// Send posts an event to a running session from any goroutine.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case s.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle processes ev and every event it queues, in order, before returning.
func (s *Session) Handle(ev Event) {
	s.enqueue(ev)
}

// Await blocks for the next fetch result and applies it. It is the
// synchronous alternative to Run for callers driving the loop themselves.
func (s *Session) Await(ctx context.Context) error {
	select {
	case r := <-s.loader.Results():
		s.Handle(FetchCompleted{Result: r})
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle applies fetch results until none are in flight.
func (s *Session) Settle(ctx context.Context) error {
	for s.loader.InFlight() > 0 {
		if err := s.Await(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) enqueue(ev Event) {
	s.queue = append(s.queue, ev)
	if s.draining {
		return
	}
	s.draining = true
	defer func() { s.draining = false }()
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.process(next)
	}
}

// dispatch runs fn as a loop reaction so any events it queues are drained.
func (s *Session) dispatch(fn func()) {
	s.enqueue(Call{Fn: fn})
}

func (s *Session) process(ev Event) {
	switch ev := ev.(type) {
	case Call:
		if ev.Fn != nil {
			ev.Fn()
		}
	case AddressEdited:
		s.addr.SetFragment(strings.TrimPrefix(ev.Fragment, "#"))
	case addressChanged:
		s.router.HandleAddressChange()
	case NavigateTo:
		s.router.Navigate(ev.ID)
	case Click:
		s.click(ev.Node)
	case KeyPress:
		s.shell.HandleKey(ev.Key)
	case Retry:
		if !s.loader.Retry(ev.ID) {
			s.logger.Printf("retry %s ignored in state %s", ev.ID, s.cache.Get(ev.ID).State)
		}
	case ToggleDrawer:
		s.shell.ToggleDrawer()
	case ToggleGroup:
		s.shell.ToggleGroup(ev.Group)
	case ToggleBlock:
		s.shell.ToggleBlock(ev.Block)
	case FetchCompleted:
		s.loader.Complete(ev.Result)
	default:
		s.logger.Printf("unhandled event %T", ev)
	}
}

// click routes a click on n to whatever control n sits in.
func (s *Session) click(n *html.Node) {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		switch {
		case n.Data == "button" && dom.HasAttr(n, view.RetryAttr):
			s.process(Retry{ID: dom.Attr(n, view.RetryAttr)})
			return
		case dom.HasClass(n, "mobile-menu-btn"):
			s.shell.ToggleDrawer()
			return
		case dom.HasClass(n, "sidebar-overlay"):
			s.shell.CloseDrawer()
			return
		case dom.HasClass(n, "nav-group-header"):
			s.shell.ToggleGroup(dom.Attr(n, view.GroupAttr))
			return
		case dom.HasClass(n, "collapsible-header") || n.Data == "summary":
			if n.Parent != nil && dom.HasAttr(n.Parent, view.BlockAttr) {
				s.shell.ToggleBlock(dom.Attr(n.Parent, view.BlockAttr))
			}
			return
		case n.Data == "a":
			s.clickAnchor(n)
			return
		}
	}
}

func (s *Session) clickAnchor(a *html.Node) {
	if dom.HasClass(a, "nav-link") {
		s.router.Navigate(dom.Attr(a, view.SectionAttr))
		return
	}
	if b, ok := s.loader.BindingFor(a); ok {
		b.Click()
		return
	}

	href := dom.Attr(a, "href")
	switch {
	case linkrewrite.IsExternal(href):
		s.logger.Printf("external link %s left to the host", href)
	case strings.HasPrefix(href, "#"):
		// In-document anchors only route when they name a section.
		if id := router.ParseFragment(href); s.known(id) {
			s.addr.SetFragment(id)
		}
	default:
		s.logger.Printf("unmapped link %s", href)
	}
}

func (s *Session) known(id string) bool {
	_, ok := s.reg.Resolve(id)
	return ok
}

// Active returns the active section id.
func (s *Session) Active() string { return s.router.Active() }

// Fragment returns the current address fragment.
func (s *Session) Fragment() string { return s.addr.Fragment() }

// Entry returns the cache entry for id.
func (s *Session) Entry(id string) cache.Entry { return s.cache.Get(id) }

// Bindings returns the rewritten in-app links of id's content.
func (s *Session) Bindings(id string) []linkrewrite.Binding { return s.loader.Bindings(id) }

// Unmapped returns how many relative links in id's content matched no section.
func (s *Session) Unmapped(id string) int { return s.loader.Unmapped(id) }

// Activations returns how many section activations have run.
func (s *Session) Activations() int { return s.router.Activations() }

// FetchesIssued returns how many content fetches have started.
func (s *Session) FetchesIssued() int { return s.loader.Issued() }

// Registry returns the session's section registry.
func (s *Session) Registry() *section.Registry { return s.reg }

// Shell returns the session's chrome controller.
func (s *Session) Shell() *shell.Shell { return s.shell }
