package loader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/cache"
	"github.com/turumba/docview/internal/content"
	"github.com/turumba/docview/internal/dom"
	"github.com/turumba/docview/internal/linkrewrite"
	"github.com/turumba/docview/internal/render"
	"github.com/turumba/docview/internal/section"
	"github.com/turumba/docview/internal/view"
)

// fakeFetcher serves canned documents and records every call.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	docs  map[string]string
	errs  map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return "", err
	}
	if doc, ok := f.docs[path]; ok {
		return doc, nil
	}
	return "", &content.FetchError{Source: path, Status: 404}
}

func (f *fakeFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

type fixture struct {
	loader    *Loader
	cache     *cache.Cache
	fetcher   *fakeFetcher
	doc       *view.Document
	navigated []string
}

func newFixture(t *testing.T, renderer render.Renderer) *fixture {
	t.Helper()
	reg, err := section.NewRegistry([]section.Descriptor{
		{ID: "home", Title: "Overview"},
		{ID: "messaging", Title: "Messaging System", Source: "TURUMBA_MESSAGING.md"},
		{ID: "roadmap", Title: "Roadmap", Source: "ROADMAP.md"},
	}, "home", "Documentation")
	require.NoError(t, err)

	f := &fixture{
		cache: cache.New(),
		fetcher: &fakeFetcher{
			docs: map[string]string{
				"TURUMBA_MESSAGING.md": "# Messaging\n\nSee [foo](./TURUMBA_MESSAGING.md#foo) and [roadmap](ROADMAP.md).\n\n```go\nx := 1\n```\n",
			},
			errs: map[string]error{
				"ROADMAP.md": &content.FetchError{Source: "ROADMAP.md", Err: errors.New("connection refused")},
			},
		},
		doc: view.NewDocument(reg, "Docs", ""),
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	nav := linkrewrite.NavigatorFunc(func(id string) { f.navigated = append(f.navigated, id) })
	f.loader = New(ctx, Options{
		Registry:    reg,
		Cache:       f.cache,
		Fetcher:     f.fetcher,
		Renderer:    renderer,
		Highlighter: render.NewChroma("github"),
		Rewriter:    linkrewrite.New(section.NewLinkTargets(reg), nav),
		View:        f.doc,
	})
	return f
}

// await receives the next fetch result and applies it.
func (f *fixture) await(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-f.loader.Results():
		f.loader.Complete(r)
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch result")
		return Result{}
	}
}

func TestLoadSuccess(t *testing.T) {
	f := newFixture(t, render.NewGoldmark(render.GoldmarkOptions{}))

	assert.Equal(t, cache.Absent, f.cache.Get("messaging").State)
	require.True(t, f.loader.Load("messaging"))
	assert.Equal(t, cache.Pending, f.cache.Get("messaging").State)
	assert.Contains(t, dom.TextContent(f.doc.PanelBody("messaging")), "Loading TURUMBA_MESSAGING.md")
	assert.Equal(t, 1, f.loader.InFlight())

	r := f.await(t)
	assert.True(t, r.OK())
	assert.Equal(t, cache.Ready, f.cache.Get("messaging").State)
	assert.Equal(t, 0, f.loader.InFlight())

	body := f.doc.PanelBody("messaging")
	require.NotNil(t, dom.Query(body, "h1#messaging"), "rendered heading expected")

	bindings := f.loader.Bindings("messaging")
	require.Len(t, bindings, 2)
	assert.Equal(t, "#messaging", dom.Attr(bindings[0].Anchor, "href"))
	assert.Equal(t, "#roadmap", dom.Attr(bindings[1].Anchor, "href"))

	code := dom.Query(body, "pre > code")
	require.NotNil(t, code)
	assert.True(t, render.Highlighted(code), "code blocks should be highlighted")

	bindings[1].Click()
	assert.Equal(t, []string{"roadmap"}, f.navigated)
}

func TestLoadIsNoOpWhilePendingOrReady(t *testing.T) {
	f := newFixture(t, render.NewGoldmark(render.GoldmarkOptions{}))

	require.True(t, f.loader.Load("messaging"))
	assert.False(t, f.loader.Load("messaging"), "second Load while Pending must be a no-op")
	assert.False(t, f.loader.Ensure("messaging"))
	f.await(t)

	assert.False(t, f.loader.Load("messaging"), "Load after Ready must be a no-op")
	assert.False(t, f.loader.Ensure("messaging"))
	assert.Equal(t, 1, f.fetcher.count("TURUMBA_MESSAGING.md"))
	assert.Equal(t, 1, f.loader.Issued())
}

func TestLoadSkipsStaticAndUnknown(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.loader.Load("home"))
	assert.False(t, f.loader.Load("nowhere"))
	assert.Equal(t, 0, f.loader.Issued())
}

func TestLoadFailureAndRetry(t *testing.T) {
	f := newFixture(t, render.NewGoldmark(render.GoldmarkOptions{}))

	require.True(t, f.loader.Load("roadmap"))
	r := f.await(t)
	assert.False(t, r.OK())

	entry := f.cache.Get("roadmap")
	assert.Equal(t, cache.Failed, entry.State)
	assert.Equal(t, "connection refused", entry.Message)

	text := dom.TextContent(f.doc.PanelBody("roadmap"))
	assert.Contains(t, text, "ROADMAP.md")
	assert.Contains(t, text, "connection refused")
	assert.NotNil(t, f.doc.RetryButton("roadmap"))

	// Re-activation does not retry on its own.
	assert.False(t, f.loader.Ensure("roadmap"))
	assert.Equal(t, 1, f.fetcher.count("ROADMAP.md"))

	require.True(t, f.loader.Retry("roadmap"))
	assert.Equal(t, cache.Pending, f.cache.Get("roadmap").State)
	assert.False(t, f.loader.Retry("roadmap"), "retry while Pending must be refused")
	f.await(t)
	assert.Equal(t, 2, f.fetcher.count("ROADMAP.md"), "retry issues exactly one fetch")

	assert.False(t, f.loader.Retry("messaging"), "retry only applies to Failed entries")
}

func TestNonSuccessStatus(t *testing.T) {
	f := newFixture(t, nil)
	delete(f.fetcher.docs, "TURUMBA_MESSAGING.md")

	f.loader.Load("messaging")
	f.await(t)
	assert.Equal(t, cache.Failed, f.cache.Get("messaging").State)
	assert.Equal(t, "HTTP 404 Not Found", f.cache.Get("messaging").Message)
}

func TestDegradedRendering(t *testing.T) {
	f := newFixture(t, nil)

	f.loader.Load("messaging")
	f.await(t)

	body := f.doc.PanelBody("messaging")
	pre := dom.Query(body, "pre.raw")
	require.NotNil(t, pre, "raw text should be preformatted")
	assert.True(t, strings.HasPrefix(dom.TextContent(pre), "# Messaging"))
	assert.Nil(t, dom.Query(body, "h1"))
	assert.Empty(t, f.loader.Bindings("messaging"))
}

type failingRenderer struct{}

func (failingRenderer) Render(string) (*html.Node, error) { return nil, errors.New("boom") }

func TestRenderErrorDegrades(t *testing.T) {
	f := newFixture(t, failingRenderer{})
	f.loader.Load("messaging")
	f.await(t)
	assert.Equal(t, cache.Ready, f.cache.Get("messaging").State)
	assert.NotNil(t, dom.Query(f.doc.PanelBody("messaging"), "pre.raw"))
}

func TestStaleResultIsDropped(t *testing.T) {
	f := newFixture(t, nil)

	f.loader.Load("messaging")
	f.await(t)
	before := dom.Render(f.doc.PanelBody("messaging"))

	// A late duplicate for a Ready section must not touch it.
	f.loader.Complete(Result{ID: "messaging", Source: "TURUMBA_MESSAGING.md", Err: errors.New("late")})
	assert.Equal(t, cache.Ready, f.cache.Get("messaging").State)
	assert.Equal(t, before, dom.Render(f.doc.PanelBody("messaging")))

	// A result for a section that was never requested is ignored too.
	f.loader.Complete(Result{ID: "roadmap", Source: "ROADMAP.md", Text: "# x"})
	assert.Equal(t, cache.Absent, f.cache.Get("roadmap").State)
}

func TestCompletionOnlyTouchesItsSection(t *testing.T) {
	f := newFixture(t, nil)

	f.loader.Load("messaging")
	f.loader.Load("roadmap")

	// Apply results in arrival order; each touches only its own panel.
	for i := 0; i < 2; i++ {
		r := f.await(t)
		other := "roadmap"
		if r.ID == "roadmap" {
			other = "messaging"
		}
		if f.cache.Get(other).State == cache.Pending {
			assert.Contains(t, dom.TextContent(f.doc.PanelBody(other)), "Loading")
		}
	}
	assert.Equal(t, cache.Ready, f.cache.Get("messaging").State)
	assert.Equal(t, cache.Failed, f.cache.Get("roadmap").State)
}

func TestCancelledContextAbandonsResult(t *testing.T) {
	reg, _ := section.NewRegistry([]section.Descriptor{{ID: "home"}, {ID: "a", Source: "a.md"}}, "home", "")
	ctx, cancel := context.WithCancel(context.Background())
	l := New(ctx, Options{
		Registry: reg,
		Cache:    cache.New(),
		Fetcher:  &fakeFetcher{docs: map[string]string{"a.md": "x"}},
		View:     view.NewDocument(reg, "", ""),
	})
	require.True(t, l.Load("a"))
	cancel()
	// The fetch goroutine must not block forever on an unread channel.
	time.Sleep(10 * time.Millisecond)
	select {
	case <-l.Results():
		// Delivered before cancellation took effect; also fine.
	default:
	}
}
