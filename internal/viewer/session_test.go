package viewer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/cache"
	"github.com/turumba/docview/internal/config"
	"github.com/turumba/docview/internal/content"
	"github.com/turumba/docview/internal/dom"
	"github.com/turumba/docview/internal/render"
	"github.com/turumba/docview/internal/section"
	"github.com/turumba/docview/internal/view"
)

const messagingDoc = `# Messaging

Jump to [foo](./TURUMBA_MESSAGING.md#foo), read the [roadmap](../ROADMAP.md),
see [local](#delivery), the [vendor docs](https://example.com/ROADMAP.md)
or the [missing page](./NOT_THERE.md).

## Delivery

<div class="collapsible"><div class="collapsible-header">Details</div><p>hidden</p></div>
`

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	docs  map[string]string
	fail  map[string]error
}

func (f *countingFetcher) Fetch(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	if err, ok := f.fail[path]; ok {
		return "", err
	}
	if doc, ok := f.docs[path]; ok {
		return doc, nil
	}
	return "", &content.FetchError{Source: path, Status: 404}
}

func (f *countingFetcher) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

type fixture struct {
	session *Session
	doc     *view.Document
	fetcher *countingFetcher
	ctx     context.Context
}

func newFixture(t *testing.T, fragment string) *fixture {
	t.Helper()
	reg, err := section.NewRegistry([]section.Descriptor{
		{ID: "home", Title: "Overview"},
		{ID: "architecture", Title: "Architecture", Source: "TURUMBA_ARCHITECTURE.md", Group: "platform"},
		{ID: "messaging", Title: "Messaging System", Source: "TURUMBA_MESSAGING.md", Group: "platform"},
		{ID: "roadmap", Title: "Roadmap", Source: "ROADMAP.md"},
	}, "home", "Documentation")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	f := &fixture{
		ctx: ctx,
		fetcher: &countingFetcher{
			calls: map[string]int{},
			docs: map[string]string{
				"TURUMBA_MESSAGING.md":    messagingDoc,
				"TURUMBA_ARCHITECTURE.md": "# Architecture\n",
			},
			fail: map[string]error{
				"ROADMAP.md": &content.FetchError{Source: "ROADMAP.md", Err: errors.New("network unreachable")},
			},
		},
		doc: view.NewDocument(reg, "Docs", ""),
	}
	f.session = New(ctx, Options{
		Registry:    reg,
		Fetcher:     f.fetcher,
		Renderer:    render.NewGoldmark(render.GoldmarkOptions{}),
		Highlighter: render.NewChroma("github"),
		View:        f.doc,
		Fragment:    fragment,
	})
	f.session.Start()
	return f
}

func (f *fixture) settle(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.Settle(f.ctx))
}

func (f *fixture) anchor(t *testing.T, id, text string) *html.Node {
	t.Helper()
	for _, a := range dom.QueryAll(f.doc.PanelBody(id), "a") {
		if dom.TextContent(a) == text {
			return a
		}
	}
	t.Fatalf("no anchor %q in %s", text, id)
	return nil
}

func TestUnknownFragmentShowsHome(t *testing.T) {
	f := newFixture(t, "does-not-exist")
	assert.Equal(t, "home", f.session.Active())
	assert.Equal(t, "Overview", f.doc.Breadcrumb())
	assert.Equal(t, []string{"home"}, f.doc.ActivePanels())

	f.session.Handle(AddressEdited{Fragment: "#also-missing"})
	assert.Equal(t, "home", f.session.Active())
	assert.Equal(t, "Overview", f.doc.Breadcrumb())
}

func TestFirstActivationLoadsMessaging(t *testing.T) {
	f := newFixture(t, "")
	assert.Equal(t, cache.Absent, f.session.Entry("messaging").State)

	f.session.Handle(NavigateTo{ID: "messaging"})
	assert.Equal(t, "messaging", f.session.Active())
	assert.Equal(t, "messaging", f.session.Fragment())
	assert.Equal(t, cache.Pending, f.session.Entry("messaging").State)

	f.settle(t)
	assert.Equal(t, cache.Ready, f.session.Entry("messaging").State)
	assert.Equal(t, "#messaging", dom.Attr(f.anchor(t, "messaging", "foo"), "href"))
	assert.Equal(t, "#delivery", dom.Attr(f.anchor(t, "messaging", "local"), "href"), "same-page anchors stay")
	assert.Equal(t, "https://example.com/ROADMAP.md", dom.Attr(f.anchor(t, "messaging", "vendor docs"), "href"))
	assert.Equal(t, "./NOT_THERE.md", dom.Attr(f.anchor(t, "messaging", "missing page"), "href"))
}

func TestRapidActivationIssuesOneFetch(t *testing.T) {
	f := newFixture(t, "")
	f.session.Handle(NavigateTo{ID: "messaging"})
	f.session.Handle(NavigateTo{ID: "messaging"})
	f.session.Handle(AddressEdited{Fragment: "home"})
	f.session.Handle(AddressEdited{Fragment: "messaging"})
	f.session.Handle(Click{Node: f.doc.NavItem("messaging")})

	assert.Equal(t, 1, f.session.FetchesIssued())
	f.settle(t)
	assert.Equal(t, 1, f.fetcher.count("TURUMBA_MESSAGING.md"))
}

func TestReadySectionIsNeverRefetched(t *testing.T) {
	f := newFixture(t, "messaging")
	f.settle(t)

	for i := 0; i < 3; i++ {
		f.session.Handle(NavigateTo{ID: "home"})
		f.session.Handle(NavigateTo{ID: "messaging"})
	}
	assert.Equal(t, 1, f.fetcher.count("TURUMBA_MESSAGING.md"))
	assert.Zero(t, f.session.loader.InFlight())
}

func TestRewrittenLinkClickActivatesSection(t *testing.T) {
	f := newFixture(t, "messaging")
	f.settle(t)
	before := f.session.Activations()

	roadmapLink := f.anchor(t, "messaging", "roadmap")
	assert.Equal(t, "#roadmap", dom.Attr(roadmapLink, "href"))

	// Click on the text node inside the anchor, as a pointer would.
	f.session.Handle(Click{Node: roadmapLink.FirstChild})
	assert.Equal(t, "roadmap", f.session.Active())
	assert.Equal(t, "roadmap", f.session.Fragment())
	assert.Equal(t, before+1, f.session.Activations(), "one click, one activation")
}

func TestExternalLinkClickDoesNotNavigate(t *testing.T) {
	f := newFixture(t, "messaging")
	f.settle(t)
	before := f.session.Activations()

	f.session.Handle(Click{Node: f.anchor(t, "messaging", "vendor docs")})
	f.session.Handle(Click{Node: f.anchor(t, "messaging", "missing page")})
	f.session.Handle(Click{Node: f.anchor(t, "messaging", "local")})

	assert.Equal(t, "messaging", f.session.Active())
	assert.Equal(t, before, f.session.Activations())
}

func TestLoadFailureAndRetryButton(t *testing.T) {
	f := newFixture(t, "")
	f.session.Handle(NavigateTo{ID: "roadmap"})
	f.settle(t)

	entry := f.session.Entry("roadmap")
	assert.Equal(t, cache.Failed, entry.State)
	assert.Equal(t, "network unreachable", entry.Message)
	btn := f.doc.RetryButton("roadmap")
	require.NotNil(t, btn)

	// Leaving and returning does not retry automatically.
	f.session.Handle(NavigateTo{ID: "home"})
	f.session.Handle(NavigateTo{ID: "roadmap"})
	assert.Equal(t, 1, f.fetcher.count("ROADMAP.md"))

	f.session.Handle(Click{Node: btn.FirstChild})
	assert.Equal(t, cache.Pending, f.session.Entry("roadmap").State)
	f.session.Handle(Retry{ID: "roadmap"}) // ignored while Pending
	f.settle(t)
	assert.Equal(t, 2, f.fetcher.count("ROADMAP.md"), "retry re-issues exactly one fetch")
}

func TestStaleCompletionDoesNotDisturbActiveSection(t *testing.T) {
	f := newFixture(t, "messaging")
	// Navigate away while messaging is still in flight.
	f.session.Handle(NavigateTo{ID: "architecture"})
	assert.Equal(t, 2, f.session.FetchesIssued())

	f.settle(t)
	assert.Equal(t, "architecture", f.session.Active())
	assert.Equal(t, []string{"architecture"}, f.doc.ActivePanels())
	assert.Equal(t, "Architecture", f.doc.Breadcrumb())
	assert.Equal(t, cache.Ready, f.session.Entry("messaging").State, "background completion still fills the cache")

	f.session.Handle(NavigateTo{ID: "messaging"})
	assert.Equal(t, 2, f.session.FetchesIssued(), "returning reuses the cache")
}

func TestShellInteractions(t *testing.T) {
	f := newFixture(t, "")

	f.session.Handle(Click{Node: f.doc.MenuButton()})
	assert.True(t, f.doc.DrawerOpen())
	f.session.Handle(KeyPress{Key: "Escape"})
	assert.False(t, f.doc.DrawerOpen())

	f.session.Handle(ToggleDrawer{})
	f.session.Handle(Click{Node: f.doc.Overlay()})
	assert.False(t, f.doc.DrawerOpen())

	f.session.Handle(ToggleDrawer{})
	f.session.Handle(Click{Node: f.doc.NavItem("roadmap")})
	assert.False(t, f.doc.DrawerOpen(), "activation closes the drawer")

	header := dom.Query(f.doc.Group("platform"), ".nav-group-header")
	f.session.Handle(Click{Node: header})
	assert.True(t, f.doc.GroupExpanded("platform"))
	f.session.Handle(ToggleGroup{Group: "platform"})
	assert.False(t, f.doc.GroupExpanded("platform"))

	f.session.Handle(Click{Node: f.doc.NavItem("architecture")})
	assert.True(t, f.doc.GroupExpanded("platform"), "activating a grouped item opens its group")
}

func TestCollapsibleBlock(t *testing.T) {
	f := newFixture(t, "messaging")
	f.settle(t)

	header := dom.Query(f.doc.PanelBody("messaging"), ".collapsible-header")
	require.NotNil(t, header)
	block := header.Parent
	f.session.Handle(Click{Node: header})
	assert.True(t, dom.HasClass(block, "open"))
	f.session.Handle(ToggleBlock{Block: dom.Attr(block, view.BlockAttr)})
	assert.False(t, dom.HasClass(block, "open"))
}

func TestRunLoop(t *testing.T) {
	f := newFixture(t, "")
	ctx, cancel := context.WithCancel(f.ctx)
	done := make(chan error, 1)
	go func() { done <- f.session.Run(ctx) }()

	require.NoError(t, f.session.Send(ctx, AddressEdited{Fragment: "#architecture"}))

	// Poll from the loop goroutine until the fetch lands.
	deadline := time.Now().Add(2 * time.Second)
	for {
		state := make(chan cache.State, 1)
		require.NoError(t, f.session.Send(ctx, Call{Fn: func() { state <- f.session.Entry("architecture").State }}))
		if <-state == cache.Ready {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("architecture never became ready")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ROADMAP.md"), []byte("# Roadmap\n\n- [x] ship\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "guides"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guides", "setup.md"), []byte("# Setup\n\nSee [roadmap](../ROADMAP.md).\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.ContentRoot = dir
	cfg.Sections = []config.SectionConfig{{ID: "home", Title: "Overview"}, {ID: "roadmap", Title: "Roadmap", Source: "ROADMAP.md"}}
	cfg.Discover = []string{"**/*.md"}

	s, doc, err := NewFromConfig(testContext(t), cfg, "#guides-setup", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Registry().Len(), "ROADMAP.md is declared, guides/setup.md is discovered")

	s.Start()
	require.NoError(t, s.Settle(testContext(t)))
	assert.Equal(t, "guides-setup", s.Active())
	assert.Equal(t, "Setup", doc.Breadcrumb())
	assert.True(t, doc.GroupExpanded("Guides"))
	require.Len(t, s.Bindings("guides-setup"), 1)
	assert.Equal(t, "roadmap", s.Bindings("guides-setup")[0].SectionID)
	assert.Contains(t, doc.HTML(), ".chroma")
}

func TestNewRegistrySkipsUnnamedDiscoveredFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_.md"), []byte("# Odd\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "home.md"), []byte("# Home\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.ContentRoot = dir
	cfg.Sections = nil
	cfg.Discover = []string{"*.md"}

	reg, err := NewRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "home", reg.Default().ID)
}

func TestNewFromConfigRemoteDiscoverFails(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ContentRoot = "https://docs.example.com"
	cfg.Discover = []string{"**/*.md"}
	_, _, err := NewFromConfig(testContext(t), cfg, "", nil)
	assert.Error(t, err)
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
