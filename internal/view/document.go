package view

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"

	"github.com/turumba/docview/internal/dom"
	"github.com/turumba/docview/internal/section"
)

// Attributes and classes the document uses to key its elements.
const (
	SectionAttr = "data-section"
	GroupAttr   = "data-group"
	RetryAttr   = "data-retry"
	BlockAttr   = "data-block"
)

// Document is an in-memory page: sidebar with nav items and collapsible
// groups, breadcrumb, mobile drawer controls and one panel per section.
// It implements View.
type Document struct {
	root       *html.Node
	body       *html.Node
	sidebar    *html.Node
	overlay    *html.Node
	menuButton *html.Node
	breadcrumb *html.Node
	panels     map[string]*html.Node
	bodies     map[string]*html.Node
	navItems   map[string]*html.Node
	groups     map[string]*html.Node
	scrollY    int
}

// NewDocument builds the page for every section in reg. styleSheet is
// inlined into the head when non-empty.
func NewDocument(reg *section.Registry, pageTitle, styleSheet string) *Document {
	d := &Document{
		panels:   make(map[string]*html.Node),
		bodies:   make(map[string]*html.Node),
		navItems: make(map[string]*html.Node),
		groups:   make(map[string]*html.Node),
	}

	head := dom.Append(dom.Element("head", ""),
		dom.Append(dom.Element("title", ""), dom.Text(pageTitle)))
	if styleSheet != "" {
		dom.Append(head, dom.Append(dom.Element("style", ""), dom.Text(styleSheet)))
	}

	d.menuButton = dom.Append(dom.Element("button", "mobile-menu-btn", "aria-label", "Menu"), dom.Text("☰"))
	d.overlay = dom.Element("div", "sidebar-overlay")
	d.sidebar = dom.Append(dom.Element("nav", "sidebar"), d.buildNav(section.BuildNav(reg)))
	d.breadcrumb = dom.Element("span", "breadcrumb-current")
	crumbs := dom.Append(dom.Element("div", "breadcrumb"),
		dom.Append(dom.Element("span", "breadcrumb-root"), dom.Text(pageTitle)),
		dom.Text(" / "),
		d.breadcrumb)

	main := dom.Element("main", "content")
	for _, desc := range reg.All() {
		panel := dom.Element("section", "section", "id", desc.ID)
		if desc.HasContent() {
			dom.SetAttr(panel, "data-source", desc.Source)
		}
		header := dom.Append(dom.Element("h1", "section-title"), dom.Text(desc.Title))
		body := dom.Element("div", "section-body")
		dom.Append(main, dom.Append(panel, header, body))
		d.panels[desc.ID] = panel
		d.bodies[desc.ID] = body
	}

	d.body = dom.Append(dom.Element("body", ""), d.menuButton, d.overlay, d.sidebar, crumbs, main)
	d.root = dom.Append(dom.Element("html", ""), head, d.body)
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(d.root)
	return d
}

func (d *Document) buildNav(entries []section.NavEntry) *html.Node {
	list := dom.Element("ul", "nav-list")
	for _, e := range entries {
		if !e.IsGroup() {
			dom.Append(list, dom.Append(dom.Element("li", ""), d.navLink(e.Section)))
			continue
		}
		header := dom.Append(dom.Element("div", "nav-group-header", GroupAttr, e.Group), dom.Text(e.Group))
		items := dom.Element("ul", "nav-group-items")
		for _, desc := range e.Children {
			dom.Append(items, dom.Append(dom.Element("li", ""), d.navLink(desc)))
		}
		group := dom.Append(dom.Element("li", "nav-group", GroupAttr, e.Group), header, items)
		d.groups[e.Group] = group
		dom.Append(list, group)
	}
	return list
}

func (d *Document) navLink(desc section.Descriptor) *html.Node {
	a := dom.Append(dom.Element("a", "nav-link", "href", "#"+desc.ID, SectionAttr, desc.ID), dom.Text(desc.Title))
	d.navItems[desc.ID] = a
	return a
}

// ActivatePanel implements View.
func (d *Document) ActivatePanel(id string) {
	if p, ok := d.panels[id]; ok {
		dom.AddClass(p, "active")
	}
	if n, ok := d.navItems[id]; ok {
		dom.AddClass(n, "active")
	}
}

// DeactivatePanel implements View.
func (d *Document) DeactivatePanel(id string) {
	if p, ok := d.panels[id]; ok {
		dom.RemoveClass(p, "active")
	}
	if n, ok := d.navItems[id]; ok {
		dom.RemoveClass(n, "active")
	}
}

// SetBreadcrumb implements View.
func (d *Document) SetBreadcrumb(text string) {
	dom.ReplaceChildren(d.breadcrumb, dom.Text(text))
}

// ScrollTop implements View.
func (d *Document) ScrollTop() { d.scrollY = 0 }

// ScrollTo records a scroll offset, as a user scrolling the page would.
func (d *Document) ScrollTo(y int) { d.scrollY = y }

// ScrollY returns the current scroll offset.
func (d *Document) ScrollY() int { return d.scrollY }

// SetDrawerOpen implements View.
func (d *Document) SetDrawerOpen(open bool) {
	dom.SetClass(d.sidebar, "open", open)
	dom.SetClass(d.overlay, "visible", open)
	if open {
		dom.SetAttr(d.body, "style", "overflow: hidden")
	} else {
		dom.RemoveAttr(d.body, "style")
	}
}

// SetGroupExpanded implements View.
func (d *Document) SetGroupExpanded(group string, expanded bool) {
	if g, ok := d.groups[group]; ok {
		dom.SetClass(g, "open", expanded)
	}
}

// SetBlockExpanded implements View. Blocks are elements carrying
// data-block anywhere in the page.
func (d *Document) SetBlockExpanded(block string, expanded bool) {
	for _, n := range dom.QueryAll(d.root, "["+BlockAttr+"]") {
		if dom.Attr(n, BlockAttr) == block {
			dom.SetClass(n, "open", expanded)
		}
	}
}

// ShowLoading implements View.
func (d *Document) ShowLoading(id, source string) {
	body, ok := d.bodies[id]
	if !ok {
		return
	}
	dom.ReplaceChildren(body, dom.Append(dom.Element("div", "loading"), dom.Text("Loading "+source+"…")))
}

// ShowContent implements View.
func (d *Document) ShowContent(id string, content *html.Node) {
	body, ok := d.bodies[id]
	if !ok || content == nil {
		return
	}
	if content.Parent != nil {
		content.Parent.RemoveChild(content)
	}
	dom.ReplaceChildren(body, content)
	markBlocks(content, id)
}

// ShowError implements View.
func (d *Document) ShowError(id, source, message string) {
	body, ok := d.bodies[id]
	if !ok {
		return
	}
	panel := dom.Append(dom.Element("div", "load-error", "role", "alert"),
		dom.Append(dom.Element("p", "load-error-title"), dom.Text("Failed to load "+source)),
		dom.Append(dom.Element("pre", "load-error-message"), dom.Text(message)),
		dom.Append(dom.Element("button", "retry", RetryAttr, id), dom.Text("Retry")),
	)
	dom.ReplaceChildren(body, panel)
}

// markBlocks keys every <details> element and .collapsible container in
// freshly shown content so the shell can toggle it by name.
func markBlocks(root *html.Node, id string) {
	for i, n := range dom.QueryAll(root, "details, .collapsible") {
		if !dom.HasAttr(n, BlockAttr) {
			dom.SetAttr(n, BlockAttr, id+"-"+strconv.Itoa(i))
		}
	}
}

// Root returns the <html> element.
func (d *Document) Root() *html.Node { return d.root }

// Panel returns the panel element for id.
func (d *Document) Panel(id string) *html.Node { return d.panels[id] }

// PanelBody returns the element holding id's loaded content.
func (d *Document) PanelBody(id string) *html.Node { return d.bodies[id] }

// NavItem returns the sidebar link for id.
func (d *Document) NavItem(id string) *html.Node { return d.navItems[id] }

// Group returns the collapsible nav group element for name.
func (d *Document) Group(name string) *html.Node { return d.groups[name] }

// MenuButton returns the mobile drawer toggle.
func (d *Document) MenuButton() *html.Node { return d.menuButton }

// Overlay returns the drawer overlay.
func (d *Document) Overlay() *html.Node { return d.overlay }

// IsActive reports whether id's panel is shown.
func (d *Document) IsActive(id string) bool {
	p, ok := d.panels[id]
	return ok && dom.HasClass(p, "active")
}

// ActivePanels returns the ids of every shown panel.
func (d *Document) ActivePanels() []string {
	var ids []string
	for _, n := range dom.QueryAll(d.root, "section.section.active") {
		ids = append(ids, dom.Attr(n, "id"))
	}
	return ids
}

// Breadcrumb returns the breadcrumb text.
func (d *Document) Breadcrumb() string { return dom.TextContent(d.breadcrumb) }

// DrawerOpen reports whether the mobile drawer is open.
func (d *Document) DrawerOpen() bool { return dom.HasClass(d.sidebar, "open") }

// GroupExpanded reports whether the nav group is open.
func (d *Document) GroupExpanded(name string) bool {
	g, ok := d.groups[name]
	return ok && dom.HasClass(g, "open")
}

// RetryButton returns the retry control in id's error panel, or nil.
func (d *Document) RetryButton(id string) *html.Node {
	body, ok := d.bodies[id]
	if !ok {
		return nil
	}
	return dom.Query(body, "button.retry")
}

// HTML serialises the whole page.
func (d *Document) HTML() string {
	if d.root.Parent != nil {
		return dom.Render(d.root.Parent)
	}
	return dom.Render(d.root)
}

// String implements fmt.Stringer for debugging.
func (d *Document) String() string {
	return fmt.Sprintf("Document(%d panels, active=%v)", len(d.panels), d.ActivePanels())
}
