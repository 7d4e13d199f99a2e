// Package router maps the address fragment to the active section.
package router

import (
	"net/url"
	"strings"

	"github.com/turumba/docview/internal/section"
	"github.com/turumba/docview/internal/shell"
	"github.com/turumba/docview/internal/view"
)

// Address is the fragment part of the page address. SetFragment behaves
// like assigning location.hash: when the value changes, an address-change
// event is queued and later delivered to HandleAddressChange.
// ReplaceFragment rewrites the fragment without queuing anything.
type Address interface {
	Fragment() string
	SetFragment(fragment string)
	ReplaceFragment(fragment string)
}

// ContentLoader starts a content fetch for a section that was never requested.
type ContentLoader interface {
	Ensure(id string) bool
}

// Router owns the single active section. It starts unresolved and runs for
// the life of the session.
type Router struct {
	reg         *section.Registry
	addr        Address
	view        view.View
	shell       *shell.Shell
	loader      ContentLoader
	active      string
	activations int
}

// New creates an unresolved Router. Call Start to resolve the initial address.
func New(reg *section.Registry, addr Address, v view.View, sh *shell.Shell, loader ContentLoader) *Router {
	return &Router{reg: reg, addr: addr, view: v, shell: sh, loader: loader}
}

// Start resolves the current fragment, defaulting to the home section.
func (r *Router) Start() {
	r.HandleAddressChange()
}

// HandleAddressChange re-derives the target from the fragment and activates it.
func (r *Router) HandleAddressChange() {
	r.Activate(ParseFragment(r.addr.Fragment()))
}

// Navigate is the in-app link action: it writes id to the address, and the
// resulting address change performs the activation. If the fragment
// already names id no change event would fire, so it activates directly.
// Either way one call yields exactly one activation.
func (r *Router) Navigate(id string) {
	if ParseFragment(r.addr.Fragment()) == id {
		r.Activate(id)
		return
	}
	r.addr.SetFragment(id)
}

// Activate shows the section for id, substituting the default section for
// unknown ids, and returns the id actually shown.
func (r *Router) Activate(id string) string {
	d := r.reg.ResolveOrDefault(id)

	if r.active != "" {
		r.view.DeactivatePanel(r.active)
	}
	r.view.ActivatePanel(d.ID)
	r.active = d.ID
	r.activations++

	// Ensure loads only Absent entries; a Failed section waits for an explicit retry.
	if d.HasContent() && r.loader != nil {
		r.loader.Ensure(d.ID)
	}
	r.shell.SetBreadcrumb(r.reg.Title(d.ID))
	r.shell.CloseDrawer()
	r.view.ScrollTop()
	if d.Group != "" {
		r.shell.ExpandGroup(d.Group)
	}

	// Keep the fragment mirroring the active id without a second activation.
	if ParseFragment(r.addr.Fragment()) != d.ID {
		r.addr.ReplaceFragment(d.ID)
	}
	return d.ID
}

// Active returns the active section id, or "" before Start.
func (r *Router) Active() string { return r.active }

// Activations returns how many times Activate has run.
func (r *Router) Activations() int { return r.activations }

// ParseFragment strips a leading '#' and percent-decoding from a fragment.
func ParseFragment(fragment string) string {
	fragment = strings.TrimPrefix(fragment, "#")
	if s, err := url.PathUnescape(fragment); err == nil {
		return s
	}
	return fragment
}
