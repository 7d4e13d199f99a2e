// Package section holds the immutable set of panels a viewer can show and
// the lookup tables derived from it.
package section

import (
	"fmt"
	"strings"
)

// Descriptor describes one panel. It is immutable once the Registry is built.
type Descriptor struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source,omitempty"` // opaque content reference; empty for static panels
	Group  string `json:"group,omitempty"`  // collapsible nav group, if any
}

// HasContent reports whether the panel fetches its content lazily.
func (d Descriptor) HasContent() bool { return d.Source != "" }

// Registry maps section ids to descriptors. It is built once and never mutated.
type Registry struct {
	order         []string
	byID          map[string]Descriptor
	defaultID     string
	fallbackTitle string
}

// NewRegistry builds a Registry from descs in declaration order. defaultID
// must name one of descs. fallbackTitle is used for sections without a title.
func NewRegistry(descs []Descriptor, defaultID, fallbackTitle string) (*Registry, error) {
	r := &Registry{
		byID:          make(map[string]Descriptor, len(descs)),
		defaultID:     defaultID,
		fallbackTitle: fallbackTitle,
	}
	for i, d := range descs {
		if strings.TrimSpace(d.ID) == "" {
			return nil, fmt.Errorf("section %d: empty id", i)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("section %d: duplicate id %q", i, d.ID)
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	if _, ok := r.byID[defaultID]; !ok {
		return nil, fmt.Errorf("default section %q is not registered", defaultID)
	}
	return r, nil
}

// Resolve returns the descriptor for id. An unknown id is an ordinary
// condition, reported through the boolean.
func (r *Registry) Resolve(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// ResolveOrDefault returns the descriptor for id, or the default section
// when id is unknown.
func (r *Registry) ResolveOrDefault(id string) Descriptor {
	if d, ok := r.byID[id]; ok {
		return d
	}
	return r.byID[r.defaultID]
}

// Default returns the default ("home") section.
func (r *Registry) Default() Descriptor { return r.byID[r.defaultID] }

// All returns every descriptor in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.order))
	for i, id := range r.order {
		out[i] = r.byID[id]
	}
	return out
}

// Len returns the number of registered sections.
func (r *Registry) Len() int { return len(r.order) }

// Title returns the breadcrumb title for id, falling back to the registry's
// fallback title for unknown or untitled sections.
func (r *Registry) Title(id string) string {
	if d, ok := r.byID[id]; ok && d.Title != "" {
		return d.Title
	}
	return r.fallbackTitle
}

// GroupOf returns the nav group id belongs to, or "" if it is ungrouped.
func (r *Registry) GroupOf(id string) string {
	return r.byID[id].Group
}

// Groups returns the distinct group names in first-declared order.
func (r *Registry) Groups() []string {
	var groups []string
	seen := make(map[string]bool)
	for _, id := range r.order {
		g := r.byID[id].Group
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		groups = append(groups, g)
	}
	return groups
}
