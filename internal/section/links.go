package section

import (
	"path"
	"strings"
)

// LinkTargets maps content-relative paths, and their filename-only alias,
// to section ids. Built once from a Registry.
type LinkTargets struct {
	byPath   map[string]string
	byName   map[string]string
	sourceOf map[string]string
}

// NewLinkTargets indexes every content-bearing section in r. When two
// sources share a file name, the first declared keeps the alias.
func NewLinkTargets(r *Registry) *LinkTargets {
	t := &LinkTargets{
		byPath:   make(map[string]string),
		byName:   make(map[string]string),
		sourceOf: make(map[string]string),
	}
	for _, d := range r.All() {
		if !d.HasContent() {
			continue
		}
		cleaned := CleanPath(d.Source)
		t.sourceOf[d.ID] = d.Source
		if _, ok := t.byPath[cleaned]; !ok {
			t.byPath[cleaned] = d.ID
		}
		name := path.Base(cleaned)
		if _, ok := t.byName[name]; !ok {
			t.byName[name] = d.ID
		}
	}
	return t
}

// Lookup resolves a cleaned path to a section id, trying the exact path
// first and then the file name alone.
func (t *LinkTargets) Lookup(cleaned string) (string, bool) {
	if cleaned == "" {
		return "", false
	}
	if id, ok := t.byPath[cleaned]; ok {
		return id, true
	}
	id, ok := t.byName[path.Base(cleaned)]
	return id, ok
}

// SourceOf returns the content source declared for id.
func (t *LinkTargets) SourceOf(id string) (string, bool) {
	s, ok := t.sourceOf[id]
	return s, ok
}

// CleanPath strips the query, the fragment and any leading "./", "../" or
// "/" segments from a link reference.
func CleanPath(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	for {
		switch {
		case strings.HasPrefix(ref, "./"):
			ref = ref[2:]
		case strings.HasPrefix(ref, "../"):
			ref = ref[3:]
		case strings.HasPrefix(ref, "/"):
			ref = ref[1:]
		default:
			return ref
		}
	}
}
