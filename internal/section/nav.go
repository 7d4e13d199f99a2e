package section

// NavEntry is one row of the sidebar: either a section link or a collapsible
// group holding section links.
type NavEntry struct {
	Group    string       // set for group rows
	Section  Descriptor   // set for link rows
	Children []Descriptor // group members, in declaration order
}

// IsGroup reports whether the entry is a collapsible group.
func (e NavEntry) IsGroup() bool { return e.Group != "" }

// BuildNav lays out the sidebar. Ungrouped sections keep their position; a
// group appears where its first member was declared.
func BuildNav(r *Registry) []NavEntry {
	var entries []NavEntry
	groupIdx := make(map[string]int)
	for _, d := range r.All() {
		if d.Group == "" {
			entries = append(entries, NavEntry{Section: d})
			continue
		}
		idx, ok := groupIdx[d.Group]
		if !ok {
			idx = len(entries)
			groupIdx[d.Group] = idx
			entries = append(entries, NavEntry{Group: d.Group})
		}
		entries[idx].Children = append(entries[idx].Children, d)
	}
	return entries
}
