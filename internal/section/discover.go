package section

import (
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover walks fsys for files matching any of patterns and returns one
// descriptor per file, sorted by path. The id is a slug of the path (files
// with an empty or already-taken slug are skipped), the
// title is the first "# " heading or the file stem, and files below a
// top-level directory are grouped under that directory.
func Discover(fsys fs.FS, patterns []string) ([]Descriptor, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("discover %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	descs := make([]Descriptor, 0, len(paths))
	ids := make(map[string]string, len(paths))
	for _, p := range paths {
		id := Slug(strings.TrimSuffix(p, path.Ext(p)))
		if id == "" {
			log.Printf("section: skipping %s: name has no letters or digits", p)
			continue
		}
		if prev, ok := ids[id]; ok {
			log.Printf("section: skipping %s: id %q already taken by %s", p, id, prev)
			continue
		}
		ids[id] = p

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		d := Descriptor{
			ID:     id,
			Title:  extractTitle(string(content), p),
			Source: p,
		}
		if dir, _, ok := strings.Cut(p, "/"); ok {
			d.Group = formatDirName(dir)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// Merge appends discovered descriptors to declared ones, skipping any whose
// id or source is already declared.
func Merge(declared, discovered []Descriptor) []Descriptor {
	ids := make(map[string]bool, len(declared))
	sources := make(map[string]bool, len(declared))
	out := append([]Descriptor(nil), declared...)
	for _, d := range declared {
		ids[d.ID] = true
		if d.Source != "" {
			sources[CleanPath(d.Source)] = true
		}
	}
	for _, d := range discovered {
		if ids[d.ID] || sources[CleanPath(d.Source)] {
			continue
		}
		ids[d.ID] = true
		out = append(out, d)
	}
	return out
}

// Slug lowercases s and collapses every run of non-alphanumeric characters
// into a single hyphen: "guide/TURUMBA_MESSAGING" becomes "guide-turumba-messaging".
func Slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// extractTitle pulls the first # heading from markdown content, or falls back to the file stem.
func extractTitle(content, relPath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
}

// formatDirName converts a directory name to a human-readable group name.
func formatDirName(name string) string {
	words := strings.FieldsFunc(name, func(c rune) bool {
		return c == '-' || c == '_'
	})
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
