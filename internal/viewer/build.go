package viewer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/turumba/docview/internal/config"
	"github.com/turumba/docview/internal/content"
	"github.com/turumba/docview/internal/render"
	"github.com/turumba/docview/internal/section"
	"github.com/turumba/docview/internal/view"
)

// Descriptors returns the configured sections followed by any discovered
// under a local content root.
func Descriptors(cfg *config.Config) ([]section.Descriptor, error) {
	declared := make([]section.Descriptor, 0, len(cfg.Sections))
	for _, s := range cfg.Sections {
		declared = append(declared, section.Descriptor{ID: s.ID, Title: s.Title, Source: s.Source, Group: s.Group})
	}
	if len(cfg.Discover) == 0 {
		return declared, nil
	}
	if cfg.IsRemote() {
		return nil, fmt.Errorf("discover requires a local content_root, got %s", cfg.ContentRoot)
	}
	discovered, err := section.Discover(os.DirFS(cfg.ContentRoot), cfg.Discover)
	if err != nil {
		return nil, fmt.Errorf("discovering sections: %w", err)
	}
	return section.Merge(declared, discovered), nil
}

// NewRegistry builds the section registry described by cfg.
func NewRegistry(cfg *config.Config) (*section.Registry, error) {
	descs, err := Descriptors(cfg)
	if err != nil {
		return nil, err
	}
	reg, err := section.NewRegistry(descs, cfg.DefaultSection, cfg.Title)
	if err != nil {
		return nil, fmt.Errorf("building section registry: %w", err)
	}
	return reg, nil
}

// NewFromConfig builds a session rendering into a fresh Document.
func NewFromConfig(ctx context.Context, cfg *config.Config, fragment string, logOutput io.Writer) (*Session, *view.Document, error) {
	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	renderer, highlighter := render.NewFromConfig(cfg.Render)

	var css string
	if cfg.Render.Markdown && cfg.Render.Highlight != config.HighlightOff {
		css, err = render.NewChroma(cfg.Render.Style).StyleSheet()
		if err != nil {
			return nil, nil, err
		}
	}
	doc := view.NewDocument(reg, cfg.Title, css)

	s := New(ctx, Options{
		Registry:    reg,
		Fetcher:     content.NewFetcher(cfg.ContentRoot, cfg.FetchTimeout()),
		Renderer:    renderer,
		Highlighter: highlighter,
		View:        doc,
		Fragment:    fragment,
		LogOutput:   logOutput,
	})
	return s, doc, nil
}
