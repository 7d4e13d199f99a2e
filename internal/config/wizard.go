package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the
// resulting Config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docview! Let's configure your documentation viewer.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Content root.
	rootPrompt := promptui.Prompt{
		Label:   "Content root (directory or http(s) URL)",
		Default: cfg.ContentRoot,
	}
	root, err := rootPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	cfg.ContentRoot = strings.TrimSpace(root)

	// 2. Section source.
	modePrompt := promptui.Select{
		Label: "How should sections be registered",
		Items: []string{
			"default   - the built-in Turumba panels",
			"discover  - one section per markdown file under the content root",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("section mode: %w", err)
	}
	if modeIdx == 1 {
		patternPrompt := promptui.Prompt{
			Label:   "Discover patterns (comma-separated globs)",
			Default: "**/*.md",
		}
		patterns, err := patternPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("discover patterns: %w", err)
		}
		cfg.Discover = splitAndTrim(patterns)
		cfg.Sections = []SectionConfig{{ID: "home", Title: "Overview"}}
	}

	// 3. Highlighting.
	highlightPrompt := promptui.Select{
		Label: "Syntax highlighting",
		Items: []string{string(HighlightPost), string(HighlightRender), string(HighlightOff)},
	}
	_, mode, err := highlightPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("highlight mode: %w", err)
	}
	cfg.Render.Highlight = HighlightMode(mode)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if path == "" {
		path = ".docview.yml"
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", filepath.Clean(path))
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
