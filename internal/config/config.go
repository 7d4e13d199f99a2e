package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DOCVIEW_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: DOCVIEW_CONTENT_ROOT -> content_root,
	// DOCVIEW_RENDER_HIGHLIGHT -> render.highlight, etc.
	if err := k.Load(env.Provider("DOCVIEW_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	// A declared section list replaces the defaults rather than merging
	// into them element by element.
	if k.Exists("sections") {
		cfg.Sections = nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// nestedKeys are the config sections whose fields are reachable from the
// environment as DOCVIEW_<SECTION>_<FIELD>.
var nestedKeys = []string{"render", "server"}

// envKey maps an environment variable name to its koanf key path.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, "DOCVIEW_"))
	for _, section := range nestedKeys {
		if field, ok := strings.CutPrefix(key, section+"_"); ok && field != "" {
			return section + "." + field
		}
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validHighlightModes is the set of recognized highlight values.
var validHighlightModes = map[HighlightMode]bool{
	HighlightRender: true,
	HighlightPost:   true,
	HighlightOff:    true,
}

// Validate checks that the configuration contains valid values. The default
// section is only checked against declared sections when nothing is
// discovered, since discovered ids are known only once the content root is read.
func (c *Config) Validate() error {
	if c.ContentRoot == "" {
		return fmt.Errorf("content_root is required")
	}
	if c.DefaultSection == "" {
		return fmt.Errorf("default_section is required")
	}

	seen := make(map[string]bool, len(c.Sections))
	for i, s := range c.Sections {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("sections[%d]: id is required", i)
		}
		if strings.ContainsAny(s.ID, "#/ ") {
			return fmt.Errorf("sections[%d]: id %q must not contain '#', '/' or spaces", i, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("sections[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
	}
	if len(c.Discover) == 0 && !seen[c.DefaultSection] {
		return fmt.Errorf("default_section %q is not a declared section", c.DefaultSection)
	}

	if c.Render.Highlight != "" && !validHighlightModes[c.Render.Highlight] {
		return fmt.Errorf("invalid render.highlight %q: must be one of render, post, off", c.Render.Highlight)
	}

	if c.Server.Port < 0 {
		return fmt.Errorf("server.port must be non-negative")
	}

	if c.FetchTimeoutSeconds < 0 {
		return fmt.Errorf("fetch_timeout_seconds must be non-negative")
	}

	return nil
}

// FetchTimeout returns the content fetch timeout. Zero means no timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// IsRemote reports whether the content root is an http(s) base URL rather
// than a local directory.
func (c *Config) IsRemote() bool {
	return strings.HasPrefix(c.ContentRoot, "http://") || strings.HasPrefix(c.ContentRoot, "https://")
}
