package config

// DefaultSections mirrors the panels of the Turumba documentation site.
var DefaultSections = []SectionConfig{
	{ID: "home", Title: "Overview"},
	{ID: "architecture", Title: "Architecture", Source: "TURUMBA_ARCHITECTURE.md", Group: "platform"},
	{ID: "messaging", Title: "Messaging System", Source: "TURUMBA_MESSAGING.md", Group: "platform"},
	{ID: "channels", Title: "Delivery Channels", Source: "TURUMBA_DELIVERY_CHANNELS.md", Group: "platform"},
	{ID: "full-spec", Title: "Full Specification", Source: "TURUMBA_FULL_SPEC.md"},
	{ID: "roadmap", Title: "Roadmap", Source: "ROADMAP.md"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	sections := make([]SectionConfig, len(DefaultSections))
	copy(sections, DefaultSections)
	return &Config{
		Title:          "Documentation",
		DefaultSection: "home",
		ContentRoot:    "docs",
		Sections:       sections,
		Render: RenderConfig{
			Markdown:  true,
			Highlight: HighlightPost,
			Style:     "github",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		FetchTimeoutSeconds: 30,
	}
}
