package config

// HighlightMode selects where syntax highlighting of code blocks happens.
type HighlightMode string

const (
	// HighlightRender highlights fenced code while goldmark renders it.
	HighlightRender HighlightMode = "render"
	// HighlightPost highlights code blocks in the rendered tree after rendering.
	HighlightPost HighlightMode = "post"
	// HighlightOff disables highlighting.
	HighlightOff HighlightMode = "off"
)

// Config is the top-level docview configuration, corresponding to .docview.yml.
type Config struct {
	Title               string          `yaml:"title" koanf:"title"`
	DefaultSection      string          `yaml:"default_section" koanf:"default_section"`
	ContentRoot         string          `yaml:"content_root" koanf:"content_root"`
	Sections            []SectionConfig `yaml:"sections" koanf:"sections"`
	Discover            []string        `yaml:"discover" koanf:"discover"`
	Render              RenderConfig    `yaml:"render" koanf:"render"`
	Server              ServerConfig    `yaml:"server" koanf:"server"`
	FetchTimeoutSeconds int             `yaml:"fetch_timeout_seconds" koanf:"fetch_timeout_seconds"`
}

// SectionConfig declares one panel. Source is empty for panels whose
// content is static and never fetched.
type SectionConfig struct {
	ID     string `yaml:"id" koanf:"id"`
	Title  string `yaml:"title" koanf:"title"`
	Source string `yaml:"source,omitempty" koanf:"source"`
	Group  string `yaml:"group,omitempty" koanf:"group"`
}

// RenderConfig holds markdown rendering settings.
type RenderConfig struct {
	Markdown  bool          `yaml:"markdown" koanf:"markdown"`
	Highlight HighlightMode `yaml:"highlight" koanf:"highlight"`
	Style     string        `yaml:"style" koanf:"style"`
}

// ServerConfig holds settings for the content store server.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}
