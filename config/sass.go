package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Sass configures the stylesheet pipeline task.
type Sass struct {
	// Src is the list of glob patterns selecting source files.
	Src []string `yaml:"src" mapstructure:"src" validate:"required,min=1"`
	// Dest is the directory compiled output is written to.
	Dest string `yaml:"dest" mapstructure:"dest" validate:"required"`
	// OutputStyle controls the formatting of compiled output.
	OutputStyle string `yaml:"output_style" mapstructure:"output_style" validate:"omitempty,oneof=expanded compressed"`
	// SourceMaps controls whether positional debugging metadata is emitted.
	SourceMaps bool `yaml:"source_maps" mapstructure:"source_maps"`
	// Flatten writes all compiled files into Dest directly instead of
	// mirroring the source directory layout.
	Flatten bool `yaml:"flatten" mapstructure:"flatten"`
	// IncludePaths are extra import lookup paths for the compiler.
	IncludePaths []string `yaml:"include_paths" mapstructure:"include_paths"`

	Prefix     Prefix     `yaml:"prefix" mapstructure:"prefix"`
	Inline     Inline     `yaml:"inline" mapstructure:"inline"`
	Minify     Minify     `yaml:"minify" mapstructure:"minify"`
	Lint       Lint       `yaml:"lint" mapstructure:"lint"`
	Docs       Docs       `yaml:"docs" mapstructure:"docs"`
	WatchPaths []string   `yaml:"watch_paths" mapstructure:"watch_paths"`
}

// Prefix configures the vendor-prefix post-processing stage.
type Prefix struct {
	Enabled  bool     `yaml:"enabled" mapstructure:"enabled"`
	Browsers []string `yaml:"browsers" mapstructure:"browsers"`
}

// Inline configures the asset URL inlining post-processing stage.
type Inline struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// MaxSize is the largest asset, in bytes, that will be inlined.
	MaxSize int64 `yaml:"max_size" mapstructure:"max_size" validate:"gte=0"`
	// Include restricts inlining to assets matching these path patterns.
	Include []string `yaml:"include" mapstructure:"include"`
}

// Minify configures the minification post-processing stage. Minification
// also runs when the base environment is production, regardless of Enabled.
type Minify struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Lint configures the lint operation.
type Lint struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// OnWatch runs lint on every watch-triggered change.
	OnWatch bool `yaml:"on_watch" mapstructure:"on_watch"`
	// ConfigFile is an optional linter configuration file path.
	ConfigFile string `yaml:"config_file" mapstructure:"config_file"`
}

// Docs configures the documentation operation.
type Docs struct {
	Enabled bool     `yaml:"enabled" mapstructure:"enabled"`
	Dest    string   `yaml:"dest" mapstructure:"dest"`
	Exclude []string `yaml:"exclude" mapstructure:"exclude"`
	Theme   string   `yaml:"theme" mapstructure:"theme"`
	Sort    []string `yaml:"sort" mapstructure:"sort"`
}

// DefaultSass returns a fresh default Sass configuration. Every call
// allocates new slices so callers can never mutate a shared template.
func DefaultSass() Sass {
	return Sass{
		Src:         []string{"scss/**/*.scss"},
		Dest:        "public/css",
		OutputStyle: "expanded",
		SourceMaps:  true,
		Prefix: Prefix{
			Enabled:  true,
			Browsers: []string{"last 2 versions", "> 1%"},
		},
		Inline: Inline{
			MaxSize: 16 * 1024,
		},
		Lint: Lint{
			Enabled: true,
			OnWatch: false,
		},
		Docs: Docs{
			Dest:  "public/docs/sass",
			Theme: "default",
		},
	}
}

// ApplyDefaults fills zero-valued fields from the default template.
func (c *Sass) ApplyDefaults() {
	def := DefaultSass()
	if len(c.Src) == 0 {
		c.Src = def.Src
	}
	if c.Dest == "" {
		c.Dest = def.Dest
	}
	if c.OutputStyle == "" {
		c.OutputStyle = def.OutputStyle
	}
	if c.Prefix.Enabled && len(c.Prefix.Browsers) == 0 {
		c.Prefix.Browsers = def.Prefix.Browsers
	}
	if c.Inline.Enabled && c.Inline.MaxSize == 0 {
		c.Inline.MaxSize = def.Inline.MaxSize
	}
	if c.Docs.Enabled && c.Docs.Dest == "" {
		c.Docs.Dest = def.Docs.Dest
	}
	if c.Docs.Enabled && c.Docs.Theme == "" {
		c.Docs.Theme = def.Docs.Theme
	}
}

// Validate validates the Sass configuration. It checks glob patterns and
// cross-field constraints beyond the struct tags.
func (c *Sass) Validate() error {
	if len(c.Src) == 0 {
		return fmt.Errorf("sass.src is required")
	}
	for _, pattern := range c.Src {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("sass.src contains invalid glob pattern %q", pattern)
		}
	}
	if c.Dest == "" {
		return fmt.Errorf("sass.dest is required")
	}
	if c.OutputStyle != "expanded" && c.OutputStyle != "compressed" {
		return fmt.Errorf("sass.output_style must be one of [expanded, compressed] (got: %s)", c.OutputStyle)
	}
	if c.Inline.MaxSize < 0 {
		return fmt.Errorf("sass.inline.max_size must not be negative (got: %d)", c.Inline.MaxSize)
	}
	for _, pattern := range c.Inline.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("sass.inline.include contains invalid glob pattern %q", pattern)
		}
	}
	for _, pattern := range c.WatchPaths {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("sass.watch_paths contains invalid glob pattern %q", pattern)
		}
	}
	if c.Docs.Enabled && c.Docs.Dest == "" {
		return fmt.Errorf("sass.docs.dest is required when docs are enabled")
	}
	return nil
}

// Clone returns a deep copy of the configuration. Task constructors clone
// their input so later caller mutations cannot leak into a running task.
func (c Sass) Clone() Sass {
	out := c
	out.Src = cloneStrings(c.Src)
	out.IncludePaths = cloneStrings(c.IncludePaths)
	out.Prefix.Browsers = cloneStrings(c.Prefix.Browsers)
	out.Inline.Include = cloneStrings(c.Inline.Include)
	out.Docs.Exclude = cloneStrings(c.Docs.Exclude)
	out.Docs.Sort = cloneStrings(c.Docs.Sort)
	out.WatchPaths = cloneStrings(c.WatchPaths)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
