package config

import "fmt"

// PatternLab configures the Pattern Lab PHP build task.
type PatternLab struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ConsolePath is the path to the Pattern Lab console script.
	ConsolePath string `yaml:"console_path" mapstructure:"console_path"`
	// PublicDir is the generated site directory removed by clean.
	PublicDir string `yaml:"public_dir" mapstructure:"public_dir"`
	// WatchPaths are extra paths observed in watch mode.
	WatchPaths []string `yaml:"watch_paths" mapstructure:"watch_paths"`
}

// DefaultPatternLab returns a fresh default Pattern Lab configuration.
func DefaultPatternLab() PatternLab {
	return PatternLab{
		ConsolePath: "core/console",
		PublicDir:   "public",
	}
}

// ApplyDefaults fills zero-valued fields from the default template.
func (c *PatternLab) ApplyDefaults() {
	def := DefaultPatternLab()
	if c.ConsolePath == "" {
		c.ConsolePath = def.ConsolePath
	}
	if c.PublicDir == "" {
		c.PublicDir = def.PublicDir
	}
}

// Validate validates the Pattern Lab configuration.
func (c *PatternLab) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ConsolePath == "" {
		return fmt.Errorf("patternlab.console_path is required when enabled")
	}
	if c.PublicDir == "" {
		return fmt.Errorf("patternlab.public_dir is required when enabled")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c PatternLab) Clone() PatternLab {
	out := c
	out.WatchPaths = cloneStrings(c.WatchPaths)
	return out
}
