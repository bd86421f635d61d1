package config

import (
	"fmt"

	"github.com/skillsenselab/assetpipe/logger"
	"github.com/skillsenselab/assetpipe/validation"
)

// Project is the root configuration for a front-end project's task set.
// The base fields are inlined so a config file reads:
//
//	name: my-theme
//	environment: production
//	sass:
//	  src: ["scss/**/*.scss"]
//	  dest: "public/css"
type Project struct {
	BaseConfig `yaml:",inline" mapstructure:",squash"`
	Logging    logger.Config `yaml:"logging" mapstructure:"logging"`
	Sass       Sass          `yaml:"sass" mapstructure:"sass"`
	PatternLab PatternLab    `yaml:"patternlab" mapstructure:"patternlab"`
}

// GetBaseConfig returns the embedded BaseConfig. The method is promoted
// when Project is embedded in a larger struct.
func (c *Project) GetBaseConfig() *BaseConfig {
	return &c.BaseConfig
}

// DefaultProject returns a fresh, fully defaulted Project configuration.
// Every call allocates a new value; the template is never shared.
func DefaultProject() Project {
	p := Project{
		Sass:       DefaultSass(),
		PatternLab: DefaultPatternLab(),
	}
	p.ApplyDefaults()
	return p
}

// ApplyDefaults applies default values to the whole configuration tree.
// A project without a name gets the tool name, so running without a
// config file still works.
func (c *Project) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "assetpipe"
	}
	c.BaseConfig.ApplyDefaults()
	if c.Logging.TaskName == "" && c.Name != "" {
		c.Logging.TaskName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Sass.ApplyDefaults()
	c.PatternLab.ApplyDefaults()
}

// Validate validates the whole configuration tree. Struct tags are checked
// first, then each section's cross-field rules.
func (c *Project) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := validation.Struct(&c.Sass); err != nil {
		return fmt.Errorf("config.sass: %w", err)
	}
	if err := c.Sass.Validate(); err != nil {
		return fmt.Errorf("config.sass: %w", err)
	}
	if err := c.PatternLab.Validate(); err != nil {
		return fmt.Errorf("config.patternlab: %w", err)
	}
	return nil
}
