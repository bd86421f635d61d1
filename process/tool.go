package process

import (
	"context"
	"os/exec"
	"time"

	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/logger"
)

// ToolConfig configures an external tool adapter.
type ToolConfig struct {
	// Name identifies the tool ("sass", "stylelint", "sassdoc", "php").
	Name string `yaml:"name,omitempty" mapstructure:"name"`
	// Binary is the executable name or path. Defaults to Name.
	Binary string `yaml:"binary,omitempty" mapstructure:"binary"`
	// Dir is the working directory for invocations.
	Dir string `yaml:"dir,omitempty" mapstructure:"dir"`
	// GracePeriod is the SIGTERM-to-SIGKILL window for cancelled runs.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Timeout is the per-invocation execution timeout. Zero means none.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// Tool wraps an external command-line tool with PATH resolution and
// domain error mapping. Resolution happens once, at construction.
type Tool struct {
	config ToolConfig
	path   string
	log    *logger.Logger
}

// NewTool resolves the tool's binary and returns an adapter for it.
// A missing binary is reported as a TOOL_NOT_FOUND error, so callers can
// fail at construction instead of mid-pipeline.
func NewTool(cfg ToolConfig) (*Tool, error) {
	if cfg.Binary == "" {
		cfg.Binary = cfg.Name
	}
	path, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, errors.ToolNotFound(cfg.Binary).WithCause(err)
	}
	return &Tool{
		config: cfg,
		path:   path,
		log:    logger.Get("process").WithFields(map[string]interface{}{logger.FieldTool: cfg.Name}),
	}, nil
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.config.Name }

// Path returns the resolved executable path.
func (t *Tool) Path() string { return t.path }

// Run executes the tool with the given arguments, applying adapter-level
// defaults. A non-zero exit is mapped to a TOOL_FAILED error carrying the
// stderr tail.
func (t *Tool) Run(ctx context.Context, args ...string) (*Result, error) {
	return t.RunCommand(ctx, Command{Args: args})
}

// RunCommand executes the tool with a fully specified Command. The Binary
// field is always overridden with the resolved path.
func (t *Tool) RunCommand(ctx context.Context, cmd Command) (*Result, error) {
	cmd.Binary = t.path
	if cmd.Dir == "" {
		cmd.Dir = t.config.Dir
	}
	if cmd.GracePeriod == 0 && t.config.GracePeriod > 0 {
		cmd.GracePeriod = t.config.GracePeriod
	}
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := Run(ctx, cmd)
	if err != nil {
		exitCode := -1
		if result != nil {
			exitCode = result.ExitCode
		}
		t.log.Debug("tool failed", logger.Fields(
			"args", cmd.Args,
			"exit_code", exitCode,
		))
		appErr := errors.ToolFailed(t.config.Name, exitCode, err)
		if result != nil {
			if tail := result.StderrTail(10); tail != "" {
				appErr.WithDetail("stderr", tail)
			}
		}
		return result, appErr
	}

	t.log.Debug("tool finished", logger.DurationFields(t.config.Name, time.Since(start)))
	return result, nil
}
