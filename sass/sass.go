// Package sass wraps a stylesheet toolchain as a set of named, independently
// invokable operations: compile, clean, lint, docs and watch. External tools
// (sass, postcss, stylelint, sassdoc) are driven through the process package;
// post-processing stages run in memory between compile and write.
package sass

import (
	"context"
	"sync"
	"time"

	"github.com/skillsenselab/assetpipe/config"
	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/logger"
	"github.com/skillsenselab/assetpipe/notify"
	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/process"
	"github.com/skillsenselab/assetpipe/task"
)

// External tool names. Binaries are resolved via PATH at first use.
const (
	toolSass      = "sass"
	toolPostCSS   = "postcss"
	toolStylelint = "stylelint"
	toolSassdoc   = "sassdoc"
)

// toolRunner is the slice of process.Tool the operations need. Tests
// substitute fakes for it.
type toolRunner interface {
	Name() string
	RunCommand(ctx context.Context, cmd process.Command) (*process.Result, error)
}

// Sass exposes the stylesheet operation set for one validated configuration.
type Sass struct {
	cfg      config.Sass
	env      string
	log      *logger.Logger
	events   pipeline.Notifier
	notifier notify.Notifier

	mu    sync.Mutex
	tools map[string]toolRunner
	lint  *lintCache
}

// Option customizes a Sass instance.
type Option func(*Sass)

// WithEnvironment sets the deployment environment. Minification is forced
// when it is "production".
func WithEnvironment(env string) Option {
	return func(s *Sass) { s.env = env }
}

// WithLogger sets the instance logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Sass) { s.log = log }
}

// WithEvents sets the pipeline event observer. Defaults to a no-op.
func WithEvents(n pipeline.Notifier) Option {
	return func(s *Sass) { s.events = n }
}

// WithUserNotifier sets the user-facing notifier for completion and
// failure messages. Defaults to a no-op.
func WithUserNotifier(n notify.Notifier) Option {
	return func(s *Sass) { s.notifier = n }
}

// WithTool overrides the runner for a named external tool.
func WithTool(name string, t toolRunner) Option {
	return func(s *Sass) { s.tools[name] = t }
}

// New validates the configuration and builds the operation set. The
// configuration is cloned, so later mutations by the caller do not leak
// into a running instance. Invalid configuration fails here, never inside
// a stage.
func New(cfg config.Sass, opts ...Option) (*Sass, error) {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidConfig(err.Error()).WithCause(err)
	}

	s := &Sass{
		cfg:      cfg,
		env:      "development",
		log:      logger.Get("sass"),
		events:   pipeline.NopNotifier{},
		notifier: notify.Nop{},
		tools:    make(map[string]toolRunner),
		lint:     newLintCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns a copy of the effective configuration.
func (s *Sass) Config() config.Sass { return s.cfg.Clone() }

// tool returns the runner for a named tool, resolving the binary on first
// use so operations that never touch a tool do not require it installed.
func (s *Sass) tool(name string) (toolRunner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tools[name]; ok {
		return t, nil
	}
	t, err := process.NewTool(process.ToolConfig{Name: name})
	if err != nil {
		return nil, err
	}
	s.tools[name] = t
	return t, nil
}

// minifyEnabled reports whether the minify stage should run. Production
// builds are always minified.
func (s *Sass) minifyEnabled() bool {
	return s.cfg.Minify.Enabled || s.env == "production"
}

// Tasks returns the operation set as registrable tasks. Lint and docs
// appear only when their configuration enables them.
func (s *Sass) Tasks() []task.Task {
	tasks := []task.Task{
		{
			Name:        "sass:compile",
			DisplayName: "Compile stylesheets",
			Description: "Compile source stylesheets and post-process the output",
			Run: func(ctx context.Context) pipeline.Outcome {
				return s.Compile(ctx, pipeline.FailFast)
			},
		},
		{
			Name:        "sass:clean",
			DisplayName: "Clean generated stylesheets",
			Description: "Remove compiled stylesheets and generated docs",
			Run:         s.Clean,
		},
	}
	if s.cfg.Lint.Enabled {
		tasks = append(tasks, task.Task{
			Name:        "sass:lint",
			DisplayName: "Lint stylesheets",
			Description: "Run the style linter over changed source files",
			Run: func(ctx context.Context) pipeline.Outcome {
				return s.Lint(ctx, pipeline.FailFast)
			},
		})
	}
	if s.cfg.Docs.Enabled {
		tasks = append(tasks, task.Task{
			Name:        "sass:docs",
			DisplayName: "Generate stylesheet docs",
			Description: "Generate reference documentation from source comments",
			Run:         s.Docs,
		})
	}
	tasks = append(tasks, task.Task{
		Name:        "sass:watch",
		DisplayName: "Watch stylesheets",
		Description: "Rebuild on source changes until interrupted",
		Run: func(ctx context.Context) pipeline.Outcome {
			start := time.Now()
			err := s.Watch(ctx)
			outcome := pipeline.Outcome{Operation: "watch", Duration: time.Since(start)}
			outcome.Err = errors.Wrap(err)
			return outcome
		},
	})
	return tasks
}
