// Package patternlab drives the Pattern Lab PHP console as a task wrapper:
// generate the pattern site, clean the generated output and rebuild on
// template changes.
package patternlab

import (
	"context"
	"os"
	"sync"

	"github.com/skillsenselab/assetpipe/config"
	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/logger"
	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/process"
	"github.com/skillsenselab/assetpipe/task"
	"github.com/skillsenselab/assetpipe/watch"
)

const toolPHP = "php"

// StageGenerate runs the Pattern Lab generator.
const StageGenerate pipeline.StageName = "generate"

type toolRunner interface {
	Name() string
	RunCommand(ctx context.Context, cmd process.Command) (*process.Result, error)
}

// PatternLab exposes the pattern library operation set.
type PatternLab struct {
	cfg    config.PatternLab
	log    *logger.Logger
	events pipeline.Notifier

	mu  sync.Mutex
	php toolRunner
}

// Option customizes a PatternLab instance.
type Option func(*PatternLab)

// WithLogger sets the instance logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *PatternLab) { p.log = log }
}

// WithEvents sets the pipeline event observer.
func WithEvents(n pipeline.Notifier) Option {
	return func(p *PatternLab) { p.events = n }
}

// WithTool overrides the PHP runner.
func WithTool(t toolRunner) Option {
	return func(p *PatternLab) { p.php = t }
}

// New validates the configuration and builds the operation set.
func New(cfg config.PatternLab, opts ...Option) (*PatternLab, error) {
	cfg = cfg.Clone()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.InvalidConfig(err.Error()).WithCause(err)
	}

	p := &PatternLab{
		cfg:    cfg,
		log:    logger.Get("patternlab"),
		events: pipeline.NopNotifier{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *PatternLab) tool() (toolRunner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.php != nil {
		return p.php, nil
	}
	t, err := process.NewTool(process.ToolConfig{Name: toolPHP})
	if err != nil {
		return nil, err
	}
	p.php = t
	return t, nil
}

// Build generates the pattern site.
func (p *PatternLab) Build(ctx context.Context) pipeline.Outcome {
	r := pipeline.NewRunner("patternlab",
		pipeline.WithNotifier(p.events),
		pipeline.WithDonePayload(p.cfg.PublicDir),
		pipeline.WithLogger(p.log),
	)
	r.Append(pipeline.NewStage(StageGenerate, p.generateStage))
	return r.Run(ctx)
}

func (p *PatternLab) generateStage(ctx context.Context, _ *pipeline.Build) error {
	tool, err := p.tool()
	if err != nil {
		return err
	}
	if _, err := tool.RunCommand(ctx, process.Command{
		Args: []string{p.cfg.ConsolePath, "--generate"},
	}); err != nil {
		return errors.BuildFailed("patternlab", err)
	}
	p.log.Info("Pattern site generated", map[string]interface{}{
		"dest": p.cfg.PublicDir,
	})
	return nil
}

// Clean removes the generated pattern site. A missing directory is a
// success, so cleaning twice is always safe.
func (p *PatternLab) Clean(ctx context.Context) pipeline.Outcome {
	r := pipeline.NewRunner("patternlab:clean",
		pipeline.WithNotifier(p.events),
		pipeline.WithLogger(p.log),
	)
	r.Append(pipeline.NewStage(pipeline.StageClean, func(_ context.Context, _ *pipeline.Build) error {
		if err := os.RemoveAll(p.cfg.PublicDir); err != nil {
			return errors.IO("remove", p.cfg.PublicDir, err)
		}
		return nil
	}))
	return r.Run(ctx)
}

// WatchBindings returns the change-triggered rebuild binding.
func (p *PatternLab) WatchBindings() []watch.Binding {
	globs := p.cfg.WatchPaths
	if len(globs) == 0 {
		globs = []string{"source/**/*"}
	}
	return []watch.Binding{{
		Name:  "patternlab:build",
		Globs: globs,
		Run: func(ctx context.Context, _ []string) pipeline.Outcome {
			return p.Build(ctx)
		},
	}}
}

// Watch regenerates the pattern site on template changes until the
// context is cancelled.
func (p *PatternLab) Watch(ctx context.Context, opts ...watch.Option) error {
	if outcome := p.Build(ctx); outcome.Failed() {
		p.log.Error("Initial build failed, watching anyway", map[string]interface{}{
			"error": outcome.Err.Error(),
		})
	}

	session, err := watch.NewSession(p.WatchBindings(), append([]watch.Option{watch.WithLogger(p.log)}, opts...)...)
	if err != nil {
		return err
	}
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()

	<-ctx.Done()
	return nil
}

// Tasks returns the operation set as registrable tasks.
func (p *PatternLab) Tasks() []task.Task {
	return []task.Task{
		{
			Name:        "patternlab:build",
			DisplayName: "Build pattern library",
			Description: "Generate the Pattern Lab site",
			Run:         p.Build,
		},
		{
			Name:        "patternlab:clean",
			DisplayName: "Clean pattern library",
			Description: "Remove the generated Pattern Lab site",
			Run:         p.Clean,
		},
	}
}
