package sass

import (
	"context"

	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/watch"
)

// WatchBindings returns the change-triggered operations for this
// configuration: compile always, lint only when lint-on-watch is enabled,
// docs only when docs are enabled. All bound operations run in resilient
// mode so one failing run never ends the session.
func (s *Sass) WatchBindings() []watch.Binding {
	globs := append(append([]string{}, s.cfg.Src...), s.cfg.WatchPaths...)

	bindings := []watch.Binding{{
		Name:  "sass:compile",
		Globs: globs,
		Run: func(ctx context.Context, _ []string) pipeline.Outcome {
			return s.Compile(ctx, pipeline.Resilient)
		},
	}}
	if s.cfg.Lint.Enabled && s.cfg.Lint.OnWatch {
		bindings = append(bindings, watch.Binding{
			Name:  "sass:lint",
			Globs: globs,
			Run: func(ctx context.Context, _ []string) pipeline.Outcome {
				return s.Lint(ctx, pipeline.Resilient)
			},
		})
	}
	if s.cfg.Docs.Enabled {
		bindings = append(bindings, watch.Binding{
			Name:  "sass:docs",
			Globs: globs,
			Run: func(ctx context.Context, _ []string) pipeline.Outcome {
				return s.Docs(ctx)
			},
		})
	}
	return bindings
}

// Watch runs an initial compile, then re-runs the bound operations on
// source changes until the context is cancelled.
func (s *Sass) Watch(ctx context.Context, opts ...watch.Option) error {
	if outcome := s.Compile(ctx, pipeline.Resilient); outcome.Failed() {
		s.log.Error("Initial build failed, watching anyway", map[string]interface{}{
			"error": outcome.Err.Error(),
		})
	}

	session, err := watch.NewSession(s.WatchBindings(), append([]watch.Option{watch.WithLogger(s.log)}, opts...)...)
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
