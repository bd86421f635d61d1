package sass

import (
	"context"

	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/process"
)

// stylelintViolationExit is the exit code stylelint uses for rule
// violations, as opposed to 1 for its own errors.
const stylelintViolationExit = 2

// Lint runs the style linter over source files changed since the last
// clean run, partials included. In FailFast mode violations yield a failed
// Outcome; in Resilient mode they are logged and the Outcome succeeds, so
// a watch session keeps running.
func (s *Sass) Lint(ctx context.Context, mode pipeline.RunMode) pipeline.Outcome {
	r := pipeline.NewRunner("lint",
		pipeline.WithNotifier(s.events),
		pipeline.WithLogger(s.log),
	)
	r.Append(pipeline.NewStage(pipeline.StageLint, s.lintStage(mode)))
	return r.Run(ctx)
}

func (s *Sass) lintStage(mode pipeline.RunMode) func(context.Context, *pipeline.Build) error {
	return func(ctx context.Context, b *pipeline.Build) error {
		sources, err := s.resolveSources(true)
		if err != nil {
			return err
		}
		targets := s.lint.changed(sources)
		if len(targets) == 0 {
			s.log.Info("Lint up to date", map[string]interface{}{
				"cached": s.lint.len(),
			})
			return nil
		}
		b.Sources = targets

		tool, err := s.tool(toolStylelint)
		if err != nil {
			return err
		}

		var args []string
		if s.cfg.Lint.ConfigFile != "" {
			args = append(args, "--config", s.cfg.Lint.ConfigFile)
		}
		args = append(args, targets...)

		result, runErr := tool.RunCommand(ctx, process.Command{Args: args})
		if runErr != nil {
			// stylelint exits 2 when it finds violations; any other
			// exit means the linter itself failed (crash, bad config)
			// and is reported as a tool error in both modes.
			if result == nil || result.ExitCode != stylelintViolationExit {
				return runErr
			}
			lintErr := errors.LintViolation(len(targets)).WithCause(runErr)
			if tail := result.StderrTail(20); tail != "" {
				lintErr.WithDetail("report", tail)
			}
			if mode == pipeline.FailFast {
				return lintErr
			}
			s.log.Warn("Lint violations, continuing", map[string]interface{}{
				"files": len(targets),
				"error": lintErr.Error(),
			})
			return nil
		}

		s.lint.commit(targets)
		s.log.Info("Lint passed", map[string]interface{}{
			"files": len(targets),
		})
		return nil
	}
}
