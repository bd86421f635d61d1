package sass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/notify"
	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/process"
)

// Compile resolves sources, compiles them and runs the enabled
// post-processing stages before writing artifacts to the destination.
// In FailFast mode the first compiler error aborts the run; in Resilient
// mode failed files are skipped so the remaining sources still build.
// Disabled stages are never part of the pipeline.
func (s *Sass) Compile(ctx context.Context, mode pipeline.RunMode) pipeline.Outcome {
	r := pipeline.NewRunner("compile",
		pipeline.WithNotifier(s.events),
		pipeline.WithDonePayload(s.cfg.Dest),
		pipeline.WithLogger(s.log),
	)
	r.Append(pipeline.NewStage(pipeline.StageResolve, s.resolveStage))
	r.Append(pipeline.NewStage(pipeline.StageCompile, s.compileStage(mode)))
	r.AppendIf(s.cfg.Prefix.Enabled, pipeline.NewStage(pipeline.StagePrefix, s.prefixStage))
	r.Append(pipeline.NewStage(pipeline.StageDedupe, s.dedupeStage))
	r.AppendIf(s.cfg.Inline.Enabled, pipeline.NewStage(pipeline.StageInline, s.inlineStage))
	r.AppendIf(s.minifyEnabled(), pipeline.NewStage(pipeline.StageMinify, s.minifyStage))
	r.Append(pipeline.NewStage(pipeline.StageWrite, s.writeStage))

	outcome := r.Run(ctx)
	notify.ForOutcome(s.notifier, outcome)
	return outcome
}

func (s *Sass) resolveStage(_ context.Context, b *pipeline.Build) error {
	sources, err := s.resolveSources(false)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		s.log.Warn("No source files matched", map[string]interface{}{
			"globs": s.cfg.Src,
		})
	}
	b.Sources = sources
	return nil
}

// compileStage invokes the sass compiler once per entry file, capturing
// compiled CSS from stdout. Source maps are embedded so post-processing
// stages operate on a single byte stream per artifact.
func (s *Sass) compileStage(mode pipeline.RunMode) func(context.Context, *pipeline.Build) error {
	return func(ctx context.Context, b *pipeline.Build) error {
		if len(b.Sources) == 0 {
			return nil
		}
		tool, err := s.tool(toolSass)
		if err != nil {
			return err
		}

		args := []string{"--style=" + s.cfg.OutputStyle}
		if s.cfg.SourceMaps {
			args = append(args, "--embed-source-map")
		} else {
			args = append(args, "--no-source-map")
		}
		for _, p := range s.cfg.IncludePaths {
			args = append(args, "--load-path="+p)
		}

		var failed []string
		for _, src := range b.Sources {
			result, err := tool.RunCommand(ctx, process.Command{Args: append(args[:len(args):len(args)], src)})
			if err != nil {
				if mode == pipeline.FailFast {
					return errors.CompileFailed(src, err)
				}
				failed = append(failed, src)
				s.log.Error("Compile failed, skipping file", map[string]interface{}{
					"path":  src,
					"error": err.Error(),
				})
				continue
			}
			b.Artifacts = append(b.Artifacts, &pipeline.Artifact{
				Path:       s.outputPath(src),
				SourcePath: src,
				Contents:   result.Stdout,
			})
		}

		if len(failed) > 0 && len(failed) == len(b.Sources) {
			return errors.CompileFailed(failed[0], fmt.Errorf("all %d source files failed to compile", len(failed)))
		}
		return nil
	}
}

// writeStage persists artifacts to the destination tree.
func (s *Sass) writeStage(_ context.Context, b *pipeline.Build) error {
	for _, a := range b.Artifacts {
		dir := filepath.Dir(a.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.IO("mkdir", dir, err)
		}
		if err := os.WriteFile(a.Path, a.Contents, 0o644); err != nil {
			return errors.IO("write", a.Path, err)
		}
	}
	s.log.Info("Stylesheets written", map[string]interface{}{
		"files": len(b.Artifacts),
		"dest":  s.cfg.Dest,
	})
	return nil
}
