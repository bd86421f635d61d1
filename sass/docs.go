package sass

import (
	"context"
	"encoding/json"
	"os"

	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/process"
)

// Docs generates reference documentation from source comments via sassdoc.
// Generation is additive; existing files in the docs destination are left
// in place.
func (s *Sass) Docs(ctx context.Context) pipeline.Outcome {
	r := pipeline.NewRunner("docs",
		pipeline.WithNotifier(s.events),
		pipeline.WithDonePayload(s.cfg.Docs.Dest),
		pipeline.WithLogger(s.log),
	)
	r.Append(pipeline.NewStage(pipeline.StageDocs, s.docsStage))
	return r.Run(ctx)
}

func (s *Sass) docsStage(ctx context.Context, _ *pipeline.Build) error {
	tool, err := s.tool(toolSassdoc)
	if err != nil {
		return err
	}

	args := append([]string{}, s.cfg.Src...)
	args = append(args, "--dest", s.cfg.Docs.Dest)
	if s.cfg.Docs.Theme != "" {
		args = append(args, "--theme", s.cfg.Docs.Theme)
	}
	for _, pattern := range s.cfg.Docs.Exclude {
		args = append(args, "--exclude", pattern)
	}

	// sort order is only configurable through a config file
	if len(s.cfg.Docs.Sort) > 0 {
		cfgPath, cleanup, err := writeDocsConfig(s.cfg.Docs.Sort)
		if err != nil {
			return err
		}
		defer cleanup()
		args = append(args, "--config", cfgPath)
	}

	if _, err := tool.RunCommand(ctx, process.Command{Args: args}); err != nil {
		return errors.DocsFailed(err)
	}

	s.log.Info("Docs generated", map[string]interface{}{
		"dest": s.cfg.Docs.Dest,
	})
	return nil
}

func writeDocsConfig(sort []string) (string, func(), error) {
	f, err := os.CreateTemp("", "sassdoc-*.json")
	if err != nil {
		return "", nil, errors.IO("create", "sassdoc config", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	payload := map[string]interface{}{"sort": sort}
	if err := json.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		cleanup()
		return "", nil, errors.IO("write", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, errors.IO("close", f.Name(), err)
	}
	return f.Name(), cleanup, nil
}
