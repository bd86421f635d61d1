package sass

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/pipeline"
)

// Clean removes generated stylesheets and source maps from the destination
// tree, and the generated docs directory when docs are enabled. A missing
// destination is a success, so cleaning twice is always safe.
func (s *Sass) Clean(ctx context.Context) pipeline.Outcome {
	r := pipeline.NewRunner("clean",
		pipeline.WithNotifier(s.events),
		pipeline.WithLogger(s.log),
	)
	r.Append(pipeline.NewStage(pipeline.StageClean, s.cleanStage))
	return r.Run(ctx)
}

func (s *Sass) cleanStage(_ context.Context, b *pipeline.Build) error {
	removed, err := removeGenerated(s.cfg.Dest)
	if err != nil {
		return err
	}

	if s.cfg.Docs.Enabled && s.cfg.Docs.Dest != "" {
		if err := os.RemoveAll(s.cfg.Docs.Dest); err != nil {
			return errors.IO("remove", s.cfg.Docs.Dest, err)
		}
	}

	s.log.Info("Destination cleaned", map[string]interface{}{
		"dest":  s.cfg.Dest,
		"files": removed,
	})
	b.Meta["removed"] = removed
	return nil
}

// removeGenerated deletes .css and .css.map files under dest, then prunes
// directories the deletions left empty. Other file types are untouched.
func removeGenerated(dest string) (int, error) {
	removed := 0
	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return errors.IO("walk", path, err)
		}
		if d.IsDir() || !isGenerated(path) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.IO("remove", path, err)
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	pruneEmptyDirs(dest)
	return removed, nil
}

func isGenerated(path string) bool {
	return strings.HasSuffix(path, ".css") || strings.HasSuffix(path, ".css.map") || strings.HasSuffix(path, ".map")
}

// pruneEmptyDirs removes empty subdirectories bottom-up. The destination
// root itself is kept.
func pruneEmptyDirs(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := os.ReadDir(dirs[i])
		if err == nil && len(entries) == 0 {
			_ = os.Remove(dirs[i])
		}
	}
}
