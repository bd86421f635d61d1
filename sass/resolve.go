package sass

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/skillsenselab/assetpipe/errors"
)

// resolveSources expands the configured glob patterns. Partials (files
// whose name starts with an underscore) are reachable only through
// imports, so they are excluded unless includePartials is set.
func (s *Sass) resolveSources(includePartials bool) ([]string, error) {
	seen := make(map[string]struct{})
	var sources []string

	for _, pattern := range s.cfg.Src {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, errors.IO("glob", pattern, err)
		}
		for _, m := range matches {
			if !includePartials && isPartial(m) {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			sources = append(sources, m)
		}
	}

	sort.Strings(sources)
	return sources, nil
}

func isPartial(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "_")
}

// outputPath maps a source file to its destination path. Without Flatten
// the layout below the glob's fixed prefix is mirrored under Dest.
func (s *Sass) outputPath(src string) string {
	name := cssName(filepath.Base(src))
	if s.cfg.Flatten {
		return filepath.Join(s.cfg.Dest, name)
	}

	slashed := filepath.ToSlash(src)
	for _, pattern := range s.cfg.Src {
		base, _ := doublestar.SplitPattern(pattern)
		if base == "." || base == "" {
			continue
		}
		if !strings.HasPrefix(slashed, base+"/") {
			continue
		}
		if ok, err := doublestar.Match(pattern, slashed); err != nil || !ok {
			continue
		}
		rel := strings.TrimPrefix(slashed, base+"/")
		rel = filepath.Join(filepath.Dir(filepath.FromSlash(rel)), name)
		return filepath.Join(s.cfg.Dest, rel)
	}
	return filepath.Join(s.cfg.Dest, name)
}

func cssName(base string) string {
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + ".css"
}
