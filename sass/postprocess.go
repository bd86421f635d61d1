package sass

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/process"
)

// prefixStage pipes each artifact through postcss with autoprefixer.
// Target browsers are passed via the BROWSERSLIST environment variable.
func (s *Sass) prefixStage(ctx context.Context, b *pipeline.Build) error {
	if len(b.Artifacts) == 0 {
		return nil
	}
	tool, err := s.tool(toolPostCSS)
	if err != nil {
		return err
	}

	var env []string
	if len(s.cfg.Prefix.Browsers) > 0 {
		env = []string{"BROWSERSLIST=" + strings.Join(s.cfg.Prefix.Browsers, ", ")}
	}

	for _, a := range b.Artifacts {
		result, err := tool.RunCommand(ctx, process.Command{
			Args:  []string{"--use", "autoprefixer", "--no-map"},
			Env:   env,
			Stdin: bytes.NewReader(a.Contents),
		})
		if err != nil {
			return errors.PostProcessFailed(string(pipeline.StagePrefix), err)
		}
		a.Contents = result.Stdout
	}
	return nil
}

// dedupeStage drops repeated identical top-level rule blocks, keeping the
// last occurrence so the cascade result is unchanged.
func (s *Sass) dedupeStage(_ context.Context, b *pipeline.Build) error {
	for _, a := range b.Artifacts {
		a.Contents = dedupeRules(a.Contents)
	}
	return nil
}

// inlineStage replaces small url() references with data URIs. Only assets
// under the configured size threshold are inlined, and only those matching
// the include patterns when any are set. References that cannot be read
// are left untouched.
func (s *Sass) inlineStage(_ context.Context, b *pipeline.Build) error {
	for _, a := range b.Artifacts {
		a.Contents = s.inlineURLs(a)
	}
	return nil
}

// minifyStage compresses artifact contents in place.
func (s *Sass) minifyStage(_ context.Context, b *pipeline.Build) error {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)

	for _, a := range b.Artifacts {
		out, err := m.Bytes("text/css", a.Contents)
		if err != nil {
			return errors.PostProcessFailed(string(pipeline.StageMinify), fmt.Errorf("%s: %w", a.Path, err))
		}
		a.Contents = out
	}
	return nil
}

var urlRefPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

func (s *Sass) inlineURLs(a *pipeline.Artifact) []byte {
	baseDir := filepath.Dir(a.Path)

	return urlRefPattern.ReplaceAllFunc(a.Contents, func(match []byte) []byte {
		ref := string(urlRefPattern.FindSubmatch(match)[1])
		if !inlinableRef(ref) {
			return match
		}
		if len(s.cfg.Inline.Include) > 0 && !matchAnyPattern(s.cfg.Inline.Include, ref) {
			return match
		}

		assetPath := filepath.Join(baseDir, filepath.FromSlash(ref))
		info, err := os.Stat(assetPath)
		if err != nil || info.IsDir() || info.Size() > s.cfg.Inline.MaxSize {
			return match
		}
		data, err := os.ReadFile(assetPath)
		if err != nil {
			return match
		}

		mimeType := mime.TypeByExtension(filepath.Ext(assetPath))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		return []byte(fmt.Sprintf("url(data:%s;base64,%s)", mimeType, encoded))
	})
}

// inlinableRef filters out references that are not local relative files.
func inlinableRef(ref string) bool {
	switch {
	case ref == "",
		strings.HasPrefix(ref, "data:"),
		strings.HasPrefix(ref, "http:"),
		strings.HasPrefix(ref, "https:"),
		strings.HasPrefix(ref, "//"),
		strings.HasPrefix(ref, "#"),
		strings.HasPrefix(ref, "/"):
		return false
	}
	// font references often carry query strings or fragments; skip those
	return !strings.ContainsAny(ref, "?#")
}

func matchAnyPattern(patterns []string, ref string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, ref); err == nil && ok {
			return true
		}
	}
	return false
}

// dedupeRules splits CSS into top-level blocks by brace depth and removes
// exact duplicates, keeping the last occurrence.
func dedupeRules(in []byte) []byte {
	blocks := splitBlocks(string(in))
	if len(blocks) < 2 {
		return in
	}

	last := make(map[string]int, len(blocks))
	for i, blk := range blocks {
		key := normalizeBlock(blk)
		if key == "" {
			continue
		}
		last[key] = i
	}

	var out strings.Builder
	for i, blk := range blocks {
		key := normalizeBlock(blk)
		if key != "" {
			if keep, ok := last[key]; ok && keep != i {
				continue
			}
		}
		out.WriteString(blk)
	}
	return []byte(out.String())
}

// splitBlocks cuts the stylesheet after each closing brace at depth zero.
// Nested blocks (media queries) stay inside their parent block.
func splitBlocks(in string) []string {
	var blocks []string
	depth := 0
	start := 0
	for i := 0; i < len(in); i++ {
		switch in[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				blocks = append(blocks, in[start:i+1])
				start = i + 1
			}
		}
	}
	if start < len(in) {
		blocks = append(blocks, in[start:])
	}
	return blocks
}

func normalizeBlock(blk string) string {
	return strings.Join(strings.Fields(blk), " ")
}
