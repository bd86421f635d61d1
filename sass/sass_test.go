package sass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/skillsenselab/assetpipe/config"
	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/pipeline"
	"github.com/skillsenselab/assetpipe/process"
)

// fakeTool records invocations and returns canned results.
type fakeTool struct {
	name    string
	handler func(cmd process.Command) (*process.Result, error)

	mu    sync.Mutex
	calls []process.Command
}

func (f *fakeTool) Name() string { return f.name }

func (f *fakeTool) RunCommand(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if f.handler != nil {
		return f.handler(cmd)
	}
	return &process.Result{Stdout: []byte("body {\n  color: red;\n}\n")}, nil
}

func (f *fakeTool) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testProject lays out a source tree and returns a config pointing at it.
func testProject(t *testing.T, files map[string]string) config.Sass {
	t.Helper()
	root := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return config.Sass{
		Src:  []string{filepath.Join(root, "scss", "**", "*.scss")},
		Dest: filepath.Join(root, "public", "css"),
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(config.Sass{Src: []string{"scss/[bad"}, Dest: "out"})
	if err == nil {
		t.Fatal("expected invalid glob to fail construction")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestNewClonesConfig(t *testing.T) {
	cfg := config.Sass{Src: []string{"scss/**/*.scss"}, Dest: "out"}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Src[0] = "mutated"
	if s.cfg.Src[0] != "scss/**/*.scss" {
		t.Error("constructor must not share slices with the caller")
	}
}

func TestCompileWritesArtifactsAndSkipsPartials(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss":         "body { color: $c; }",
		"scss/pages/home.scss":  "main { margin: 0; }",
		"scss/_variables.scss":  "$c: red;",
	})

	sassTool := &fakeTool{name: toolSass}
	s, err := New(cfg, WithTool(toolSass, sassTool))
	if err != nil {
		t.Fatal(err)
	}

	outcome := s.Compile(context.Background(), pipeline.FailFast)
	if outcome.Failed() {
		t.Fatalf("compile failed: %v", outcome.Err)
	}
	if sassTool.callCount() != 2 {
		t.Errorf("expected 2 compiler invocations, got %d", sassTool.callCount())
	}

	for _, rel := range []string{"app.css", filepath.Join("pages", "home.css")} {
		path := filepath.Join(cfg.Dest, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected artifact %s: %v", rel, err)
		}
		if !strings.Contains(string(data), "color: red") {
			t.Errorf("unexpected artifact contents: %q", data)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Dest, "_variables.css")); !os.IsNotExist(err) {
		t.Error("partials must not produce artifacts")
	}
}

func TestCompileFlatten(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/pages/home.scss": "main { margin: 0; }",
	})
	cfg.Flatten = true

	s, err := New(cfg, WithTool(toolSass, &fakeTool{name: toolSass}))
	if err != nil {
		t.Fatal(err)
	}
	if outcome := s.Compile(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("compile failed: %v", outcome.Err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Dest, "home.css")); err != nil {
		t.Errorf("expected flattened artifact: %v", err)
	}
}

func TestCompileDisabledStagesNeverRun(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { color: red; }",
	})
	cfg.Prefix.Enabled = false

	postcss := &fakeTool{name: toolPostCSS}
	s, err := New(cfg,
		WithTool(toolSass, &fakeTool{name: toolSass}),
		WithTool(toolPostCSS, postcss),
	)
	if err != nil {
		t.Fatal(err)
	}

	outcome := s.Compile(context.Background(), pipeline.FailFast)
	if outcome.Failed() {
		t.Fatalf("compile failed: %v", outcome.Err)
	}
	if postcss.callCount() != 0 {
		t.Errorf("disabled prefix stage ran %d times", postcss.callCount())
	}
	for _, name := range outcome.Stages {
		if name == pipeline.StagePrefix || name == pipeline.StageInline || name == pipeline.StageMinify {
			t.Errorf("disabled stage %s appeared in the pipeline", name)
		}
	}
}

func TestCompilePrefixStageRuns(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { display: flex; }",
	})
	cfg.Prefix.Enabled = true
	cfg.Prefix.Browsers = []string{"last 2 versions"}

	postcss := &fakeTool{
		name: toolPostCSS,
		handler: func(cmd process.Command) (*process.Result, error) {
			return &process.Result{Stdout: []byte("body { display: -webkit-flex; display: flex; }\n")}, nil
		},
	}
	s, err := New(cfg,
		WithTool(toolSass, &fakeTool{name: toolSass}),
		WithTool(toolPostCSS, postcss),
	)
	if err != nil {
		t.Fatal(err)
	}

	if outcome := s.Compile(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("compile failed: %v", outcome.Err)
	}
	if postcss.callCount() != 1 {
		t.Fatalf("expected 1 postcss invocation, got %d", postcss.callCount())
	}
	env := postcss.calls[0].Env
	if len(env) != 1 || env[0] != "BROWSERSLIST=last 2 versions" {
		t.Errorf("unexpected env: %v", env)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dest, "app.css"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "-webkit-flex") {
		t.Errorf("prefixed output not written: %q", data)
	}
}

func TestCompileMinifyForcedInProduction(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { color: red; }",
	})
	cfg.Minify.Enabled = false

	s, err := New(cfg,
		WithTool(toolSass, &fakeTool{name: toolSass}),
		WithEnvironment("production"),
	)
	if err != nil {
		t.Fatal(err)
	}

	outcome := s.Compile(context.Background(), pipeline.FailFast)
	if outcome.Failed() {
		t.Fatalf("compile failed: %v", outcome.Err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Dest, "app.css"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "\n  ") {
		t.Errorf("production output should be minified, got %q", data)
	}
}

func TestCompileFailFastVsResilient(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/bad.scss":  "body { broken",
		"scss/good.scss": "body { color: red; }",
	})

	sassTool := &fakeTool{
		name: toolSass,
		handler: func(cmd process.Command) (*process.Result, error) {
			src := cmd.Args[len(cmd.Args)-1]
			if strings.HasSuffix(src, "bad.scss") {
				return &process.Result{ExitCode: 65}, errors.ToolFailed("sass", 65, fmt.Errorf("syntax error"))
			}
			return &process.Result{Stdout: []byte("body { color: red; }\n")}, nil
		},
	}

	s, err := New(cfg, WithTool(toolSass, sassTool))
	if err != nil {
		t.Fatal(err)
	}

	outcome := s.Compile(context.Background(), pipeline.FailFast)
	if !outcome.Failed() {
		t.Fatal("expected fail-fast compile to fail")
	}
	if outcome.Err.Code != errors.ErrCodeCompileFailed {
		t.Errorf("expected COMPILE_FAILED, got %s", outcome.Err.Code)
	}

	outcome = s.Compile(context.Background(), pipeline.Resilient)
	if outcome.Failed() {
		t.Fatalf("resilient compile should survive one bad file: %v", outcome.Err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Dest, "good.css")); err != nil {
		t.Errorf("surviving file should still be written: %v", err)
	}
}

func TestCompileResilientAllFailed(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/bad.scss": "body { broken",
	})
	sassTool := &fakeTool{
		name: toolSass,
		handler: func(process.Command) (*process.Result, error) {
			return &process.Result{ExitCode: 65}, errors.ToolFailed("sass", 65, fmt.Errorf("syntax error"))
		},
	}
	s, err := New(cfg, WithTool(toolSass, sassTool))
	if err != nil {
		t.Fatal(err)
	}
	if outcome := s.Compile(context.Background(), pipeline.Resilient); !outcome.Failed() {
		t.Error("expected failure when every file fails to compile")
	}
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (r *recordingNotifier) Success(string, string) {
	r.mu.Lock()
	r.successes++
	r.mu.Unlock()
}

func (r *recordingNotifier) Failure(string, string) {
	r.mu.Lock()
	r.failures++
	r.mu.Unlock()
}

func TestCompileFailureNotifies(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { broken",
	})
	sassTool := &fakeTool{
		name: toolSass,
		handler: func(process.Command) (*process.Result, error) {
			return &process.Result{ExitCode: 65}, errors.ToolFailed("sass", 65, fmt.Errorf("syntax error"))
		},
	}
	rec := &recordingNotifier{}
	s, err := New(cfg, WithTool(toolSass, sassTool), WithUserNotifier(rec))
	if err != nil {
		t.Fatal(err)
	}

	if outcome := s.Compile(context.Background(), pipeline.FailFast); !outcome.Failed() {
		t.Fatal("expected compile to fail")
	}
	if rec.failures != 1 {
		t.Errorf("expected 1 failure notification, got %d", rec.failures)
	}
}

func TestCompilePublishesDoneEvent(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { color: red; }",
	})
	events := pipeline.NewChanNotifier(4)
	s, err := New(cfg, WithTool(toolSass, &fakeTool{name: toolSass}), WithEvents(events))
	if err != nil {
		t.Fatal(err)
	}

	if outcome := s.Compile(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("compile failed: %v", outcome.Err)
	}

	select {
	case e := <-events.Events():
		if e.Name != "compile.done" {
			t.Errorf("expected compile.done, got %q", e.Name)
		}
		if e.Path != cfg.Dest {
			t.Errorf("expected dest payload, got %q", e.Path)
		}
	default:
		t.Fatal("expected a completion event")
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { color: red; }",
	})
	s, err := New(cfg, WithTool(toolSass, &fakeTool{name: toolSass}))
	if err != nil {
		t.Fatal(err)
	}

	if outcome := s.Compile(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("compile failed: %v", outcome.Err)
	}

	if outcome := s.Clean(context.Background()); outcome.Failed() {
		t.Fatalf("first clean failed: %v", outcome.Err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Dest, "app.css")); !os.IsNotExist(err) {
		t.Error("expected generated file to be removed")
	}

	if outcome := s.Clean(context.Background()); outcome.Failed() {
		t.Fatalf("second clean on empty destination failed: %v", outcome.Err)
	}
}

func TestCleanKeepsForeignFiles(t *testing.T) {
	cfg := testProject(t, nil)
	keep := filepath.Join(cfg.Dest, "README.txt")
	if err := os.MkdirAll(cfg.Dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keep, []byte("not generated"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if outcome := s.Clean(context.Background()); outcome.Failed() {
		t.Fatalf("clean failed: %v", outcome.Err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("clean must not remove non-generated files: %v", err)
	}
}

func TestLintStrictVsResilient(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { color: #ZZZ; }",
	})
	cfg.Lint.Enabled = true

	stylelint := &fakeTool{
		name: toolStylelint,
		handler: func(process.Command) (*process.Result, error) {
			return &process.Result{ExitCode: 2, Stderr: []byte("app.scss: invalid hex color")},
				errors.ToolFailed("stylelint", 2, fmt.Errorf("violations"))
		},
	}
	s, err := New(cfg, WithTool(toolStylelint, stylelint))
	if err != nil {
		t.Fatal(err)
	}

	outcome := s.Lint(context.Background(), pipeline.FailFast)
	if !outcome.Failed() {
		t.Fatal("strict lint must fail on violations")
	}
	if outcome.Err.Code != errors.ErrCodeLintViolation {
		t.Errorf("expected LINT_VIOLATION, got %s", outcome.Err.Code)
	}
	if outcome.ExitCode() == 0 {
		t.Error("failed lint outcome must map to a non-zero exit code")
	}

	outcome = s.Lint(context.Background(), pipeline.Resilient)
	if outcome.Failed() {
		t.Errorf("resilient lint must not fail the outcome: %v", outcome.Err)
	}
}

func TestLintToolCrashIsNotViolation(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss": "body { color: red; }",
	})
	cfg.Lint.Enabled = true

	stylelint := &fakeTool{
		name: toolStylelint,
		handler: func(process.Command) (*process.Result, error) {
			return &process.Result{ExitCode: 1, Stderr: []byte("Error: could not load config")},
				errors.ToolFailed("stylelint", 1, fmt.Errorf("config error"))
		},
	}
	s, err := New(cfg, WithTool(toolStylelint, stylelint))
	if err != nil {
		t.Fatal(err)
	}

	outcome := s.Lint(context.Background(), pipeline.FailFast)
	if !outcome.Failed() {
		t.Fatal("a crashed linter must fail the outcome")
	}
	if outcome.Err.Code != errors.ErrCodeToolFailed {
		t.Errorf("expected TOOL_FAILED for a linter crash, got %s", outcome.Err.Code)
	}

	// a broken linter is a broken session even in resilient mode
	outcome = s.Lint(context.Background(), pipeline.Resilient)
	if !outcome.Failed() {
		t.Fatal("resilient mode must not mask a linter crash")
	}
	if outcome.Err.Code != errors.ErrCodeToolFailed {
		t.Errorf("expected TOOL_FAILED, got %s", outcome.Err.Code)
	}
}

func TestLintIncrementalCache(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss":   "body { color: red; }",
		"scss/_base.scss": "html { margin: 0; }",
	})
	cfg.Lint.Enabled = true

	stylelint := &fakeTool{name: toolStylelint}
	s, err := New(cfg, WithTool(toolStylelint, stylelint))
	if err != nil {
		t.Fatal(err)
	}

	if outcome := s.Lint(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("lint failed: %v", outcome.Err)
	}
	if stylelint.callCount() != 1 {
		t.Fatalf("expected 1 linter invocation, got %d", stylelint.callCount())
	}

	// unchanged sources are served from the cache
	if outcome := s.Lint(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("lint failed: %v", outcome.Err)
	}
	if stylelint.callCount() != 1 {
		t.Errorf("unchanged sources must not be re-linted, got %d invocations", stylelint.callCount())
	}

	// a modified file is linted again
	root := filepath.Dir(filepath.Dir(cfg.Dest))
	path := filepath.Join(root, "scss", "app.scss")
	if err := os.WriteFile(path, []byte("body { color: blue; }"), 0o644); err != nil {
		t.Fatal(err)
	}
	if outcome := s.Lint(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("lint failed: %v", outcome.Err)
	}
	if stylelint.callCount() != 2 {
		t.Errorf("changed source must be re-linted, got %d invocations", stylelint.callCount())
	}
	last := stylelint.calls[len(stylelint.calls)-1]
	if len(last.Args) != 1 || !strings.HasSuffix(last.Args[0], "app.scss") {
		t.Errorf("expected only the changed file, got %v", last.Args)
	}
}

func TestLintIncludesPartialsAndConfigFile(t *testing.T) {
	cfg := testProject(t, map[string]string{
		"scss/app.scss":   "body { color: red; }",
		"scss/_base.scss": "html { margin: 0; }",
	})
	cfg.Lint.Enabled = true
	cfg.Lint.ConfigFile = ".stylelintrc.json"

	stylelint := &fakeTool{name: toolStylelint}
	s, err := New(cfg, WithTool(toolStylelint, stylelint))
	if err != nil {
		t.Fatal(err)
	}
	if outcome := s.Lint(context.Background(), pipeline.FailFast); outcome.Failed() {
		t.Fatalf("lint failed: %v", outcome.Err)
	}

	args := stylelint.calls[0].Args
	if args[0] != "--config" || args[1] != ".stylelintrc.json" {
		t.Errorf("expected config flag first, got %v", args)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "_base.scss") {
		t.Error("lint must include partials")
	}
}

func TestDocsArgs(t *testing.T) {
	cfg := testProject(t, nil)
	cfg.Docs.Enabled = true
	cfg.Docs.Dest = filepath.Join(t.TempDir(), "docs")
	cfg.Docs.Theme = "herman"
	cfg.Docs.Exclude = []string{"scss/vendor/**"}
	cfg.Docs.Sort = []string{"group", "file"}

	sassdoc := &fakeTool{name: toolSassdoc}
	s, err := New(cfg, WithTool(toolSassdoc, sassdoc))
	if err != nil {
		t.Fatal(err)
	}
	if outcome := s.Docs(context.Background()); outcome.Failed() {
		t.Fatalf("docs failed: %v", outcome.Err)
	}

	joined := strings.Join(sassdoc.calls[0].Args, " ")
	for _, want := range []string{"--dest " + cfg.Docs.Dest, "--theme herman", "--exclude scss/vendor/**", "--config"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in args: %s", want, joined)
		}
	}
}

func TestDocsFailureOutcome(t *testing.T) {
	cfg := testProject(t, nil)
	cfg.Docs.Enabled = true
	sassdoc := &fakeTool{
		name: toolSassdoc,
		handler: func(process.Command) (*process.Result, error) {
			return &process.Result{ExitCode: 1}, errors.ToolFailed("sassdoc", 1, fmt.Errorf("theme not found"))
		},
	}
	s, err := New(cfg, WithTool(toolSassdoc, sassdoc))
	if err != nil {
		t.Fatal(err)
	}
	outcome := s.Docs(context.Background())
	if !outcome.Failed() {
		t.Fatal("expected docs failure")
	}
	if outcome.Err.Code != errors.ErrCodeDocsFailed {
		t.Errorf("expected DOCS_FAILED, got %s", outcome.Err.Code)
	}
}

func TestWatchBindings(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Sass)
		want    []string
	}{
		{
			name:   "compile only",
			mutate: func(c *config.Sass) {},
			want:   []string{"sass:compile"},
		},
		{
			name: "lint enabled but not on watch",
			mutate: func(c *config.Sass) {
				c.Lint.Enabled = true
			},
			want: []string{"sass:compile"},
		},
		{
			name: "lint on watch",
			mutate: func(c *config.Sass) {
				c.Lint.Enabled = true
				c.Lint.OnWatch = true
			},
			want: []string{"sass:compile", "sass:lint"},
		},
		{
			name: "docs enabled",
			mutate: func(c *config.Sass) {
				c.Docs.Enabled = true
			},
			want: []string{"sass:compile", "sass:docs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Sass{Src: []string{"scss/**/*.scss"}, Dest: "public/css"}
			tt.mutate(&cfg)
			s, err := New(cfg)
			if err != nil {
				t.Fatal(err)
			}

			bindings := s.WatchBindings()
			if len(bindings) != len(tt.want) {
				t.Fatalf("expected %d bindings, got %d", len(tt.want), len(bindings))
			}
			for i, name := range tt.want {
				if bindings[i].Name != name {
					t.Errorf("binding %d: expected %s, got %s", i, name, bindings[i].Name)
				}
			}
		})
	}
}

func TestWatchBindingsIncludeExtraPaths(t *testing.T) {
	cfg := config.Sass{
		Src:        []string{"scss/**/*.scss"},
		Dest:       "public/css",
		WatchPaths: []string{"templates/**/*.twig"},
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	globs := s.WatchBindings()[0].Globs
	if len(globs) != 2 || globs[1] != "templates/**/*.twig" {
		t.Errorf("extra watch paths missing: %v", globs)
	}
}

func TestTasks(t *testing.T) {
	cfg := config.Sass{Src: []string{"scss/**/*.scss"}, Dest: "public/css"}
	cfg.Lint.Enabled = true
	cfg.Docs.Enabled = true
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, tk := range s.Tasks() {
		names = append(names, tk.Name)
	}
	want := []string{"sass:compile", "sass:clean", "sass:lint", "sass:docs", "sass:watch"}
	if len(names) != len(want) {
		t.Fatalf("expected tasks %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("task %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}
