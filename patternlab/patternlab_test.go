package patternlab

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/assetpipe/config"
	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/process"
)

type fakePHP struct {
	calls [][]string
	err   error
}

func (f *fakePHP) Name() string { return "php" }

func (f *fakePHP) RunCommand(_ context.Context, cmd process.Command) (*process.Result, error) {
	f.calls = append(f.calls, cmd.Args)
	if f.err != nil {
		return &process.Result{ExitCode: 1}, f.err
	}
	return &process.Result{}, nil
}

func TestBuildInvokesConsole(t *testing.T) {
	php := &fakePHP{}
	p, err := New(config.PatternLab{Enabled: true}, WithTool(php))
	if err != nil {
		t.Fatal(err)
	}

	outcome := p.Build(context.Background())
	if outcome.Failed() {
		t.Fatalf("build failed: %v", outcome.Err)
	}
	if len(php.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(php.calls))
	}
	want := []string{"core/console", "--generate"}
	for i, arg := range want {
		if php.calls[0][i] != arg {
			t.Errorf("arg %d: expected %q, got %q", i, arg, php.calls[0][i])
		}
	}
}

func TestBuildFailureOutcome(t *testing.T) {
	php := &fakePHP{err: errors.ToolFailed("php", 1, fmt.Errorf("console missing"))}
	p, err := New(config.PatternLab{Enabled: true}, WithTool(php))
	if err != nil {
		t.Fatal(err)
	}
	outcome := p.Build(context.Background())
	if !outcome.Failed() {
		t.Fatal("expected failed outcome")
	}
	if outcome.Err.Code != errors.ErrCodeBuildFailed {
		t.Errorf("expected BUILD_FAILED, got %s", outcome.Err.Code)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	public := filepath.Join(t.TempDir(), "public")
	if err := os.MkdirAll(filepath.Join(public, "patterns"), 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := New(config.PatternLab{Enabled: true, PublicDir: public})
	if err != nil {
		t.Fatal(err)
	}

	if outcome := p.Clean(context.Background()); outcome.Failed() {
		t.Fatalf("first clean failed: %v", outcome.Err)
	}
	if _, err := os.Stat(public); !os.IsNotExist(err) {
		t.Error("expected public dir to be removed")
	}
	if outcome := p.Clean(context.Background()); outcome.Failed() {
		t.Fatalf("second clean failed: %v", outcome.Err)
	}
}

func TestWatchBindingsDefaultGlobs(t *testing.T) {
	p, err := New(config.PatternLab{Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	bindings := p.WatchBindings()
	if len(bindings) != 1 || bindings[0].Globs[0] != "source/**/*" {
		t.Errorf("unexpected bindings: %+v", bindings)
	}

	p2, err := New(config.PatternLab{Enabled: true, WatchPaths: []string{"templates/**/*.twig"}})
	if err != nil {
		t.Fatal(err)
	}
	if p2.WatchBindings()[0].Globs[0] != "templates/**/*.twig" {
		t.Error("configured watch paths must win over the default")
	}
}

func TestTasks(t *testing.T) {
	p, err := New(config.PatternLab{Enabled: true})
	if err != nil {
		t.Fatal(err)
	}
	tasks := p.Tasks()
	if len(tasks) != 2 || tasks[0].Name != "patternlab:build" || tasks[1].Name != "patternlab:clean" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}
