package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/skillsenselab/assetpipe/pipeline"
)

func TestMatchGlobs(t *testing.T) {
	tests := []struct {
		name  string
		globs []string
		rel   string
		abs   string
		want  bool
	}{
		{"nested scss", []string{"scss/**/*.scss"}, "scss/components/button.scss", "/proj/scss/components/button.scss", true},
		{"top level scss", []string{"scss/**/*.scss"}, "scss/app.scss", "/proj/scss/app.scss", true},
		{"wrong extension", []string{"scss/**/*.scss"}, "scss/app.css", "/proj/scss/app.css", false},
		{"outside tree", []string{"scss/**/*.scss"}, "js/app.js", "/proj/js/app.js", false},
		{"multiple globs", []string{"scss/**/*.scss", "templates/**/*.twig"}, "templates/page.twig", "/proj/templates/page.twig", true},
		{"absolute glob", []string{"/proj/scss/**/*.scss"}, "../proj/scss/app.scss", "/proj/scss/app.scss", true},
		{"absolute glob other tree", []string{"/proj/scss/**/*.scss"}, "js/app.js", "/elsewhere/js/app.js", false},
		{"no globs", nil, "scss/app.scss", "/proj/scss/app.scss", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchGlobs(tt.globs, tt.rel, tt.abs); got != tt.want {
				t.Errorf("matchGlobs(%v, %q, %q) = %v, want %v", tt.globs, tt.rel, tt.abs, got, tt.want)
			}
		})
	}
}

func TestBoundOpCoalescesPaths(t *testing.T) {
	b := newBoundOp(Binding{Name: "sass:compile"})

	b.enqueue("scss/app.scss")
	b.enqueue("scss/app.scss")
	b.enqueue("scss/base.scss")

	paths := b.take()
	if len(paths) != 2 {
		t.Fatalf("expected 2 distinct paths, got %d: %v", len(paths), paths)
	}
	if paths[0] != "scss/app.scss" || paths[1] != "scss/base.scss" {
		t.Errorf("unexpected paths: %v", paths)
	}

	if again := b.take(); again != nil {
		t.Errorf("expected drained queue, got %v", again)
	}
}

func TestBoundOpKickIsNonBlocking(t *testing.T) {
	b := newBoundOp(Binding{Name: "sass:compile"})
	// a busy dispatcher leaves the signal pending; further enqueues
	// must not block
	for i := 0; i < 10; i++ {
		b.enqueue("scss/app.scss")
	}
	if len(b.take()) != 1 {
		t.Error("expected a single coalesced path")
	}
}

func TestSessionWatchDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"scss/components", "scss/layout", "js"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	s, err := NewSession([]Binding{
		{Name: "sass:compile", Globs: []string{"scss/**/*.scss"}},
	}, WithRoot(root))
	if err != nil {
		t.Fatal(err)
	}
	defer s.watcher.Close()

	dirs := s.watchDirs()
	want := map[string]bool{
		filepath.Join(root, "scss"):               false,
		filepath.Join(root, "scss", "components"): false,
		filepath.Join(root, "scss", "layout"):     false,
	}
	for _, d := range dirs {
		if _, ok := want[d]; ok {
			want[d] = true
		}
		if d == filepath.Join(root, "js") {
			t.Error("js directory should not be watched")
		}
	}
	for d, seen := range want {
		if !seen {
			t.Errorf("expected %s to be watched", d)
		}
	}
}

func TestSessionTriggersBindingOnChange(t *testing.T) {
	root := t.TempDir()
	scssDir := filepath.Join(root, "scss")
	if err := os.MkdirAll(scssDir, 0o755); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got [][]string
	ran := make(chan struct{}, 4)

	s, err := NewSession([]Binding{{
		Name:  "sass:compile",
		Globs: []string{"scss/**/*.scss"},
		Run: func(_ context.Context, paths []string) pipeline.Outcome {
			mu.Lock()
			got = append(got, paths)
			mu.Unlock()
			ran <- struct{}{}
			return pipeline.Outcome{Operation: "compile"}
		},
	}}, WithRoot(root), WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	target := filepath.Join(scssDir, "app.scss")
	if err := os.WriteFile(target, []byte("body { color: red; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("binding did not run after file change")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 || len(got[0]) != 1 || got[0][0] != target {
		t.Errorf("unexpected trigger paths: %v", got)
	}
}

func TestSessionAbsoluteGlobs(t *testing.T) {
	root := t.TempDir()
	scssDir := filepath.Join(root, "scss")
	if err := os.MkdirAll(scssDir, 0o755); err != nil {
		t.Fatal(err)
	}

	ran := make(chan []string, 4)
	s, err := NewSession([]Binding{{
		Name:  "sass:compile",
		Globs: []string{filepath.ToSlash(scssDir) + "/**/*.scss"},
		Run: func(_ context.Context, paths []string) pipeline.Outcome {
			ran <- paths
			return pipeline.Outcome{Operation: "compile"}
		},
	}}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	found := false
	for _, d := range s.WatchedDirs() {
		if d == scssDir {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s to be watched, got %v", scssDir, s.WatchedDirs())
	}

	target := filepath.Join(scssDir, "app.scss")
	if err := os.WriteFile(target, []byte("body { color: red; }"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-ran:
		if len(paths) != 1 || paths[0] != target {
			t.Errorf("unexpected trigger paths: %v", paths)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("binding did not run for absolute glob without an explicit root")
	}
}

func TestSessionIgnoresNonMatchingFiles(t *testing.T) {
	root := t.TempDir()
	scssDir := filepath.Join(root, "scss")
	if err := os.MkdirAll(scssDir, 0o755); err != nil {
		t.Fatal(err)
	}

	ran := make(chan struct{}, 1)
	s, err := NewSession([]Binding{{
		Name:  "sass:compile",
		Globs: []string{"scss/**/*.scss"},
		Run: func(_ context.Context, _ []string) pipeline.Outcome {
			ran <- struct{}{}
			return pipeline.Outcome{Operation: "compile"}
		},
	}}, WithRoot(root), WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := os.WriteFile(filepath.Join(scssDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
		t.Error("binding must not run for non-matching files")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	s, err := NewSession(nil, WithRoot(root))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Stop()
	s.Stop()
}
