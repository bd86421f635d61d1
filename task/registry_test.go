package task

import (
	"context"
	"testing"

	"github.com/skillsenselab/assetpipe/pipeline"
)

func noop(name string) Task {
	return Task{
		Name: name,
		Run: func(_ context.Context) pipeline.Outcome {
			return pipeline.Outcome{Operation: name}
		},
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(noop("sass:compile")); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, ok := r.Get("sass:compile")
	if !ok {
		t.Fatal("expected task to be found")
	}
	if got.Name != "sass:compile" {
		t.Errorf("got %q", got.Name)
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing task to not be found")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(noop("sass:lint")); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register(noop("sass:lint")); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Task{}); err == nil {
		t.Error("expected empty name to be rejected")
	}
}

func TestRegistryAllSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"sass:watch", "sass:compile", "sass:lint"} {
		if err := r.Register(noop(name)); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	all := r.All()
	want := []string{"sass:compile", "sass:lint", "sass:watch"}
	if len(all) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(all))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, all[i].Name)
		}
	}
}

type fakeProvider struct{ tasks []Task }

func (p fakeProvider) Tasks() []Task { return p.tasks }

func TestRegistryRegisterAll(t *testing.T) {
	r := NewRegistry()
	p := fakeProvider{tasks: []Task{noop("sass:compile"), noop("sass:clean")}}
	if err := r.RegisterAll(p); err != nil {
		t.Fatalf("register all failed: %v", err)
	}
	if len(r.All()) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(r.All()))
	}
}
