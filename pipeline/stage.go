package pipeline

import "context"

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here.
type StageName string

// Canonical stage names.
const (
	StageResolve StageName = "resolve"
	StageCompile StageName = "compile"
	StagePrefix  StageName = "prefix"
	StageDedupe  StageName = "dedupe"
	StageInline  StageName = "inline"
	StageMinify  StageName = "minify"
	StageWrite   StageName = "write"
	StageLint    StageName = "lint"
	StageDocs    StageName = "docs"
	StageClean   StageName = "clean"
)

// Stage is one discrete processing step in a pipeline. Stages receive the
// per-run Build state and mutate it in place.
type Stage interface {
	Name() StageName
	Run(ctx context.Context, b *Build) error
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName StageName
	Fn        func(ctx context.Context, b *Build) error
}

// NewStage creates a Stage from a name and a function.
func NewStage(name StageName, fn func(ctx context.Context, b *Build) error) StageFunc {
	return StageFunc{StageName: name, Fn: fn}
}

func (s StageFunc) Name() StageName { return s.StageName }

func (s StageFunc) Run(ctx context.Context, b *Build) error { return s.Fn(ctx, b) }
