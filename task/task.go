package task

import (
	"context"

	"github.com/skillsenselab/assetpipe/pipeline"
)

// RunFunc executes a task and reports its outcome. Implementations never
// terminate the process; callers map the outcome to an exit code.
type RunFunc func(ctx context.Context) pipeline.Outcome

// Task is a named, runnable unit exposed to task runners and the CLI.
type Task struct {
	// Name is the registry key, e.g. "sass:compile".
	Name string
	// DisplayName is a short human-readable label.
	DisplayName string
	// Description explains what the task does.
	Description string
	// Run executes the task.
	Run RunFunc
}

// Provider exposes a set of tasks for registration.
type Provider interface {
	Tasks() []Task
}
