package pipeline

import (
	"time"

	"github.com/skillsenselab/assetpipe/errors"
)

// RunMode selects how a caller treats a failed run. The pipeline itself
// behaves the same in both modes: it stops at the first failing stage and
// returns the Outcome. FailFast callers terminate on failure; Resilient
// callers report and keep going (the watch session uses Resilient so one
// bad save does not kill it).
type RunMode int

const (
	// FailFast means the caller escalates a failure (non-zero exit).
	FailFast RunMode = iota
	// Resilient means the caller reports the failure and continues.
	Resilient
)

// String returns the mode name.
func (m RunMode) String() string {
	if m == FailFast {
		return "fail-fast"
	}
	return "resilient"
}

// Outcome is the typed result of one pipeline run.
type Outcome struct {
	// Operation is the operation that ran (compile, clean, lint, docs).
	Operation string
	// RunID identifies the run.
	RunID string
	// Stages lists the stages that executed, in order.
	Stages []StageName
	// Duration is the total run time.
	Duration time.Duration
	// Err is the categorized failure, nil on success.
	Err *errors.AppError
}

// Failed reports whether the run failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// ExitCode returns the process exit code this outcome maps to. Success
// is 0; failures map through the error code table.
func (o Outcome) ExitCode() int {
	if o.Err == nil {
		return 0
	}
	return o.Err.ExitCode
}
