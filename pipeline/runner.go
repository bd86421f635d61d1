package pipeline

import (
	"context"
	"time"

	"github.com/skillsenselab/assetpipe/errors"
	"github.com/skillsenselab/assetpipe/logger"
)

// Runner executes an ordered list of stages. Stages are assembled at
// construction; no stage performs I/O until Run is called.
type Runner struct {
	operation   string
	stages      []Stage
	notifier    Notifier
	donePayload string
	log         *logger.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithNotifier sets the event notifier for this pipeline instance.
func WithNotifier(n Notifier) RunnerOption {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithDonePayload sets the path pattern carried by the completion event.
func WithDonePayload(path string) RunnerOption {
	return func(r *Runner) { r.donePayload = path }
}

// WithLogger sets the logger used for stage progress.
func WithLogger(l *logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a Runner for the named operation.
func NewRunner(operation string, opts ...RunnerOption) *Runner {
	r := &Runner{
		operation: operation,
		notifier:  NopNotifier{},
		log:       logger.Get("pipeline").WithFields(map[string]interface{}{logger.FieldOperation: operation}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Append adds stages to the end of the pipeline. A disabled stage should
// simply never be appended.
func (r *Runner) Append(stages ...Stage) {
	r.stages = append(r.stages, stages...)
}

// AppendIf adds the stage only when enabled is true. This keeps the
// conditional stage wiring at the call site readable.
func (r *Runner) AppendIf(enabled bool, stage Stage) {
	if enabled {
		r.stages = append(r.stages, stage)
	}
}

// Stages returns the names of the assembled stages, in order.
func (r *Runner) Stages() []StageName {
	names := make([]StageName, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes the stage sequence against a fresh Build. It stops at the
// first failing stage and returns a typed Outcome; it never terminates
// the process.
func (r *Runner) Run(ctx context.Context) Outcome {
	build := NewBuild()
	log := r.log.WithRun(build.RunID)
	outcome := Outcome{
		Operation: r.operation,
		RunID:     build.RunID,
	}

	log.Debug("pipeline started", logger.Fields("stages", len(r.stages)))

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			outcome.Err = errors.Internal(err)
			outcome.Duration = time.Since(build.StartedAt)
			return outcome
		}

		stageStart := time.Now()
		if err := stage.Run(ctx, build); err != nil {
			appErr := errors.Wrap(err)
			log.WithStage(string(stage.Name())).Error("stage failed",
				logger.MergeWithDuration(logger.Fields(logger.FieldError, appErr.Error()), time.Since(stageStart)))

			outcome.Stages = append(outcome.Stages, stage.Name())
			outcome.Err = appErr
			outcome.Duration = time.Since(build.StartedAt)

			r.notifier.Publish(Event{
				Name:  EventFailed,
				Path:  r.donePayload,
				RunID: build.RunID,
				Err:   appErr,
			})
			return outcome
		}

		log.WithStage(string(stage.Name())).Debug("stage finished",
			logger.DurationFields(string(stage.Name()), time.Since(stageStart)))
		outcome.Stages = append(outcome.Stages, stage.Name())
	}

	outcome.Duration = time.Since(build.StartedAt)
	log.Info("pipeline finished", logger.Fields(
		logger.FieldDuration, outcome.Duration.Milliseconds(),
		logger.FieldFiles, len(build.Artifacts),
	))

	r.notifier.Publish(Event{
		Name:  r.operation + EventSuffixDone,
		Path:  r.donePayload,
		RunID: build.RunID,
	})
	return outcome
}
