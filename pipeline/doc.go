// Package pipeline provides the staged build pipeline underlying every
// assetpipe operation.
//
// A Runner holds an ordered list of stages assembled at construction time.
// Disabled stages are never appended, so a disabled stage is skipped
// entirely rather than run as a no-op. Running the pipeline produces a
// typed Outcome; the library never terminates the process on failure.
// Callers inspect the Outcome and decide.
//
// Completion and error events are published to a Notifier scoped to the
// pipeline instance, not to a process-wide bus.
//
// # Usage
//
//	r := pipeline.NewRunner("compile",
//	    pipeline.WithNotifier(events),
//	    pipeline.WithDonePayload("public/css/**/*.css"),
//	)
//	r.Append(resolveStage, compileStage, writeStage)
//	outcome := r.Run(ctx)
//	if outcome.Failed() {
//	    // report, exit, or keep watching
//	}
package pipeline
