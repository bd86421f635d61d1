package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skillsenselab/assetpipe/pipeline"
)

// outcomeErr converts a failed Outcome into the command error so main can
// map it to the right exit code. Success returns nil.
func outcomeErr(o pipeline.Outcome) error {
	if o.Failed() {
		return o.Err
	}
	return nil
}

func newCompileCmd(a *app) *cobra.Command {
	var resilient bool
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile stylesheets and post-process the output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := pipeline.FailFast
			if resilient {
				mode = pipeline.Resilient
			}
			return outcomeErr(a.sass.Compile(cmd.Context(), mode))
		},
	}
	cmd.Flags().BoolVar(&resilient, "resilient", false, "skip files that fail to compile instead of aborting")
	return cmd
}

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated stylesheets and docs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := outcomeErr(a.sass.Clean(cmd.Context())); err != nil {
				return err
			}
			if a.plab != nil {
				return outcomeErr(a.plab.Clean(cmd.Context()))
			}
			return nil
		},
	}
}

func newLintCmd(a *app) *cobra.Command {
	var noStrict bool
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Lint changed source stylesheets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := pipeline.FailFast
			if noStrict {
				mode = pipeline.Resilient
			}
			return outcomeErr(a.sass.Lint(cmd.Context(), mode))
		},
	}
	cmd.Flags().BoolVar(&noStrict, "no-strict", false, "report violations without failing")
	return cmd
}

func newDocsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Generate stylesheet reference documentation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return outcomeErr(a.sass.Docs(cmd.Context()))
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild on source changes until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if a.plab != nil {
				go func() {
					if err := a.plab.Watch(ctx); err != nil {
						a.log.Error("Pattern Lab watch failed", map[string]interface{}{
							"error": err.Error(),
						})
					}
				}()
			}
			return a.sass.Watch(ctx)
		},
	}
}
