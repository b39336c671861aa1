package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
)

// NewRunCommand creates the "run" command: the full six-stage pipeline
// in one invocation.
func NewRunCommand() *cobra.Command {
	var (
		bump string
		push bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full release pipeline over every participating package",
		Long: `Run all six stages in order: prepare-branch, capture-uncommitted,
capture-since-tag, bump-version, create-tag, publish.

Packages whose message drafts have not been authored stop at the gated
stages and are reported as skipped; author the drafts and re-run.

Examples:
  drover run --bump patch
  drover run --bump minor --push
  drover run --bump patch --dry-run`,

		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseBumpKind(bump)
			if err != nil {
				return err
			}
			app, err := newApp()
			if err != nil {
				return err
			}
			results, err := app.coord.Run(pipeline.RunOptions{
				Bump:    kind,
				Push:    push,
				Prepare: pipeline.PrepareOptions{FallbackHead: true, FallbackLocal: true},
			})
			if err != nil {
				return err
			}
			app.report.Run(results)
			return nil
		},
	}

	cmd.Flags().StringVar(&bump, "bump", "patch", "Version component to bump (patch, minor, major, dev)")
	cmd.Flags().BoolVar(&push, "push", false, "Push branches, commits, and tags to the remote")

	return cmd
}
