package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
)

// NewCaptureCommand creates the "capture" command (capture-uncommitted
// stage).
func NewCaptureCommand() *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Snapshot uncommitted changes and commit them once a message is authored",
		Long: `Write each dirty package's porcelain status, diff stat, and full diff
into its change-artifact directory, and seed an empty commit-message
draft next to it.

On a later invocation, packages whose draft has been filled in get their
changes committed under it. Running capture twice with no intervening
changes is safe: an empty index commits as a no-op.

Examples:
  drover capture
  drover capture --push`,

		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			outcomes, err := app.coord.CaptureUncommitted(pipeline.CaptureOptions{Push: push})
			if err != nil {
				return err
			}
			app.report.Stage(model.StageCaptureUncommitted, outcomes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "Push after committing authored changes")

	return cmd
}
