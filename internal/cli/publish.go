package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
)

// NewPublishCommand creates the "publish" command (publish stage).
func NewPublishCommand() *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Push the release and open the next development cycle",
		Long: `Push each participating package's release commit and tag (with --push),
then open the next development cycle: the manifest moves to the
successor dev version (1.2.4 -> 1.2.5.dev0; 1.2.3.dev4 -> 1.2.3.dev5)
and the change is committed.

Examples:
  drover publish
  drover publish --push`,

		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			outcomes, err := app.coord.Publish(pipeline.PublishOptions{Push: push})
			if err != nil {
				return err
			}
			app.report.Stage(model.StagePublish, outcomes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "Push commits and tags to the remote")

	return cmd
}
