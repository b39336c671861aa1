package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
)

// NewTagCommand creates the "tag" command (create-tag stage).
func NewTagCommand() *cobra.Command {
	var push bool

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Create the annotated release tag in every participating package",
		Long: `Tag each package's release commit with <tag-prefix><version>, using the
last commit message as the tag annotation.

Packages already carrying the tag are skipped, which makes re-running
after a partial failure safe.

Examples:
  drover tag
  drover tag --push`,

		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			outcomes, err := app.coord.CreateTag(pipeline.TagOptions{Push: push})
			if err != nil {
				return err
			}
			app.report.Stage(model.StageCreateTag, outcomes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "Push the tag to the remote")

	return cmd
}
