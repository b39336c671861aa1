package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
)

// NewHistoryCommand creates the "history" command (capture-since-tag
// stage).
func NewHistoryCommand() *cobra.Command {
	var fromTag string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Capture each package's commits and diff since its last release tag",
		Long: `Write the commit log and cumulative diff since the most recent tag
(or since --from-tag) into each package's change-artifact directory, and
seed the tag-message draft from the default template.

A package with no tags captures its whole history. The seeded draft must
be edited before the bump stage will accept the package.

Examples:
  drover history
  drover history --from-tag v1.4.0`,

		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			outcomes, err := app.coord.CaptureSinceTag(pipeline.SinceTagOptions{FromTag: fromTag})
			if err != nil {
				return err
			}
			app.report.Stage(model.StageCaptureSinceTag, outcomes)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromTag, "from-tag", "", "Capture since this tag instead of the most recent one")

	return cmd
}
