package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
)

// NewClearCommand creates the "clear" command, which resets the
// change-artifact directories after a completed release cycle.
func NewClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every package's change-artifact directory",

		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			outcomes, err := app.coord.Clear()
			if err != nil {
				return err
			}
			app.report.Stage(model.Stage("clear"), outcomes)
			return nil
		},
	}

	return cmd
}
