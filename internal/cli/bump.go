package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
)

// NewBumpCommand creates the "bump" command (bump-version stage).
func NewBumpCommand() *cobra.Command {
	var (
		bump string
		push bool
	)

	cmd := &cobra.Command{
		Use:   "bump",
		Short: "Bump manifest versions and commit the release",
		Long: `Advance each participating package's manifest version and commit the
result under its authored tag message, with {VERSION} and {PREV_VERSION}
placeholders expanded.

Packages whose tag-message draft is missing, empty, or still the seeded
template are skipped — editing the draft is how a release is approved.

Bump kinds:
  patch   1.2.3 -> 1.2.4;  1.2.3.dev4 -> 1.2.3 (closes the dev cycle)
  minor   1.2.3 -> 1.3.0
  major   1.2.3 -> 2.0.0
  dev     1.2.3.dev4 -> 1.2.3.dev5

Examples:
  drover bump --bump patch
  drover bump --bump minor --push`,

		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := model.ParseBumpKind(bump)
			if err != nil {
				return err
			}
			app, err := newApp()
			if err != nil {
				return err
			}
			outcomes, err := app.coord.BumpVersion(pipeline.BumpOptions{Kind: kind, Push: push})
			if err != nil {
				return err
			}
			app.report.Stage(model.StageBumpVersion, outcomes)
			return nil
		},
	}

	cmd.Flags().StringVar(&bump, "bump", "", "Version component to bump (patch, minor, major, dev)")
	cmd.Flags().BoolVar(&push, "push", false, "Push after the release commit")
	_ = cmd.MarkFlagRequired("bump")

	return cmd
}
