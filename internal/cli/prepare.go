package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
)

// NewPrepareCommand creates the "prepare" command (prepare-branch stage).
func NewPrepareCommand() *cobra.Command {
	var (
		branch        string
		baseBranch    string
		push          bool
		noStash       bool
		stashName     string
		keepStash     bool
		fallbackHead  bool
		fallbackLocal bool
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Prepare the working branch in every participating package",
		Long: `Fetch the remote and check out the configured working branch in each
package, creating it from the base branch when it does not exist yet.

A dirty working tree is shelved in a labeled stash around the checkout
and restored afterwards; a conflicted restore keeps the stash entry for
manual resolution. Local branches that diverge from their remote
counterpart are reported, never merged or rebased automatically.

Examples:
  drover prepare
  drover prepare --push
  drover prepare --branch release-2026-q3 --base-branch main
  drover prepare --no-stash`,

		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			if branch != "" {
				app.cfg.Branch = branch
			}
			if baseBranch != "" {
				app.cfg.BaseBranch = baseBranch
			}
			outcomes, err := app.coord.PrepareBranch(pipeline.PrepareOptions{
				Push:          push,
				NoStash:       noStash,
				StashLabel:    stashName,
				KeepStash:     keepStash,
				FallbackHead:  fallbackHead,
				FallbackLocal: fallbackLocal,
			})
			if err != nil {
				return err
			}
			app.report.Stage(model.StagePrepareBranch, outcomes)
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "Working branch name (default from config)")
	cmd.Flags().StringVar(&baseBranch, "base-branch", "", "Base branch to create the working branch from (default from config)")
	cmd.Flags().BoolVar(&push, "push", false, "Push the branch after preparing it")
	cmd.Flags().BoolVar(&noStash, "no-stash", false, "Skip dirty packages instead of auto-stashing")
	cmd.Flags().StringVar(&stashName, "stash-name", "", "Label for the auto-stash entry (default: drover-auto-<branch>)")
	cmd.Flags().BoolVar(&keepStash, "keep-stash", false, "Keep the stash entry even after a clean restore")
	cmd.Flags().BoolVar(&fallbackHead, "fallback-head", true, "Use the remote's default branch when the base branch is absent")
	cmd.Flags().BoolVar(&fallbackLocal, "fallback-local", true, "Use the local base branch when the remote has neither")

	return cmd
}
