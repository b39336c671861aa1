package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the "status" command: a read-only overview of
// every package's branch and sync state.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show each package's branch, ahead/behind counts, and dirty flag",

		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			outcomes, err := app.coord.Status()
			if err != nil {
				return err
			}
			for _, out := range outcomes {
				if out.Err != nil {
					fmt.Fprintf(os.Stdout, "  ✗ %-20s %v\n", out.Name, out.Err)
					continue
				}
				// Reason carries the current branch name here.
				fmt.Fprintf(os.Stdout, "  • %-20s %-15s %s\n", out.Name, out.Reason, out.Status.Summary())
			}
			return nil
		},
	}

	return cmd
}
