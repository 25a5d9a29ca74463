package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Revert the session to its detection baseline",
		Long: "Reset discards all direction, production, and review state and rebuilds " +
			"the event list from the cached detection, without re-analyzing the video.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.loadSession()
			if err != nil {
				return err
			}
			if !sess.Reset() {
				return fmt.Errorf("nothing to reset: no cached detection for this video")
			}
			if err := ctx.saveSession(sess); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session reset to %d detected events\n", len(sess.Events))
			return nil
		},
	}
}
