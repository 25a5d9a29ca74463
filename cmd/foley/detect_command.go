package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var styleFlag string

	cmd := &cobra.Command{
		Use:   "detect <video>",
		Short: "Detect sound events without producing audio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.resumeOrCreateSession(args[0], styleFlag)
			if err != nil {
				return err
			}

			orch, eng, store, err := ctx.buildOrchestrator(sess)
			if err != nil {
				return err
			}
			defer func() {
				eng.Flush()
				store.Close()
			}()

			if err := orch.RunDetection(cmd.Context()); err != nil {
				return err
			}
			if err := ctx.saveSession(sess); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Detected %d sound events:\n", len(sess.Events))
			fmt.Fprintln(out, renderEventsTable(sess))
			return nil
		},
	}

	cmd.Flags().StringVarP(&styleFlag, "style", "s", "", "Creative direction label")
	return cmd
}
