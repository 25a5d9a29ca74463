package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the active session's sound events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.loadSession()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonFlag {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(sess.Events)
			}

			fmt.Fprintf(out, "Session %s: %s\n", sess.ID, sess.VideoPath)
			if sess.StyleLabel != "" {
				fmt.Fprintf(out, "Style: %s\n", sess.StyleLabel)
			}
			fmt.Fprintln(out, renderEventsTable(sess))

			for i, event := range sess.Events {
				if event.QCFeedback != "" {
					fmt.Fprintf(out, "#%d (%s): last review feedback: %s\n", i+1, shortID(event.ID), event.QCFeedback)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit events as JSON")
	return cmd
}
