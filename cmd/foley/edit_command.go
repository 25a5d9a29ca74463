package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"foley/internal/session"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <event-id> <feedback...>",
		Short: "Re-source a ready event with your feedback",
		Long: "Re-runs asset production for one event using your feedback as the steer.\n" +
			"Manual edits skip quality review and do not count against the event's\n" +
			"regeneration budget. Event IDs are shown by `foley events`; a unique\n" +
			"prefix is accepted.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.loadSession()
			if err != nil {
				return err
			}

			eventID, err := resolveEventID(sess, args[0])
			if err != nil {
				return err
			}
			feedback := strings.TrimSpace(strings.Join(args[1:], " "))

			orch, eng, store, err := ctx.buildOrchestrator(sess)
			if err != nil {
				return err
			}
			defer func() {
				eng.Flush()
				store.Close()
			}()

			if err := orch.ManualEdit(cmd.Context(), eventID, feedback); err != nil {
				return err
			}
			if err := ctx.saveSession(sess); err != nil {
				return err
			}

			event := sess.EventByID(eventID)
			fmt.Fprintf(cmd.OutOrStdout(), "Re-sourced %q (%s)\n", event.Description, event.Provenance)
			return nil
		},
	}
	return cmd
}

// resolveEventID accepts a full event id or a unique prefix.
func resolveEventID(sess *session.Session, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("event id is required")
	}

	var matches []string
	for _, event := range sess.Events {
		if event.ID == prefix {
			return event.ID, nil
		}
		if strings.HasPrefix(event.ID, prefix) {
			matches = append(matches, event.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no event matches %q (see `foley events`)", prefix)
	default:
		return "", fmt.Errorf("event id %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
