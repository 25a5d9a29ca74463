package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"foley/internal/config"
	"foley/internal/cuesheet"
)

func newCuesheetCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "cuesheet",
		Short: "Export the active session as a cue sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.loadSession()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dir := cfg.Paths.ExportDir
			if trimmed := strings.TrimSpace(outDir); trimmed != "" {
				expanded, err := config.ExpandPath(trimmed)
				if err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
				dir = expanded
			}

			path, err := cuesheet.WriteJSON(cuesheet.Build(sess), dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderEventsTable(sess))
			fmt.Fprintf(out, "Cue sheet written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to paths.export_dir)")
	return cmd
}
