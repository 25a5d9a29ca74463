package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Asset library utilities",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryStatsCommand(ctx))
	libraryCmd.AddCommand(newLibraryHealthCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored assets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			assets, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(assets) == 0 {
				fmt.Fprintln(out, "Library is empty")
				return nil
			}

			rows := make([][]string, 0, len(assets))
			for _, asset := range assets {
				rows = append(rows, []string{
					shortID(asset.AssetID),
					truncate(asset.Description, 56),
					asset.AudioPath,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Description", "Audio"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newLibraryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", store.Path())
			fmt.Fprintf(out, "Assets: %d (%d with embeddings)\n", stats.Total, stats.WithVector)
			if !stats.OldestCreate.IsZero() {
				fmt.Fprintf(out, "Oldest: %s\n", stats.OldestCreate.Format(time.RFC3339))
				fmt.Fprintf(out, "Newest: %s\n", stats.NewestCreate.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newLibraryHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the library database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLibrary()
			if err != nil {
				return err
			}
			defer store.Close()

			health, err := store.CheckHealth(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", health.DBPath)
			fmt.Fprintf(out, "Exists: %s\n", yesNo(health.DatabaseExists))
			fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
			fmt.Fprintf(out, "Assets table: %s\n", yesNo(health.TableExists))
			if health.TableExists {
				fmt.Fprintf(out, "Assets: %d\n", health.TotalAssets)
			}
			if err != nil {
				return fmt.Errorf("library health check failed: %w", err)
			}
			fmt.Fprintln(out, "Library is healthy")
			return nil
		},
	}
}
