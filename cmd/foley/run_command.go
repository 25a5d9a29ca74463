package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"foley/internal/cuesheet"
	"foley/internal/pipeline"
	"foley/internal/session"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var styleFlag string
	var exportFlag bool

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Produce sound effects for a video end to end",
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

			out := cmd.OutOrStdout()
			orch.AddObserver(pipeline.ObserverFunc(func(ev pipeline.ProgressEvent) {
				if ev.Message == "" {
					return
				}
				if ev.Percent > 0 {
					fmt.Fprintf(out, "[%3.0f%%] %s: %s\n", ev.Percent, ev.Stage, ev.Message)
					return
				}
				fmt.Fprintf(out, "%s: %s\n", ev.Stage, ev.Message)
			}))

			runErr := orch.Run(cmd.Context())
			if saveErr := ctx.saveSession(sess); saveErr != nil && runErr == nil {
				runErr = saveErr
			}
			if runErr != nil {
				return runErr
			}

			fmt.Fprintln(out, renderEventsTable(sess))
			if forced := orch.ForcedEvents(); forced > 0 {
				fmt.Fprintf(out, "%d event(s) were accepted after exhausting regeneration attempts; review them with `foley events`.\n", forced)
			}

			if exportFlag {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				path, err := cuesheet.WriteJSON(cuesheet.Build(sess), cfg.Paths.ExportDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cue sheet written to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&styleFlag, "style", "s", "", "Creative direction label (e.g. \"noir thriller\")")
	cmd.Flags().BoolVar(&exportFlag, "export", false, "Export the cue sheet after the run")
	return cmd
}

// resumeOrCreateSession reuses the saved session when it points at the same
// video content, so a repeat run keeps its warm detection cache. A style
// change alone never discards the cache.
func (c *commandContext) resumeOrCreateSession(videoPath, styleLabel string) (*session.Session, error) {
	styleLabel = strings.TrimSpace(styleLabel)

	fingerprint, err := session.FingerprintFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("fingerprint video: %w", err)
	}

	if statePath, err := c.sessionStatePath(); err == nil {
		if saved, loadErr := session.LoadFile(statePath); loadErr == nil && saved.Fingerprint == fingerprint {
			if replaceErr := saved.ReplaceVideo(videoPath); replaceErr == nil {
				if styleLabel != "" {
					saved.SetStyleLabel(styleLabel)
				}
				return saved, nil
			}
		}
	}

	return session.New(videoPath, styleLabel)
}
