package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/daemonctl"
	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync [sourceID]",
		Short: "Synchronize lesson sources",
		Long: "Synchronize remote lesson sources, or refresh a single library when a " +
			"source ID is given. A running daemon performs the sync so its catalog " +
			"picks up the result; without one the sync runs in-process.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceID := ""
			if len(args) > 0 {
				sourceID = args[0]
			}

			if client, err := ctx.daemonClient(); err == nil {
				results, err := client.Sync(cmd.Context(), sourceID)
				if err == nil {
					return printSyncOutcomes(cmd, results, asJSON)
				}
				if !daemonctl.IsUnavailable(err) {
					return err
				}
			}

			return ctx.withService(cmd, func(svc *library.Service) error {
				var results []lesson.SyncResult
				if sourceID != "" {
					results = []lesson.SyncResult{svc.RefreshLibrary(cmd.Context(), sourceID)}
				} else {
					results = svc.SyncAll(cmd.Context())
				}
				return printSyncOutcomes(cmd, api.FromSyncResults(results), asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func printSyncOutcomes(cmd *cobra.Command, results []api.SyncOutcome, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, api.SyncResponse{Results: results})
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No remote sources configured; nothing to sync")
		return nil
	}

	failures := 0
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		statusLabel := "OK"
		detail := ""
		if !result.Success {
			statusLabel = "FAILED"
			failures++
			if len(result.Errors) > 0 {
				detail = truncate(result.Errors[0], 60)
			}
		}
		rows = append(rows, []string{
			result.SourceID,
			statusLabel,
			fmt.Sprintf("%d", result.Lessons),
			formatDurationMillis(result.DurationMS),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Result", "Lessons", "Duration", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	if failures > 0 {
		fmt.Fprintf(out, "%d of %d sources failed\n", failures, len(results))
	}
	return nil
}
