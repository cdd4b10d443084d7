package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon management",
	}

	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))

	return daemonCmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, catalog, and cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.daemonClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return wrapDaemonError(err, ctx.apiAddress())
			}

			if asJSON {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(out, line)
			}
			stateKind, stateLabel := statusOK, "running"
			if !status.Running {
				stateKind, stateLabel = statusWarn, "not running"
			}
			fmt.Fprintln(out, renderStatusLine("State", stateKind, stateLabel, colorize))
			fmt.Fprintln(out, renderStatusLine("PID", statusInfo, strconv.Itoa(status.PID), colorize))
			fmt.Fprintln(out, renderStatusLine("Started", statusInfo, formatAPITime(status.StartedAt), colorize))
			fmt.Fprintln(out, renderStatusLine("API", statusInfo, ctx.apiAddress(), colorize))
			fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Catalog", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Lessons", statusInfo, strconv.Itoa(status.CatalogSize), colorize))
			fmt.Fprintln(out, renderStatusLine("Libraries", statusInfo, strconv.Itoa(status.Libraries), colorize))
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Scheduler", colorize) {
				fmt.Fprintln(out, line)
			}
			if status.Scheduler.Interval == "" {
				fmt.Fprintln(out, renderStatusLine("Interval", statusWarn, "periodic sync disabled", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Interval", statusInfo, status.Scheduler.Interval, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Last sync", statusInfo, formatAPITime(status.Scheduler.LastSyncAt), colorize))
			if status.Scheduler.LastSyncAt != "" {
				resultKind := statusOK
				resultLabel := fmt.Sprintf("%d synced", status.Scheduler.LastSynced)
				if status.Scheduler.LastFailures > 0 {
					resultKind = statusWarn
					resultLabel = fmt.Sprintf("%d synced, %d failed", status.Scheduler.LastSynced, status.Scheduler.LastFailures)
				}
				fmt.Fprintln(out, renderStatusLine("Last result", resultKind, resultLabel, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Cache", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Items", statusInfo, strconv.Itoa(status.Cache.TotalItems), colorize))
			fmt.Fprintln(out, renderStatusLine("Hit rate", statusInfo, formatHitRate(status.Cache.HitRate), colorize))
			if status.CacheDBPath != "" {
				fmt.Fprintln(out, renderStatusLine("Store", statusInfo, status.CacheDBPath, colorize))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output status as JSON")
	return cmd
}
