package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/daemonctl"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the prepared-lesson cache",
	}

	cacheCmd.AddCommand(newCacheStatusCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cache counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client, err := ctx.daemonClient(); err == nil {
				status, err := client.CacheStatus(cmd.Context())
				if err == nil {
					return printCacheStatus(cmd, status, asJSON, ctx.configValue())
				}
				if !daemonctl.IsUnavailable(err) {
					return err
				}
			}
			return ctx.withService(cmd, func(svc *library.Service) error {
				return printCacheStatus(cmd, api.FromCacheStatus(svc.CacheStatus()), asJSON, ctx.configValue())
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of status lines")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every prepared lesson from the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client, err := ctx.daemonClient(); err == nil {
				before, err := client.CacheStatus(cmd.Context())
				if err == nil {
					if _, err := client.ClearCache(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d prepared lessons\n", before.TotalItems)
					return nil
				}
				if !daemonctl.IsUnavailable(err) {
					return err
				}
			}
			return ctx.withService(cmd, func(svc *library.Service) error {
				before := svc.CacheStatus().TotalItems
				svc.ClearCache()
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d prepared lessons\n", before)
				return nil
			})
		},
	}
}

func printCacheStatus(cmd *cobra.Command, status api.CacheStatus, asJSON bool, cfg *config.Config) error {
	if asJSON {
		return writeJSON(cmd, api.CacheStatusResponse{Cache: status})
	}

	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)
	for _, line := range renderSectionHeader("Cache Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Items", statusInfo, fmt.Sprintf("%d", status.TotalItems), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Hit rate", statusInfo, formatHitRate(status.HitRate), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Size", statusInfo, formatBytes(status.SizeBytes), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Hits", statusInfo, fmt.Sprintf("%d", status.Hits), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Misses", statusInfo, fmt.Sprintf("%d", status.Misses), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Evictions", statusInfo, fmt.Sprintf("%d", status.Evictions), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Expired", statusInfo, fmt.Sprintf("%d", status.Expired), colorize))
	if cfg != nil && cfg.Cache.PersistToDisk {
		fmt.Fprintln(stdout, renderStatusLine("Store", statusInfo, cfg.Cache.Path, colorize))
	}
	return nil
}
