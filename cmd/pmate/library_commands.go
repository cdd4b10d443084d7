package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect configured lesson libraries",
	}

	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibraryShowCommand(ctx))

	return libraryCmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *library.Service) error {
				sources := svc.AvailableLibraries()
				if asJSON {
					return writeJSON(cmd, api.LibraryListResponse{Libraries: api.FromSources(sources)})
				}
				if len(sources) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No libraries configured")
					return nil
				}
				rows := make([][]string, 0, len(sources))
				for _, src := range sources {
					rows = append(rows, []string{
						src.ID,
						src.Name,
						string(src.Type),
						fmt.Sprintf("%d", src.Priority),
						fmt.Sprintf("%d", src.Config.LessonCount),
						formatSyncTime(src.Config.LastSyncedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Type", "Priority", "Lessons", "Last Synced"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newLibraryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <libraryID>",
		Short: "Show one library's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *library.Service) error {
				src, ok := svc.LibraryByID(args[0])
				if !ok {
					return fmt.Errorf("unknown library %q", args[0])
				}
				if asJSON {
					return writeJSON(cmd, api.LibraryResponse{Library: api.FromSource(src)})
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader(src.Name, colorize) {
					fmt.Fprintln(stdout, line)
				}
				enabledKind := statusOK
				if !src.Enabled {
					enabledKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("ID", statusInfo, src.ID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Type", statusInfo, string(src.Type), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Enabled", enabledKind, yesNo(src.Enabled), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Priority", statusInfo, fmt.Sprintf("%d", src.Priority), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lessons", statusInfo, fmt.Sprintf("%d", src.Config.LessonCount), colorize))
				if src.Config.Path != "" {
					fmt.Fprintln(stdout, renderStatusLine("Path", statusInfo, src.Config.Path, colorize))
				}
				if src.Config.URL != "" {
					fmt.Fprintln(stdout, renderStatusLine("URL", statusInfo, src.Config.URL, colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Last synced", statusInfo, formatSyncTime(src.Config.LastSyncedAt), colorize))
				if len(src.Config.Features) > 0 {
					fmt.Fprintln(stdout, renderStatusLine("Features", statusInfo, strings.Join(src.Config.Features, ", "), colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of status lines")
	return cmd
}
