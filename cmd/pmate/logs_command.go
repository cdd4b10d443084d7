package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/daemonctl"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var lessonID string
	var sourceID string
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.daemonClient()
			if err != nil {
				return err
			}

			query := daemonctl.LogQuery{
				Limit:     lines,
				Tail:      true,
				LessonID:  strings.TrimSpace(lessonID),
				SourceID:  strings.TrimSpace(sourceID),
				Component: strings.TrimSpace(component),
			}
			if query.Limit <= 0 {
				query.Limit = 200
			}

			printed := false
			for {
				page, err := client.Logs(cmd.Context(), query)
				if err != nil {
					return wrapDaemonError(err, ctx.apiAddress())
				}
				for _, evt := range page.Events {
					fmt.Fprintln(cmd.OutOrStdout(), formatLogEvent(evt))
					printed = true
				}
				if !follow {
					if !printed {
						fmt.Fprintln(cmd.OutOrStdout(), "No log entries available")
					}
					return nil
				}
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				default:
				}
				query.Since = page.Next
				query.Limit = 200
				query.Tail = false
				query.Follow = true
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of recent entries to show")
	cmd.Flags().StringVar(&lessonID, "lesson", "", "Only show entries for one lesson")
	cmd.Flags().StringVar(&sourceID, "source", "", "Only show entries for one source")
	cmd.Flags().StringVar(&component, "component", "", "Only show entries from one component")
	return cmd
}

func formatLogEvent(evt api.LogEvent) string {
	ts := strings.TrimSpace(evt.Timestamp)
	if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
		ts = parsed.Local().Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if subject := logging.FormatSubject(evt.SourceID, evt.LessonID, evt.Stage); subject != "" {
		line += " " + subject
	}
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " – " + message
	}
	if len(evt.Details) == 0 {
		return line
	}
	builder := strings.Builder{}
	builder.WriteString(line)
	for _, detail := range evt.Details {
		if strings.TrimSpace(detail.Label) == "" || strings.TrimSpace(detail.Value) == "" {
			continue
		}
		builder.WriteString("\n    - ")
		builder.WriteString(detail.Label)
		builder.WriteString(": ")
		builder.WriteString(detail.Value)
	}
	return builder.String()
}
