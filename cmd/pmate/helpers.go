package main

import (
	"fmt"
	"strings"
	"time"
)

// formatAPITime reformats an RFC3339 API timestamp for terminal display.
// Empty values render as "never"; unparseable values pass through untouched.
func formatAPITime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "never"
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatSyncTime(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n/div >= unit && exp < 4 {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTP"[exp])
}

func formatHitRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}

func formatDurationMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}
