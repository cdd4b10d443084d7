package logging

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldDecisionType,
	"lesson_title",
	"source_name",
	"source_type",
	"status",
	FieldProgressStage,
	FieldProgressPercent,
	FieldProgressMessage,
	"error_message",
	FieldErrorHint,
	"query",
	"result_count",
	"difficulty",
	"book",
	"priority",
	"character_count",
	"vocabulary_count",
	"segment_count",
	"flashcard_count",
	"question_count",
	"segmentation_mode",
	"lesson_count",
	"lessons_loaded",
	"lessons_fetched",
	"sources_synced",
	"sources_failed",
	"warning_count",
	"error_count",
	"sync_duration",
	"fetch_duration",
	"prepare_duration",
	"search_duration",
	"cache_decision",
	"cache_hits",
	"cache_misses",
	"cache_hit_rate_percent",
	"cache_items",
	"cache_size_bytes",
	"cache_evictions",
	"expired_count",
	"decision_result",
	"decision_reason",
	"reason",
}

// selectInfoFields returns formatted info-level fields and a count of hidden entries.
// limit=0 means no limit. includeDebug controls whether debug-only keys are allowed.
func selectInfoFields(attrs []kv, limit int, includeDebug bool) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	if limit < 0 {
		limit = 0
	}
	used := make([]bool, len(attrs))
	formatted := make([]string, len(attrs))
	formattedSet := make([]bool, len(attrs))
	ensureValue := func(idx int) string {
		if !formattedSet[idx] {
			formatted[idx] = formatValueForKey(attrs[idx].key, attrs[idx].value)
			formattedSet[idx] = true
		}
		return formatted[idx]
	}
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	for _, key := range infoHighlightKeys {
		if limit > 0 && len(result) >= limit {
			break
		}
		for idx, attr := range attrs {
			if used[idx] || attr.key != key {
				continue
			}
			used[idx] = true
			if skipInfoKey(attr.key) {
				break
			}
			if !includeDebug && isDebugOnlyKey(attr.key) {
				hidden++
				break
			}
			val := ensureValue(idx)
			if !includeDebug && shouldHideInfoValue(attr.key, val) {
				hidden++
				break
			}
			result = append(result, infoField{label: displayLabel(attr.key), value: val})
			break
		}
	}

	for idx, attr := range attrs {
		if used[idx] {
			continue
		}
		used[idx] = true
		if skipInfoKey(attr.key) {
			continue
		}
		if !includeDebug && isDebugOnlyKey(attr.key) {
			hidden++
			continue
		}
		val := ensureValue(idx)
		if !includeDebug && shouldHideInfoValue(attr.key, val) {
			hidden++
			continue
		}
		if limit <= 0 || len(result) < limit {
			result = append(result, infoField{label: displayLabel(attr.key), value: val})
		} else if limit > 0 {
			hidden++
		}
	}

	return result, hidden
}

// formatValueForKey applies smart formatting based on the key name.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()

	if isByteSizeKey(key) && (v.Kind() == slog.KindInt64 || v.Kind() == slog.KindUint64) {
		var bytes int64
		if v.Kind() == slog.KindInt64 {
			bytes = v.Int64()
		} else {
			bytes = int64(v.Uint64())
		}
		return formatBytes(bytes)
	}

	if isDurationKey(key) && v.Kind() == slog.KindDuration {
		return formatDurationHuman(v.Duration())
	}

	if isPercentKey(key) && v.Kind() == slog.KindFloat64 {
		return formatPercent(v.Float64())
	}

	if v.Kind() == slog.KindBool {
		if v.Bool() {
			return "yes"
		}
		return "no"
	}

	value := formatValue(v)
	if key == "error" || key == "error_message" {
		value = truncateErrorValue(value)
	}
	return value
}

// isByteSizeKey returns true if the key represents a byte size.
func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") ||
		strings.HasSuffix(key, "_size") ||
		key == "size"
}

// isDurationKey returns true if the key represents a duration.
func isDurationKey(key string) bool {
	return strings.HasSuffix(key, "_duration") ||
		strings.HasSuffix(key, "_elapsed") ||
		strings.HasSuffix(key, "_latency") ||
		key == "elapsed" ||
		key == "duration" ||
		key == "backoff" ||
		key == "ttl"
}

// isPercentKey returns true if the key represents a percentage.
func isPercentKey(key string) bool {
	return strings.HasSuffix(key, "_percent") ||
		key == FieldProgressPercent
}

func formatBytes(value int64) string {
	const (
		kiB = 1024
		miB = kiB * 1024
		giB = miB * 1024
	)
	switch {
	case value >= giB:
		return fmt.Sprintf("%.2f GiB", float64(value)/float64(giB))
	case value >= miB:
		return fmt.Sprintf("%.2f MiB", float64(value)/float64(miB))
	case value >= kiB:
		return fmt.Sprintf("%.2f KiB", float64(value)/float64(kiB))
	default:
		return fmt.Sprintf("%d B", value)
	}
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	case d >= time.Minute:
		return fmt.Sprintf("%.1fm", d.Minutes())
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.String()
	}
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldLessonID, FieldSourceID, FieldStage, FieldComponent, FieldRunID:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	if key == "" {
		return true
	}
	switch key {
	case FieldCorrelationID,
		"cache_key",
		"options_hash",
		"content_hash",
		"attempt",
		"retry_count",
		"payload_bytes",
		"status_code",
		"topic":
		return true
	}
	if strings.Contains(key, "correlation") {
		return true
	}
	if strings.HasSuffix(key, "_id") {
		return true
	}
	if strings.Contains(key, "_path") || strings.Contains(key, "_dir") || strings.Contains(key, "_url") {
		return true
	}
	return false
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error_message", "error", "query", "reason":
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldDecisionType:
		return "Decision"
	case FieldErrorHint:
		return "Hint"
	case FieldImpact:
		return "Impact"
	case FieldLessonID:
		return "Lesson"
	case FieldSourceID:
		return "Source"
	case FieldStage:
		return "Stage"
	case FieldProgressStage:
		return "Progress Stage"
	case FieldProgressPercent:
		return "Progress"
	case FieldProgressMessage:
		return "Progress"
	case "lesson_title":
		return "Title"
	case "source_name":
		return "Source"
	case "source_type":
		return "Type"
	case "status":
		return "Status"
	case "query":
		return "Query"
	case "result_count":
		return "Results"
	case "difficulty":
		return "Difficulty"
	case "book":
		return "Book"
	case "priority":
		return "Priority"
	case "character_count":
		return "Characters"
	case "vocabulary_count":
		return "Vocabulary"
	case "segment_count":
		return "Segments"
	case "flashcard_count":
		return "Flashcards"
	case "question_count":
		return "Questions"
	case "segmentation_mode":
		return "Segmentation"
	case "lesson_count", "lessons_loaded":
		return "Lessons"
	case "lessons_fetched":
		return "Fetched"
	case "sources_synced":
		return "Synced"
	case "sources_failed":
		return "Failed"
	case "warning_count":
		return "Warnings"
	case "error_count":
		return "Errors"
	case "sync_duration":
		return "Sync Time"
	case "fetch_duration":
		return "Fetch Time"
	case "prepare_duration":
		return "Prepare Time"
	case "search_duration":
		return "Search Time"
	case "cache_decision":
		return "Cache"
	case "cache_hits":
		return "Cache Hits"
	case "cache_misses":
		return "Cache Misses"
	case "cache_hit_rate_percent":
		return "Hit Rate"
	case "cache_items":
		return "Cached Items"
	case "cache_size_bytes":
		return "Cache Size"
	case "cache_evictions":
		return "Evictions"
	case "expired_count":
		return "Expired"
	case "decision_result":
		return "Decision"
	case "decision_reason":
		return "Reason"
	case "decision_options":
		return "Candidates"
	case "reason":
		return "Reason"
	case "error_message":
		return "Error"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(parts) == 0 {
		return strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
	}
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}

func infoSummaryKey(component, lessonID, sourceID string, attrs []kv) string {
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		if title := attrValue(attrs, "lesson_title"); title != "" {
			lessonID = "title:" + title
		} else if sourceID = strings.TrimSpace(sourceID); sourceID != "" {
			lessonID = "source:" + sourceID
		} else if component != "" {
			lessonID = component
		}
	}
	if lessonID == "" {
		return ""
	}
	return lessonID
}

func attrValue(attrs []kv, key string) string {
	for _, kv := range attrs {
		if kv.key == key {
			return attrString(kv.value)
		}
	}
	return ""
}
