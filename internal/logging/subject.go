package logging

import "strings"

// FormatSubject builds the source/lesson/stage subject string used in console output.
func FormatSubject(sourceID, lessonID, stage string) string {
	sourceID = strings.TrimSpace(sourceID)
	lessonID = strings.TrimSpace(lessonID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 3)
	if sourceID != "" {
		var formattedSource string
		if len(sourceID) > 1 {
			formattedSource = strings.ToUpper(sourceID[:1]) + strings.ToLower(sourceID[1:])
		} else {
			formattedSource = strings.ToUpper(sourceID)
		}
		parts = append(parts, formattedSource)
	}
	switch {
	case lessonID != "" && stage != "":
		parts = append(parts, "Lesson "+lessonID+" ("+stage+")")
	case lessonID != "":
		parts = append(parts, "Lesson "+lessonID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
