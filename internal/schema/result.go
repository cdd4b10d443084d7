package schema

import (
	"fmt"
	"strings"

	"github.com/mpklu/pinyinMate-sub004/internal/services"
)

// FieldError describes one schema violation. Field uses dotted paths with
// array indices, e.g. "metadata.vocabulary[2].word". Value carries the
// offending value when it is small enough to be useful in a report.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Warning describes a non-fatal finding such as a deprecated field or a
// character-count mismatch. Warnings never block acceptance of a document.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult reports the outcome of validating one document. A fresh
// result is produced per call and never cached.
type ValidationResult struct {
	Valid    bool         `json:"valid"`
	Errors   []FieldError `json:"errors,omitempty"`
	Warnings []Warning    `json:"warnings,omitempty"`
}

func (r *ValidationResult) addError(field, message string, value any) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message, Value: value})
}

func (r *ValidationResult) addWarning(field, message string) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Message: message})
}

// hasError reports whether an error was already recorded for the field, so
// later value checks do not stack a second error on a field that failed to
// decode in the first place.
func (r *ValidationResult) hasError(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func (r *ValidationResult) finalize() ValidationResult {
	r.Valid = len(r.Errors) == 0
	return *r
}

// ErrorStrings renders every error as "field: message" in recorded order.
func (r ValidationResult) ErrorStrings() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Field+": "+e.Message)
	}
	return out
}

// WarningStrings renders every warning as "field: message" in recorded order.
func (r ValidationResult) WarningStrings() []string {
	if len(r.Warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Field+": "+w.Message)
	}
	return out
}

// Err converts an invalid result into a classified validation error. Valid
// results return nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	detail := strings.Join(r.ErrorStrings(), "; ")
	return services.Wrap(services.ErrValidation, "schema", "validate",
		fmt.Sprintf("document failed validation: %s", detail), nil)
}
