// Package schema validates lesson documents against the wire contract and
// migrates legacy document shapes into the canonical lesson form.
//
// Validation is exhaustive rather than first-error-only: a single pass over
// the document collects every field violation into a ValidationResult so that
// authors can fix a document in one round. Deprecated fields (per-entry
// pinyin and partOfSpeech on vocabulary) surface as warnings, never errors,
// and are stripped by Clean during migration.
package schema
