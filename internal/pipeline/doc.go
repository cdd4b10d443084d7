// Package pipeline turns validated lesson documents into study-ready
// artifacts.
//
// Prepare runs a fixed stage order: segmentation, pinyin annotation,
// vocabulary mapping, flashcard generation, and quiz generation. Each stage is
// a pure function of the lesson content and the selected options, so repeated
// preparation of the same lesson is deterministic apart from generated IDs and
// the prepared timestamp. Options gate the optional stages; degenerate lessons
// (empty content, empty vocabulary) prepare successfully with empty outputs.
//
// Keep new derivation logic here so the library facade can treat prepared
// artifacts as cacheable values with no hidden inputs.
package pipeline
