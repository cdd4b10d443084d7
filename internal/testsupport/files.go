package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// VocabPair is one vocabulary word with its definition. A slice keeps entry
// order stable, which deterministic quiz generation depends on.
type VocabPair struct {
	Word       string
	Definition string
}

// LessonDoc describes one lesson fixture, written as a document file or
// served inline from a stub manifest. Zero fields fall back to usable
// defaults in JSON.
type LessonDoc struct {
	ID         string
	Title      string
	Content    string
	Difficulty string
	Tags       []string
	Vocabulary []VocabPair
	UpdatedAt  time.Time
}

// JSON renders the document in the wire shape the schema package accepts.
// Derived fields like characterCount are left out so legacy migration
// backfills them, matching documents found in the wild.
func (d LessonDoc) JSON(t testing.TB) []byte {
	t.Helper()

	title := d.Title
	if title == "" {
		title = "Lesson " + d.ID
	}
	content := d.Content
	if content == "" {
		content = "你好。"
	}
	difficulty := d.Difficulty
	if difficulty == "" {
		difficulty = "beginner"
	}
	updated := d.UpdatedAt
	if updated.IsZero() {
		updated = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}

	metadata := map[string]any{
		"difficulty":    difficulty,
		"tags":          d.Tags,
		"estimatedTime": 5,
		"createdAt":     updated.Add(-24 * time.Hour).Format(time.RFC3339),
		"updatedAt":     updated.Format(time.RFC3339),
	}
	if len(d.Vocabulary) > 0 {
		vocab := make([]map[string]string, 0, len(d.Vocabulary))
		for _, pair := range d.Vocabulary {
			vocab = append(vocab, map[string]string{"word": pair.Word, "definition": pair.Definition})
		}
		metadata["vocabulary"] = vocab
	}

	payload, err := json.Marshal(map[string]any{
		"id":          d.ID,
		"title":       title,
		"description": "fixture lesson",
		"content":     content,
		"metadata":    metadata,
	})
	if err != nil {
		t.Fatalf("marshal lesson %s: %v", d.ID, err)
	}
	return payload
}

// WriteLesson writes the document into dir as <id>.json and returns the path.
func WriteLesson(t testing.TB, dir string, doc LessonDoc) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, doc.ID+".json")
	if err := os.WriteFile(path, doc.JSON(t), 0o644); err != nil {
		t.Fatalf("write lesson %s: %v", path, err)
	}
	return path
}

// LessonDir writes every document into a fresh directory under the test's
// temp space and returns it, ready to serve as a local source path.
func LessonDir(t testing.TB, docs ...LessonDoc) string {
	t.Helper()

	dir := t.TempDir()
	for _, doc := range docs {
		WriteLesson(t, dir, doc)
	}
	return dir
}
