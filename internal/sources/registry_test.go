package sources_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
	"github.com/mpklu/pinyinMate-sub004/internal/sources"
)

var mergeBase = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func remoteSource(id string, priority int) lesson.Source {
	return lesson.Source{
		ID:       id,
		Name:     id,
		Type:     lesson.SourceRemote,
		Enabled:  true,
		Priority: priority,
		Config:   lesson.SourceConfig{URL: "https://example.com/" + id + "/manifest.json"},
	}
}

func testLesson(id string, updated time.Time) lesson.Lesson {
	return lesson.Lesson{
		ID:          id,
		Title:       "Lesson " + id,
		Description: "About " + id,
		Content:     "你好",
		Metadata: lesson.Metadata{
			Difficulty:     lesson.DifficultyBeginner,
			Tags:           []string{"greetings"},
			CharacterCount: 2,
			Source:         "fixture",
			Vocabulary:     []lesson.VocabularyEntry{{Word: "你好", Definition: "hello"}},
			EstimatedTime:  5,
			CreatedAt:      updated.Add(-time.Hour),
			UpdatedAt:      updated,
		},
	}
}

func lessonJSON(id string) string {
	return `{
  "id": "` + id + `",
  "title": "Greetings",
  "description": "Basic greetings",
  "content": "你好!",
  "metadata": {
    "difficulty": "beginner",
    "tags": ["greetings"],
    "estimatedTime": 5,
    "createdAt": "2024-05-01T10:00:00Z",
    "updatedAt": "2024-05-01T12:00:00Z"
  }
}`
}

func lessonIDs(lessons []lesson.Lesson) []string {
	out := make([]string, 0, len(lessons))
	for _, lsn := range lessons {
		out = append(out, lsn.ID)
	}
	return out
}

func TestRegistryInitializeLoadsLocalLessons(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "greetings.json"), []byte(lessonJSON("greetings-101")), 0o644); err != nil {
		t.Fatalf("write lesson: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write broken lesson: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	local := lesson.Source{
		ID:       "builtin",
		Type:     lesson.SourceLocal,
		Enabled:  true,
		Priority: 10,
		Config:   lesson.SourceConfig{Path: dir},
	}
	reg := sources.New([]lesson.Source{local, remoteSource("hub", 5)}, nil)
	if err := reg.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	catalog := reg.Lessons("")
	if len(catalog) != 1 {
		t.Fatalf("expected 1 lesson after init, got %v", lessonIDs(catalog))
	}
	got, ok := reg.LessonByID("greetings-101")
	if !ok {
		t.Fatal("expected greetings-101 in catalog")
	}
	if got.Metadata.Source != "builtin" {
		t.Errorf("lesson not tagged with owning source: %q", got.Metadata.Source)
	}
	if got.Metadata.CharacterCount == 0 {
		t.Error("expected migrated character count")
	}

	src, ok := reg.SourceByID("builtin")
	if !ok {
		t.Fatal("expected builtin source")
	}
	if src.Config.LessonCount != 1 {
		t.Errorf("unexpected lesson count: %d", src.Config.LessonCount)
	}
	if src.Config.LastSyncedAt.IsZero() {
		t.Error("expected load to stamp LastSyncedAt")
	}
}

func TestRegistryInitializeFailsWhenLocalDirMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	bad := lesson.Source{
		ID:      "builtin",
		Type:    lesson.SourceLocal,
		Enabled: true,
		Config:  lesson.SourceConfig{Path: missing},
	}
	reg := sources.New([]lesson.Source{bad}, nil)
	err := reg.Initialize(context.Background())
	if err == nil {
		t.Fatal("expected error for missing local directory")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("expected configuration classification, got %v", err)
	}

	// A disabled source is never loaded, so its bad path cannot fail startup.
	bad.Enabled = false
	reg = sources.New([]lesson.Source{bad}, nil)
	if err := reg.Initialize(context.Background()); err != nil {
		t.Fatalf("disabled source should be skipped: %v", err)
	}
}

func TestRegistryMergePrefersHigherPriority(t *testing.T) {
	reg := sources.New([]lesson.Source{remoteSource("alpha", 10), remoteSource("beta", 5)}, nil)

	high := testLesson("shared", mergeBase)
	high.Title = "High priority copy"
	low := testLesson("shared", mergeBase.Add(time.Hour))
	low.Title = "Low priority copy"

	if err := reg.ReplaceLessons("alpha", []lesson.Lesson{high}); err != nil {
		t.Fatalf("ReplaceLessons alpha: %v", err)
	}
	if err := reg.ReplaceLessons("beta", []lesson.Lesson{low, testLesson("beta-only", mergeBase)}); err != nil {
		t.Fatalf("ReplaceLessons beta: %v", err)
	}

	got, ok := reg.LessonByID("shared")
	if !ok {
		t.Fatal("expected shared lesson")
	}
	if got.Title != "High priority copy" {
		t.Errorf("priority merge picked wrong copy: %q", got.Title)
	}
	if got.Metadata.Source != "alpha" {
		t.Errorf("winner not tagged with winning source: %q", got.Metadata.Source)
	}

	if ids := lessonIDs(reg.Lessons("alpha")); len(ids) != 1 || ids[0] != "shared" {
		t.Errorf("unexpected alpha view: %v", ids)
	}
	// The shadowed copy must not leak into the losing source's view.
	if ids := lessonIDs(reg.Lessons("beta")); len(ids) != 1 || ids[0] != "beta-only" {
		t.Errorf("unexpected beta view: %v", ids)
	}
	if ids := lessonIDs(reg.Lessons("")); len(ids) != 2 || ids[0] != "shared" || ids[1] != "beta-only" {
		t.Errorf("unexpected catalog order: %v", ids)
	}
}

func TestRegistryMergeTieBreaksOnUpdatedAt(t *testing.T) {
	reg := sources.New([]lesson.Source{remoteSource("alpha", 5), remoteSource("beta", 5)}, nil)

	stale := testLesson("shared", mergeBase)
	fresh := testLesson("shared", mergeBase.Add(2*time.Hour))

	if err := reg.ReplaceLessons("alpha", []lesson.Lesson{stale}); err != nil {
		t.Fatalf("ReplaceLessons alpha: %v", err)
	}
	if err := reg.ReplaceLessons("beta", []lesson.Lesson{fresh}); err != nil {
		t.Fatalf("ReplaceLessons beta: %v", err)
	}

	got, ok := reg.LessonByID("shared")
	if !ok {
		t.Fatal("expected shared lesson")
	}
	if got.Metadata.Source != "beta" {
		t.Errorf("expected newer copy to win, winner was %q", got.Metadata.Source)
	}
}

func TestRegistryMergeTieBreaksOnSourceID(t *testing.T) {
	reg := sources.New([]lesson.Source{remoteSource("beta", 5), remoteSource("alpha", 5)}, nil)

	if err := reg.ReplaceLessons("beta", []lesson.Lesson{testLesson("shared", mergeBase)}); err != nil {
		t.Fatalf("ReplaceLessons beta: %v", err)
	}
	if err := reg.ReplaceLessons("alpha", []lesson.Lesson{testLesson("shared", mergeBase)}); err != nil {
		t.Fatalf("ReplaceLessons alpha: %v", err)
	}

	got, ok := reg.LessonByID("shared")
	if !ok {
		t.Fatal("expected shared lesson")
	}
	if got.Metadata.Source != "alpha" {
		t.Errorf("expected smaller source id to win, winner was %q", got.Metadata.Source)
	}
}

func TestRegistryDisabledSourceExcludedFromCatalog(t *testing.T) {
	disabled := remoteSource("hidden", 50)
	disabled.Enabled = false
	reg := sources.New([]lesson.Source{disabled, remoteSource("hub", 5)}, nil)

	if err := reg.ReplaceLessons("hidden", []lesson.Lesson{testLesson("secret", mergeBase)}); err != nil {
		t.Fatalf("ReplaceLessons hidden: %v", err)
	}
	if err := reg.ReplaceLessons("hub", []lesson.Lesson{testLesson("visible", mergeBase)}); err != nil {
		t.Fatalf("ReplaceLessons hub: %v", err)
	}

	if _, ok := reg.LessonByID("secret"); ok {
		t.Error("disabled source's lesson leaked into catalog")
	}
	if ids := lessonIDs(reg.Lessons("")); len(ids) != 1 || ids[0] != "visible" {
		t.Errorf("unexpected catalog: %v", ids)
	}
}

func TestRegistryAddRemoteSource(t *testing.T) {
	reg := sources.New(nil, nil)

	err := reg.AddRemoteSource(lesson.Source{
		ID:       "hub",
		Type:     lesson.SourceRemote,
		Enabled:  true,
		Priority: 3,
		Config: lesson.SourceConfig{
			URL:      "https://example.com/manifest.json",
			Features: []string{"Flashcards", "flashcards", " quizzes "},
		},
	})
	if err != nil {
		t.Fatalf("AddRemoteSource failed: %v", err)
	}

	src, ok := reg.SourceByID("hub")
	if !ok {
		t.Fatal("expected hub source")
	}
	if src.Name != "hub" {
		t.Errorf("expected name to default to id, got %q", src.Name)
	}
	if len(src.Config.Features) != 2 || src.Config.Features[0] != "flashcards" || src.Config.Features[1] != "quizzes" {
		t.Errorf("features not normalized: %v", src.Config.Features)
	}

	cases := []struct {
		name string
		src  lesson.Source
	}{
		{"duplicate id", remoteSource("hub", 1)},
		{"missing url", lesson.Source{ID: "bare", Type: lesson.SourceRemote, Enabled: true}},
		{"local type", lesson.Source{ID: "dir", Type: lesson.SourceLocal, Enabled: true, Config: lesson.SourceConfig{Path: "/tmp"}}},
	}
	for _, tc := range cases {
		err := reg.AddRemoteSource(tc.src)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !errors.Is(err, services.ErrValidation) {
			t.Errorf("%s: expected validation classification, got %v", tc.name, err)
		}
	}
}

func TestRegistrySourcesOrdered(t *testing.T) {
	reg := sources.New([]lesson.Source{
		remoteSource("charlie", 5),
		remoteSource("alpha", 10),
		remoteSource("bravo", 5),
	}, nil)

	var ids []string
	for _, src := range reg.Sources() {
		ids = append(ids, src.ID)
	}
	want := []string{"alpha", "bravo", "charlie"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("unexpected source order: got %v want %v", ids, want)
		}
	}
}

func TestRegistryLookupMisses(t *testing.T) {
	reg := sources.New([]lesson.Source{remoteSource("hub", 5)}, nil)

	if _, ok := reg.LessonByID("absent"); ok {
		t.Error("expected lesson miss")
	}
	if _, ok := reg.SourceByID("absent"); ok {
		t.Error("expected source miss")
	}
	if got := reg.Lessons("absent"); len(got) != 0 {
		t.Errorf("expected empty view for unknown library, got %v", lessonIDs(got))
	}
	if err := reg.ReplaceLessons("absent", nil); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("expected not-found classification, got %v", err)
	}
}

func TestRegistryGenerationAdvancesOnMutation(t *testing.T) {
	reg := sources.New([]lesson.Source{remoteSource("hub", 5)}, nil)
	before := reg.Generation()
	if err := reg.ReplaceLessons("hub", []lesson.Lesson{testLesson("l-1", mergeBase)}); err != nil {
		t.Fatalf("ReplaceLessons: %v", err)
	}
	if after := reg.Generation(); after <= before {
		t.Errorf("generation did not advance: before %d after %d", before, after)
	}
	if reg.CatalogSize() != 1 {
		t.Errorf("unexpected catalog size %d", reg.CatalogSize())
	}
}

func TestRegistryReplaceLessonsIsAtomic(t *testing.T) {
	reg := sources.New([]lesson.Source{remoteSource("hub", 5)}, nil)

	batchA := []lesson.Lesson{testLesson("a-1", mergeBase), testLesson("a-2", mergeBase)}
	batchB := []lesson.Lesson{testLesson("b-1", mergeBase), testLesson("b-2", mergeBase), testLesson("b-3", mergeBase)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			batch := batchA
			if i%2 == 1 {
				batch = batchB
			}
			if err := reg.ReplaceLessons("hub", batch); err != nil {
				t.Errorf("ReplaceLessons: %v", err)
				return
			}
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		got := reg.Lessons("hub")
		if len(got) == 0 {
			continue
		}
		want := 2
		if got[0].ID[0] == 'b' {
			want = 3
		}
		if len(got) != want {
			t.Fatalf("observed mixed lesson set: %v", lessonIDs(got))
		}
		for _, lsn := range got {
			if lsn.ID[0] != got[0].ID[0] {
				t.Fatalf("observed mixed lesson set: %v", lessonIDs(got))
			}
		}
	}
}

func TestRegistryReturnsCopies(t *testing.T) {
	reg := sources.New([]lesson.Source{remoteSource("hub", 5)}, nil)
	if err := reg.ReplaceLessons("hub", []lesson.Lesson{testLesson("l-1", mergeBase)}); err != nil {
		t.Fatalf("ReplaceLessons: %v", err)
	}

	got, _ := reg.LessonByID("l-1")
	got.Title = "mutated"
	got.Metadata.Tags[0] = "mutated"

	again, _ := reg.LessonByID("l-1")
	if again.Title == "mutated" || again.Metadata.Tags[0] == "mutated" {
		t.Error("registry handed out aliased lesson state")
	}
}
