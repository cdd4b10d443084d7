package library_test

import (
	"context"
	"testing"

	"github.com/mpklu/pinyinMate-sub004/internal/lesson"
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
	"github.com/mpklu/pinyinMate-sub004/internal/testsupport"
)

func remoteGreetingsDoc() testsupport.LessonDoc {
	return testsupport.LessonDoc{
		ID:      "remote-1",
		Title:   "Cloud Greetings",
		Content: "你好！我是李明。",
		Tags:    []string{"greetings"},
		Vocabulary: []testsupport.VocabPair{
			{Word: "你好", Definition: "hello"},
		},
	}
}

func TestSyncAllReportsPerSource(t *testing.T) {
	primary := testsupport.NewManifestServer(t, remoteGreetingsDoc())
	broken := testsupport.NewManifestServer(t)
	broken.FailWith()

	cfg := testsupport.NewConfig(t,
		testsupport.WithRemoteSource("cloud", 5, primary.URL()),
		testsupport.WithRemoteSource("cracked", 4, broken.URL()),
	)
	svc := newLibrary(t, cfg)

	results := svc.SyncAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("results = %d, want one per remote source", len(results))
	}
	byID := make(map[string]lesson.SyncResult, len(results))
	for _, res := range results {
		byID[res.SourceID] = res
	}
	if res := byID["cloud"]; !res.Success || res.Lessons != 1 {
		t.Fatalf("cloud result = %+v", res)
	}
	if res := byID["cracked"]; res.Success || len(res.Errors) == 0 {
		t.Fatalf("cracked result = %+v", res)
	}

	if _, ok := svc.LessonByID("remote-1"); !ok {
		t.Fatal("synced lesson missing from catalog")
	}
}

func TestSyncSourceInvalidatesPreparedArtifacts(t *testing.T) {
	doc := remoteGreetingsDoc()
	srv := testsupport.NewManifestServer(t, doc)
	cfg := testsupport.NewConfig(t, testsupport.WithRemoteSource("cloud", 5, srv.URL()))
	svc := newLibrary(t, cfg)
	ctx := context.Background()

	if res := svc.SyncSource(ctx, "cloud"); !res.Success {
		t.Fatalf("sync result = %+v", res)
	}

	opts := pipeline.DefaultOptions()
	first, err := svc.PrepareLesson(ctx, doc.ID, opts)
	if err != nil {
		t.Fatalf("PrepareLesson: %v", err)
	}

	doc.Title = "Cloud Greetings v2"
	srv.SetLessons(doc)
	if res := svc.SyncSource(ctx, "cloud"); !res.Success {
		t.Fatalf("second sync result = %+v", res)
	}

	lsn, ok := svc.LessonByID(doc.ID)
	if !ok || lsn.Title != "Cloud Greetings v2" {
		t.Fatalf("lesson after sync = %+v ok=%v", lsn, ok)
	}

	second, err := svc.PrepareLesson(ctx, doc.ID, opts)
	if err != nil {
		t.Fatalf("PrepareLesson after sync: %v", err)
	}
	if second.Title != "Cloud Greetings v2" {
		t.Fatalf("artifact title = %q", second.Title)
	}
	if first.Flashcards[0].ID == second.Flashcards[0].ID {
		t.Fatal("sync should invalidate the prepared artifact")
	}

	third, err := svc.PrepareLesson(ctx, doc.ID, opts)
	if err != nil {
		t.Fatalf("PrepareLesson (cached): %v", err)
	}
	if third.Flashcards[0].ID != second.Flashcards[0].ID {
		t.Fatal("expected the rebuilt artifact to be cached")
	}
}

func TestAddRemoteSource(t *testing.T) {
	srv := testsupport.NewManifestServer(t, remoteGreetingsDoc())
	svc := newLibrary(t, testsupport.NewConfig(t))

	src := lesson.Source{
		ID:       "live",
		Name:     "live",
		Type:     lesson.SourceRemote,
		Enabled:  true,
		Priority: 3,
		Config:   lesson.SourceConfig{URL: srv.URL()},
	}
	if err := svc.AddRemoteSource(src); err != nil {
		t.Fatalf("AddRemoteSource: %v", err)
	}
	if err := svc.AddRemoteSource(src); err == nil {
		t.Fatal("duplicate registration should fail")
	}

	libs := svc.AvailableLibraries()
	if len(libs) != 1 || libs[0].ID != "live" {
		t.Fatalf("libraries = %+v", libs)
	}

	if res := svc.SyncSource(context.Background(), "live"); !res.Success || res.Lessons != 1 {
		t.Fatalf("sync result = %+v", res)
	}
	if svc.CatalogSize() != 1 {
		t.Fatalf("catalog size = %d", svc.CatalogSize())
	}
}
