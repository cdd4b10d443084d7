package library_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mpklu/pinyinMate-sub004/internal/library"
	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
	"github.com/mpklu/pinyinMate-sub004/internal/testsupport"
)

func TestPrepareLessonCachesArtifacts(t *testing.T) {
	doc := greetingsDoc()
	dir := testsupport.LessonDir(t, doc)
	cfg := testsupport.NewConfig(t, testsupport.WithLocalSource("builtin", 10, dir))
	svc := newLibrary(t, cfg)
	ctx := context.Background()
	opts := pipeline.DefaultOptions()

	first, err := svc.PrepareLesson(ctx, doc.ID, opts)
	if err != nil {
		t.Fatalf("PrepareLesson: %v", err)
	}
	second, err := svc.PrepareLesson(ctx, doc.ID, opts)
	if err != nil {
		t.Fatalf("PrepareLesson (cached): %v", err)
	}
	if first.Flashcards[0].ID != second.Flashcards[0].ID {
		t.Fatal("expected the cached artifact on the second call")
	}

	status := svc.CacheStatus()
	if status.TotalItems != 1 {
		t.Fatalf("cached items = %d", status.TotalItems)
	}
	if status.Hits == 0 {
		t.Fatalf("status = %+v, want at least one hit", status)
	}

	direct := opts
	direct.CacheResult = false
	third, err := svc.PrepareLesson(ctx, doc.ID, direct)
	if err != nil {
		t.Fatalf("PrepareLesson (direct): %v", err)
	}
	if third.Flashcards[0].ID == second.Flashcards[0].ID {
		t.Fatal("direct preparation should bypass the cache")
	}
	if svc.CacheStatus().TotalItems != 1 {
		t.Fatal("direct preparation should not grow the cache")
	}
}

func TestPrepareLessonUnknown(t *testing.T) {
	svc := newLibrary(t, testsupport.NewConfig(t))

	_, err := svc.PrepareLesson(context.Background(), "non-existent-lesson", pipeline.DefaultOptions())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestPrepareLessonSharesConcurrentLoads(t *testing.T) {
	doc := greetingsDoc()
	dir := testsupport.LessonDir(t, doc)
	cfg := testsupport.NewConfig(t, testsupport.WithLocalSource("builtin", 10, dir))
	svc := newLibrary(t, cfg)
	ctx := context.Background()

	const callers = 8
	artifacts := make([]pipeline.PreparedLesson, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			artifacts[slot], errs[slot] = svc.PrepareLesson(ctx, doc.ID, pipeline.DefaultOptions())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if artifacts[i].Flashcards[0].ID != artifacts[0].Flashcards[0].ID {
			t.Fatal("concurrent callers should share one prepared artifact")
		}
	}
	if svc.CacheStatus().TotalItems != 1 {
		t.Fatalf("cached items = %d", svc.CacheStatus().TotalItems)
	}
}

func TestPreparedArtifactsSurviveRestart(t *testing.T) {
	doc := greetingsDoc()
	dir := testsupport.LessonDir(t, doc)
	cfg := testsupport.NewConfig(t,
		testsupport.WithLocalSource("builtin", 10, dir),
		testsupport.WithPersistentCache(),
	)
	ctx := context.Background()

	svc1, err := library.New(cfg, nil)
	if err != nil {
		t.Fatalf("library.New: %v", err)
	}
	if err := svc1.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	first, err := svc1.PrepareLesson(ctx, doc.ID, pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("PrepareLesson: %v", err)
	}
	svc1.Close()

	svc2 := newLibrary(t, cfg)
	if got := svc2.CacheStatus().TotalItems; got != 1 {
		t.Fatalf("hydrated items = %d", got)
	}
	second, err := svc2.PrepareLesson(ctx, doc.ID, pipeline.DefaultOptions())
	if err != nil {
		t.Fatalf("PrepareLesson after restart: %v", err)
	}
	if first.Flashcards[0].ID != second.Flashcards[0].ID {
		t.Fatal("restart should serve the persisted artifact")
	}
}
