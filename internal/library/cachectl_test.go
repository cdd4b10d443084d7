package library_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mpklu/pinyinMate-sub004/internal/pipeline"
	"github.com/mpklu/pinyinMate-sub004/internal/services"
	"github.com/mpklu/pinyinMate-sub004/internal/testsupport"
)

func TestSetCacheConfigRebuildsEngine(t *testing.T) {
	doc := greetingsDoc()
	dir := testsupport.LessonDir(t, doc)
	cfg := testsupport.NewConfig(t, testsupport.WithLocalSource("builtin", 10, dir))
	svc := newLibrary(t, cfg)
	ctx := context.Background()

	if _, err := svc.PrepareLesson(ctx, doc.ID, pipeline.DefaultOptions()); err != nil {
		t.Fatalf("PrepareLesson: %v", err)
	}
	if svc.CacheStatus().TotalItems != 1 {
		t.Fatal("expected one cached artifact")
	}

	next := svc.CacheConfig()
	next.MaxSize = 64
	if err := svc.SetCacheConfig(next); err != nil {
		t.Fatalf("SetCacheConfig: %v", err)
	}

	if got := svc.CacheStatus().TotalItems; got != 0 {
		t.Fatalf("items after swap = %d", got)
	}
	if got := svc.CacheConfig().MaxSize; got != 64 {
		t.Fatalf("max size = %d", got)
	}

	if _, err := svc.PrepareLesson(ctx, doc.ID, pipeline.DefaultOptions()); err != nil {
		t.Fatalf("PrepareLesson after swap: %v", err)
	}
	if svc.CacheStatus().TotalItems != 1 {
		t.Fatal("replacement engine should cache new artifacts")
	}
}

func TestSetCacheConfigRejectsMalformed(t *testing.T) {
	doc := greetingsDoc()
	dir := testsupport.LessonDir(t, doc)
	cfg := testsupport.NewConfig(t, testsupport.WithLocalSource("builtin", 10, dir))
	svc := newLibrary(t, cfg)

	if _, err := svc.PrepareLesson(context.Background(), doc.ID, pipeline.DefaultOptions()); err != nil {
		t.Fatalf("PrepareLesson: %v", err)
	}

	bad := svc.CacheConfig()
	bad.MaxSize = 0
	err := svc.SetCacheConfig(bad)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}

	if got := svc.CacheStatus().TotalItems; got != 1 {
		t.Fatalf("items after rejected swap = %d, want the old engine untouched", got)
	}
}

func TestClearCache(t *testing.T) {
	doc := greetingsDoc()
	dir := testsupport.LessonDir(t, doc)
	cfg := testsupport.NewConfig(t, testsupport.WithLocalSource("builtin", 10, dir))
	svc := newLibrary(t, cfg)

	if _, err := svc.PrepareLesson(context.Background(), doc.ID, pipeline.DefaultOptions()); err != nil {
		t.Fatalf("PrepareLesson: %v", err)
	}
	if svc.CacheStatus().TotalItems != 1 {
		t.Fatal("expected one cached artifact")
	}

	svc.ClearCache()
	if got := svc.CacheStatus().TotalItems; got != 0 {
		t.Fatalf("items after clear = %d", got)
	}
}
