package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestStreamHandlerWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)

	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	logger := slog.New(handler).With(slog.String(FieldLessonID, "greetings-101"))

	logger.Info("test message", slog.String("extra", "value"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].LessonID != "greetings-101" {
		t.Errorf("expected lesson_id=greetings-101, got %q", events[0].LessonID)
	}
	if events[0].Message != "test message" {
		t.Errorf("expected message='test message', got %q", events[0].Message)
	}
}

func TestStreamHandlerNestedWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	logger := slog.New(handler).
		With(slog.String(FieldSourceID, "community-hub")).
		With(slog.String(FieldLessonID, "greetings-101")).
		With(slog.String(FieldStage, "pinyin"))

	logger.Info("processing progress")

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	evt := events[0]
	if evt.LessonID != "greetings-101" {
		t.Errorf("expected lesson_id=greetings-101, got %q", evt.LessonID)
	}
	if evt.SourceID != "community-hub" {
		t.Errorf("expected source_id='community-hub', got %q", evt.SourceID)
	}
	if evt.Stage != "pinyin" {
		t.Errorf("expected stage='pinyin', got %q", evt.Stage)
	}
}

func TestStreamHandlerCallSiteOverridesWithAttrs(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, hub)

	logger := slog.New(handler).With(slog.String(FieldStage, "original"))

	logger.Info("message", slog.String(FieldStage, "overridden"))

	events, _ := hub.Tail(10)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].Stage != "overridden" {
		t.Errorf("expected stage='overridden', got %q", events[0].Stage)
	}
}

func TestStreamHandlerNilHub(t *testing.T) {
	base := slog.NewTextHandler(discardWriter{}, nil)
	handler := newStreamHandler(base, nil)

	if handler != base {
		t.Errorf("expected base handler when hub is nil")
	}
}

func TestStreamHandlerEnabled(t *testing.T) {
	hub := NewStreamHub(100)
	base := slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := newStreamHandler(base, hub)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected INFO to be disabled when base level is WARN")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("expected WARN to be enabled when base level is WARN")
	}
}

func TestStreamHubTailBounded(t *testing.T) {
	hub := NewStreamHub(4)
	for i := 0; i < 8; i++ {
		hub.Publish(LogEvent{Message: "event"})
	}

	events, next := hub.Tail(10)
	if len(events) != 4 {
		t.Fatalf("expected buffer capped at 4 events, got %d", len(events))
	}
	if next != 8 {
		t.Fatalf("expected next sequence 8, got %d", next)
	}
	if events[0].Sequence != 5 {
		t.Fatalf("expected oldest retained sequence 5, got %d", events[0].Sequence)
	}
}

func TestStreamHubFetchSince(t *testing.T) {
	hub := NewStreamHub(16)
	for i := 0; i < 5; i++ {
		hub.Publish(LogEvent{Message: "event"})
	}

	events, next, err := hub.Fetch(context.Background(), 3, 10, false)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after sequence 3, got %d", len(events))
	}
	if events[0].Sequence != 4 {
		t.Fatalf("expected first event sequence 4, got %d", events[0].Sequence)
	}
	if next != 5 {
		t.Fatalf("expected next sequence 5, got %d", next)
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
