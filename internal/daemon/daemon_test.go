package daemon_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/mpklu/pinyinMate-sub004/internal/api"
	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/daemon"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/testsupport"
)

func greetingsConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := testsupport.LessonDir(t, testsupport.LessonDoc{
		ID:      "greetings-101",
		Title:   "Greetings",
		Content: "你好！我是李明。",
		Vocabulary: []testsupport.VocabPair{
			{Word: "你好", Definition: "hello"},
		},
	})
	return testsupport.NewConfig(t, testsupport.WithLocalSource("builtin", 10, dir))
}

func newDaemon(t *testing.T, cfg *config.Config) *daemon.Daemon {
	t.Helper()
	svc, err := library.New(cfg, nil)
	if err != nil {
		t.Fatalf("library.New: %v", err)
	}
	d, err := daemon.New(cfg, svc, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := greetingsConfig(t)
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.CatalogSize != 1 || status.Libraries != 1 {
		t.Fatalf("status = %+v", status)
	}
	if status.APIAddress == "" {
		t.Fatal("expected a bound api address")
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := greetingsConfig(t)
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := second.Start(ctx)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("second instance err = %v", err)
	}
}

func TestDaemonServesAPIOverHTTP(t *testing.T) {
	cfg := greetingsConfig(t)
	d := newDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + d.Status().APIAddress

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.CatalogSize != 1 {
		t.Fatalf("status payload = %+v", status)
	}

	prepareResp, err := http.Post(
		base+"/api/lessons/greetings-101/prepare",
		"application/json",
		strings.NewReader(`{"includeQuizzes":false}`),
	)
	if err != nil {
		t.Fatalf("POST prepare: %v", err)
	}
	defer prepareResp.Body.Close()
	if prepareResp.StatusCode != http.StatusOK {
		t.Fatalf("prepare status code = %d", prepareResp.StatusCode)
	}
	var prepared api.PrepareResponse
	if err := json.NewDecoder(prepareResp.Body).Decode(&prepared); err != nil {
		t.Fatalf("decode prepare: %v", err)
	}
	if len(prepared.Artifact.Flashcards) != 1 || len(prepared.Artifact.QuizQuestions) != 0 {
		t.Fatalf("artifact = %+v", prepared.Artifact)
	}
}

func TestDaemonAPIRequiresToken(t *testing.T) {
	cfg := greetingsConfig(t)
	cfg.Paths.APIToken = "secret"
	d := newDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + d.Status().APIAddress

	resp, err := http.Get(base + "/api/status")
	if err != nil {
		t.Fatalf("GET without token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status code = %d", resp.StatusCode)
	}

	req, err := http.NewRequest(http.MethodGet, base+"/api/status", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with token: %v", err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status code = %d", authed.StatusCode)
	}
}
