package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/daemon"
	"github.com/mpklu/pinyinMate-sub004/internal/library"
	"github.com/mpklu/pinyinMate-sub004/internal/logging"
	"github.com/mpklu/pinyinMate-sub004/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	lessonsDir string
	homeDir    string
}

// setupCLITestEnv builds a config with one local source holding a single
// lesson, writes it where the default config resolution will find it, and
// redirects HOME so commands never touch the real user environment.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	lessonsDir := filepath.Join(homeDir, "lessons")
	testsupport.WriteLesson(t, lessonsDir, testsupport.LessonDoc{
		ID:      "greetings-101",
		Title:   "Greetings",
		Content: "你好！我是李明。",
		Tags:    []string{"greetings"},
		Vocabulary: []testsupport.VocabPair{
			{Word: "你好", Definition: "hello"},
		},
	})

	cfgOpts := append([]testsupport.ConfigOption{testsupport.WithLocalSource("builtin", 10, lessonsDir)}, opts...)
	cfg := testsupport.NewConfig(t, cfgOpts...)

	configPath := filepath.Join(homeDir, ".config", "pinyinmate", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		lessonsDir: lessonsDir,
		homeDir:    homeDir,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// startDaemonForCLI runs a daemon over the env's config, with a stream hub
// wired so the logs endpoint has events, and returns its API address.
func startDaemonForCLI(t *testing.T, env *cliTestEnv) string {
	t.Helper()

	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	logPath := filepath.Join(env.cfg.Paths.LogDir, "daemon-test.log")

	hub := logging.NewStreamHub(256)
	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
		Stream:           hub,
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	svc, err := library.New(env.cfg, logger)
	if err != nil {
		t.Fatalf("library.New: %v", err)
	}
	d, err := daemon.New(env.cfg, svc, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	d.AttachLogStream(hub, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d.Status().APIAddress
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
