// Command pmated runs the pinyinmate daemon: it loads lesson sources into
// the catalog, schedules periodic syncs, and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mpklu/pinyinMate-sub004/internal/config"
	"github.com/mpklu/pinyinMate-sub004/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	logLevel := flag.String("log-level", "", "override configured log level")
	diagnostic := flag.Bool("diagnostic", false, "enable diagnostic mode with separate DEBUG logs")
	flag.Parse()

	if err := run(*configPath, *logLevel, *diagnostic); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(configPath, logLevel string, diagnostic bool) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	return daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		LogLevel:   level,
		Diagnostic: diagnostic,
	})
}
