package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Source describes one configured lesson source. Local sources point at a
// directory of lesson JSON files; remote sources point at a manifest URL.
type Source struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Type     string   `toml:"type"`
	Enabled  bool     `toml:"enabled"`
	Priority int      `toml:"priority"`
	Path     string   `toml:"path"`
	URL      string   `toml:"url"`
	Features []string `toml:"features"`
}

// Cache contains configuration for the prepared-lesson and lesson content caches.
type Cache struct {
	// MaxSize bounds the number of live entries before LRU eviction kicks in.
	MaxSize int `toml:"max_size"`
	// DefaultTTL is the entry time-to-live in seconds.
	DefaultTTL int `toml:"default_ttl"`
	// CleanupInterval is the expired-entry sweep cadence in minutes.
	CleanupInterval int `toml:"cleanup_interval"`
	PersistToDisk   bool `toml:"persist_to_disk"`
	Compression     bool `toml:"compression"`
	// Path locates the SQLite file backing persisted entries.
	// Default: ~/.cache/pinyinmate/lessons.db
	Path string `toml:"path"`
}

// Sync contains configuration for remote source synchronization.
type Sync struct {
	// Interval is the daemon's periodic sync cadence in seconds. 0 disables
	// scheduled syncs; manual syncs remain available.
	Interval int `toml:"interval"`
	// SourceTimeout bounds one source's sync in seconds.
	SourceTimeout int `toml:"source_timeout"`
	// Concurrency caps how many sources sync at once.
	Concurrency int `toml:"concurrency"`
	// FetchConcurrency caps per-manifest lesson fetch fan-out.
	FetchConcurrency int `toml:"fetch_concurrency"`
}

// Pipeline contains configuration for lesson preparation.
type Pipeline struct {
	SegmentationMode  string `toml:"segmentation_mode"`
	QuizQuestionLimit int    `toml:"quiz_question_limit"`
	DistractorCount   int    `toml:"distractor_count"`
	// ToneMarks selects diacritic pinyin output (nǐ hǎo) over tone numbers (ni3 hao3).
	ToneMarks bool `toml:"tone_marks"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	SyncCompleted      bool   `toml:"sync_completed"`
	SyncFailures       bool   `toml:"sync_failures"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format             string            `toml:"format"`
	Level              string            `toml:"level"`
	RetentionDays      int               `toml:"retention_days"`
	ComponentOverrides map[string]string `toml:"component_overrides"`
}

// Config encapsulates all configuration values for the library service.
//
// Configuration sections by subsystem:
//   - Paths: directories, API bind address, and API token
//   - Sources: configured local/remote lesson sources
//   - Cache: sizing, TTL, cleanup, and persistence for lesson caches
//   - Sync: remote synchronization cadence, timeouts, and fan-out caps
//   - Pipeline: segmentation, quiz, and pinyin rendering knobs
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, retention, and per-component overrides
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sources       []Source      `toml:"sources"`
	Cache         Cache         `toml:"cache"`
	Sync          Sync          `toml:"sync"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pinyinmate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("pinyinmate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Cache.PersistToDisk && strings.TrimSpace(c.Cache.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Cache.Path), 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", filepath.Dir(c.Cache.Path), err)
		}
	}
	return nil
}

// TTL returns the entry time-to-live.
func (c Cache) TTL() time.Duration {
	return time.Duration(c.DefaultTTL) * time.Second
}

// SweepInterval returns the expired-entry sweep cadence.
func (c Cache) SweepInterval() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Minute
}

// CacheTTL returns the configured entry time-to-live.
func (c *Config) CacheTTL() time.Duration {
	return c.Cache.TTL()
}

// CacheCleanupInterval returns the configured expired-entry sweep cadence.
func (c *Config) CacheCleanupInterval() time.Duration {
	return c.Cache.SweepInterval()
}

// SyncInterval returns the daemon's periodic sync cadence. Zero disables scheduling.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.Interval) * time.Second
}

// SourceTimeout returns the per-source sync deadline.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Sync.SourceTimeout) * time.Second
}

// EnabledSources returns the configured sources that are enabled.
func (c *Config) EnabledSources() []Source {
	out := make([]Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDBPath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "pinyinmate", "lessons.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/pinyinmate/lessons.db"
	}
	return filepath.Join(home, ".cache", "pinyinmate", "lessons.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
