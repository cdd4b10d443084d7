package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSources(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeSync()
	c.normalizePipeline()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if value, ok := os.LookupEnv("PMATE_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIToken = value
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeSources() error {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.ID = strings.TrimSpace(src.ID)
		src.Name = strings.TrimSpace(src.Name)
		if src.Name == "" {
			src.Name = src.ID
		}
		src.Type = strings.ToLower(strings.TrimSpace(src.Type))
		src.URL = strings.TrimSpace(src.URL)
		if src.Type == "local" && strings.TrimSpace(src.Path) != "" {
			expanded, err := expandPath(src.Path)
			if err != nil {
				return fmt.Errorf("sources[%d].path: %w", i, err)
			}
			src.Path = expanded
		}
		features := make([]string, 0, len(src.Features))
		seen := make(map[string]struct{}, len(src.Features))
		for _, feature := range src.Features {
			normalized := strings.ToLower(strings.TrimSpace(feature))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			features = append(features, normalized)
		}
		src.Features = features
	}
	return nil
}

func (c *Config) normalizeCache() error {
	var err error
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = defaultCacheMaxSize
	}
	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = defaultCacheTTLSeconds
	}
	if c.Cache.CleanupInterval <= 0 {
		c.Cache.CleanupInterval = defaultCacheCleanupMinutes
	}
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCacheDBPath()
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeSync() {
	if c.Sync.Interval < 0 {
		c.Sync.Interval = 0
	}
	if c.Sync.SourceTimeout <= 0 {
		c.Sync.SourceTimeout = defaultSourceTimeoutSeconds
	}
	if c.Sync.Concurrency <= 0 {
		c.Sync.Concurrency = defaultSyncConcurrency
	}
	if c.Sync.FetchConcurrency <= 0 {
		c.Sync.FetchConcurrency = defaultFetchConcurrency
	}
}

func (c *Config) normalizePipeline() {
	c.Pipeline.SegmentationMode = strings.ToLower(strings.TrimSpace(c.Pipeline.SegmentationMode))
	if c.Pipeline.SegmentationMode == "" {
		c.Pipeline.SegmentationMode = defaultSegmentationMode
	}
	if c.Pipeline.QuizQuestionLimit <= 0 {
		c.Pipeline.QuizQuestionLimit = defaultQuizQuestionLimit
	}
	if c.Pipeline.DistractorCount <= 0 {
		c.Pipeline.DistractorCount = defaultDistractorCount
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		c.Notifications.DedupWindowSeconds = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if len(c.Logging.ComponentOverrides) > 0 {
		overrides := make(map[string]string, len(c.Logging.ComponentOverrides))
		for component, level := range c.Logging.ComponentOverrides {
			key := strings.ToLower(strings.TrimSpace(component))
			value := strings.ToLower(strings.TrimSpace(level))
			if key == "" || value == "" {
				continue
			}
			overrides[key] = value
		}
		c.Logging.ComponentOverrides = overrides
	}
}
