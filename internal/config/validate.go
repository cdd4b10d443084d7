package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSources() error {
	seen := make(map[string]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d].id must be set", i)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("sources[%d].id %q is duplicated", i, src.ID)
		}
		seen[src.ID] = struct{}{}
		switch src.Type {
		case "local":
			if strings.TrimSpace(src.Path) == "" {
				return fmt.Errorf("sources[%d].path must be set for local source %q", i, src.ID)
			}
		case "remote":
			if !strings.HasPrefix(src.URL, "http://") && !strings.HasPrefix(src.URL, "https://") {
				return fmt.Errorf("sources[%d].url must be an http(s) URL for remote source %q", i, src.ID)
			}
		default:
			return fmt.Errorf("sources[%d].type must be \"local\" or \"remote\", got %q", i, src.Type)
		}
		if src.Priority < 0 {
			return fmt.Errorf("sources[%d].priority must be >= 0", i)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	return c.Cache.Validate()
}

// Validate reports the first problem with the cache section. Exported because
// the running service accepts replacement cache configuration and must reject
// malformed values with the same rules applied at load.
func (c Cache) Validate() error {
	if err := ensurePositiveMap(map[string]int{
		"cache.max_size":         c.MaxSize,
		"cache.default_ttl":      c.DefaultTTL,
		"cache.cleanup_interval": c.CleanupInterval,
	}); err != nil {
		return err
	}
	if c.PersistToDisk && strings.TrimSpace(c.Path) == "" {
		return errors.New("cache.path must be set when cache.persist_to_disk is true")
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.Interval < 0 {
		return errors.New("sync.interval must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"sync.source_timeout":    c.Sync.SourceTimeout,
		"sync.concurrency":       c.Sync.Concurrency,
		"sync.fetch_concurrency": c.Sync.FetchConcurrency,
	})
}

func (c *Config) validatePipeline() error {
	switch c.Pipeline.SegmentationMode {
	case "sentence", "phrase", "character":
	default:
		return fmt.Errorf("pipeline.segmentation_mode must be one of sentence, phrase, character; got %q", c.Pipeline.SegmentationMode)
	}
	return ensurePositiveMap(map[string]int{
		"pipeline.quiz_question_limit": c.Pipeline.QuizQuestionLimit,
		"pipeline.distractor_count":    c.Pipeline.DistractorCount,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
