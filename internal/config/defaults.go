package config

const (
	defaultDataDir              = "~/.local/share/pinyinmate"
	defaultLogDir               = "~/.local/share/pinyinmate/logs"
	defaultAPIBind              = "127.0.0.1:7488"
	defaultCacheMaxSize         = 100
	defaultCacheTTLSeconds      = 1800
	defaultCacheCleanupMinutes  = 5
	defaultSyncIntervalSeconds  = 3600
	defaultSourceTimeoutSeconds = 30
	defaultSyncConcurrency      = 4
	defaultFetchConcurrency     = 4
	defaultSegmentationMode     = "sentence"
	defaultQuizQuestionLimit    = 10
	defaultDistractorCount      = 3
	defaultNotifyRequestTimeout = 10
	defaultNotifyDedupSeconds   = 600
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Cache: Cache{
			MaxSize:         defaultCacheMaxSize,
			DefaultTTL:      defaultCacheTTLSeconds,
			CleanupInterval: defaultCacheCleanupMinutes,
			Path:            defaultCacheDBPath(),
		},
		Sync: Sync{
			Interval:         defaultSyncIntervalSeconds,
			SourceTimeout:    defaultSourceTimeoutSeconds,
			Concurrency:      defaultSyncConcurrency,
			FetchConcurrency: defaultFetchConcurrency,
		},
		Pipeline: Pipeline{
			SegmentationMode:  defaultSegmentationMode,
			QuizQuestionLimit: defaultQuizQuestionLimit,
			DistractorCount:   defaultDistractorCount,
			ToneMarks:         true,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			SyncCompleted:      true,
			SyncFailures:       true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
