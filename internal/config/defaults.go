package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultAppName     = "trademark-search"
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"

	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "trademarks"
	DefaultDBMaxConns = 20

	DefaultRedisAddr = "localhost:6379"

	DefaultOpenSearchIndex = "trademarks"

	DefaultKafkaTopic = "trademark.search.events"

	DefaultSearchBackend        = BackendPostgres
	DefaultLimit                = 10
	DefaultMaxLimit             = 100
	DefaultMatchThreshold       = 0.6
	DefaultFallbackThreshold    = 0.3
	DefaultFallbackTrigger      = 5
	DefaultSafetyCap            = 5000
	DefaultIndexedMinSimilarity = 0.3

	DefaultIngestBatchSize = 100
	DefaultIngestWorkers   = 4

	DefaultMetricsNamespace = "tmsearch"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that were set explicitly are left unchanged.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── App ───────────────────────────────────────────────────────────────────
	if cfg.App.Name == "" {
		cfg.App.Name = DefaultAppName
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = DefaultEnvironment
	}
	if cfg.App.APIPrefix == "" {
		cfg.App.APIPrefix = DefaultAPIPrefix
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 20 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = 50
	}
	if cfg.Server.SlowRequestThreshold == 0 {
		cfg.Server.SlowRequestThreshold = time.Second
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" && cfg.Database.URL == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 5 * time.Minute
	}
	if cfg.Database.QueryTimeout == 0 {
		cfg.Database.QueryTimeout = 10 * time.Second
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "tmsearch:"
	}
	if cfg.Redis.SearchTTL == 0 {
		cfg.Redis.SearchTTL = 2 * time.Minute
	}
	if cfg.Redis.MetaTTL == 0 {
		cfg.Redis.MetaTTL = 30 * time.Minute
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if cfg.OpenSearch.Index == "" {
		cfg.OpenSearch.Index = DefaultOpenSearchIndex
	}
	if cfg.OpenSearch.BulkBatchSize == 0 {
		cfg.OpenSearch.BulkBatchSize = 500
	}
	if cfg.OpenSearch.Shards == 0 {
		cfg.OpenSearch.Shards = 1
	}
	if cfg.OpenSearch.MaxCandidates == 0 {
		cfg.OpenSearch.MaxCandidates = 10000
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = time.Second
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Region == "" {
		cfg.MinIO.Region = "us-east-1"
	}

	// ── Search ────────────────────────────────────────────────────────────────
	if cfg.Search.Backend == "" {
		cfg.Search.Backend = DefaultSearchBackend
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = DefaultMaxLimit
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = DefaultLimit
	}
	if cfg.Search.MatchThreshold == 0 {
		cfg.Search.MatchThreshold = DefaultMatchThreshold
	}
	if cfg.Search.FallbackThreshold == 0 {
		cfg.Search.FallbackThreshold = DefaultFallbackThreshold
	}
	if cfg.Search.FallbackTrigger == 0 {
		cfg.Search.FallbackTrigger = DefaultFallbackTrigger
	}
	if cfg.Search.SafetyCap == 0 {
		cfg.Search.SafetyCap = DefaultSafetyCap
	}
	if cfg.Search.IndexedMinSimilarity == 0 {
		cfg.Search.IndexedMinSimilarity = DefaultIndexedMinSimilarity
	}

	// ── Ingest ────────────────────────────────────────────────────────────────
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = DefaultIngestBatchSize
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = DefaultIngestWorkers
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// NewDefaultConfig returns a Config populated only with defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
