// Package config defines the configuration structures of the trademark search
// service.  No I/O or parsing logic lives in this file, only plain data types
// and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Storage backends selectable through search.backend.
const (
	BackendPostgres   = "postgres"
	BackendOpenSearch = "opensearch"
	BackendBadger     = "badger"
	BackendMemory     = "memory"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// AppConfig holds service identity settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development | production | testing
	Debug       bool   `mapstructure:"debug"`
	APIPrefix   string `mapstructure:"api_prefix"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host                 string        `mapstructure:"host"`
	Port                 int           `mapstructure:"port"`
	Mode                 string        `mapstructure:"mode"` // gin mode: debug | release | test
	ReadTimeout          time.Duration `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins          []string      `mapstructure:"cors_origins"`
	RateLimitRPS         float64       `mapstructure:"rate_limit_rps"` // 0 disables rate limiting
	RateLimitBurst       int           `mapstructure:"rate_limit_burst"`
	SlowRequestThreshold time.Duration `mapstructure:"slow_request_threshold"`
}

// DatabaseConfig holds PostgreSQL connection parameters.  URL, when set, takes
// precedence over the discrete fields.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds the result cache settings.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	SearchTTL    time.Duration `mapstructure:"search_ttl"`
	MetaTTL      time.Duration `mapstructure:"meta_ttl"`
}

// OpenSearchConfig holds OpenSearch cluster connection parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Index              string   `mapstructure:"index"`
	BulkBatchSize      int      `mapstructure:"bulk_batch_size"`
	Shards             int      `mapstructure:"shards"`
	Replicas           int      `mapstructure:"replicas"`
	MaxCandidates      int      `mapstructure:"max_candidates"` // recall window re-ranked in process
}

// KafkaConfig holds search-event producer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Async        bool          `mapstructure:"async"`
}

// MinIOConfig holds the object storage used as a dataset source.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
}

// BadgerConfig holds the embedded store location.
type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// SearchConfig holds the retrieval router tunables.
type SearchConfig struct {
	Backend              string  `mapstructure:"backend"`
	DefaultLimit         int     `mapstructure:"default_limit"`
	MaxLimit             int     `mapstructure:"max_limit"`
	MatchThreshold       float64 `mapstructure:"match_threshold"`
	FallbackThreshold    float64 `mapstructure:"fallback_threshold"`
	FallbackTrigger      int     `mapstructure:"fallback_trigger"` // negative disables the fallback
	SafetyCap            int     `mapstructure:"safety_cap"`
	IndexedMinSimilarity float64 `mapstructure:"indexed_min_similarity"`
}

// IngestConfig holds loader parameters.
type IngestConfig struct {
	BatchSize int    `mapstructure:"batch_size"`
	Workers   int    `mapstructure:"workers"`
	DataFile  string `mapstructure:"data_file"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // debug | info | warn | error
	Format      string   `mapstructure:"format"` // json | console
	OutputPaths []string `mapstructure:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Badger     BadgerConfig     `mapstructure:"badger"`
	Search     SearchConfig     `mapstructure:"search"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully-populated Config and
// returns the first error encountered.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be >= 0, got %v", c.Server.RateLimitRPS)
	}

	// Search
	switch c.Search.Backend {
	case BackendPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("config: database.url or database.host is required for the postgres backend")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
		}
	case BackendOpenSearch:
		if len(c.OpenSearch.Addresses) == 0 {
			return fmt.Errorf("config: opensearch.addresses is required for the opensearch backend")
		}
		if c.OpenSearch.Index == "" {
			return fmt.Errorf("config: opensearch.index is required")
		}
	case BackendBadger:
		if c.Badger.Path == "" && !c.Badger.InMemory {
			return fmt.Errorf("config: badger.path is required unless badger.in_memory is set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: search.backend %q is invalid; expected %s", c.Search.Backend,
			strings.Join([]string{BackendPostgres, BackendOpenSearch, BackendBadger, BackendMemory}, "|"))
	}
	if c.Search.MaxLimit < 1 {
		return fmt.Errorf("config: search.max_limit must be >= 1, got %d", c.Search.MaxLimit)
	}
	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("config: search.default_limit %d must be within [1, %d]", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	for name, v := range map[string]float64{
		"match_threshold":        c.Search.MatchThreshold,
		"fallback_threshold":     c.Search.FallbackThreshold,
		"indexed_min_similarity": c.Search.IndexedMinSimilarity,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("config: search.%s must be within (0, 1], got %v", name, v)
		}
	}
	if c.Search.SafetyCap < 1 {
		return fmt.Errorf("config: search.safety_cap must be >= 1, got %d", c.Search.SafetyCap)
	}

	// Optional collaborators
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
	}

	// Ingest
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("config: ingest.batch_size must be >= 1, got %d", c.Ingest.BatchSize)
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("config: ingest.workers must be >= 1, got %d", c.Ingest.Workers)
	}

	// Log
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
