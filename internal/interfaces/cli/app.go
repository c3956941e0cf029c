package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/turtacn/trademark-search/internal/application/ingest"
	"github.com/turtacn/trademark-search/internal/application/search"
	"github.com/turtacn/trademark-search/internal/config"
	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/database/badger"
	"github.com/turtacn/trademark-search/internal/infrastructure/database/memory"
	"github.com/turtacn/trademark-search/internal/infrastructure/database/postgres"
	"github.com/turtacn/trademark-search/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/trademark-search/internal/infrastructure/database/redis"
	"github.com/turtacn/trademark-search/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/trademark-search/internal/infrastructure/search/opensearch"
	"github.com/turtacn/trademark-search/internal/interfaces/http/handlers"
)

// loadLockName serialises dataset loads across processes sharing a Redis.
const loadLockName = "trademark-load"

// App holds the wired collaborators of one process.  Close releases them in
// reverse order of construction.
type App struct {
	Config *config.Config
	Logger logging.Logger

	Repo    trademark.Repository
	Service search.Service

	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler

	Redis    *redis.Client
	Cache    *redis.Cache
	Producer *kafka.Producer

	Checkers []handlers.HealthChecker

	seed    bool
	closers []func() error
}

// appOptions selects the optional collaborators a command needs.
type appOptions struct {
	events  bool
	metrics bool
	// seed loads ingest.data_file into the memory backend.
	seed bool
}

// NewApp opens the configured backend and wires the search service with the
// cache, event producer and metrics enabled in cfg.  On error everything
// opened so far is closed.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger, opts appOptions) (_ *App, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	app := &App{Config: cfg, Logger: logger, seed: opts.seed}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	if opts.metrics && cfg.Metrics.Enabled {
		collector, cerr := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
			ConstLabels:          map[string]string{"environment": cfg.App.Environment},
		}, logger)
		if cerr != nil {
			return nil, cerr
		}
		app.Metrics = prometheus.NewAppMetrics(collector)
		app.MetricsHandler = collector.Handler()
	}

	repo, berr := app.openBackend(ctx)
	if berr != nil {
		return nil, berr
	}
	app.Repo = repo
	app.Checkers = append(app.Checkers, handlers.CheckerFunc{ComponentName: cfg.Search.Backend, Fn: repo.Ping})

	var svcOpts []search.Option
	if cfg.Redis.Enabled {
		client, rerr := redis.NewClient(cfg.Redis, logger)
		if rerr != nil {
			return nil, rerr
		}
		app.Redis = client
		app.closers = append(app.closers, client.Close)
		app.Cache = redis.NewCache(client, logger, redis.WithPrefix(cfg.Redis.KeyPrefix))
		app.Checkers = append(app.Checkers, handlers.CheckerFunc{ComponentName: "redis", Fn: client.Ping})
		svcOpts = append(svcOpts, search.WithCache(app.Cache, cfg.Redis.SearchTTL, cfg.Redis.MetaTTL))
	}
	if opts.events && cfg.Kafka.Enabled {
		producer, perr := kafka.NewProducer(cfg.Kafka, logger)
		if perr != nil {
			return nil, perr
		}
		app.Producer = producer
		app.closers = append(app.closers, producer.Close)
		svcOpts = append(svcOpts, search.WithEvents(producer, cfg.Kafka.Topic))
	}
	if app.Metrics != nil {
		svcOpts = append(svcOpts, search.WithMetrics(app.Metrics))
	}

	app.Service = search.NewService(repo, searchConfig(cfg.Search), logger, svcOpts...)
	return app, nil
}

// openBackend builds the repository selected by search.backend.
func (a *App) openBackend(ctx context.Context) (trademark.Repository, error) {
	cfg := a.Config
	switch cfg.Search.Backend {
	case config.BackendPostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(postgres.BuildDSN(cfg.Database)); err != nil {
				return nil, err
			}
			a.Logger.Info("Database migrations applied")
		}
		conn, err := postgres.NewConnection(ctx, cfg.Database, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { conn.Close(); return nil })
		return repositories.NewTrademarkRepository(conn.Pool(), a.Logger), nil

	case config.BackendOpenSearch:
		client, err := opensearch.NewClient(cfg.OpenSearch, opensearch.ClientOptions{}, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		indexer := opensearch.NewIndexer(client, opensearch.IndexerConfig{
			Index:         cfg.OpenSearch.Index,
			BulkBatchSize: cfg.OpenSearch.BulkBatchSize,
			Shards:        cfg.OpenSearch.Shards,
			Replicas:      cfg.OpenSearch.Replicas,
		}, a.Logger)
		if err := indexer.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return opensearch.NewStore(client, indexer, cfg.OpenSearch.MaxCandidates, a.Logger), nil

	case config.BackendBadger:
		store, err := badger.Open(cfg.Badger, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil

	case config.BackendMemory:
		store := memory.NewStore()
		if a.seed && cfg.Ingest.DataFile != "" {
			loader := ingest.NewLoader(store, a.Logger,
				ingest.WithBatchSize(cfg.Ingest.BatchSize),
				ingest.WithWorkers(cfg.Ingest.Workers))
			stats, err := loader.Load(ctx, ingest.FileSource{Path: cfg.Ingest.DataFile})
			if err != nil {
				return nil, err
			}
			a.Logger.Info("Seeded in-memory store",
				logging.String("source", stats.Source),
				logging.Int("records", store.Len()))
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported search backend %q", cfg.Search.Backend)
}

// NewLoader returns a dataset loader over the app's repository, holding the
// Redis load lock and invalidating the cache when Redis is enabled.
func (a *App) NewLoader() *ingest.Loader {
	opts := []ingest.Option{
		ingest.WithBatchSize(a.Config.Ingest.BatchSize),
		ingest.WithWorkers(a.Config.Ingest.Workers),
	}
	if a.Redis != nil {
		opts = append(opts, ingest.WithLock(redis.NewMutex(a.Redis, loadLockName, a.Logger, redis.WithWatchdog(true))))
	}
	if a.Cache != nil {
		opts = append(opts, ingest.WithInvalidator(a.Cache))
	}
	if a.Metrics != nil {
		opts = append(opts, ingest.WithMetrics(a.Metrics))
	}
	return ingest.NewLoader(a.Repo, a.Logger, opts...)
}

// Close releases every opened collaborator.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Close failed", logging.Err(err))
		}
	}
	a.closers = nil
}

func searchConfig(c config.SearchConfig) search.Config {
	return search.Config{
		DefaultLimit:         c.DefaultLimit,
		MaxLimit:             c.MaxLimit,
		MatchThreshold:       c.MatchThreshold,
		FallbackThreshold:    c.FallbackThreshold,
		FallbackTrigger:      c.FallbackTrigger,
		SafetyCap:            c.SafetyCap,
		IndexedMinSimilarity: c.IndexedMinSimilarity,
	}
}
