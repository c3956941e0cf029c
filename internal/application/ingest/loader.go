// Package ingest loads trademark datasets into the configured repository.
package ingest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/pkg/errors"
	"github.com/turtacn/trademark-search/pkg/types/common"
)

// Record outcomes reported to Metrics.
const (
	OutcomeLoaded  = "loaded"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// DefaultBatchSize is the number of records upserted per batch.
const DefaultBatchSize = 100

// Upserter persists a batch of records.
type Upserter interface {
	Upsert(ctx context.Context, records []*trademark.Trademark) error
}

// Locker serialises loads across processes.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Invalidator drops cached search results after a load.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Metrics records loader outcomes.
type Metrics interface {
	ObserveIngestBatch(d time.Duration, err error)
	ObserveIngestRecords(outcome string, n int)
}

// Stats summarises one load.
type Stats struct {
	RunID         string        `json:"run_id"`
	Source        string        `json:"source"`
	Read          int           `json:"read"`
	Loaded        int           `json:"loaded"`
	Skipped       int           `json:"skipped"`
	Failed        int           `json:"failed"`
	Batches       int           `json:"batches"`
	FailedBatches int           `json:"failed_batches"`
	Warnings      int           `json:"warnings"`
	Duration      time.Duration `json:"duration"`
}

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets the upsert batch size.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithWorkers sets the number of concurrent upserts.
func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLock takes lock for the duration of each load.
func WithLock(lock Locker) Option {
	return func(l *Loader) { l.lock = lock }
}

// WithInvalidator invalidates cached results after a load that wrote records.
func WithInvalidator(inv Invalidator) Option {
	return func(l *Loader) { l.invalidator = inv }
}

// WithMetrics records batch and record outcomes.
func WithMetrics(m Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// Loader streams a dataset, normalises each record and upserts batches on a
// bounded worker pool.
type Loader struct {
	repo        Upserter
	logger      logging.Logger
	batchSize   int
	workers     int
	lock        Locker
	invalidator Invalidator
	metrics     Metrics
}

// NewLoader creates a Loader writing to repo.
func NewLoader(repo Upserter, logger logging.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	l := &Loader{
		repo:      repo,
		logger:    logger.Named("ingest"),
		batchSize: DefaultBatchSize,
		workers:   1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads src to the end.  Records without an application number are
// skipped.  A failed batch does not stop the load; Load then returns a
// TM_004 error together with the stats.
func (l *Loader) Load(ctx context.Context, src Source) (*Stats, error) {
	stats := &Stats{RunID: common.NewID(), Source: src.String()}
	log := l.logger.With(logging.String("run_id", stats.RunID), logging.String("source", stats.Source))
	start := time.Now()

	if l.lock != nil {
		if err := l.lock.Lock(ctx); err != nil {
			return stats, errors.Wrap(err, errors.CodeIngest, "another load is running")
		}
		defer func() {
			if err := l.lock.Unlock(context.Background()); err != nil {
				log.Warn("Failed to release load lock", logging.Err(err))
			}
		}()
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return stats, err
	}
	defer rc.Close()

	pool, err := ants.NewPool(l.workers)
	if err != nil {
		return stats, errors.Wrap(err, errors.CodeIngest, "failed to create worker pool")
	}
	defer pool.Release()

	log.Info("Load started", logging.Int("batch_size", l.batchSize), logging.Int("workers", l.workers))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	norm := NewNormalizer(func(field, value string) {
		mu.Lock()
		stats.Warnings++
		mu.Unlock()
		log.Warn("Dropped malformed date", logging.String("field", field), logging.String("value", value))
	})

	submit := func(batch []*trademark.Trademark) error {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			t0 := time.Now()
			err := l.repo.Upsert(ctx, batch)
			l.observeBatch(time.Since(t0), err, len(batch))

			mu.Lock()
			defer mu.Unlock()
			stats.Batches++
			if err != nil {
				stats.FailedBatches++
				stats.Failed += len(batch)
				if firstErr == nil {
					firstErr = err
				}
				log.Error("Batch upsert failed", logging.Int("records", len(batch)), logging.Err(err))
				return
			}
			stats.Loaded += len(batch)
			log.Debug("Batch upserted", logging.Int("records", len(batch)), logging.Int("loaded", stats.Loaded))
		})
		if err != nil {
			wg.Done()
		}
		return err
	}

	reader := NewReader(rc)
	batch := make([]*trademark.Trademark, 0, l.batchSize)
	var readErr error
	for {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		raw, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = err
			break
		}
		mu.Lock()
		stats.Read++
		mu.Unlock()

		t, err := norm.Normalize(raw)
		if err != nil {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			l.observeRecords(OutcomeSkipped, 1)
			log.Warn("Record skipped", logging.Err(err))
			continue
		}
		batch = append(batch, t)
		if len(batch) >= l.batchSize {
			if readErr = submit(batch); readErr != nil {
				break
			}
			batch = make([]*trademark.Trademark, 0, l.batchSize)
		}
	}
	if readErr == nil && len(batch) > 0 {
		readErr = submit(batch)
	}
	wg.Wait()
	stats.Duration = time.Since(start)

	if stats.Loaded > 0 && l.invalidator != nil {
		if err := l.invalidator.Invalidate(context.Background()); err != nil {
			log.Warn("Cache invalidation failed", logging.Err(err))
		}
	}

	log.Info("Load finished",
		logging.Int("read", stats.Read),
		logging.Int("loaded", stats.Loaded),
		logging.Int("skipped", stats.Skipped),
		logging.Int("failed", stats.Failed),
		logging.Int("warnings", stats.Warnings),
		logging.Duration("duration", stats.Duration))

	if readErr != nil {
		return stats, errors.Wrap(readErr, errors.CodeIngest, "load aborted")
	}
	if firstErr != nil {
		return stats, errors.Wrap(firstErr, errors.CodeIngest,
			fmt.Sprintf("%d of %d batches failed", stats.FailedBatches, stats.Batches))
	}
	return stats, nil
}

func (l *Loader) observeBatch(d time.Duration, err error, n int) {
	if l.metrics == nil {
		return
	}
	l.metrics.ObserveIngestBatch(d, err)
	if err != nil {
		l.metrics.ObserveIngestRecords(OutcomeFailed, n)
	} else {
		l.metrics.ObserveIngestRecords(OutcomeLoaded, n)
	}
}

func (l *Loader) observeRecords(outcome string, n int) {
	if l.metrics != nil {
		l.metrics.ObserveIngestRecords(outcome, n)
	}
}
