// Package badger provides an embedded trademark store on BadgerDB for
// single-node deployments.  Records are kept as JSON under "tm:<number>"
// keys, so iteration order is application-number order.
package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/turtacn/trademark-search/internal/config"
	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/pkg/errors"
)

const recordPrefix = "tm:"

func recordKey(applicationNumber string) []byte {
	return []byte(recordPrefix + applicationNumber)
}

// loggerAdapter routes badger's printf-style logs into a logging.Logger.
type loggerAdapter struct {
	logger logging.Logger
}

var _ badger.Logger = (*loggerAdapter)(nil)

func (l *loggerAdapter) Errorf(msg string, items ...interface{}) {
	l.logger.Error(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Warningf(msg string, items ...interface{}) {
	l.logger.Warn(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Infof(msg string, items ...interface{}) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

func (l *loggerAdapter) Debugf(msg string, items ...interface{}) {
	l.logger.Debug(fmt.Sprintf(msg, items...))
}

// Store implements trademark.Repository on a BadgerDB instance.
type Store struct {
	db     *badger.DB
	logger logging.Logger
}

var _ trademark.Repository = (*Store)(nil)

// Open opens the database at cfg.Path, creating the directory if needed, or
// an in-memory database when cfg.InMemory is set.
func Open(cfg config.BadgerConfig, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.Named("badger")

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(cfg.Path)
		switch {
		case os.IsNotExist(err):
			if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
				return nil, errors.Wrap(err, errors.CodeStorageError, "failed to create badger directory")
			}
		case err != nil:
			return nil, errors.Wrap(err, errors.CodeStorageError, "failed to stat badger directory")
		case !info.IsDir():
			return nil, errors.Newf(errors.CodeStorageError, "%s is not a directory", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = &loggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to open badger")
	}
	logger.Info("Opened badger store", logging.String("path", cfg.Path), logging.Bool("in_memory", cfg.InMemory))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// each decodes every record in key order and hands it to fn until fn returns
// false.
func (s *Store) each(ctx context.Context, fn func(t *trademark.Trademark) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var t trademark.Trademark
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				return errors.Wrap(err, errors.CodeStorageError, "failed to decode "+string(it.Item().Key()))
			}
			if !fn(&t) {
				return nil
			}
		}
		return nil
	})
}

func (s *Store) IndexedSearch(ctx context.Context, cond *trademark.TextCondition, preds trademark.Predicates, offset, limit int) ([]trademark.Match, int64, bool, error) {
	sc := trademark.NewScanner(cond, preds)
	if err := s.each(ctx, func(t *trademark.Trademark) bool {
		sc.Add(t)
		return true
	}); err != nil {
		return nil, 0, false, err
	}
	matches, total := sc.Page(offset, limit)
	return matches, total, false, nil
}

func (s *Store) FetchCandidates(ctx context.Context, preds trademark.Predicates, limit int) ([]*trademark.Trademark, bool, error) {
	out := make([]*trademark.Trademark, 0)
	truncated := false
	err := s.each(ctx, func(t *trademark.Trademark) bool {
		if !preds.Matches(t) {
			return true
		}
		if len(out) == limit {
			truncated = true
			return false
		}
		out = append(out, t)
		return true
	})
	if err != nil {
		return nil, false, err
	}
	return out, truncated, nil
}

func (s *Store) ListDistinct(ctx context.Context, field trademark.DistinctField) ([]string, error) {
	set := trademark.DistinctSet{}
	if err := s.each(ctx, func(t *trademark.Trademark) bool {
		set.Add(t, field)
		return true
	}); err != nil {
		return nil, err
	}
	return set.Sorted(), nil
}

func (s *Store) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*trademark.Trademark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var t trademark.Trademark
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(applicationNumber))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, trademark.ErrNotFound(applicationNumber)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to read trademark")
	}
	return &t, nil
}

// Upsert writes records through a write batch.
func (s *Store) Upsert(ctx context.Context, records []*trademark.Trademark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, t := range records {
		val, err := json.Marshal(t)
		if err != nil {
			return errors.Wrap(err, errors.CodeIngest, "failed to encode "+t.ApplicationNumber)
		}
		if err := wb.Set(recordKey(t.ApplicationNumber), val); err != nil {
			return errors.Wrap(err, errors.CodeStorageError, "failed to stage trademark")
		}
	}
	if err := wb.Flush(); err != nil {
		return errors.Wrap(err, errors.CodeStorageError, "failed to flush write batch")
	}
	return nil
}

// Ping fails once the database is closed.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New(errors.CodeStorageError, "badger store is closed")
	}
	return nil
}
