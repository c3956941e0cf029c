// Package memory provides an in-process trademark store.  It backs the
// "memory" search backend and the package tests of the search engine.
package memory

import (
	"context"
	"sync"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

// Store keeps records in a map keyed by application number.  It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]*trademark.Trademark
}

var _ trademark.Repository = (*Store)(nil)

// NewStore returns a store holding records.
func NewStore(records ...*trademark.Trademark) *Store {
	s := &Store{records: make(map[string]*trademark.Trademark, len(records))}
	for _, r := range records {
		s.records[r.ApplicationNumber] = r
	}
	return s
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) IndexedSearch(ctx context.Context, cond *trademark.TextCondition, preds trademark.Predicates, offset, limit int) ([]trademark.Match, int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc := trademark.NewScanner(cond, preds)
	for _, r := range s.records {
		sc.Add(r)
	}
	matches, total := sc.Page(offset, limit)
	return matches, total, false, nil
}

// FetchCandidates returns up to limit filtered records.  Map iteration
// order is random, so a truncated result is an arbitrary subset.
func (s *Store) FetchCandidates(ctx context.Context, preds trademark.Predicates, limit int) ([]*trademark.Trademark, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*trademark.Trademark, 0)
	for _, r := range s.records {
		if !preds.Matches(r) {
			continue
		}
		if len(out) == limit {
			return out, true, nil
		}
		out = append(out, r)
	}
	return out, false, nil
}

func (s *Store) ListDistinct(ctx context.Context, field trademark.DistinctField) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := trademark.DistinctSet{}
	for _, r := range s.records {
		set.Add(r, field)
	}
	return set.Sorted(), nil
}

func (s *Store) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*trademark.Trademark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[applicationNumber]
	if !ok {
		return nil, trademark.ErrNotFound(applicationNumber)
	}
	return r, nil
}

func (s *Store) Upsert(ctx context.Context, records []*trademark.Trademark) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ApplicationNumber] = r
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
