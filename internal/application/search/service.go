// Package search is the application service of the trademark search engine.
// It classifies each query, routes it to indexed or in-process retrieval,
// merges the fuzzy fallback, ranks and pages the result.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/pkg/errors"
)

// Service defines the search operations exposed to transports.
type Service interface {
	Search(ctx context.Context, q Query) (*ResultPage, error)
	ListStatuses(ctx context.Context) ([]string, error)
	ListProductCodes(ctx context.Context) ([]string, error)
	Get(ctx context.Context, applicationNumber string) (*trademark.Trademark, error)
	Config() Config
}

// Config holds the router tunables.
type Config struct {
	DefaultLimit int
	MaxLimit     int

	// MatchThreshold applies to initial-consonant queries.
	MatchThreshold float64
	// FallbackThreshold applies to the fuzzy pass merged into keyword results.
	FallbackThreshold float64
	// FallbackTrigger runs the fuzzy pass when a keyword query's indexed total
	// is below it.  Zero means the default; negative disables the fallback.
	FallbackTrigger int
	// SafetyCap bounds the candidates fetched for in-process matching.
	SafetyCap int
	// IndexedMinSimilarity is the trigram floor of the indexed text condition.
	IndexedMinSimilarity float64
}

// DefaultConfig returns the stock router configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:         10,
		MaxLimit:             100,
		MatchThreshold:       trademark.DefaultMatchThreshold,
		FallbackThreshold:    trademark.FallbackMatchThreshold,
		FallbackTrigger:      5,
		SafetyCap:            5000,
		IndexedMinSimilarity: trademark.DefaultIndexedMinSimilarity,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxLimit <= 0 {
		c.MaxLimit = d.MaxLimit
	}
	if c.DefaultLimit <= 0 || c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = d.DefaultLimit
		if c.DefaultLimit > c.MaxLimit {
			c.DefaultLimit = c.MaxLimit
		}
	}
	if c.MatchThreshold <= 0 {
		c.MatchThreshold = d.MatchThreshold
	}
	if c.FallbackThreshold <= 0 {
		c.FallbackThreshold = d.FallbackThreshold
	}
	if c.FallbackTrigger == 0 {
		c.FallbackTrigger = d.FallbackTrigger
	}
	if c.SafetyCap <= 0 {
		c.SafetyCap = d.SafetyCap
	}
	if c.IndexedMinSimilarity <= 0 {
		c.IndexedMinSimilarity = d.IndexedMinSimilarity
	}
	return c
}

// Cache is the subset of the result cache the service uses.  A miss is any
// error from Get.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
}

// Metrics records search outcomes.
type Metrics interface {
	ObserveSearch(route string, fallback, approximate bool, total int64, d time.Duration, err error)
	ObserveCache(kind string, hit bool)
}

// Option configures optional collaborators.
type Option func(*serviceImpl)

// WithCache enables result caching.  Non-positive TTLs disable the
// corresponding cache.
func WithCache(c Cache, searchTTL, metaTTL time.Duration) Option {
	return func(s *serviceImpl) {
		s.cache = c
		s.searchTTL = searchTTL
		s.metaTTL = metaTTL
	}
}

// WithEvents publishes a SearchEvent per executed search.
func WithEvents(p EventPublisher, topic string) Option {
	return func(s *serviceImpl) {
		s.events = p
		s.topic = topic
	}
}

// WithMetrics records per-search metrics.
func WithMetrics(m Metrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

type serviceImpl struct {
	repo   trademark.Repository
	cfg    Config
	logger logging.Logger

	cache     Cache
	searchTTL time.Duration
	metaTTL   time.Duration
	events    EventPublisher
	topic     string
	metrics   Metrics
}

// NewService creates the search service.  Unset Config fields get defaults.
func NewService(repo trademark.Repository, cfg Config, logger logging.Logger, opts ...Option) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &serviceImpl{
		repo:   repo,
		cfg:    cfg.withDefaults(),
		logger: logger.Named("search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) Config() Config { return s.cfg }

// Search runs one query.
func (s *serviceImpl) Search(ctx context.Context, q Query) (*ResultPage, error) {
	start := time.Now()
	text := trademark.Normalize(q.Text)
	offset, limit := ClampPage(q.Offset, q.Limit, s.cfg.MaxLimit)
	preds := trademark.CompileFilters(q.Filters)
	route := Classify(text)

	key := s.pageKey(text, q.Filters, offset, limit)
	if page, ok := s.cachedPage(ctx, key); ok {
		return page, nil
	}

	var (
		page *ResultPage
		err  error
	)
	switch {
	case preds.Unsatisfiable():
		page = Assemble(nil, offset, limit, s.cfg.MaxLimit)
	case route == RouteInitialConsonant:
		page, err = s.searchInProcess(ctx, text, preds, offset, limit)
	default:
		page, err = s.searchIndexed(ctx, route, text, preds, offset, limit)
	}
	elapsed := time.Since(start)

	if s.metrics != nil {
		var total int64
		var fallback, approx bool
		if page != nil {
			total, fallback, approx = page.Total, page.Fallback, page.Approximate
		}
		s.metrics.ObserveSearch(route.String(), fallback, approx, total, elapsed, err)
	}
	if err != nil {
		s.logger.Error("search failed",
			logging.String("route", route.String()),
			logging.String("query", text),
			logging.Err(err))
		return nil, err
	}
	page.Route = route

	s.logger.Debug("search served",
		logging.String("route", route.String()),
		logging.String("query", text),
		logging.String("filters", preds.String()),
		logging.Int64("total", page.Total),
		logging.Int("returned", len(page.Results)),
		logging.Bool("fallback", page.Fallback),
		logging.Bool("approximate", page.Approximate),
		logging.Duration("elapsed", elapsed))

	s.storePage(ctx, key, page)
	s.publish(ctx, q, text, page, elapsed)
	return page, nil
}

// searchIndexed serves keyword and match-all queries from the index.
func (s *serviceImpl) searchIndexed(ctx context.Context, route Route, text string, preds trademark.Predicates, offset, limit int) (*ResultPage, error) {
	cond := trademark.NewTextCondition(text, s.cfg.IndexedMinSimilarity)
	matches, total, windowed, err := s.repo.IndexedSearch(ctx, cond, preds, offset, limit)
	if err != nil {
		return nil, retrievalError(err)
	}
	if windowed {
		s.logger.Warn("indexed search ranked a bounded window",
			logging.String("query", text),
			logging.Int64("total", total))
	}

	if route == RouteKeyword && s.cfg.FallbackTrigger > 0 && total < int64(s.cfg.FallbackTrigger) {
		out, err := s.searchWithFallback(ctx, text, cond, preds, offset, limit, matches, total)
		if out != nil && windowed {
			out.Approximate = true
		}
		return out, err
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []trademark.Match{}
	}
	return &ResultPage{Total: total, Offset: offset, Limit: limit, Results: matches, Approximate: windowed}, nil
}

// searchWithFallback merges in-process fuzzy matches into a small indexed
// result.  The whole indexed set is re-read so that every page of the query
// ranks the same merged set.
func (s *serviceImpl) searchWithFallback(ctx context.Context, text string, cond *trademark.TextCondition, preds trademark.Predicates, offset, limit int, page []trademark.Match, total int64) (*ResultPage, error) {
	indexed := page
	if offset > 0 || int64(len(page)) < total {
		var err error
		indexed, _, _, err = s.repo.IndexedSearch(ctx, cond, preds, 0, s.cfg.FallbackTrigger)
		if err != nil {
			return nil, retrievalError(err)
		}
	}

	candidates, truncated, err := s.repo.FetchCandidates(ctx, preds, s.cfg.SafetyCap)
	if err != nil {
		return nil, retrievalError(err)
	}

	seen := make(map[string]struct{}, len(indexed))
	merged := make([]trademark.Match, 0, len(indexed))
	add := func(t *trademark.Trademark) {
		if _, dup := seen[t.ApplicationNumber]; dup {
			return
		}
		seen[t.ApplicationNumber] = struct{}{}
		merged = append(merged, trademark.Match{Trademark: t, Score: cond.Score(t)})
	}
	for _, m := range indexed {
		add(m.Trademark)
	}
	recovered := len(merged)
	for _, t := range candidates {
		if trademark.MatchRecord(t, text, s.cfg.FallbackThreshold) {
			add(t)
		}
	}
	recovered = len(merged) - recovered

	trademark.SortMatches(merged, true)
	out := Assemble(merged, offset, limit, s.cfg.MaxLimit)
	out.Fallback = true
	out.Approximate = truncated

	s.logger.Debug("fuzzy fallback merged",
		logging.String("query", text),
		logging.Int64("indexed_total", total),
		logging.Int("recovered", recovered),
		logging.Bool("truncated", truncated))
	return out, nil
}

// searchInProcess serves initial-consonant queries.
func (s *serviceImpl) searchInProcess(ctx context.Context, text string, preds trademark.Predicates, offset, limit int) (*ResultPage, error) {
	candidates, truncated, err := s.repo.FetchCandidates(ctx, preds, s.cfg.SafetyCap)
	if err != nil {
		return nil, retrievalError(err)
	}

	matches := make([]trademark.Match, 0)
	for _, t := range candidates {
		if trademark.MatchRecord(t, text, s.cfg.MatchThreshold) {
			matches = append(matches, trademark.Match{Trademark: t, Score: trademark.ScoreRecord(t, text)})
		}
	}
	trademark.SortMatches(matches, true)

	page := Assemble(matches, offset, limit, s.cfg.MaxLimit)
	page.Approximate = truncated
	if truncated {
		s.logger.Warn("candidate fetch hit the safety cap",
			logging.String("query", text),
			logging.Int("cap", s.cfg.SafetyCap))
	}
	return page, nil
}

// ListStatuses returns the distinct register statuses.
func (s *serviceImpl) ListStatuses(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, trademark.DistinctStatus)
}

// ListProductCodes returns the distinct main classification codes.
func (s *serviceImpl) ListProductCodes(ctx context.Context) ([]string, error) {
	return s.listDistinct(ctx, trademark.DistinctProductCode)
}

func (s *serviceImpl) listDistinct(ctx context.Context, field trademark.DistinctField) ([]string, error) {
	load := func(ctx context.Context) ([]string, error) {
		values, err := s.repo.ListDistinct(ctx, field)
		if err != nil {
			return nil, retrievalError(err)
		}
		if values == nil {
			values = []string{}
		}
		return values, nil
	}
	if s.cache == nil || s.metaTTL <= 0 {
		return load(ctx)
	}

	var (
		out     []string
		loadErr error
		loaded  bool
	)
	err := s.cache.GetOrSet(ctx, "meta:"+string(field), &out, s.metaTTL, func(ctx context.Context) (interface{}, error) {
		loaded = true
		v, err := load(ctx)
		loadErr = err
		return v, err
	})
	if s.metrics != nil {
		s.metrics.ObserveCache("meta", err == nil && !loaded)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		s.logger.Warn("metadata cache unavailable", logging.String("field", string(field)), logging.Err(err))
		return load(ctx)
	}
	return out, nil
}

// Get returns one record by application number.
func (s *serviceImpl) Get(ctx context.Context, applicationNumber string) (*trademark.Trademark, error) {
	applicationNumber = strings.TrimSpace(applicationNumber)
	if applicationNumber == "" {
		return nil, errors.New(errors.CodeInvalidQuery, "application number is required")
	}
	t, err := s.repo.FindByApplicationNumber(ctx, applicationNumber)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, retrievalError(err)
	}
	return t, nil
}

func retrievalError(err error) error {
	if errors.IsCode(err, errors.CodeRetrieval) {
		return err
	}
	return errors.Wrap(err, errors.CodeRetrieval, "trademark retrieval failed")
}

// pageKey is the cache key of one result page.  Text is already normalized.
func (s *serviceImpl) pageKey(text string, f trademark.FilterParams, offset, limit int) string {
	raw := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%d\x00%d",
		text, f.Status, f.ProductCode, f.FromDate, f.ToDate, f.DateType, offset, limit)
	sum := sha256.Sum256([]byte(raw))
	return "search:" + hex.EncodeToString(sum[:16])
}

func (s *serviceImpl) cachedPage(ctx context.Context, key string) (*ResultPage, bool) {
	if s.cache == nil || s.searchTTL <= 0 {
		return nil, false
	}
	var page ResultPage
	err := s.cache.Get(ctx, key, &page)
	if s.metrics != nil {
		s.metrics.ObserveCache("search", err == nil)
	}
	if err != nil {
		return nil, false
	}
	return &page, true
}

func (s *serviceImpl) storePage(ctx context.Context, key string, page *ResultPage) {
	if s.cache == nil || s.searchTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, page, s.searchTTL); err != nil {
		s.logger.Warn("result cache write failed", logging.Err(err))
	}
}
