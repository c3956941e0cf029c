package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/pkg/errors"
)

// Store implements trademark.Repository on an OpenSearch index.
//
// Match-all pages are served by the cluster directly.  Text searches use the
// cluster for recall only: up to maxCandidates hits are re-evaluated with
// TextCondition so ranking and totals agree with the other backends.  When
// the cluster recalls more than that, the search reports a windowed result.
type Store struct {
	client        *Client
	indexer       *Indexer
	index         string
	maxCandidates int
	logger        logging.Logger
}

var _ trademark.Repository = (*Store)(nil)

// NewStore returns a store reading index and writing through indexer.
func NewStore(client *Client, indexer *Indexer, maxCandidates int, logger logging.Logger) *Store {
	if maxCandidates <= 0 {
		maxCandidates = 10000
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{
		client:        client,
		indexer:       indexer,
		index:         indexer.config.Index,
		maxCandidates: maxCandidates,
		logger:        logger.Named("opensearch"),
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string              `json:"_id"`
			Source trademark.Trademark `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations struct {
		Values struct {
			Buckets []struct {
				Key string `json:"key"`
			} `json:"buckets"`
		} `json:"values"`
	} `json:"aggregations"`
}

func (s *Store) search(ctx context.Context, body m) (*searchResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to marshal query")
	}
	resp, err := opensearchapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(raw),
	}.Do(ctx, s.client.Underlying())
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.CodeStorageError, "search request cancelled")
		}
		return nil, errors.Wrap(err, errors.CodeStorageError, "search request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, responseError(resp, errors.New(errors.CodeStorageError, "search failed"))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to decode search response")
	}
	return &out, nil
}

func (r *searchResponse) records() []*trademark.Trademark {
	out := make([]*trademark.Trademark, len(r.Hits.Hits))
	for i := range r.Hits.Hits {
		t := r.Hits.Hits[i].Source
		out[i] = &t
	}
	return out
}

func (s *Store) IndexedSearch(ctx context.Context, cond *trademark.TextCondition, preds trademark.Predicates, offset, limit int) ([]trademark.Match, int64, bool, error) {
	if cond == nil {
		resp, err := s.search(ctx, pageBody(preds, offset, limit))
		if err != nil {
			return nil, 0, false, err
		}
		recs := resp.records()
		matches := make([]trademark.Match, len(recs))
		for i, t := range recs {
			matches[i] = trademark.Match{Trademark: t}
		}
		return matches, resp.Hits.Total.Value, false, nil
	}

	resp, err := s.search(ctx, recallBody(cond, preds, s.maxCandidates))
	if err != nil {
		return nil, 0, false, err
	}
	windowed := resp.Hits.Total.Value > int64(len(resp.Hits.Hits))
	if windowed {
		s.logger.Debug("recall window exceeded, ranking a partial candidate set",
			logging.String("query", cond.Query),
			logging.Int64("hits", resp.Hits.Total.Value),
			logging.Int("window", s.maxCandidates))
	}
	sc := trademark.NewScanner(cond, preds)
	for _, t := range resp.records() {
		sc.Add(t)
	}
	matches, total := sc.Page(offset, limit)
	return matches, total, windowed, nil
}

func (s *Store) FetchCandidates(ctx context.Context, preds trademark.Predicates, limit int) ([]*trademark.Trademark, bool, error) {
	resp, err := s.search(ctx, pageBody(preds, 0, limit+1))
	if err != nil {
		return nil, false, err
	}
	recs := resp.records()
	if len(recs) > limit {
		return recs[:limit], true, nil
	}
	return recs, false, nil
}

func (s *Store) ListDistinct(ctx context.Context, field trademark.DistinctField) ([]string, error) {
	resp, err := s.search(ctx, distinctBody(field))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Aggregations.Values.Buckets))
	for _, b := range resp.Aggregations.Values.Buckets {
		if b.Key != "" {
			out = append(out, b.Key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*trademark.Trademark, error) {
	resp, err := opensearchapi.GetRequest{
		Index:      s.index,
		DocumentID: applicationNumber,
	}.Do(ctx, s.client.Underlying())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "get request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, trademark.ErrNotFound(applicationNumber)
	}
	if resp.IsError() {
		return nil, responseError(resp, errors.New(errors.CodeStorageError, "get failed"))
	}

	var doc struct {
		Found  bool                `json:"found"`
		Source trademark.Trademark `json:"_source"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to decode document")
	}
	if !doc.Found {
		return nil, trademark.ErrNotFound(applicationNumber)
	}
	return &doc.Source, nil
}

// Upsert indexes records and fails when any document was rejected.
func (s *Store) Upsert(ctx context.Context, records []*trademark.Trademark) error {
	res, err := s.indexer.BulkIndex(ctx, records)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		err := errors.Newf(errors.CodeIngest, "%d of %d documents rejected", res.Failed, len(records))
		if len(res.Errors) > 0 {
			return err.WithDetail(res.Errors[0].DocID + ": " + res.Errors[0].Reason)
		}
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
