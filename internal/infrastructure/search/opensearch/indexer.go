package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/pkg/errors"
)

var (
	ErrIndexCreationFailed = errors.New(errors.CodeIndex, "index creation failed")
	ErrIndexNotFound       = errors.New(errors.CodeIndex, "index not found")
	ErrBulkFailed          = errors.New(errors.CodeIndex, "bulk request failed")
)

// BulkItemError describes one rejected document.
type BulkItemError struct {
	DocID     string `json:"doc_id"`
	ErrorType string `json:"error_type"`
	Reason    string `json:"reason"`
}

// BulkResult summarises a bulk index run.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []BulkItemError
}

// IndexerConfig holds index settings.
type IndexerConfig struct {
	Index         string
	BulkBatchSize int
	Shards        int
	Replicas      int
	// RefreshPolicy is passed to bulk requests: "false", "true" or "wait_for".
	RefreshPolicy string
}

// Indexer creates the trademark index and writes documents to it.
type Indexer struct {
	client *Client
	config IndexerConfig
	logger logging.Logger
}

func NewIndexer(client *Client, cfg IndexerConfig, logger logging.Logger) *Indexer {
	if cfg.BulkBatchSize <= 0 {
		cfg.BulkBatchSize = 500
	}
	if cfg.Shards <= 0 {
		cfg.Shards = 1
	}
	if cfg.RefreshPolicy == "" {
		cfg.RefreshPolicy = "false"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Indexer{client: client, config: cfg, logger: logger.Named("indexer")}
}

// TrademarkIndexMapping is the index definition.  Names get a lowercase
// keyword subfield for containment wildcards and a rune-trigram subfield for
// similarity recall; dates are stored as YYYYMMDD.
func TrademarkIndexMapping(shards, replicas int) map[string]interface{} {
	keyword := map[string]interface{}{"type": "keyword"}
	date := map[string]interface{}{"type": "date", "format": "basic_date"}
	name := map[string]interface{}{
		"type": "text",
		"fields": map[string]interface{}{
			"keyword": map[string]interface{}{"type": "keyword", "normalizer": "lowercase_normalizer"},
			"trigram": map[string]interface{}{"type": "text", "analyzer": "trigram_analyzer"},
		},
	}
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   shards,
			"number_of_replicas": replicas,
			"analysis": map[string]interface{}{
				"tokenizer": map[string]interface{}{
					"trigram_tokenizer": map[string]interface{}{
						"type":     "ngram",
						"min_gram": 3,
						"max_gram": 3,
					},
				},
				"analyzer": map[string]interface{}{
					"trigram_analyzer": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "trigram_tokenizer",
						"filter":    []string{"lowercase"},
					},
				},
				"normalizer": map[string]interface{}{
					"lowercase_normalizer": map[string]interface{}{
						"type":   "custom",
						"filter": []string{"lowercase"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				fieldAppNumber:            map[string]interface{}{"type": "keyword", "normalizer": "lowercase_normalizer"},
				fieldProductName:          name,
				fieldProductNameEng:       name,
				fieldStatus:               keyword,
				fieldProductCodes:         keyword,
				fieldRegNumber:            keyword,
				"applicationDate":         date,
				"publicationDate":         date,
				"registrationDate":        date,
				"registrationPubDate":     date,
				"internationalRegDate":    date,
				"priorityClaimDateList":   date,
				"publicationNumber":       keyword,
				"registrationPubNumber":   keyword,
				"internationalRegNumbers": keyword,
				"priorityClaimNumList":    keyword,
				"asignProductSubCodeList": keyword,
				"viennaCodeList":          keyword,
			},
		},
	}
}

// EnsureIndex creates the index unless it already exists.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := i.IndexExists(ctx)
	if err != nil || exists {
		return err
	}

	body, err := json.Marshal(TrademarkIndexMapping(i.config.Shards, i.config.Replicas))
	if err != nil {
		return errors.Wrap(err, errors.CodeIndex, "failed to marshal index mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{
		Index: i.config.Index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, i.client.Underlying())
	if err != nil {
		return errors.Wrap(err, errors.CodeIndex, "create index request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return responseError(resp, ErrIndexCreationFailed)
	}
	i.logger.Info("Index created", logging.String("index", i.config.Index))
	return nil
}

// IndexExists reports whether the index is present.
func (i *Indexer) IndexExists(ctx context.Context) (bool, error) {
	resp, err := opensearchapi.IndicesExistsRequest{
		Index: []string{i.config.Index},
	}.Do(ctx, i.client.Underlying())
	if err != nil {
		return false, errors.Wrap(err, errors.CodeIndex, "index exists request failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError(resp, errors.New(errors.CodeIndex, "index exists check failed"))
	}
}

// DeleteIndex drops the index.
func (i *Indexer) DeleteIndex(ctx context.Context) error {
	resp, err := opensearchapi.IndicesDeleteRequest{
		Index: []string{i.config.Index},
	}.Do(ctx, i.client.Underlying())
	if err != nil {
		return errors.Wrap(err, errors.CodeIndex, "delete index request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrIndexNotFound
	}
	if resp.IsError() {
		return responseError(resp, errors.New(errors.CodeIndex, "delete index failed"))
	}
	i.logger.Warn("Index deleted", logging.String("index", i.config.Index))
	return nil
}

// Refresh makes recent writes visible to search.
func (i *Indexer) Refresh(ctx context.Context) error {
	resp, err := opensearchapi.IndicesRefreshRequest{
		Index: []string{i.config.Index},
	}.Do(ctx, i.client.Underlying())
	if err != nil {
		return errors.Wrap(err, errors.CodeIndex, "refresh request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return responseError(resp, errors.New(errors.CodeIndex, "refresh failed"))
	}
	return nil
}

type bulkAction struct {
	Index bulkTarget `json:"index"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkIndex writes records in batches keyed by application number.  Records
// the cluster rejects are reported in the result; transport failures abort.
func (i *Indexer) BulkIndex(ctx context.Context, records []*trademark.Trademark) (*BulkResult, error) {
	result := &BulkResult{}
	for start := 0; start < len(records); start += i.config.BulkBatchSize {
		end := start + i.config.BulkBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := i.bulkBatch(ctx, records[start:end], result); err != nil {
			return result, err
		}
	}

	i.logger.Info("Bulk index completed",
		logging.Int("total", len(records)),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed))
	return result, nil
}

func (i *Indexer) bulkBatch(ctx context.Context, batch []*trademark.Trademark, result *BulkResult) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, t := range batch {
		if err := enc.Encode(bulkAction{Index: bulkTarget{Index: i.config.Index, ID: t.ApplicationNumber}}); err != nil {
			return errors.Wrap(err, errors.CodeIndex, "failed to encode bulk action")
		}
		if err := enc.Encode(t); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{
				DocID:     t.ApplicationNumber,
				ErrorType: "serialization_error",
				Reason:    err.Error(),
			})
			return errors.Wrap(err, errors.CodeIndex, "failed to encode document")
		}
	}
	if buf.Len() == 0 {
		return nil
	}

	resp, err := opensearchapi.BulkRequest{
		Body:    bytes.NewReader(buf.Bytes()),
		Refresh: i.config.RefreshPolicy,
	}.Do(ctx, i.client.Underlying())
	if err != nil {
		return errors.Wrap(err, errors.CodeIndex, "bulk request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		result.Failed += len(batch)
		return responseError(resp, ErrBulkFailed)
	}

	var br bulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return errors.Wrap(err, errors.CodeIndex, "failed to decode bulk response")
	}
	if !br.Errors {
		result.Succeeded += len(br.Items)
		return nil
	}
	for _, item := range br.Items {
		for _, v := range item {
			if v.Status >= 200 && v.Status < 300 {
				result.Succeeded++
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{
				DocID:     v.ID,
				ErrorType: v.Error.Type,
				Reason:    v.Error.Reason,
			})
		}
	}
	return nil
}

func responseError(resp *opensearchapi.Response, base *errors.AppError) error {
	var body struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Reason != "" {
		return base.WithDetail(body.Error.Type + ": " + body.Error.Reason)
	}
	return base.WithDetail("status " + http.StatusText(resp.StatusCode))
}
