package search

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-search/pkg/types/common"
)

// EventPublisher delivers messages to a broker.  Publish must not block on
// broker round-trips for long; the Kafka producer is used in async mode.
type EventPublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// SearchEvent describes one executed search for downstream analytics.
type SearchEvent struct {
	EventID     string                 `json:"event_id"`
	RequestID   string                 `json:"request_id,omitempty"`
	Query       string                 `json:"query"`
	Filters     trademark.FilterParams `json:"filters"`
	Route       string                 `json:"route"`
	Offset      int                    `json:"offset"`
	Limit       int                    `json:"limit"`
	Total       int64                  `json:"total"`
	Returned    int                    `json:"returned"`
	Fallback    bool                   `json:"fallback"`
	Approximate bool                   `json:"approximate"`
	DurationMS  int64                  `json:"duration_ms"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

func (s *serviceImpl) publish(ctx context.Context, q Query, text string, page *ResultPage, elapsed time.Duration) {
	if s.events == nil {
		return
	}
	ev := SearchEvent{
		EventID:     common.NewID(),
		Query:       text,
		Filters:     q.Filters,
		Route:       page.Route.String(),
		Offset:      page.Offset,
		Limit:       page.Limit,
		Total:       page.Total,
		Returned:    len(page.Results),
		Fallback:    page.Fallback,
		Approximate: page.Approximate,
		DurationMS:  elapsed.Milliseconds(),
		OccurredAt:  time.Now().UTC(),
	}
	if rid, ok := ctx.Value(common.ContextKeyRequestID).(string); ok {
		ev.RequestID = rid
	}
	value, err := json.Marshal(ev)
	if err != nil {
		s.logger.Warn("search event encode failed", logging.Err(err))
		return
	}
	msg := &common.ProducerMessage{
		Topic:     s.topic,
		Key:       []byte(ev.EventID),
		Value:     value,
		Headers:   map[string]string{"type": "trademark.search"},
		Timestamp: ev.OccurredAt,
	}
	if err := s.events.Publish(ctx, msg); err != nil {
		s.logger.Warn("search event publish failed", logging.Err(err))
	}
}
