package search

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/trademark-search/internal/domain/trademark"
)

// MockRepository is a testify mock of trademark.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) IndexedSearch(ctx context.Context, cond *trademark.TextCondition, preds trademark.Predicates, offset, limit int) ([]trademark.Match, int64, bool, error) {
	args := m.Called(ctx, cond, preds, offset, limit)
	var ms []trademark.Match
	if v := args.Get(0); v != nil {
		ms = v.([]trademark.Match)
	}
	return ms, args.Get(1).(int64), args.Bool(2), args.Error(3)
}

func (m *MockRepository) FetchCandidates(ctx context.Context, preds trademark.Predicates, limit int) ([]*trademark.Trademark, bool, error) {
	args := m.Called(ctx, preds, limit)
	var ts []*trademark.Trademark
	if v := args.Get(0); v != nil {
		ts = v.([]*trademark.Trademark)
	}
	return ts, args.Bool(1), args.Error(2)
}

func (m *MockRepository) ListDistinct(ctx context.Context, field trademark.DistinctField) ([]string, error) {
	args := m.Called(ctx, field)
	var out []string
	if v := args.Get(0); v != nil {
		out = v.([]string)
	}
	return out, args.Error(1)
}

func (m *MockRepository) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*trademark.Trademark, error) {
	args := m.Called(ctx, applicationNumber)
	var t *trademark.Trademark
	if v := args.Get(0); v != nil {
		t = v.(*trademark.Trademark)
	}
	return t, args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, records []*trademark.Trademark) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockRepository) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
