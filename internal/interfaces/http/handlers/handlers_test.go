package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-search/internal/application/search"
	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/database/memory"
	"github.com/turtacn/trademark-search/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type brokenStore struct {
	*memory.Store
}

func (b brokenStore) IndexedSearch(context.Context, *trademark.TextCondition, trademark.Predicates, int, int) ([]trademark.Match, int64, bool, error) {
	return nil, 0, false, errors.New("pq: connection refused")
}

func (b brokenStore) Ping(context.Context) error { return errors.New("pq: connection refused") }

func newEngine(repo trademark.Repository) *gin.Engine {
	engine := gin.New()
	h := NewTrademarkHandler(search.NewService(repo, search.DefaultConfig(), nil), nil)
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func get(t *testing.T, engine *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestSearch_EmptyQueryListsAll(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	w := get(t, engine, "/api/v1/trademarks")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SearchResponse](t, w)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, 0, resp.Offset)
	assert.Equal(t, 10, resp.Limit)
	require.Len(t, resp.Results, 5)
	assert.Equal(t, "4020200000101", resp.Results[0].ApplicationNumber)
	assert.Equal(t, "match_all", w.Header().Get("X-Search-Route"))
}

func TestSearch_InitialConsonants(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	w := get(t, engine, "/api/v1/trademarks?q=%E3%85%85%E3%85%8C%E3%85%82%E3%85%85")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SearchResponse](t, w)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "4020200000101", resp.Results[0].ApplicationNumber)
	assert.Equal(t, "initial_consonant", w.Header().Get("X-Search-Route"))
}

func TestSearch_Filters(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	w := get(t, engine, "/api/v1/trademarks?status=%EB%93%B1%EB%A1%9D&product_code=30")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SearchResponse](t, w)
	assert.Equal(t, int64(2), resp.Total)

	w = get(t, engine, "/api/v1/trademarks?from_date=20230101&to_date=20221231")
	resp = decode[SearchResponse](t, w)
	assert.Zero(t, resp.Total)
	assert.Empty(t, resp.Results)
}

func TestSearch_ResultShape(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	w := get(t, engine, "/api/v1/trademarks?limit=1&offset=2")
	var raw struct {
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw.Results, 1)
	row := raw.Results[0]
	assert.Equal(t, "4020220000303", row["applicationNumber"])
	assert.Equal(t, "20220720", row["applicationDate"])
	assert.Equal(t, []interface{}{}, row["registrationNumber"])
	assert.Equal(t, []interface{}{}, row["registrationDate"])
	assert.Contains(t, row, "score")
}

func TestSearch_Validation(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	for _, url := range []string{
		"/api/v1/trademarks?from_date=2020-01-01",
		"/api/v1/trademarks?to_date=202001",
		"/api/v1/trademarks?limit=ten",
		"/api/v1/trademarks?offset=1.5",
	} {
		w := get(t, engine, url)
		assert.Equal(t, http.StatusBadRequest, w.Code, url)
		assert.Equal(t, "TM_003", decode[ErrorResponse](t, w).Code, url)
	}
}

func TestSearch_ClampsNumbers(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	resp := decode[SearchResponse](t, get(t, engine, "/api/v1/trademarks?limit=1000&offset=-3"))
	assert.Equal(t, 100, resp.Limit)
	assert.Equal(t, 0, resp.Offset)
}

func TestSearch_StorageFailure(t *testing.T) {
	engine := newEngine(brokenStore{memory.NewStore()})

	w := get(t, engine, "/api/v1/trademarks?q=coffee")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[ErrorResponse](t, w)
	assert.Equal(t, "TM_002", body.Code)
	assert.NotContains(t, body.Message, "pq:")
}

func TestGet(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	w := get(t, engine, "/api/v1/trademarks/4020230000404")
	require.Equal(t, http.StatusOK, w.Code)
	tm := decode[trademark.Trademark](t, w)
	assert.Equal(t, "스타필드", tm.ProductName)
	assert.Equal(t, []string{"260101"}, tm.ViennaCodeList)

	w = get(t, engine, "/api/v1/trademarks/0000000000000")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TM_001", decode[ErrorResponse](t, w).Code)
}

func TestMeta(t *testing.T) {
	engine := newEngine(memory.NewStore(testutil.Trademarks()...))

	w := get(t, engine, "/api/v1/trademarks/meta/statuses")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"거절", "등록", "출원"}, decode[[]string](t, w))

	w = get(t, engine, "/api/v1/trademarks/meta/product-codes")
	assert.Equal(t, []string{"09", "30", "35", "43"}, decode[[]string](t, w))

	w = get(t, newEngine(memory.NewStore()), "/api/v1/trademarks/meta/statuses")
	assert.JSONEq(t, `[]`, w.Body.String())
}

type recordingObserver struct {
	mu sync.Mutex
	up map[string]bool
}

func (r *recordingObserver) SetComponentHealth(component string, up bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.up[component] = up
}

func healthEngine(h *HealthHandler) *gin.Engine {
	engine := gin.New()
	h.RegisterRoutes(engine)
	return engine
}

func TestHealth(t *testing.T) {
	info := AppInfo{Name: "Trademark Search API", Version: "1.2.3", Environment: "testing", APIPrefix: "/api/v1"}
	up := CheckerFunc{ComponentName: "postgres", Fn: func(context.Context) error { return nil }}
	down := CheckerFunc{ComponentName: "redis", Fn: func(context.Context) error { return errors.New("dial tcp: refused") }}
	obs := &recordingObserver{up: map[string]bool{}}
	engine := healthEngine(NewHealthHandler(info, "postgres", obs, up, down))

	root := decode[RootResponse](t, get(t, engine, "/"))
	assert.Equal(t, "Trademark Search API", root.AppName)
	assert.Equal(t, "/api/v1", root.APIURL)

	health := decode[HealthResponse](t, get(t, engine, "/health"))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "connected", health.Database)
	assert.Equal(t, "testing", health.Environment)

	live := decode[LivenessResponse](t, get(t, engine, "/healthz"))
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, "1.2.3", live.Version)

	w := get(t, engine, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	ready := decode[ReadinessResponse](t, w)
	assert.Equal(t, "not_ready", ready.Status)
	assert.Equal(t, "healthy", ready.Components["postgres"].Status)
	assert.Equal(t, "unhealthy", ready.Components["redis"].Status)
	assert.Equal(t, map[string]bool{"postgres": true, "redis": false}, obs.up)
}

func TestHealth_DatabaseDown(t *testing.T) {
	store := brokenStore{memory.NewStore()}
	db := CheckerFunc{ComponentName: "memory", Fn: store.Ping}
	engine := healthEngine(NewHealthHandler(AppInfo{}, "memory", nil, db))

	w := get(t, engine, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disconnected", decode[HealthResponse](t, w).Database)
}

func TestReadiness_NoCheckers(t *testing.T) {
	engine := healthEngine(NewHealthHandler(AppInfo{}, "", nil))
	w := get(t, engine, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode[ReadinessResponse](t, w).Status)
}
