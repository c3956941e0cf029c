package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-search/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 5*time.Millisecond)}, opts...)
	client, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return client
}

type testLogger struct {
	mu      sync.Mutex
	lastMsg string
	count   int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { l.log(format, args...) }
func (l *testLogger) Infof(format string, args ...interface{})  { l.log(format, args...) }
func (l *testLogger) Errorf(format string, args ...interface{}) { l.log(format, args...) }

func (l *testLogger) log(format string, args ...interface{}) {
	atomic.AddInt32(&l.count, 1)
	l.mu.Lock()
	l.lastMsg = fmt.Sprintf(format, args...)
	l.mu.Unlock()
}

func TestNewClient_Success(t *testing.T) {
	c, err := NewClient("http://search.example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://search.example.com", c.baseURL)
	assert.Equal(t, DefaultAPIPrefix, c.apiPrefix)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "tmsearch-go-sdk/")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "://bad", "ftp://search.example.com", "search.example.com"} {
		_, err := NewClient(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidParam), raw)
	}
}

func TestNewClient_BaseURLTrailingSlash(t *testing.T) {
	c, err := NewClient("https://search.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://search.example.com", c.baseURL)
}

func TestClient_Trademarks_LazyInit(t *testing.T) {
	c, err := NewClient("http://search.example.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	got := make([]*TrademarksClient, 10)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = c.Trademarks()
		}(i)
	}
	wg.Wait()
	for _, tc := range got {
		assert.Same(t, got[0], tc)
	}
}

func TestClient_Do_RequestHeaders(t *testing.T) {
	var ids sync.Map
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "probe/1.0", r.Header.Get("User-Agent"))
		id := r.Header.Get("X-Request-ID")
		assert.NotEmpty(t, id)
		_, dup := ids.LoadOrStore(id, true)
		assert.False(t, dup, "request id reused")
		_, _ = w.Write([]byte(`[]`))
	}, WithUserAgent("probe/1.0"))

	for i := 0; i < 3; i++ {
		require.NoError(t, c.do(context.Background(), "/x", nil, nil))
	}
}

func TestClient_Do_4xxNoRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"COMMON_002","message":"limit must be an integer"}`))
	})

	err := c.do(context.Background(), "/x", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsBadRequest())
	assert.Equal(t, "COMMON_002", apiErr.Code)
	assert.Equal(t, "limit must be an integer", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_Do_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404 page not found"))
	})

	err := c.do(context.Background(), "/x", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "404 page not found", apiErr.Message)
}

func TestClient_Do_5xxRetry(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`["등록"]`))
	})

	var out []string
	require.NoError(t, c.do(context.Background(), "/x", nil, &out))
	assert.Equal(t, []string{"등록"}, out)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_Do_5xxRetryExhausted(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryMax(2))

	err := c.do(context.Background(), "/x", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_Do_429RetryAfter(t *testing.T) {
	var calls int32
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}, WithLogger(logger))

	require.NoError(t, c.do(context.Background(), "/x", nil, nil))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Positive(t, atomic.LoadInt32(&logger.count))
}

func TestClient_Do_429WithoutRetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.do(context.Background(), "/x", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
}

func TestClient_Do_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(url, WithRetryMax(1), WithRetryWait(time.Millisecond, time.Millisecond))
	require.NoError(t, err)
	assert.Error(t, c.do(context.Background(), "/x", nil, nil))
}

func TestClient_Do_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetryWait(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.do(ctx, "/x", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Do_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	var out []string
	err := c.do(context.Background(), "/x", nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestAPIError_Methods(t *testing.T) {
	e := &APIError{StatusCode: 404, Code: "TM_001", Message: "trademark not found", RequestID: "r-1"}
	assert.True(t, e.IsNotFound())
	assert.False(t, e.IsBadRequest())
	assert.False(t, e.IsRateLimited())
	assert.False(t, e.IsServerError())
	assert.Equal(t, "tmsearch: TM_001 (HTTP 404): trademark not found [request_id=r-1]", e.Error())

	assert.True(t, (&APIError{StatusCode: 502}).IsServerError())
	assert.True(t, (&APIError{StatusCode: 429}).IsRateLimited())
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: 300 * time.Millisecond}

	first := c.calculateBackoff(1)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 125*time.Millisecond)

	capped := c.calculateBackoff(5)
	assert.GreaterOrEqual(t, capped, 300*time.Millisecond)
	assert.Less(t, capped, 375*time.Millisecond)
}
