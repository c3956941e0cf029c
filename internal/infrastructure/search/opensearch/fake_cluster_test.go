package opensearch

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-search/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeCluster is a minimal OpenSearch HTTP endpoint keyed by "METHOD /path".
type fakeCluster struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

func newFakeCluster() *fakeCluster {
	fc := &fakeCluster{routes: map[string]http.HandlerFunc{}}
	fc.handle("HEAD /", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	fc.handle("GET /", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"version":{"number":"2.11.0","distribution":"opensearch"}}`)
	})
	return fc
}

func (fc *fakeCluster) handle(route string, h http.HandlerFunc) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.routes[route] = h
}

func (fc *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fc.mu.Lock()
	fc.requests = append(fc.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	h, ok := fc.routes[r.Method+" "+r.URL.Path]
	fc.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, `{"error":{"type":"unexpected_route","reason":"`+r.Method+" "+r.URL.Path+`"}}`)
		return
	}
	h(w, r)
}

// lastBody decodes the body of the latest request to route.
func (fc *fakeCluster) lastBody(t *testing.T, method, path string) map[string]interface{} {
	t.Helper()
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for i := len(fc.requests) - 1; i >= 0; i-- {
		r := fc.requests[i]
		if r.Method == method && r.Path == path {
			var out map[string]interface{}
			require.NoError(t, json.Unmarshal(r.Body, &out))
			return out
		}
	}
	t.Fatalf("no %s %s request recorded", method, path)
	return nil
}

func (fc *fakeCluster) count(method, path string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	n := 0
	for _, r := range fc.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func testConfig(addr string) config.OpenSearchConfig {
	return config.OpenSearchConfig{Addresses: []string{addr}, Index: "trademarks"}
}

func newTestClient(t *testing.T, fc *fakeCluster) *Client {
	t.Helper()
	server := httptest.NewServer(fc)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL), ClientOptions{HealthCheckInterval: time.Hour}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
