package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-search/internal/config"
)

func TestNewServer(t *testing.T) {
	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8080}, http.NewServeMux(), nil)
	assert.Equal(t, "127.0.0.1:8080", server.Addr())
	assert.Equal(t, 20*time.Second, server.shutdownTimeout)
}

func TestServer_StartShutdown(t *testing.T) {
	server := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, http.NewServeMux(), nil)

	done := make(chan error, 1)
	go func() { done <- server.Start() }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, server.Shutdown(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
