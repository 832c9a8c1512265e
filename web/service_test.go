package web

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceServesAndStops(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewService(ctx, "127.0.0.1:0", mux)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel() // parent cancellation stops the service
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("web service did not stop")
	}
}

func TestServiceBindError(t *testing.T) {
	s := NewService(context.Background(), "256.0.0.1:bad", http.NotFoundHandler())
	assert.Error(t, s.Start())
}
