package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRoutes(t *testing.T) {
	app := setupTestApp(t, Options{})

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedHeader string
	}{
		{"GET posts", "GET", "/api/posts", http.StatusOK, "application/json"},
		{"GET single post", "GET", "/api/posts/1", http.StatusOK, "application/json"},
		{"GET post comments", "GET", "/api/posts/1/comments", http.StatusOK, "application/json"},
		{"GET top comments", "GET", "/api/posts/1/comments/top", http.StatusOK, "application/json"},
		{"GET post votes", "GET", "/api/posts/1/votes", http.StatusOK, "application/json"},
		{"GET controversial", "GET", "/api/posts/controversial", http.StatusOK, "application/json"},
		{"GET subreddits", "GET", "/api/subreddits", http.StatusOK, "application/json"},
		{"GET subreddit", "GET", "/api/subreddits/golang", http.StatusOK, "application/json"},
		{"GET subreddit top", "GET", "/api/subreddits/golang/top", http.StatusOK, "application/json"},
		{"Search subreddits", "GET", "/api/subreddits/search?q=go", http.StatusOK, "application/json"},
		{"Invalid post ID", "GET", "/api/posts/invalid", http.StatusNotFound, "application/json"},
		{"Missing post", "GET", "/api/posts/42", http.StatusNotFound, "application/json"},
		{"Unknown API path", "GET", "/api/nothing", http.StatusNotFound, "application/json"},
		{"Home page", "GET", "/", http.StatusOK, "text/html"},
		{"Hot page", "GET", "/hot", http.StatusOK, "text/html"},
		{"Popular page", "GET", "/popular", http.StatusOK, "text/html"},
		{"Posts page", "GET", "/posts", http.StatusOK, "text/html"},
		{"Post page", "GET", "/posts/1", http.StatusOK, "text/html"},
		{"Communities page", "GET", "/r", http.StatusOK, "text/html"},
		{"Community page", "GET", "/r/golang", http.StatusOK, "text/html"},
		{"Search page", "GET", "/search?q=go", http.StatusOK, "text/html"},
		{"Unknown page", "GET", "/nothing/here", http.StatusNotFound, "text/html"},
		{"Stylesheet", "GET", "/static/style.css", http.StatusOK, "text/css"},
		{"Health", "GET", "/healthz", http.StatusOK, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(app, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), tt.expectedHeader)
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	app := setupTestApp(t, Options{})

	w := serve(app, httptest.NewRequest("GET", "/healthz", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = serve(app, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestNotFoundHandler(t *testing.T) {
	app := setupTestApp(t, Options{})

	w := serve(app, httptest.NewRequest("GET", "/api/unknown", nil))
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	w = serve(app, httptest.NewRequest("GET", "/unknown", nil))
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupTestApp(t, Options{})

	serve(app, httptest.NewRequest("GET", "/api/posts/1", nil))
	w := serve(app, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.True(t, strings.Contains(body, `route="/api/posts/{id:[0-9]+}"`), "requests are labelled by route template")
}

func TestNewServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(listener.Addr().String(), handler)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var response map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.True(t, errors.Is(<-done, http.ErrServerClosed))
}
