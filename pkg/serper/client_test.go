package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/linkforge/internal/resilience"
)

func TestFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ergonomic chairs", req["q"])
		assert.Equal(t, "en", req["hl"])
		assert.Equal(t, float64(5), req["num"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"organic": [
			{"title": "Best Chairs", "link": "https://a.example.com", "snippet": "top picks", "position": 1},
			{"title": "Chair Review", "link": "https://b.example.com", "snippet": "in depth", "position": 2}
		]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	results, err := client.Fetch(context.Background(), Query{Text: "ergonomic chairs", Language: "en", TopN: 5})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, "Best Chairs", results[0].Title)
	assert.Equal(t, "https://b.example.com", results[1].URL)
}

func TestFetch_TruncatesBeyondTopN(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"organic": [
			{"title": "A", "link": "https://a.example.com", "position": 1},
			{"title": "B", "link": "https://b.example.com", "position": 2},
			{"title": "C", "link": "https://c.example.com", "position": 3}
		]}`))
	}))
	defer server.Close()

	client := NewClient("k", WithBaseURL(server.URL))
	results, err := client.Fetch(context.Background(), Query{Text: "q", TopN: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"organic": [{"title": "A", "link": "https://a.example.com", "position": 1}]}`))
	}))
	defer server.Close()

	client := NewClient("k", WithBaseURL(server.URL))
	// Shrink backoff so the retry is immediate.
	client.(*httpClient).retry = resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: 1}

	results, err := client.Fetch(context.Background(), Query{Text: "q"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "invalid api key"}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := client.Fetch(context.Background(), Query{Text: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Equal(t, int32(1), calls.Load())
}
