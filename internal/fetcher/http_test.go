package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:  "test-agent",
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("ETag", `"abc123"`)
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "<html><body>hello</body></html>", string(page.Body))
	assert.Equal(t, `"abc123"`, page.ETag)
	assert.WithinDuration(t, time.Now().UTC(), page.FetchedAt, time.Minute)
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(page.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestFetcher()
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}

func TestFetch_DecodesLatin1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		// "Québec" with an ISO-8859-1 encoded é (0xE9).
		w.Write([]byte{'Q', 'u', 0xE9, 'b', 'e', 'c'})
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Québec", string(page.Body))
}

func TestFetchIfChanged_NotModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"v1"`, r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, changed, err := f.FetchIfChanged(context.Background(), srv.URL, `"v1"`)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, page)
}

func TestFetchIfChanged_Changed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v2"`)
		w.Write([]byte("new content"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, changed, err := f.FetchIfChanged(context.Background(), srv.URL, `"v1"`)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "new content", string(page.Body))
	assert.Equal(t, `"v2"`, page.ETag)
}

func TestFetchIfChanged_NoPriorETag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("If-None-Match"))
		w.Write([]byte("first fetch"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, changed, err := f.FetchIfChanged(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "first fetch", string(page.Body))
}

func TestAdaptiveLimiter_IncreaseAndDecrease(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 10)
	assert.Equal(t, rate.Limit(10), lim.Limit())

	lim.OnSuccess()
	assert.InDelta(t, 12.0, float64(lim.Limit()), 0.001)

	// Cap at 2x initial.
	for range 20 {
		lim.OnSuccess()
	}
	assert.Equal(t, rate.Limit(20), lim.Limit())

	lim.OnRateLimit()
	assert.Equal(t, rate.Limit(10), lim.Limit())

	// Floor at initial/4.
	for range 20 {
		lim.OnRateLimit()
	}
	assert.Equal(t, rate.Limit(2.5), lim.Limit())
}

func TestFetch_RateLimited429ReducesRate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(page.Body))
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestFetch_CustomRateLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("limited"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		MaxRetries: 1,
		RateLimiters: map[string]*rate.Limiter{
			"positively-not-the-test-host": rate.NewLimiter(1, 1),
		},
	})
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "limited", string(page.Body))
}
