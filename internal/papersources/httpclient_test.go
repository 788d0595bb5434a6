package papersources

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// recorder is a test upstream that remembers every request it served.
type recorder struct {
	mu       sync.Mutex
	requests []*http.Request
	status   int
}

func newRecorder(t *testing.T, status int) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.requests = append(rec.requests, r.Clone(context.Background()))
		rec.mu.Unlock()
		w.WriteHeader(rec.status)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) last(t *testing.T) *http.Request {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.requests)
	return r.requests[len(r.requests)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func get(t *testing.T, c *HTTPClient, target string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target, nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient(HTTPClientConfig{})

	assert.Equal(t, 30*time.Second, c.client.Timeout)
	assert.Equal(t, "Helixir-ScholarRank/1.0", c.config.UserAgent)
	assert.Equal(t, 1, c.config.BurstSize)
	assert.Equal(t, rate.Inf, c.rateLimiter.limiter.Limit())

	limited := NewHTTPClient(HTTPClientConfig{Timeout: 15 * time.Second, RateLimit: 5, BurstSize: 3})
	assert.Equal(t, 15*time.Second, limited.client.Timeout)
	assert.Equal(t, rate.Limit(5), limited.rateLimiter.limiter.Limit())
}

func TestHTTPClient_DoRequestShaping(t *testing.T) {
	cases := []struct {
		name   string
		cfg    HTTPClientConfig
		path   string
		verify func(t *testing.T, r *http.Request)
	}{
		{
			name: "user agent",
			cfg:  HTTPClientConfig{UserAgent: "ScholarTest/2.0"},
			path: "/",
			verify: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "ScholarTest/2.0", r.Header.Get("User-Agent"))
			},
		},
		{
			name: "api key appended to link query unchanged",
			cfg:  HTTPClientConfig{APIKey: "k-123", APIKeyParam: "apiKey"},
			path: "/abstract/1?field=author,affiliation&view=FULL",
			verify: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "field=author,affiliation&view=FULL&apiKey=k-123", r.URL.RawQuery)
			},
		},
		{
			name: "api key escaped",
			cfg:  HTTPClientConfig{APIKey: "k 1/2", APIKeyParam: "apiKey"},
			path: "/",
			verify: func(t *testing.T, r *http.Request) {
				assert.Equal(t, "apiKey=k+1%2F2", r.URL.RawQuery)
				assert.Equal(t, "k 1/2", r.URL.Query().Get("apiKey"))
			},
		},
		{
			name: "no key configured",
			cfg:  HTTPClientConfig{APIKeyParam: "apiKey"},
			path: "/",
			verify: func(t *testing.T, r *http.Request) {
				assert.Empty(t, r.URL.RawQuery)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, srv := newRecorder(t, http.StatusOK)
			resp := get(t, NewHTTPClient(tc.cfg), srv.URL+tc.path)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			tc.verify(t, rec.last(t))
		})
	}
}

func TestHTTPClient_DoSingleAttempt(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusServiceUnavailable)

	resp := get(t, NewHTTPClient(HTTPClientConfig{}), srv.URL)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, rec.count())
}

func TestHTTPClient_DoCancelled(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = NewHTTPClient(HTTPClientConfig{RateLimit: 1}).Do(req)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rec.count())
}

func TestHTTPClient_DoRateLimited(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	c := NewHTTPClient(HTTPClientConfig{RateLimit: 10, BurstSize: 2})

	start := time.Now()
	for range 4 {
		get(t, c, srv.URL)
	}

	// Two requests ride the burst, the other two wait about 100ms each.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, 4, rec.count())
}

func TestHTTPClient_DoRedactsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL + "/search"
	srv.Close()

	c := NewHTTPClient(HTTPClientConfig{Timeout: time.Second, APIKey: "s3cr3t/key", APIKeyParam: "apiKey"})
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, target, nil)
	require.NoError(t, err)

	_, err = c.Do(req)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "s3cr3t")
	assert.Contains(t, err.Error(), "REDACTED")
}
