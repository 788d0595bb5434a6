package papersources

import (
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserAgent is sent when HTTPClientConfig.UserAgent is empty.
const DefaultUserAgent = "Helixir-ScholarRank/1.0"

// HTTPClientConfig configures HTTPClient. When both APIKey and APIKeyParam are
// set the key is appended to every request's query string.
type HTTPClientConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 for no local limit
	BurstSize int
	UserAgent string

	APIKey      string
	APIKeyParam string
}

// HTTPClient sends authenticated, optionally rate-limited requests. Each
// request is attempted exactly once. Safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient applies defaults to cfg and builds the client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	cfg.Timeout = cmp.Or(cfg.Timeout, 30*time.Second)
	cfg.BurstSize = max(cfg.BurstSize, 1)
	cfg.UserAgent = cmp.Or(cfg.UserAgent, DefaultUserAgent)

	return &HTTPClient{
		client:      &http.Client{Timeout: cfg.Timeout},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

// Do executes an HTTP request. It waits for the rate limiter, sets the
// User-Agent and the API key, and returns the response of the single attempt.
// Non-success statuses are returned as responses; interpreting them is up to the caller.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.authenticate(req)

	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for local rate limit: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.redact(err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Host, err)
	}
	return resp, nil
}

// redact masks the API key in the URL carried by transport errors.
func (c *HTTPClient) redact(err error) {
	if c.config.APIKey == "" {
		return
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(c.config.APIKey), "REDACTED")
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.config.APIKey, "REDACTED")
	}
}

// authenticate appends the API key parameter. The existing query is kept
// byte for byte so upstream links are followed exactly as returned.
func (c *HTTPClient) authenticate(req *http.Request) {
	if c.config.APIKey == "" || c.config.APIKeyParam == "" {
		return
	}

	param := url.QueryEscape(c.config.APIKeyParam) + "=" + url.QueryEscape(c.config.APIKey)
	if req.URL.RawQuery == "" {
		req.URL.RawQuery = param
		return
	}
	req.URL.RawQuery += "&" + param
}
