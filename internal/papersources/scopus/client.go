package scopus

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/helixir/scholar-rank-service/internal/domain"
	"github.com/helixir/scholar-rank-service/internal/observability"
	"github.com/helixir/scholar-rank-service/internal/papersources"
)

// Client defaults, used for zero Config fields.
const (
	DefaultBaseURL     = "https://api.elsevier.com/content"
	DefaultResultCount = 20
	DefaultSort        = "citedby-count"
	DefaultTimeout     = 30 * time.Second
	DefaultBurstSize   = 1
)

const (
	apiKeyParam              = "apiKey"
	linkRefAuthorAffiliation = "author-affiliation"
	sourceName               = "Scopus"
	searchPath               = "search/scopus"

	// Endpoint labels used in errors, logs and metrics.
	EndpointSearch            = "search"
	EndpointAuthorAffiliation = "author_affiliation"

	// maxBodySize bounds the size of decoded upstream responses.
	maxBodySize = 10 << 20
	// maxErrorMessage bounds the upstream error body kept in an UpstreamError.
	maxErrorMessage = 512
)

// Config configures a Client. An empty APIKey is allowed; Scopus then rejects
// every call and the error surfaces as an UpstreamError.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RateLimit is requests per second; 0 disables local limiting.
	RateLimit float64
	BurstSize int

	ResultCount int
	Sort        string
	UserAgent   string
}

func (c Config) withDefaults() Config {
	c.BaseURL = cmp.Or(c.BaseURL, DefaultBaseURL)
	c.Timeout = cmp.Or(c.Timeout, DefaultTimeout)
	c.BurstSize = cmp.Or(c.BurstSize, DefaultBurstSize)
	c.ResultCount = cmp.Or(c.ResultCount, DefaultResultCount)
	c.Sort = cmp.Or(c.Sort, DefaultSort)
	return c
}

// Client talks to the Scopus search and abstract retrieval APIs.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	metrics    *observability.Metrics
}

var _ papersources.PaperSource = (*Client)(nil)

// New returns a Client with its own rate-limited HTTP transport.
func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return NewWithHTTPClient(cfg, papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:     cfg.Timeout,
		RateLimit:   cfg.RateLimit,
		BurstSize:   cfg.BurstSize,
		UserAgent:   cfg.UserAgent,
		APIKey:      cfg.APIKey,
		APIKeyParam: apiKeyParam,
	}))
}

// NewWithHTTPClient returns a Client using httpClient as transport. The API
// key in cfg is only reported by HasAPIKey; httpClient must attach it.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient) *Client {
	return &Client{config: cfg.withDefaults(), httpClient: httpClient}
}

// WithMetrics enables upstream request metrics.
func (c *Client) WithMetrics(m *observability.Metrics) *Client {
	c.metrics = m
	return c
}

// Name is used as the "source" log field.
func (c *Client) Name() string {
	return sourceName
}

// HasAPIKey reports whether an API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.config.APIKey != ""
}

// SearchPapers queries Scopus with the query passed through verbatim, the fixed
// result count and the citation sort order.
func (c *Client) SearchPapers(ctx context.Context, query string) (*papersources.SearchResult, error) {
	began := time.Now()

	target, err := c.searchURL(query)
	if err != nil {
		return nil, fmt.Errorf("scopus search url: %w", err)
	}

	body, header, err := c.get(ctx, EndpointSearch, target)
	if err != nil {
		return nil, err
	}

	var decoded SearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.recordFailure(EndpointSearch, "decode")
		return nil, domain.NewUpstreamError(EndpointSearch, http.StatusOK, "decoding response", err)
	}

	results := decoded.SearchResults
	papers := make([]domain.PaperRecord, 0, len(results.Entries))
	for i := range results.Entries {
		// The empty result set comes back as one entry with only an error field.
		if results.Entries[i].Error != "" {
			continue
		}
		papers = append(papers, entryToPaper(&results.Entries[i]))
	}

	total, _ := strconv.Atoi(results.TotalResults)
	quota := papersources.ParseRateLimitHeaders(header)
	if c.metrics != nil {
		c.metrics.RecordQuotaRemaining(quota.Remaining)
	}

	return &papersources.SearchResult{
		Papers:         papers,
		TotalResults:   total,
		RateLimit:      quota,
		SearchDuration: time.Since(began),
	}, nil
}

// FetchAuthors follows an author-affiliation link and extracts its authors.
func (c *Client) FetchAuthors(ctx context.Context, link string) ([]domain.AuthorRecord, error) {
	if _, err := url.Parse(link); err != nil {
		return nil, domain.NewUpstreamError(EndpointAuthorAffiliation, 0, "invalid author-affiliation link", err)
	}

	body, _, err := c.get(ctx, EndpointAuthorAffiliation, link)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		c.recordFailure(EndpointAuthorAffiliation, "decode")
		return nil, domain.NewUpstreamError(EndpointAuthorAffiliation, http.StatusOK, "response is not valid JSON", nil)
	}

	return parseAuthors(gjson.ParseBytes(body)), nil
}

// get performs one authenticated GET and returns the body of a 2xx response.
// Every failure is reported as an UpstreamError.
func (c *Client) get(ctx context.Context, endpoint, rawURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, domain.NewUpstreamError(endpoint, 0, "creating request", err)
	}
	req.Header.Set("Accept", "application/json")

	sent := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(endpoint, "transport")
		return nil, nil, domain.NewUpstreamError(endpoint, 0, "executing request", err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(endpoint, resp.StatusCode, time.Since(sent).Seconds())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.recordFailure(endpoint, "status")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorMessage))
		return nil, nil, domain.NewUpstreamError(endpoint, resp.StatusCode, strings.TrimSpace(string(body)), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.recordFailure(endpoint, "transport")
		return nil, nil, domain.NewUpstreamError(endpoint, resp.StatusCode, "reading response", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.recordFailure(endpoint, "decode")
		return nil, nil, domain.NewUpstreamError(endpoint, resp.StatusCode, "empty response body", nil)
	}

	return body, resp.Header, nil
}

func (c *Client) recordFailure(endpoint, errorType string) {
	if c.metrics != nil {
		c.metrics.RecordUpstreamFailure(endpoint, errorType)
	}
}

// searchURL encodes query verbatim next to the fixed count and sort.
func (c *Client) searchURL(query string) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}
	u = u.JoinPath(searchPath)
	u.RawQuery = url.Values{
		"query": {query},
		"count": {strconv.Itoa(c.config.ResultCount)},
		"sort":  {c.config.Sort},
	}.Encode()
	return u.String(), nil
}

// entryToPaper converts a Scopus entry to a PaperRecord.
// A missing or malformed citation count is treated as zero.
func entryToPaper(entry *Entry) domain.PaperRecord {
	citations, _ := strconv.Atoi(strings.TrimSpace(entry.CitedByCount))

	return domain.PaperRecord{
		Title:        entry.Title,
		CitedByCount: citations,
		AuthorsLink:  entry.AuthorAffiliationLink(),
	}
}
