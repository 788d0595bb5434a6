package scopus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholar-rank-service/internal/domain"
	"github.com/helixir/scholar-rank-service/internal/observability"
	"github.com/helixir/scholar-rank-service/internal/papersources"
)

// newTestClient creates a client configured for testing with the given server URL.
func newTestClient(serverURL string) *Client {
	cfg := Config{
		BaseURL: serverURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Timeout:     cfg.Timeout,
		UserAgent:   "TestClient/1.0",
		APIKey:      cfg.APIKey,
		APIKeyParam: apiKeyParam,
	})

	return NewWithHTTPClient(cfg, httpClient)
}

// sampleSearchBody returns a search response with two entries, one without author link.
func sampleSearchBody(authorsBase string) string {
	return fmt.Sprintf(`{
		"search-results": {
			"opensearch:totalResults": "137",
			"entry": [
				{
					"dc:identifier": "SCOPUS_ID:1",
					"dc:title": "Shark movement ecology",
					"citedby-count": "42",
					"link": [
						{"@ref": "self", "@href": "https://api.elsevier.com/content/abstract/scopus_id/1"},
						{"@ref": "author-affiliation", "@href": "%s/abstract/scopus_id/1?field=author,affiliation"}
					]
				},
				{
					"dc:identifier": "SCOPUS_ID:2",
					"dc:title": "BRUV survey design",
					"citedby-count": "7",
					"link": [{"@ref": "self", "@href": "https://api.elsevier.com/content/abstract/scopus_id/2"}]
				}
			]
		}
	}`, authorsBase)
}

const sampleAuthorsBody = `{
	"abstracts-retrieval-response": {
		"affiliation": {"affilname": "University of Western Australia"},
		"authors": {
			"author": [
				{
					"ce:given-name": "Alice",
					"ce:indexed-name": "Smith A.",
					"ce:surname": "Smith",
					"affiliation": [{"affilname": "UWA"}, {"affilname": "UWA"}, {"affilname": "AIMS"}]
				},
				{
					"ce:indexed-name": "Lee B.",
					"ce:surname": "Lee",
					"affiliation": {"affilname": "JCU"}
				}
			]
		}
	}
}`

func TestClient_SearchPapers(t *testing.T) {
	t.Run("sends query, count, sort and api key", func(t *testing.T) {
		var captured *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", "20000")
			w.Header().Set("X-RateLimit-Remaining", "19998")
			w.Header().Set("X-RateLimit-Reset", "1700000000")
			fmt.Fprint(w, sampleSearchBody("https://api.elsevier.com/content"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		result, err := client.SearchPapers(context.Background(), "TITLE-ABS-KEY((shark OR sharks) AND bruv)")
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Equal(t, "/search/scopus", captured.URL.Path)
		assert.Equal(t, "TITLE-ABS-KEY((shark OR sharks) AND bruv)", captured.URL.Query().Get("query"))
		assert.Equal(t, "20", captured.URL.Query().Get("count"))
		assert.Equal(t, "citedby-count", captured.URL.Query().Get("sort"))
		assert.Equal(t, "test-key", captured.URL.Query().Get("apiKey"))
		assert.Equal(t, "application/json", captured.Header.Get("Accept"))
		assert.Equal(t, "TestClient/1.0", captured.Header.Get("User-Agent"))

		assert.Equal(t, 137, result.TotalResults)
		assert.Equal(t, domain.RateLimitInfo{Limit: "20000", Remaining: "19998", Reset: "1700000000"}, result.RateLimit)
		assert.Equal(t, []domain.PaperRecord{
			{
				Title:        "Shark movement ecology",
				CitedByCount: 42,
				AuthorsLink:  "https://api.elsevier.com/content/abstract/scopus_id/1?field=author,affiliation",
			},
			{Title: "BRUV survey design", CitedByCount: 7},
		}, result.Papers)
	})

	t.Run("empty result placeholder yields no papers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"search-results":{"opensearch:totalResults":"0","entry":[{"@_fa":"true","error":"Result set was empty"}]}}`)
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).SearchPapers(context.Background(), "TITLE(nothing)")
		require.NoError(t, err)

		assert.Empty(t, result.Papers)
		assert.Equal(t, 0, result.TotalResults)
	})

	t.Run("missing and malformed citation counts default to zero", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"search-results":{"entry":[{"dc:title":"A"},{"dc:title":"B","citedby-count":"n/a"}]}}`)
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).SearchPapers(context.Background(), "q")
		require.NoError(t, err)

		require.Len(t, result.Papers, 2)
		assert.Equal(t, 0, result.Papers[0].CitedByCount)
		assert.Equal(t, 0, result.Papers[1].CitedByCount)
		assert.Equal(t, domain.RateLimitInfo{}, result.RateLimit)
	})

	t.Run("non-success status is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"service-error":{"status":{"statusCode":"AUTHENTICATION_ERROR"}}}`)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).SearchPapers(context.Background(), "q")
		require.Error(t, err)

		var ue *domain.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, EndpointSearch, ue.Endpoint)
		assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
		assert.Contains(t, ue.Message, "AUTHENTICATION_ERROR")
	})

	t.Run("malformed JSON is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>gateway</html>`)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).SearchPapers(context.Background(), "q")

		assert.True(t, errors.Is(err, domain.ErrUpstream))
	})

	t.Run("too many requests is marked rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).SearchPapers(context.Background(), "q")

		assert.True(t, errors.Is(err, domain.ErrUpstream))
		assert.True(t, errors.Is(err, domain.ErrRateLimited))
	})

	t.Run("records upstream metrics", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "512")
			fmt.Fprint(w, `{"search-results":{"entry":[]}}`)
		}))
		defer server.Close()

		m := observability.NewMetrics("test_scopus_search")
		_, err := newTestClient(server.URL).WithMetrics(m).SearchPapers(context.Background(), "q")
		require.NoError(t, err)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues(EndpointSearch, "200")))
		assert.Equal(t, float64(512), testutil.ToFloat64(m.UpstreamQuotaRemaining))
	})
}

func TestClient_FetchAuthors(t *testing.T) {
	t.Run("parses authors and sends api key on the link", func(t *testing.T) {
		var captured *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r
			fmt.Fprint(w, sampleAuthorsBody)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		authors, err := client.FetchAuthors(context.Background(), server.URL+"/abstract/scopus_id/1?field=author,affiliation")
		require.NoError(t, err)

		require.NotNil(t, captured)
		assert.Equal(t, "/abstract/scopus_id/1", captured.URL.Path)
		assert.Equal(t, "field=author,affiliation&apiKey=test-key", captured.URL.RawQuery)
		assert.Equal(t, "application/json", captured.Header.Get("Accept"))

		assert.Equal(t, []domain.AuthorRecord{
			{GivenName: "Alice", Surname: "Smith", Affiliations: []string{"AIMS", "UWA"}},
			{GivenName: "Lee B.", Surname: "Lee", Affiliations: []string{"JCU"}},
		}, authors)
	})

	t.Run("invalid JSON is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"abstracts-retrieval-response":`)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchAuthors(context.Background(), server.URL+"/abstract/1")

		var ue *domain.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, EndpointAuthorAffiliation, ue.Endpoint)
	})

	t.Run("not found is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).FetchAuthors(context.Background(), server.URL+"/abstract/1")

		var ue *domain.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, http.StatusNotFound, ue.StatusCode)
	})

	t.Run("unreachable upstream is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		link := server.URL + "/abstract/1"
		server.Close()

		_, err := newTestClient(server.URL).FetchAuthors(context.Background(), link)

		var ue *domain.UpstreamError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, 0, ue.StatusCode)
	})
}

func TestClient_DefaultBaseURL(t *testing.T) {
	defer gock.Off()

	gock.New("https://api.elsevier.com").
		Get("/content/search/scopus").
		MatchParam("query", "shark").
		MatchParam("count", "20").
		MatchParam("sort", "citedby-count").
		MatchParam("apiKey", "live-key").
		Reply(http.StatusOK).
		SetHeader("X-RateLimit-Limit", "20000").
		BodyString(`{"search-results":{"entry":[{"dc:title":"T","citedby-count":"3"}]}}`)

	client := New(Config{APIKey: "live-key"})
	result, err := client.SearchPapers(context.Background(), "shark")
	require.NoError(t, err)

	assert.True(t, gock.IsDone())
	assert.Equal(t, []domain.PaperRecord{{Title: "T", CitedByCount: 3}}, result.Papers)
	assert.Equal(t, "20000", result.RateLimit.Limit)
}

func TestClient_Metadata(t *testing.T) {
	assert.Equal(t, "Scopus", New(Config{}).Name())
	assert.False(t, New(Config{}).HasAPIKey())
	assert.True(t, New(Config{APIKey: "k"}).HasAPIKey())
}
