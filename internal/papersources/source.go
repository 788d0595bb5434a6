// Package papersources provides the transport shared by upstream bibliographic
// API clients and the interface the ranking service consumes.
//
// Example usage:
//
//	source := scopus.New(scopus.Config{APIKey: key})
//	result, err := source.SearchPapers(ctx, "TITLE-ABS-KEY(shark AND bruv)")
//	authors, err := source.FetchAuthors(ctx, result.Papers[0].AuthorsLink)
package papersources

import (
	"context"
	"time"

	"github.com/helixir/scholar-rank-service/internal/domain"
)

// SearchResult contains the results from a paper search.
type SearchResult struct {
	// Papers contains the papers in upstream order. May be empty.
	Papers []domain.PaperRecord

	// TotalResults is the upstream estimate of all matching papers,
	// regardless of the fixed result count.
	TotalResults int

	// RateLimit holds the quota values reported with the search response.
	RateLimit domain.RateLimitInfo

	// SearchDuration is the time taken to execute the search.
	SearchDuration time.Duration
}

// PaperSource is implemented by upstream clients that can search for papers
// and resolve a paper's author-affiliation link.
type PaperSource interface {
	// SearchPapers runs the query verbatim against the upstream search endpoint.
	// Upstream failures are returned as *domain.UpstreamError.
	SearchPapers(ctx context.Context, query string) (*SearchResult, error)

	// FetchAuthors resolves an author-affiliation link into author records.
	// Upstream failures are returned as *domain.UpstreamError.
	FetchAuthors(ctx context.Context, link string) ([]domain.AuthorRecord, error)

	// Name returns a human-readable name used in logs and metrics.
	Name() string
}
