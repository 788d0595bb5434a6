// Package insights turns upstream search results into paper listings, author
// enriched paper listings and citation-based author rankings.
package insights

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/scholar-rank-service/internal/domain"
	"github.com/helixir/scholar-rank-service/internal/observability"
	"github.com/helixir/scholar-rank-service/internal/papersources"
)

// Service orchestrates search, enrichment and ranking for a single query.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	source   papersources.PaperSource
	enricher *Enricher
	metrics  *observability.Metrics
	logger   zerolog.Logger // untagged; see ComponentLogger
}

// NewService creates a Service. metrics may be nil.
func NewService(source papersources.PaperSource, workers int, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		source:   source,
		enricher: NewEnricher(source, workers, logger),
		metrics:  metrics,
		logger:   logger,
	}
}

// Papers runs the query and returns the papers with the upstream quota values.
func (s *Service) Papers(ctx context.Context, query string) (*papersources.SearchResult, error) {
	log := observability.WithSearchContext(s.log(ctx), query, s.source.Name())

	result, err := s.source.SearchPapers(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("paper search failed")
		return nil, fmt.Errorf("searching papers: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPapersFetched(len(result.Papers))
	}
	log.Info().
		Int("papers", len(result.Papers)).
		Int("total_results", result.TotalResults).
		Dur("duration", result.SearchDuration).
		Msg("paper search completed")

	return result, nil
}

// PapersWithAuthors runs the query and resolves the authors of every paper.
func (s *Service) PapersWithAuthors(ctx context.Context, query string) ([]domain.EnrichedPaper, domain.RateLimitInfo, error) {
	result, err := s.Papers(ctx, query)
	if err != nil {
		return nil, domain.RateLimitInfo{}, err
	}

	enriched, err := s.enricher.Enrich(ctx, result.Papers)
	if err != nil {
		return nil, domain.RateLimitInfo{}, fmt.Errorf("enriching papers: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordPapersEnriched(len(enriched))
	}

	return enriched, result.RateLimit, nil
}

// TopAuthors runs the query, resolves authors and ranks them by summed citations.
func (s *Service) TopAuthors(ctx context.Context, query string) ([]domain.AggregatedAuthor, domain.RateLimitInfo, error) {
	enriched, rateLimit, err := s.PapersWithAuthors(ctx, query)
	if err != nil {
		return nil, domain.RateLimitInfo{}, err
	}

	ranked := RankAuthors(enriched)

	if s.metrics != nil {
		s.metrics.RecordAuthorsRanked(len(ranked))
	}
	log := s.log(ctx)
	log.Debug().
		Int("papers", len(enriched)).
		Int("authors", len(ranked)).
		Msg("authors ranked")

	return ranked, rateLimit, nil
}

func (s *Service) log(ctx context.Context) zerolog.Logger {
	return observability.ComponentLogger(ctx, s.logger, "insights")
}
