package insights

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/scholar-rank-service/internal/domain"
	"github.com/helixir/scholar-rank-service/internal/observability"
)

// AuthorFetcher resolves a paper's author-affiliation link.
type AuthorFetcher interface {
	FetchAuthors(ctx context.Context, link string) ([]domain.AuthorRecord, error)
}

// Enricher attaches author records to papers.
type Enricher struct {
	fetcher AuthorFetcher
	workers int
	logger  zerolog.Logger
}

// NewEnricher creates an Enricher that runs at most workers lookups at a time.
// A value below 1 is treated as 1, which resolves papers strictly one after another.
func NewEnricher(fetcher AuthorFetcher, workers int, logger zerolog.Logger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{
		fetcher: fetcher,
		workers: workers,
		logger:  logger,
	}
}

// Enrich resolves the authors of every paper. Papers without an author link get
// an empty author list. The output has the same order as the input regardless
// of the number of workers. The first failed lookup fails the whole call and
// cancels lookups still in flight.
func (e *Enricher) Enrich(ctx context.Context, papers []domain.PaperRecord) ([]domain.EnrichedPaper, error) {
	enriched := make([]domain.EnrichedPaper, len(papers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, paper := range papers {
		enriched[i] = domain.EnrichedPaper{PaperRecord: paper, Authors: []domain.AuthorRecord{}}
		if !paper.HasAuthorsLink() {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := observability.WithPaperContext(observability.ComponentLogger(gctx, e.logger, "enricher"), paper.Title, paper.AuthorsLink)

			authors, err := e.fetcher.FetchAuthors(gctx, paper.AuthorsLink)
			if err != nil {
				log.Error().Err(err).Msg("author lookup failed")
				return fmt.Errorf("fetching authors of %q: %w", paper.Title, err)
			}

			log.Debug().Int("authors", len(authors)).Msg("paper enriched")
			if authors != nil {
				enriched[i].Authors = authors
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return enriched, nil
}
