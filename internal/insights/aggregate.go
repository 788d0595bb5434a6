package insights

import (
	"sort"

	"github.com/helixir/scholar-rank-service/internal/domain"
)

// RankAuthors rolls enriched papers up into one entry per "given surname" name
// and orders the result by total citations, highest first. Ties keep the order
// in which the authors were first encountered.
//
// The first occurrence of an author fixes its affiliations. An author listed
// twice on the same paper is credited once per listing.
func RankAuthors(papers []domain.EnrichedPaper) []domain.AggregatedAuthor {
	index := make(map[string]int)
	ranked := make([]domain.AggregatedAuthor, 0)

	for _, paper := range papers {
		for _, author := range paper.Authors {
			name := author.Name()

			i, ok := index[name]
			if !ok {
				i = len(ranked)
				index[name] = i
				ranked = append(ranked, domain.AggregatedAuthor{
					Name:         name,
					Affiliations: author.Affiliations,
					Papers:       []string{},
				})
			}

			ranked[i].TotalCitedByCount += paper.CitedByCount
			ranked[i].Papers = append(ranked[i].Papers, paper.Title)
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].TotalCitedByCount > ranked[b].TotalCitedByCount
	})

	return ranked
}
