// Package export renders paper and author results as CSV spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/helixir/scholar-rank-service/internal/domain"
)

// Shape names a CSV layout.
type Shape string

const (
	ShapePapers        Shape = "papers"
	ShapePapersAuthors Shape = "papers_authors"
	ShapeAuthors       Shape = "authors"
)

const (
	authorSeparator      = "; "
	affiliationSeparator = ", "
	paperSeparator       = "; "
)

var (
	papersHeader        = []string{"Title", "Citations"}
	papersAuthorsHeader = []string{"Title", "Citations", "Authors"}
	authorsHeader       = []string{"Author", "Total Citations", "Affiliations", "Papers"}
)

// WritePapers writes one "Title,Citations" row per paper.
func WritePapers(w io.Writer, papers []domain.PaperRecord) error {
	rows := make([][]string, 0, len(papers))
	for _, p := range papers {
		rows = append(rows, []string{p.Title, strconv.Itoa(p.CitedByCount)})
	}
	return write(w, ShapePapers, papersHeader, rows)
}

// WritePapersAuthors writes one row per paper with its authors rendered as
// "given surname (aff1, aff2)" and joined by "; ".
func WritePapersAuthors(w io.Writer, papers []domain.EnrichedPaper) error {
	rows := make([][]string, 0, len(papers))
	for _, p := range papers {
		authors := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			authors = append(authors, a.String())
		}
		rows = append(rows, []string{
			p.Title,
			strconv.Itoa(p.CitedByCount),
			strings.Join(authors, authorSeparator),
		})
	}
	return write(w, ShapePapersAuthors, papersAuthorsHeader, rows)
}

// WriteAuthors writes one row per ranked author.
func WriteAuthors(w io.Writer, authors []domain.AggregatedAuthor) error {
	rows := make([][]string, 0, len(authors))
	for _, a := range authors {
		rows = append(rows, []string{
			a.Name,
			strconv.Itoa(a.TotalCitedByCount),
			strings.Join(a.Affiliations, affiliationSeparator),
			strings.Join(a.Papers, paperSeparator),
		})
	}
	return write(w, ShapeAuthors, authorsHeader, rows)
}

func write(w io.Writer, shape Shape, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing %s header: %w", shape, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s rows: %w", shape, err)
	}
	return nil
}
