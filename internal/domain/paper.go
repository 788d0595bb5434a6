// Package domain provides the request-scoped models and error types shared by the
// search, enrichment and ranking layers of the scholar rank service.
package domain

import (
	"strings"
)

// PaperRecord is one entry of an upstream search result.
type PaperRecord struct {
	Title        string `json:"title"`
	CitedByCount int    `json:"citedby_count"`
	// AuthorsLink is the author-affiliation link of the entry, empty when the
	// upstream did not provide one.
	AuthorsLink string `json:"authors_link,omitempty"`
}

// HasAuthorsLink reports whether the paper can be enriched with author details.
func (p PaperRecord) HasAuthorsLink() bool {
	return p.AuthorsLink != ""
}

// AuthorRecord is a single author entry of a paper's author list.
type AuthorRecord struct {
	GivenName    string   `json:"given_name"`
	Surname      string   `json:"surname"`
	Affiliations []string `json:"affiliations"`
}

// Name returns the "given surname" key used to aggregate authors across papers.
func (a AuthorRecord) Name() string {
	return a.GivenName + " " + a.Surname
}

// String formats the author as "given surname (aff1, aff2)".
func (a AuthorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name())
	sb.WriteString(" (")
	sb.WriteString(strings.Join(a.Affiliations, ", "))
	sb.WriteString(")")
	return sb.String()
}

// EnrichedPaper is a PaperRecord together with the authors resolved from its link.
type EnrichedPaper struct {
	PaperRecord
	Authors []AuthorRecord `json:"authors"`
}

// AggregatedAuthor is the per-name rollup of citations across one result set.
type AggregatedAuthor struct {
	Name              string   `json:"name"`
	TotalCitedByCount int      `json:"citedby_count"`
	Affiliations      []string `json:"affiliations"`
	Papers            []string `json:"papers"`
}

// RateLimitInfo carries the quota values reported by the upstream API.
// Values are copied verbatim from the response headers and are empty when absent.
type RateLimitInfo struct {
	Limit     string `json:"X-RateLimit-Limit"`
	Remaining string `json:"X-RateLimit-Remaining"`
	Reset     string `json:"X-RateLimit-Reset"`
}
