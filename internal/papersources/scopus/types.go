package scopus

// SearchResponse represents the top-level Scopus search API response.
type SearchResponse struct {
	SearchResults SearchResults `json:"search-results"`
}

// SearchResults contains the search result metadata and entries.
type SearchResults struct {
	TotalResults string  `json:"opensearch:totalResults"`
	StartIndex   string  `json:"opensearch:startIndex"`
	ItemsPerPage string  `json:"opensearch:itemsPerPage"`
	Entries      []Entry `json:"entry"`
}

// Entry represents a single document in the Scopus search results.
type Entry struct {
	Identifier   string `json:"dc:identifier"` // "SCOPUS_ID:85012345678"
	EID          string `json:"eid"`
	Title        string `json:"dc:title"`
	CitedByCount string `json:"citedby-count"`
	Links        []Link `json:"link"`
	// Error is set on the placeholder entry Scopus returns for an empty result set.
	Error string `json:"error"`
}

// Link is one typed link of a search entry.
type Link struct {
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}

// AuthorAffiliationLink returns the href of the "author-affiliation" link, or "" when absent.
func (e *Entry) AuthorAffiliationLink() string {
	for _, l := range e.Links {
		if l.Ref == linkRefAuthorAffiliation {
			return l.Href
		}
	}
	return ""
}

// Author detail document paths (abstract retrieval, author-affiliation view).
const (
	pathAuthors      = "abstracts-retrieval-response.authors.author"
	fieldGivenName   = "ce:given-name"
	fieldIndexedName = "ce:indexed-name"
	fieldSurname     = "ce:surname"
	fieldAffiliation = "affiliation"
	fieldAffilName   = "affilname"
)
