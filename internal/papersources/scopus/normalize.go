package scopus

import (
	"cmp"

	"github.com/hashicorp/go-set/v2"
	"github.com/tidwall/gjson"

	"github.com/helixir/scholar-rank-service/internal/domain"
)

// Sequence turns a field that Scopus returns either as a single object or as a
// list of objects into a list. Absent and null values yield an empty list.
func Sequence(v gjson.Result) []gjson.Result {
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if v.IsArray() {
		return v.Array()
	}
	return []gjson.Result{v}
}

// AffiliationNames returns the distinct affilname values of an author entry in
// sorted order. Affiliations without a name are skipped.
func AffiliationNames(author gjson.Result) []string {
	names := set.NewTreeSet[string](cmp.Compare[string])
	for _, aff := range Sequence(author.Get(fieldAffiliation)) {
		name := aff.Get(fieldAffilName)
		if name.Type != gjson.String {
			continue
		}
		names.Insert(name.String())
	}

	out := names.Slice()
	if out == nil {
		out = []string{}
	}
	return out
}

// authorRecord builds an AuthorRecord from one author entry. The given name
// falls back to the indexed name; missing parts default to "".
func authorRecord(author gjson.Result) domain.AuthorRecord {
	given := author.Get(fieldGivenName)
	if given.Type == gjson.Null || !given.Exists() {
		given = author.Get(fieldIndexedName)
	}

	return domain.AuthorRecord{
		GivenName:    given.String(),
		Surname:      author.Get(fieldSurname).String(),
		Affiliations: AffiliationNames(author),
	}
}

// parseAuthors extracts every author of an author-affiliation document.
func parseAuthors(doc gjson.Result) []domain.AuthorRecord {
	entries := Sequence(doc.Get(pathAuthors))
	authors := make([]domain.AuthorRecord, 0, len(entries))
	for _, a := range entries {
		authors = append(authors, authorRecord(a))
	}
	return authors
}
