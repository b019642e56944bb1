// Package search derives the category-scoped, query-filtered view of the catalogue.
package search

import (
	"strings"

	"normas/internal/model"
)

// Filter returns, in input order, the documents of category c that match query.
// An empty query matches every document of the category; any other query,
// whitespace included, is a literal term. Matching is a
// case-insensitive substring test against title, description and id.
func Filter(docs []model.Document, c model.Category, query string) []model.Document {
	term := strings.ToLower(query)
	out := make([]model.Document, 0)
	for _, d := range docs {
		if d.Category != c {
			continue
		}
		if term == "" || Matches(d, term) {
			out = append(out, d)
		}
	}
	return out
}

// Matches reports whether the lowercased term occurs in the document's searchable fields.
func Matches(d model.Document, term string) bool {
	return strings.Contains(strings.ToLower(d.Title), term) ||
		strings.Contains(strings.ToLower(d.Description), term) ||
		strings.Contains(strings.ToLower(d.ID), term)
}

// CountByCategory tallies documents per category. Every category is present in the result.
func CountByCategory(docs []model.Document) map[model.Category]int {
	counts := make(map[model.Category]int, len(model.Categories()))
	for _, c := range model.Categories() {
		counts[c] = 0
	}
	for _, d := range docs {
		if d.Category.Valid() {
			counts[d.Category]++
		}
	}
	return counts
}
