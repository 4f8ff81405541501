// Package search keeps per-field search keywords in sync with saved content.
package search

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// Indexer stores the search keywords of an element's fields for one site.
// keywords maps field ids to their keywords; a call replaces any keywords
// previously stored for the same (element, site, field).
type Indexer interface {
	IndexElementFields(ctx context.Context, elementID, siteID int64, keywords map[int64]string) error
}

// Query is a keyword search, optionally restricted to one site.
type Query struct {
	Text   string
	SiteID int64
	Limit  int
}

// DefaultLimit applies when Query.Limit is not positive.
const DefaultLimit = 20

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Hit is one matching field.
type Hit struct {
	ElementID int64   `json:"element_id"`
	SiteID    int64   `json:"site_id"`
	FieldID   int64   `json:"field_id"`
	Score     float64 `json:"score"`
}

// Searcher is implemented by indexers that can answer keyword queries.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// NormalizeKeywords lower-cases s, replaces punctuation with spaces and
// collapses runs of whitespace.
func NormalizeKeywords(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " ")
}

// NopIndexer discards keywords.
type NopIndexer struct{}

func (NopIndexer) IndexElementFields(context.Context, int64, int64, map[int64]string) error {
	return nil
}

// ErrSearchUnsupported is returned when the configured backend cannot
// answer queries.
var ErrSearchUnsupported = errors.New("search backend does not support queries")
