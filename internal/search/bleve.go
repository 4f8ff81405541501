package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/ryanbastic/go-contentstore/internal/metrics"
)

// Document field names in the bleve index.
const (
	FieldElementID = "element_id"
	FieldSiteID    = "site_id"
	FieldFieldID   = "field_id"
	FieldKeywords  = "keywords"
)

// BleveIndexer keeps one bleve document per (element, site, field).
type BleveIndexer struct {
	index bleve.Index
}

// NewIndexMapping returns the mapping used for keyword documents.
func NewIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	keywords := bleve.NewTextFieldMapping()
	keywords.Analyzer = standard.Name
	doc.AddFieldMappingsAt(FieldKeywords, keywords)

	for _, name := range []string{FieldElementID, FieldSiteID, FieldFieldID} {
		id := bleve.NewTextFieldMapping()
		id.Analyzer = keyword.Name
		id.Store = true
		doc.AddFieldMappingsAt(name, id)
	}

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name
	return m
}

// OpenBleve opens the index at path, creating it when it does not exist.
// An empty path creates an in-memory index.
func OpenBleve(path string) (*BleveIndexer, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &BleveIndexer{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &BleveIndexer{index: idx}, nil
}

// NewBleveIndexer wraps an already opened index.
func NewBleveIndexer(idx bleve.Index) *BleveIndexer {
	return &BleveIndexer{index: idx}
}

func (b *BleveIndexer) Close() error {
	return b.index.Close()
}

func docID(elementID, siteID, fieldID int64) string {
	return fmt.Sprintf("%d:%d:%d", elementID, siteID, fieldID)
}

func parseDocID(id string) (elementID, siteID, fieldID int64, err error) {
	parts := strings.Split(id, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed document id %q", id)
	}
	var ids [3]int64
	for i, p := range parts {
		if ids[i], err = strconv.ParseInt(p, 10, 64); err != nil {
			return 0, 0, 0, fmt.Errorf("malformed document id %q: %w", id, err)
		}
	}
	return ids[0], ids[1], ids[2], nil
}

func (b *BleveIndexer) IndexElementFields(ctx context.Context, elementID, siteID int64, keywords map[int64]string) (err error) {
	defer func() { metrics.ObserveIndexWrite("bleve", len(keywords), err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	batch := b.index.NewBatch()
	for fieldID, kw := range keywords {
		doc := map[string]any{
			FieldElementID: strconv.FormatInt(elementID, 10),
			FieldSiteID:    strconv.FormatInt(siteID, 10),
			FieldFieldID:   strconv.FormatInt(fieldID, 10),
			FieldKeywords:  NormalizeKeywords(kw),
		}
		if err := batch.Index(docID(elementID, siteID, fieldID), doc); err != nil {
			return fmt.Errorf("index field %d: %w", fieldID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("write index batch: %w", err)
	}
	return nil
}

func (b *BleveIndexer) Search(ctx context.Context, q Query) ([]Hit, error) {
	text := NormalizeKeywords(q.Text)
	if text == "" {
		return nil, nil
	}

	match := bleve.NewMatchQuery(text)
	match.SetField(FieldKeywords)

	var sq query.Query = match
	if q.SiteID != 0 {
		site := bleve.NewTermQuery(strconv.FormatInt(q.SiteID, 10))
		site.SetField(FieldSiteID)
		sq = bleve.NewConjunctionQuery(match, site)
	}

	req := bleve.NewSearchRequest(sq)
	req.Size = q.limit()

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		elementID, siteID, fieldID, err := parseDocID(h.ID)
		if err != nil {
			return nil, err
		}
		hits = append(hits, Hit{ElementID: elementID, SiteID: siteID, FieldID: fieldID, Score: h.Score})
	}
	return hits, nil
}
