// Package content reads and writes element field values in per-context
// content tables and keeps the search index in step with every save.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ryanbastic/go-contentstore/internal/element"
	"github.com/ryanbastic/go-contentstore/internal/event"
	"github.com/ryanbastic/go-contentstore/internal/metrics"
	"github.com/ryanbastic/go-contentstore/internal/search"
	"github.com/ryanbastic/go-contentstore/internal/storage"
)

var (
	// ErrContentNotFound is returned when an element has no content row.
	ErrContentNotFound = errors.New("content not found")
	// ErrUnsavedElement is returned when saving content for an element without an id.
	ErrUnsavedElement = errors.New("cannot save the content of an unsaved element")
)

// Service is safe for concurrent use. Coordinates are resolved per call from
// the element and never stored on the service.
type Service struct {
	rows     storage.RowStore
	indexer  search.Indexer
	bus      *event.Bus
	defaults element.Coordinates
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithDefaults overrides the coordinates reported by Defaults.
func WithDefaults(c element.Coordinates) Option {
	return func(s *Service) { s.defaults = c }
}

// WithBus attaches an existing event bus instead of a fresh one.
func WithBus(b *event.Bus) Option {
	return func(s *Service) { s.bus = b }
}

// New returns a Service over rows. A nil indexer disables search updates.
func New(rows storage.RowStore, indexer search.Indexer, opts ...Option) *Service {
	s := &Service{
		rows:     rows,
		indexer:  indexer,
		defaults: element.DefaultCoordinates(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = event.NewBus()
	}
	if s.indexer == nil {
		s.indexer = search.NopIndexer{}
	}
	return s
}

// Defaults returns the service's default content coordinates. No operation
// changes them.
func (s *Service) Defaults() element.Coordinates {
	return s.defaults
}

// Events returns the bus that save notifications are dispatched on.
func (s *Service) Events() *event.Bus {
	return s.bus
}

// GetContentRow returns el's content row with the field column prefix
// stripped from column names. Elements without an id or site have no row
// and are answered without touching the store.
func (s *Service) GetContentRow(ctx context.Context, el *element.Element) (row storage.Row, err error) {
	start := time.Now()
	defer func() { metrics.ObserveContentOp("get", outcome(err), start) }()

	if el.ID == 0 || el.SiteID == 0 {
		return nil, ErrContentNotFound
	}
	return s.contentRow(ctx, el, el.Coordinates())
}

func (s *Service) contentRow(ctx context.Context, el *element.Element, coords element.Coordinates) (storage.Row, error) {
	row, err := s.rows.FindRow(ctx, coords.Table, el.ID, el.SiteID)
	if errors.Is(err, storage.ErrRowNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find content for element %d site %d in %s: %w", el.ID, el.SiteID, coords.Table, err)
	}
	return storage.StripPrefix(row, coords.ColumnPrefix), nil
}

// PopulateElementContent loads el's content row onto el. A missing row
// leaves el untouched.
func (s *Service) PopulateElementContent(ctx context.Context, el *element.Element) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveContentOp("populate", outcome(err), start) }()

	if !el.HasContent() {
		return nil
	}
	if el.ID == 0 || el.SiteID == 0 {
		return nil
	}

	row, err := s.contentRow(ctx, el, el.Coordinates())
	if errors.Is(err, ErrContentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if id, ok := row.Int64(storage.ColumnID); ok {
		el.ContentID = id
	}
	if el.HasTitles() {
		if title, ok := row[storage.ColumnTitle].(string); ok {
			el.Title = title
		}
	}

	for _, f := range el.FieldLayout().ColumnFields() {
		raw, ok := row[f.Handle()]
		if !ok || raw == nil {
			el.SetFieldValue(f.Handle(), nil)
			continue
		}
		v, err := f.NormalizeValue(raw, el)
		if err != nil {
			return fmt.Errorf("load field %q for element %d site %d: %w", f.Handle(), el.ID, el.SiteID, err)
		}
		el.SetFieldValue(f.Handle(), v)
	}
	return nil
}

// SaveContent writes el's title and column field values, inserting a row on
// first save and updating it by ContentID afterwards, then refreshes the
// search keywords of every field in el's layout.
//
// The row write and the index write are not atomic: when indexing fails the
// row stays written, el.ContentID is set and the error is returned without
// dispatching AfterSaveContent.
func (s *Service) SaveContent(ctx context.Context, el *element.Element) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveContentOp("save", outcome(err), start) }()

	if el.ID == 0 {
		return ErrUnsavedElement
	}

	coords := el.Coordinates()
	s.bus.BeforeSaveContent.Dispatch(ctx, &event.ElementContentEvent{Element: el, Coordinates: coords})

	values, err := contentValues(el, coords)
	if err != nil {
		return err
	}

	if el.ContentID != 0 {
		if err := s.rows.UpdateRow(ctx, coords.Table, el.ContentID, values); err != nil {
			return fmt.Errorf("update content %d for element %d site %d: %w", el.ContentID, el.ID, el.SiteID, err)
		}
	} else {
		id, err := s.rows.InsertRow(ctx, coords.Table, values)
		if err != nil {
			return fmt.Errorf("insert content for element %d site %d: %w", el.ID, el.SiteID, err)
		}
		el.ContentID = id
	}

	if layout := el.FieldLayout(); layout != nil {
		if err := s.updateSearchIndex(ctx, el); err != nil {
			s.logger.Warn("content saved but search index is stale",
				"element_id", el.ID, "site_id", el.SiteID, "content_id", el.ContentID, "error", err)
			return err
		}
	}

	s.bus.AfterSaveContent.Dispatch(ctx, &event.ElementContentEvent{Element: el, Coordinates: coords})

	s.logger.Debug("content saved",
		"element_id", el.ID, "site_id", el.SiteID, "content_id", el.ContentID, "table", coords.Table)
	return nil
}

func contentValues(el *element.Element, coords element.Coordinates) (storage.Row, error) {
	values := storage.Row{
		storage.ColumnElementID: el.ID,
		storage.ColumnSiteID:    el.SiteID,
	}
	if el.HasTitles() && el.Title != "" {
		values[storage.ColumnTitle] = el.Title
	}
	for _, f := range el.FieldLayout().ColumnFields() {
		v, err := f.SerializeValue(el.FieldValue(f.Handle()), el)
		if err != nil {
			return nil, fmt.Errorf("serialize field %q for element %d site %d: %w", f.Handle(), el.ID, el.SiteID, err)
		}
		values[coords.ColumnPrefix+f.Handle()] = v
	}
	return values, nil
}

func (s *Service) updateSearchIndex(ctx context.Context, el *element.Element) error {
	fields := el.FieldLayout().Fields()
	keywords := make(map[int64]string, len(fields))
	for _, f := range fields {
		keywords[f.ID()] = f.SearchKeywords(el.FieldValue(f.Handle()), el)
	}
	if err := s.indexer.IndexElementFields(ctx, el.ID, el.SiteID, keywords); err != nil {
		return fmt.Errorf("index fields for element %d site %d: %w", el.ID, el.SiteID, err)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrContentNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}
