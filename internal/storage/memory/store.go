// Package memory provides an in-process content row store.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/ryanbastic/go-contentstore/internal/storage"
)

type table struct {
	nextID int64
	rows   map[int64]storage.Row
}

// Store is a thread-safe, map-backed storage.RowStore.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

func (s *Store) tableFor(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[int64]storage.Row)}
		s.tables[name] = t
	}
	return t
}

func (s *Store) FindRow(_ context.Context, tableName string, elementID, siteID int64) (storage.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil, storage.ErrRowNotFound
	}
	for _, row := range t.rows {
		if matches(row, elementID, siteID) {
			return maps.Clone(row), nil
		}
	}
	return nil, storage.ErrRowNotFound
}

func (s *Store) InsertRow(_ context.Context, tableName string, values storage.Row) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tableFor(tableName)
	elementID, _ := values.Int64(storage.ColumnElementID)
	siteID, _ := values.Int64(storage.ColumnSiteID)
	for _, row := range t.rows {
		if matches(row, elementID, siteID) {
			return 0, fmt.Errorf("insert row into %s: duplicate content for element %d site %d", tableName, elementID, siteID)
		}
	}

	t.nextID++
	now := time.Now().UTC()
	row := maps.Clone(values)
	if row == nil {
		row = storage.Row{}
	}
	row[storage.ColumnID] = t.nextID
	row[storage.ColumnDateCreated] = now
	row[storage.ColumnDateUpdated] = now
	t.rows[t.nextID] = row
	return t.nextID, nil
}

func (s *Store) UpdateRow(_ context.Context, tableName string, id int64, values storage.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return fmt.Errorf("update row %d in %s: %w", id, tableName, storage.ErrRowNotFound)
	}
	row, ok := t.rows[id]
	if !ok {
		return fmt.Errorf("update row %d in %s: %w", id, tableName, storage.ErrRowNotFound)
	}
	maps.Copy(row, values)
	row[storage.ColumnDateUpdated] = time.Now().UTC()
	return nil
}

// EnsureContentTable creates the table; columns are implicit in memory.
func (s *Store) EnsureContentTable(_ context.Context, tableName string, _ []storage.Column) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableFor(tableName)
	return nil
}

// Len returns the number of rows stored in tableName.
func (s *Store) Len(tableName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[tableName]; ok {
		return len(t.rows)
	}
	return 0
}

func (s *Store) Ping(context.Context) error { return nil }

func matches(row storage.Row, elementID, siteID int64) bool {
	e, _ := row.Int64(storage.ColumnElementID)
	si, _ := row.Int64(storage.ColumnSiteID)
	return e == elementID && si == siteID
}
