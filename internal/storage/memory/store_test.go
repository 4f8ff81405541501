package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ryanbastic/go-contentstore/internal/storage"
)

func TestStore_InsertFindUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.InsertRow(ctx, "content", storage.Row{"elementId": int64(10), "siteId": int64(1), "field_color": "red"})
	if err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if id != 1 {
		t.Errorf("id: got %d, want 1", id)
	}

	row, err := s.FindRow(ctx, "content", 10, 1)
	if err != nil {
		t.Fatalf("FindRow: %v", err)
	}
	if row["field_color"] != "red" {
		t.Errorf("field_color: got %v", row["field_color"])
	}
	if got, _ := row.Int64("id"); got != id {
		t.Errorf("id column: got %d", got)
	}

	// Mutating the returned row must not leak into the store.
	row["field_color"] = "green"

	if err := s.UpdateRow(ctx, "content", id, storage.Row{"field_color": "blue"}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}
	row, err = s.FindRow(ctx, "content", 10, 1)
	if err != nil {
		t.Fatalf("FindRow after update: %v", err)
	}
	if row["field_color"] != "blue" {
		t.Errorf("field_color after update: got %v", row["field_color"])
	}
	if s.Len("content") != 1 {
		t.Errorf("Len: got %d, want 1", s.Len("content"))
	}
}

func TestStore_NotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.FindRow(ctx, "content", 1, 1); !errors.Is(err, storage.ErrRowNotFound) {
		t.Errorf("FindRow on missing table: got %v", err)
	}
	if err := s.UpdateRow(ctx, "content", 1, storage.Row{}); !errors.Is(err, storage.ErrRowNotFound) {
		t.Errorf("UpdateRow on missing table: got %v", err)
	}

	if err := s.EnsureContentTable(ctx, "content", nil); err != nil {
		t.Fatalf("EnsureContentTable: %v", err)
	}
	if err := s.UpdateRow(ctx, "content", 99, storage.Row{}); !errors.Is(err, storage.ErrRowNotFound) {
		t.Errorf("UpdateRow on missing id: got %v", err)
	}
}

func TestStore_DuplicateElementSite(t *testing.T) {
	s := New()
	ctx := context.Background()

	values := storage.Row{"elementId": int64(1), "siteId": int64(1)}
	if _, err := s.InsertRow(ctx, "content", values); err != nil {
		t.Fatalf("first InsertRow: %v", err)
	}
	if _, err := s.InsertRow(ctx, "content", values); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := s.InsertRow(ctx, "other", values); err != nil {
		t.Errorf("same element in another table: %v", err)
	}
}
