package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ryanbastic/go-contentstore/internal/field"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16",
		postgres.WithDatabase("contentstore"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres container unavailable, skipping integration tests: %v\n", err)
		os.Exit(m.Run())
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(fmt.Sprintf("get connection string: %v", err))
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("create pool: %v", err))
	}

	code := m.Run()

	testPool.Close()
	_ = testcontainers.TerminateContainer(ctr)

	os.Exit(code)
}

var tableCounter int

// freshTable creates a uniquely named content table with color/count/featured/postDate columns.
func freshTable(t *testing.T) (*PostgresStore, string) {
	t.Helper()
	if testPool == nil {
		t.Skip("postgres not available")
	}
	tableCounter++
	table := fmt.Sprintf("content_%04d", tableCounter)

	store := NewPostgresStore(testPool, 5*time.Second)
	layout := field.MustLayout(
		field.NewPlainText(1, "color"),
		field.NewNumber(2, "count", 0),
		field.NewLightswitch(3, "featured"),
		field.NewDate(4, "postDate"),
		field.NewTags(5, "tags"),
	)
	if err := store.EnsureContentTable(context.Background(), table, FieldColumns("field_", layout)); err != nil {
		t.Fatalf("EnsureContentTable %s: %v", table, err)
	}
	return store, table
}

func TestPostgres_InsertAndFind(t *testing.T) {
	store, table := freshTable(t)
	ctx := context.Background()
	postDate := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	id, err := store.InsertRow(ctx, table, Row{
		"elementId":      int64(10),
		"siteId":         int64(1),
		"title":          "Hello",
		"field_color":    "red",
		"field_count":    int64(3),
		"field_featured": true,
		"field_postDate": postDate,
	})
	if err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	row, err := store.FindRow(ctx, table, 10, 1)
	if err != nil {
		t.Fatalf("FindRow: %v", err)
	}
	if got, _ := row.Int64("id"); got != id {
		t.Errorf("id: got %d, want %d", got, id)
	}
	if row["field_color"] != "red" {
		t.Errorf("field_color: got %v", row["field_color"])
	}
	if got, _ := row.Int64("field_count"); got != 3 {
		t.Errorf("field_count: got %v", row["field_count"])
	}
	if row["field_featured"] != true {
		t.Errorf("field_featured: got %v", row["field_featured"])
	}
	if ts, ok := row["field_postDate"].(time.Time); !ok || !ts.Equal(postDate) {
		t.Errorf("field_postDate: got %v", row["field_postDate"])
	}
	if _, ok := row["field_tags"]; ok {
		t.Error("tags field should not have a column")
	}
}

func TestPostgres_FindRow_NotFound(t *testing.T) {
	store, table := freshTable(t)

	_, err := store.FindRow(context.Background(), table, 999, 1)
	if !errors.Is(err, ErrRowNotFound) {
		t.Errorf("expected ErrRowNotFound, got %v", err)
	}
}

func TestPostgres_UpdateRow(t *testing.T) {
	store, table := freshTable(t)
	ctx := context.Background()

	id, err := store.InsertRow(ctx, table, Row{"elementId": int64(1), "siteId": int64(1), "field_color": "red"})
	if err != nil {
		t.Fatalf("InsertRow: %v", err)
	}

	if err := store.UpdateRow(ctx, table, id, Row{"elementId": int64(1), "siteId": int64(1), "field_color": "blue"}); err != nil {
		t.Fatalf("UpdateRow: %v", err)
	}

	row, err := store.FindRow(ctx, table, 1, 1)
	if err != nil {
		t.Fatalf("FindRow: %v", err)
	}
	if row["field_color"] != "blue" {
		t.Errorf("field_color: got %v, want blue", row["field_color"])
	}
}

func TestPostgres_UpdateRow_Missing(t *testing.T) {
	store, table := freshTable(t)

	err := store.UpdateRow(context.Background(), table, 12345, Row{"field_color": "x"})
	if !errors.Is(err, ErrRowNotFound) {
		t.Errorf("expected ErrRowNotFound, got %v", err)
	}
}

func TestPostgres_UniqueElementSite(t *testing.T) {
	store, table := freshTable(t)
	ctx := context.Background()

	values := Row{"elementId": int64(7), "siteId": int64(1)}
	if _, err := store.InsertRow(ctx, table, values); err != nil {
		t.Fatalf("first InsertRow: %v", err)
	}
	if _, err := store.InsertRow(ctx, table, values); err == nil {
		t.Fatal("expected unique violation on duplicate (elementId, siteId)")
	}
}

func TestPostgres_EnsureContentTable_AddsColumns(t *testing.T) {
	store, table := freshTable(t)
	ctx := context.Background()

	extra := []Column{{Name: "field_summary", Kind: field.KindText}}
	if err := store.EnsureContentTable(ctx, table, extra); err != nil {
		t.Fatalf("EnsureContentTable: %v", err)
	}
	// Running it again must be a no-op.
	if err := store.EnsureContentTable(ctx, table, extra); err != nil {
		t.Fatalf("EnsureContentTable again: %v", err)
	}

	if _, err := store.InsertRow(ctx, table, Row{"elementId": int64(1), "siteId": int64(1), "field_summary": "s"}); err != nil {
		t.Fatalf("InsertRow with new column: %v", err)
	}
}
