// Package sqlite implements the content row store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ryanbastic/go-contentstore/internal/field"
	"github.com/ryanbastic/go-contentstore/internal/storage"
)

// Store implements storage.RowStore and storage.Migrator on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for a
// throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serialises writers; a single connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping satisfies the health check contract.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) FindRow(ctx context.Context, table string, elementID, siteID int64) (storage.Row, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE "elementId" = ? AND "siteId" = ?`, quoteTable(table))

	rows, err := s.db.QueryContext(ctx, query, elementID, siteID)
	if err != nil {
		return nil, fmt.Errorf("find row in %s: %w", table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("find row in %s: %w", table, err)
		}
		return nil, storage.ErrRowNotFound
	}

	row, err := scanRow(rows)
	if err != nil {
		return nil, fmt.Errorf("find row in %s: %w", table, err)
	}
	return row, rows.Err()
}

func scanRow(rows *sql.Rows) (storage.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make(storage.Row, len(cols))
	for i, c := range cols {
		if b, ok := values[i].([]byte); ok {
			row[c] = string(b)
			continue
		}
		row[c] = values[i]
	}
	return row, nil
}

func (s *Store) InsertRow(ctx context.Context, table string, values storage.Row) (int64, error) {
	cols := values.Columns()
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
		args[i] = values[c]
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTable(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert row into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert row into %s: last insert id: %w", table, err)
	}
	return id, nil
}

func (s *Store) UpdateRow(ctx context.Context, table string, id int64, values storage.Row) error {
	cols := values.Columns()
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, quoteIdent(c)+" = ?")
		args = append(args, values[c])
	}
	sets = append(sets, `"dateUpdated" = CURRENT_TIMESTAMP`)
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, quoteTable(table), strings.Join(sets, ", "))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update row %d in %s: %w", id, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update row %d in %s: %w", id, table, err)
	}
	if n == 0 {
		return fmt.Errorf("update row %d in %s: %w", id, table, storage.ErrRowNotFound)
	}
	return nil
}

// EnsureContentTable creates table if needed and adds any missing field columns.
func (s *Store) EnsureContentTable(ctx context.Context, table string, columns []storage.Column) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			"elementId"   INTEGER NOT NULL,
			"siteId"      INTEGER NOT NULL,
			title         TEXT,
			"dateCreated" DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			"dateUpdated" DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE ("elementId", "siteId")
		)
	`, quoteTable(table))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create content table %s: %w", table, err)
	}

	existing, err := s.columnNames(ctx, table)
	if err != nil {
		return err
	}
	for _, c := range columns {
		if existing[c.Name] {
			continue
		}
		alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, quoteTable(table), quoteIdent(c.Name), sqliteColumnType(c.Kind))
		if _, err := s.db.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("add column %s to %s: %w", c.Name, table, err)
		}
	}
	return nil
}

func (s *Store) columnNames(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteTable(table)))
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var (
			cid      int
			name     string
			typ      string
			notNull  int
			dflt     sql.NullString
			primaryK int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryK); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", table, err)
		}
		names[name] = true
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	return names, nil
}

func sqliteColumnType(k field.Kind) string {
	switch k {
	case field.KindInteger:
		return "INTEGER"
	case field.KindDecimal:
		return "REAL"
	case field.KindBool:
		return "BOOLEAN"
	case field.KindDateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
