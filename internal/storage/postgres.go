package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements RowStore and Migrator on PostgreSQL.
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewPostgresStore creates a RowStore backed by pool.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresStore(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresStore {
	return &PostgresStore{
		pool:         pool,
		queryTimeout: queryTimeout,
	}
}

// withTimeout derives a child context with the configured query timeout.
// If queryTimeout is zero, the parent context is returned unchanged.
func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

func (s *PostgresStore) FindRow(ctx context.Context, table string, elementID, siteID int64) (Row, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT *
		FROM %s
		WHERE "elementId" = $1 AND "siteId" = $2
	`, QuoteTable(table))

	rows, err := s.pool.Query(ctx, query, elementID, siteID)
	if err != nil {
		return nil, fmt.Errorf("find row in %s: %w", table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("find row in %s: %w", table, err)
	}
	return Row(row), nil
}

func (s *PostgresStore) InsertRow(ctx context.Context, table string, values Row) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cols := values.Columns()
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[c]
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		RETURNING id
	`, QuoteTable(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert row into %s: %w", table, err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateRow(ctx context.Context, table string, id int64, values Row) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cols := values.Columns()
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{c}.Sanitize(), i+1))
		args = append(args, values[c])
	}
	sets = append(sets, `"dateUpdated" = now()`)
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE id = $%d
	`, QuoteTable(table), strings.Join(sets, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update row %d in %s: %w", id, table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update row %d in %s: %w", id, table, ErrRowNotFound)
	}
	return nil
}

// QuoteTable quotes a possibly schema-qualified table name.
func QuoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}
