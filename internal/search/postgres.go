package search

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ryanbastic/go-contentstore/internal/metrics"
)

// SearchIndexTable holds one row per (element, site, field).
const SearchIndexTable = "searchindex"

// PostgresIndexer stores keywords in the searchindex table and answers
// queries with Postgres full-text search.
type PostgresIndexer struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

func NewPostgresIndexer(pool *pgxpool.Pool, queryTimeout time.Duration) *PostgresIndexer {
	return &PostgresIndexer{pool: pool, queryTimeout: queryTimeout}
}

func (p *PostgresIndexer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.queryTimeout > 0 {
		return context.WithTimeout(ctx, p.queryTimeout)
	}
	return ctx, func() {}
}

// EnsureSchema creates the searchindex table and its text search index.
func (p *PostgresIndexer) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			"elementId"   BIGINT      NOT NULL,
			"siteId"      BIGINT      NOT NULL,
			"fieldId"     BIGINT      NOT NULL,
			keywords      TEXT        NOT NULL DEFAULT '',
			"dateUpdated" TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY ("elementId", "siteId", "fieldId")
		);
		CREATE INDEX IF NOT EXISTS idx_%[2]s_keywords
			ON %[1]s USING GIN (to_tsvector('simple', keywords));
	`, pgx.Identifier{SearchIndexTable}.Sanitize(), SearchIndexTable)

	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", SearchIndexTable, err)
	}
	return nil
}

func (p *PostgresIndexer) IndexElementFields(ctx context.Context, elementID, siteID int64, keywords map[int64]string) (err error) {
	defer func() { metrics.ObserveIndexWrite("postgres", len(keywords), err) }()

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	upsert := fmt.Sprintf(`
		INSERT INTO %s ("elementId", "siteId", "fieldId", keywords)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ("elementId", "siteId", "fieldId")
		DO UPDATE SET keywords = EXCLUDED.keywords, "dateUpdated" = now()
	`, pgx.Identifier{SearchIndexTable}.Sanitize())

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for fieldID, kw := range keywords {
			batch.Queue(upsert, elementID, siteID, fieldID, NormalizeKeywords(kw))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert keywords for element %d site %d: %w", elementID, siteID, err)
		}
		return nil
	})
}

func (p *PostgresIndexer) Search(ctx context.Context, q Query) ([]Hit, error) {
	text := NormalizeKeywords(q.Text)
	if text == "" {
		return nil, nil
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	sql := fmt.Sprintf(`
		SELECT "elementId", "siteId", "fieldId",
		       ts_rank(to_tsvector('simple', keywords), plainto_tsquery('simple', $1)) AS score
		FROM %s
		WHERE to_tsvector('simple', keywords) @@ plainto_tsquery('simple', $1)
		  AND ($2::bigint = 0 OR "siteId" = $2)
		ORDER BY score DESC, "elementId", "fieldId"
		LIMIT $3
	`, pgx.Identifier{SearchIndexTable}.Sanitize())

	rows, err := p.pool.Query(ctx, sql, text, q.SiteID, q.limit())
	if err != nil {
		return nil, fmt.Errorf("search keywords: %w", err)
	}

	hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Hit, error) {
		var h Hit
		var score float32
		err := row.Scan(&h.ElementID, &h.SiteID, &h.FieldID, &score)
		h.Score = float64(score)
		return h, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan search hits: %w", err)
	}
	return hits, nil
}
