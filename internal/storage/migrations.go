package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ryanbastic/go-contentstore/internal/field"
)

// EnsureContentTable creates table if needed and adds any missing field columns.
func (s *PostgresStore) EnsureContentTable(ctx context.Context, table string, columns []Column) error {
	if _, err := s.pool.Exec(ctx, contentTableDDL(table)); err != nil {
		return fmt.Errorf("create content table %s: %w", table, err)
	}

	for _, c := range columns {
		ddl := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s`,
			QuoteTable(table), pgx.Identifier{c.Name}.Sanitize(), postgresColumnType(c.Kind))
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("add column %s to %s: %w", c.Name, table, err)
		}
	}
	return nil
}

func contentTableDDL(table string) string {
	name := strings.ReplaceAll(table, ".", "_")
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id            BIGSERIAL PRIMARY KEY,
			"elementId"   BIGINT NOT NULL,
			"siteId"      BIGINT NOT NULL,
			title         TEXT,
			"dateCreated" TIMESTAMPTZ NOT NULL DEFAULT now(),
			"dateUpdated" TIMESTAMPTZ NOT NULL DEFAULT now(),

			CONSTRAINT %s UNIQUE ("elementId", "siteId")
		);

		CREATE INDEX IF NOT EXISTS %s
			ON %s ("siteId");
	`,
		QuoteTable(table),
		pgx.Identifier{"uq_" + name + "_element_site"}.Sanitize(),
		pgx.Identifier{"idx_" + name + "_site"}.Sanitize(),
		QuoteTable(table),
	)
}

func postgresColumnType(k field.Kind) string {
	switch k {
	case field.KindInteger:
		return "BIGINT"
	case field.KindDecimal:
		return "DOUBLE PRECISION"
	case field.KindBool:
		return "BOOLEAN"
	case field.KindDateTime:
		return "TIMESTAMPTZ(0)"
	default:
		return "TEXT"
	}
}
