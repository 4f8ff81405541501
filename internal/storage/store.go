package storage

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/ryanbastic/go-contentstore/internal/field"
)

// ErrRowNotFound is returned when a content row lookup or update matches no row.
var ErrRowNotFound = errors.New("content row not found")

// Fixed content-table columns.
const (
	ColumnID          = "id"
	ColumnElementID   = "elementId"
	ColumnSiteID      = "siteId"
	ColumnTitle       = "title"
	ColumnDateCreated = "dateCreated"
	ColumnDateUpdated = "dateUpdated"
)

// Row is a content row keyed by column name.
type Row map[string]any

// Int64 reads an integer column regardless of the driver's numeric type.
func (r Row) Int64(column string) (int64, bool) {
	switch v := r[column].(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}

// RowStore reads and writes content rows in a table chosen per call.
type RowStore interface {
	// FindRow returns the unique row for (elementID, siteID) in table.
	FindRow(ctx context.Context, table string, elementID, siteID int64) (Row, error)

	// InsertRow writes a new row and returns its generated id.
	InsertRow(ctx context.Context, table string, values Row) (int64, error)

	// UpdateRow overwrites the given columns of the row with the given id.
	UpdateRow(ctx context.Context, table string, id int64, values Row) error
}

// Column describes a field column to be created in a content table.
type Column struct {
	Name string
	Kind field.Kind
}

// Migrator creates content tables and their field columns.
type Migrator interface {
	EnsureContentTable(ctx context.Context, table string, columns []Column) error
}

// FieldColumns lists the content columns required by a field layout.
func FieldColumns(prefix string, layout *field.Layout) []Column {
	var cols []Column
	for _, f := range layout.ColumnFields() {
		cols = append(cols, Column{Name: prefix + f.Handle(), Kind: f.ColumnKind()})
	}
	return cols
}

// FixedColumn reports whether col is one of the columns every content table has.
func FixedColumn(col string) bool {
	switch col {
	case ColumnID, ColumnElementID, ColumnSiteID, ColumnTitle, ColumnDateCreated, ColumnDateUpdated:
		return true
	}
	return false
}

// StripPrefix returns a copy of row with prefix removed from every column
// that starts with it. Fixed columns are never stripped, and a stripped name
// never replaces a column already in the row.
func StripPrefix(row Row, prefix string) Row {
	out := make(Row, len(row))
	for col, v := range row {
		if prefix == "" || FixedColumn(col) || !strings.HasPrefix(col, prefix) {
			out[col] = v
		}
	}
	if prefix == "" {
		return out
	}
	for col, v := range row {
		if FixedColumn(col) || !strings.HasPrefix(col, prefix) {
			continue
		}
		name := strings.TrimPrefix(col, prefix)
		if _, taken := out[name]; taken {
			continue
		}
		out[name] = v
	}
	return out
}
