package element

import (
	"maps"

	"github.com/ryanbastic/go-contentstore/internal/field"
)

// Default content coordinates used by elements without a type of their own.
const (
	DefaultContentTable      = "content"
	DefaultFieldColumnPrefix = "field_"
	DefaultFieldContext      = "global"
)

// Coordinates locate an element's content: the table, the column prefix of
// its field columns and the field context.
type Coordinates struct {
	Table        string `json:"table"`
	ColumnPrefix string `json:"column_prefix"`
	Context      string `json:"context"`
}

// DefaultCoordinates are the coordinates of global content.
func DefaultCoordinates() Coordinates {
	return Coordinates{
		Table:        DefaultContentTable,
		ColumnPrefix: DefaultFieldColumnPrefix,
		Context:      DefaultFieldContext,
	}
}

// Type describes how elements of one kind store their content.
type Type struct {
	Handle            string
	HasContent        bool
	HasTitles         bool
	ContentTable      string
	FieldColumnPrefix string
	FieldContext      string
	Layout            *field.Layout
}

// Element is a content-bearing entity. The content layer reads and writes
// ContentID, Title and the field values; the identity is owned elsewhere.
type Element struct {
	ID        int64
	SiteID    int64
	ContentID int64
	Title     string
	Type      *Type

	fieldValues map[string]any
}

// New returns an element of type typ.
func New(typ *Type, id, siteID int64) *Element {
	return &Element{ID: id, SiteID: siteID, Type: typ}
}

// ElementID implements field.Owner.
func (e *Element) ElementID() int64 { return e.ID }

// ElementSiteID implements field.Owner.
func (e *Element) ElementSiteID() int64 { return e.SiteID }

func (e *Element) ContentTable() string {
	if e.Type == nil || e.Type.ContentTable == "" {
		return DefaultContentTable
	}
	return e.Type.ContentTable
}

func (e *Element) FieldColumnPrefix() string {
	if e.Type == nil {
		return DefaultFieldColumnPrefix
	}
	return e.Type.FieldColumnPrefix
}

func (e *Element) FieldContext() string {
	if e.Type == nil || e.Type.FieldContext == "" {
		return DefaultFieldContext
	}
	return e.Type.FieldContext
}

// Coordinates resolves the element's content coordinates.
func (e *Element) Coordinates() Coordinates {
	return Coordinates{
		Table:        e.ContentTable(),
		ColumnPrefix: e.FieldColumnPrefix(),
		Context:      e.FieldContext(),
	}
}

// HasContent reports whether elements of this type carry custom content.
func (e *Element) HasContent() bool {
	return e.Type == nil || e.Type.HasContent
}

func (e *Element) HasTitles() bool {
	return e.Type != nil && e.Type.HasTitles
}

// FieldLayout returns nil when the element has no custom fields.
func (e *Element) FieldLayout() *field.Layout {
	if e.Type == nil {
		return nil
	}
	return e.Type.Layout
}

func (e *Element) FieldValue(handle string) any {
	return e.fieldValues[handle]
}

func (e *Element) SetFieldValue(handle string, value any) {
	if e.fieldValues == nil {
		e.fieldValues = make(map[string]any)
	}
	e.fieldValues[handle] = value
}

// FieldValues returns a copy of the element's field values.
func (e *Element) FieldValues() map[string]any {
	return maps.Clone(e.fieldValues)
}
