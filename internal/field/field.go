package field

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind is the storage class of a field's content column.
type Kind int

const (
	KindNone Kind = iota // no content column
	KindText
	KindInteger
	KindDecimal
	KindBool
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindBool:
		return "bool"
	case KindDateTime:
		return "datetime"
	default:
		return "none"
	}
}

// Owner is the element a value belongs to. Fields receive it when serializing
// or indexing so that values can depend on the element's site.
type Owner interface {
	ElementID() int64
	ElementSiteID() int64
}

// Field is the per-type behavior the content layer needs from a custom field.
type Field interface {
	ID() int64
	Handle() string

	// HasContentColumn reports whether the field owns a column in the content table.
	HasContentColumn() bool

	// ColumnKind is KindNone when HasContentColumn is false.
	ColumnKind() Kind

	// SerializeValue converts a runtime value to the form written to the content column.
	SerializeValue(value any, owner Owner) (any, error)

	// NormalizeValue converts a stored or transported value to the runtime form.
	NormalizeValue(value any, owner Owner) (any, error)

	// SearchKeywords returns the free text that represents value in the search index.
	SearchKeywords(value any, owner Owner) string
}

// ErrInvalidValue is wrapped by SerializeValue and NormalizeValue when a value
// cannot be converted.
var ErrInvalidValue = errors.New("invalid field value")

var handlePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidHandle reports whether handle can be used as a column name suffix.
func ValidHandle(handle string) bool {
	return handlePattern.MatchString(handle)
}

// reservedHandles are the fixed columns of every content table.
var reservedHandles = []string{"id", "elementId", "siteId", "title", "dateCreated", "dateUpdated"}

// ReservedHandle reports whether handle names a fixed content-table column.
// The match ignores case because SQLite column names do.
func ReservedHandle(handle string) bool {
	for _, r := range reservedHandles {
		if strings.EqualFold(r, handle) {
			return true
		}
	}
	return false
}

// base carries the identity shared by all field types.
type base struct {
	id     int64
	handle string
}

func (b base) ID() int64      { return b.id }
func (b base) Handle() string { return b.handle }

func invalid(handle string, value any) error {
	return fmt.Errorf("%w: field %q cannot use %T", ErrInvalidValue, handle, value)
}
