package field

import "fmt"

// Layout is the ordered set of fields assigned to an element type.
type Layout struct {
	fields []Field
}

// NewLayout builds a layout, rejecting reserved handles and duplicate ids or handles.
func NewLayout(fields ...Field) (*Layout, error) {
	ids := make(map[int64]bool, len(fields))
	handles := make(map[string]bool, len(fields))
	for _, f := range fields {
		if ReservedHandle(f.Handle()) {
			return nil, fmt.Errorf("field layout: handle %q is reserved", f.Handle())
		}
		if ids[f.ID()] {
			return nil, fmt.Errorf("field layout: duplicate field id %d", f.ID())
		}
		if handles[f.Handle()] {
			return nil, fmt.Errorf("field layout: duplicate field handle %q", f.Handle())
		}
		ids[f.ID()] = true
		handles[f.Handle()] = true
	}
	return &Layout{fields: fields}, nil
}

// MustLayout is NewLayout for statically known field sets.
func MustLayout(fields ...Field) *Layout {
	l, err := NewLayout(fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Fields returns the fields in layout order.
func (l *Layout) Fields() []Field {
	if l == nil {
		return nil
	}
	return l.fields
}

// FieldByHandle looks up a field by its handle.
func (l *Layout) FieldByHandle(handle string) (Field, bool) {
	for _, f := range l.Fields() {
		if f.Handle() == handle {
			return f, true
		}
	}
	return nil, false
}

// ColumnFields returns only the fields that own a content column.
func (l *Layout) ColumnFields() []Field {
	var out []Field
	for _, f := range l.Fields() {
		if f.HasContentColumn() {
			out = append(out, f)
		}
	}
	return out
}
