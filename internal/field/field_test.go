package field

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

type testOwner struct{ id, siteID int64 }

func (o testOwner) ElementID() int64     { return o.id }
func (o testOwner) ElementSiteID() int64 { return o.siteID }

var owner = testOwner{id: 10, siteID: 1}

func TestValidHandle(t *testing.T) {
	tests := []struct {
		handle string
		want   bool
	}{
		{"color", true},
		{"heroImage", true},
		{"body_2", true},
		{"", false},
		{"2body", false},
		{"drop table", false},
		{"x\"y", false},
	}

	for _, tt := range tests {
		if got := ValidHandle(tt.handle); got != tt.want {
			t.Errorf("ValidHandle(%q) = %v, want %v", tt.handle, got, tt.want)
		}
	}
}

func TestReservedHandle(t *testing.T) {
	for _, h := range []string{"id", "elementId", "siteId", "title", "dateCreated", "dateUpdated", "ID", "elementid"} {
		if !ReservedHandle(h) {
			t.Errorf("ReservedHandle(%q) = false, want true", h)
		}
	}
	for _, h := range []string{"color", "identity", "subtitle"} {
		if ReservedHandle(h) {
			t.Errorf("ReservedHandle(%q) = true, want false", h)
		}
	}
}

func TestPlainText_Serialize(t *testing.T) {
	f := NewPlainText(1, "color")

	got, err := f.SerializeValue("red", owner)
	if err != nil {
		t.Fatalf("SerializeValue: %v", err)
	}
	if got != "red" {
		t.Errorf("got %v, want red", got)
	}

	got, err = f.SerializeValue("", owner)
	if err != nil {
		t.Fatalf("SerializeValue empty: %v", err)
	}
	if got != nil {
		t.Errorf("empty string: got %v, want nil", got)
	}

	if _, err := f.SerializeValue(42, owner); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("int value: got %v, want ErrInvalidValue", err)
	}
}

func TestNumber_Normalize(t *testing.T) {
	integer := NewNumber(2, "count", 0)
	decimal := NewNumber(3, "price", 2)

	tests := []struct {
		name  string
		field *Number
		in    any
		want  any
	}{
		{"int", integer, 3, int64(3)},
		{"int64", integer, int64(7), int64(7)},
		{"json float", integer, float64(3), int64(3)},
		{"string", integer, " 12 ", int64(12)},
		{"empty string", integer, "", nil},
		{"nil", integer, nil, nil},
		{"decimal rounds", decimal, 1.23456, 1.23},
		{"decimal from int", decimal, int64(4), 4.0},
		{"int64 above 2^53", integer, int64(9007199254740993), int64(9007199254740993)},
		{"max int64", integer, int64(math.MaxInt64), int64(math.MaxInt64)},
		{"min int64", integer, int64(math.MinInt64), int64(math.MinInt64)},
		{"json number above 2^53", integer, json.Number("9007199254740993"), int64(9007199254740993)},
		{"string above 2^53", integer, "9007199254740993", int64(9007199254740993)},
		{"json number fraction", integer, json.Number("2.6"), int64(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.NormalizeValue(tt.in, owner)
			if err != nil {
				t.Fatalf("NormalizeValue: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := integer.NormalizeValue("abc", owner); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("non-numeric string: got %v, want ErrInvalidValue", err)
	}

	for _, in := range []any{1e20, -1e20, float64(math.MaxInt64), "1e20", json.Number("1e20"), math.NaN(), math.Inf(1)} {
		if _, err := integer.NormalizeValue(in, owner); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("NormalizeValue(%v): got %v, want ErrInvalidValue", in, err)
		}
	}

	stored, err := integer.SerializeValue(int64(9007199254740993), owner)
	if err != nil {
		t.Fatalf("SerializeValue: %v", err)
	}
	if stored != int64(9007199254740993) {
		t.Errorf("SerializeValue above 2^53: got %v", stored)
	}
}

func TestNumber_ColumnKind(t *testing.T) {
	if k := NewNumber(1, "n", 0).ColumnKind(); k != KindInteger {
		t.Errorf("decimals=0: got %s, want integer", k)
	}
	if k := NewNumber(1, "n", 2).ColumnKind(); k != KindDecimal {
		t.Errorf("decimals=2: got %s, want decimal", k)
	}
}

func TestNumber_SearchKeywords(t *testing.T) {
	if got := NewNumber(1, "n", 0).SearchKeywords(int64(42), owner); got != "42" {
		t.Errorf("integer: got %q", got)
	}
	if got := NewNumber(1, "n", 2).SearchKeywords(1.5, owner); got != "1.50" {
		t.Errorf("decimal: got %q", got)
	}
}

func TestLightswitch_Normalize(t *testing.T) {
	f := NewLightswitch(4, "featured")

	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{nil, false},
		{int64(1), true},
		{int64(0), false},
		{"true", true},
	}

	for _, tt := range tests {
		got, err := f.NormalizeValue(tt.in, owner)
		if err != nil {
			t.Fatalf("NormalizeValue(%v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("NormalizeValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCheckboxes_RoundTrip(t *testing.T) {
	f := NewCheckboxes(5, "sizes", []string{"s", "m", "l"})

	stored, err := f.SerializeValue([]string{"s", "l"}, owner)
	if err != nil {
		t.Fatalf("SerializeValue: %v", err)
	}
	if stored != `["s","l"]` {
		t.Errorf("stored: got %v", stored)
	}

	back, err := f.NormalizeValue(stored, owner)
	if err != nil {
		t.Fatalf("NormalizeValue: %v", err)
	}
	if !reflect.DeepEqual(back, []string{"s", "l"}) {
		t.Errorf("normalized: got %v", back)
	}

	empty, err := f.SerializeValue(nil, owner)
	if err != nil {
		t.Fatalf("SerializeValue nil: %v", err)
	}
	if empty != nil {
		t.Errorf("nil selection: got %v, want nil", empty)
	}

	if got := f.SearchKeywords([]string{"s", "l"}, owner); got != "s l" {
		t.Errorf("keywords: got %q", got)
	}
}

func TestDate_FlattensToUTC(t *testing.T) {
	f := NewDate(6, "postDate")
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2024, 3, 1, 14, 30, 15, 999, loc)

	got, err := f.SerializeValue(in, owner)
	if err != nil {
		t.Fatalf("SerializeValue: %v", err)
	}
	want := time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC)
	if !got.(time.Time).Equal(want) || got.(time.Time).Location() != time.UTC {
		t.Errorf("got %v, want %v", got, want)
	}

	parsed, err := f.NormalizeValue("2024-03-01 12:30:15", owner)
	if err != nil {
		t.Fatalf("NormalizeValue: %v", err)
	}
	if !parsed.(time.Time).Equal(want) {
		t.Errorf("parsed: got %v, want %v", parsed, want)
	}

	if kw := f.SearchKeywords(want, owner); kw != "2024-03-01" {
		t.Errorf("keywords: got %q", kw)
	}
}

func TestTags_HasNoColumn(t *testing.T) {
	f := NewTags(7, "tags")
	if f.HasContentColumn() {
		t.Error("tags should not own a content column")
	}
	if f.ColumnKind() != KindNone {
		t.Errorf("ColumnKind: got %s", f.ColumnKind())
	}
	if got := f.SearchKeywords([]string{"go", "cms"}, owner); got != "go cms" {
		t.Errorf("keywords: got %q", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		def     Definition
		want    any
		wantErr bool
	}{
		{Definition{ID: 1, Handle: "body", Type: TypePlainText}, &PlainText{}, false},
		{Definition{ID: 2, Handle: "count", Type: TypeNumber}, &Number{}, false},
		{Definition{ID: 3, Handle: "on", Type: TypeLightswitch}, &Lightswitch{}, false},
		{Definition{ID: 4, Handle: "opts", Type: TypeCheckboxes, Options: []string{"a"}}, &Checkboxes{}, false},
		{Definition{ID: 5, Handle: "when", Type: TypeDate}, &Date{}, false},
		{Definition{ID: 6, Handle: "tags", Type: TypeTags}, &Tags{}, false},
		{Definition{ID: 7, Handle: "x", Type: "matrix"}, nil, true},
		{Definition{ID: 0, Handle: "x", Type: TypePlainText}, nil, true},
		{Definition{ID: 8, Handle: "bad handle", Type: TypePlainText}, nil, true},
		{Definition{ID: 9, Handle: "n", Type: TypeNumber, Decimals: -1}, nil, true},
		{Definition{ID: 10, Handle: "id", Type: TypeNumber}, nil, true},
		{Definition{ID: 11, Handle: "title", Type: TypePlainText}, nil, true},
		{Definition{ID: 12, Handle: "SiteId", Type: TypeNumber}, nil, true},
	}

	for _, tt := range tests {
		got, err := New(tt.def)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%+v): expected error", tt.def)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%+v): %v", tt.def, err)
			continue
		}
		if reflect.TypeOf(got) != reflect.TypeOf(tt.want) {
			t.Errorf("New(%+v): got %T, want %T", tt.def, got, tt.want)
		}
		if got.ID() != tt.def.ID || got.Handle() != tt.def.Handle {
			t.Errorf("identity: got (%d, %q)", got.ID(), got.Handle())
		}
	}
}

func TestLayout(t *testing.T) {
	color := NewPlainText(1, "color")
	tags := NewTags(2, "tags")
	layout := MustLayout(color, tags)

	if len(layout.Fields()) != 2 {
		t.Fatalf("Fields: got %d", len(layout.Fields()))
	}
	if cols := layout.ColumnFields(); len(cols) != 1 || cols[0] != color {
		t.Errorf("ColumnFields: got %v", cols)
	}
	if f, ok := layout.FieldByHandle("tags"); !ok || f != tags {
		t.Error("FieldByHandle(tags) not found")
	}
	if _, ok := layout.FieldByHandle("missing"); ok {
		t.Error("FieldByHandle(missing) should not be found")
	}

	var nilLayout *Layout
	if nilLayout.Fields() != nil {
		t.Error("nil layout should have no fields")
	}

	if _, err := NewLayout(color, NewPlainText(1, "other")); err == nil {
		t.Error("expected duplicate id error")
	}
	if _, err := NewLayout(color, NewPlainText(3, "color")); err == nil {
		t.Error("expected duplicate handle error")
	}
	if _, err := NewLayout(color, NewNumber(4, "id", 0)); err == nil {
		t.Error("expected reserved handle error")
	}
}
