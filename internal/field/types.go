package field

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PlainText stores a single string.
type PlainText struct {
	base
}

func NewPlainText(id int64, handle string) *PlainText {
	return &PlainText{base{id: id, handle: handle}}
}

func (f *PlainText) HasContentColumn() bool { return true }
func (f *PlainText) ColumnKind() Kind        { return KindText }

func (f *PlainText) SerializeValue(value any, _ Owner) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return nil, invalid(f.handle, value)
	}
}

func (f *PlainText) NormalizeValue(value any, _ Owner) (any, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return nil, invalid(f.handle, value)
	}
}

func (f *PlainText) SearchKeywords(value any, _ Owner) string {
	s, _ := value.(string)
	return s
}

// Number stores an integer when Decimals is zero and a float otherwise.
type Number struct {
	base
	Decimals int
}

func NewNumber(id int64, handle string, decimals int) *Number {
	return &Number{base: base{id: id, handle: handle}, Decimals: decimals}
}

func (f *Number) HasContentColumn() bool { return true }

func (f *Number) ColumnKind() Kind {
	if f.Decimals == 0 {
		return KindInteger
	}
	return KindDecimal
}

func (f *Number) SerializeValue(value any, owner Owner) (any, error) {
	return f.NormalizeValue(value, owner)
}

// NormalizeValue returns an int64 when the field has no decimals and a
// rounded float64 otherwise. Integer inputs never pass through float64 on
// the int64 path.
func (f *Number) NormalizeValue(value any, _ Owner) (any, error) {
	var n float64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return f.fromInt(int64(v)), nil
	case int32:
		return f.fromInt(int64(v)), nil
	case int64:
		return f.fromInt(v), nil
	case float32:
		n = float64(v)
	case float64:
		n = v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return f.fromInt(i), nil
		}
		parsed, err := v.Float64()
		if err != nil {
			return nil, invalid(f.handle, value)
		}
		n = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return f.fromInt(i), nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, invalid(f.handle, value)
		}
		n = parsed
	case []byte:
		return f.NormalizeValue(string(v), nil)
	default:
		return nil, invalid(f.handle, value)
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, invalid(f.handle, value)
	}
	if f.Decimals == 0 {
		r := math.Round(n)
		// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
		if r < math.MinInt64 || r >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: field %q value %v overflows int64", ErrInvalidValue, f.handle, value)
		}
		return int64(r), nil
	}
	pow := math.Pow(10, float64(f.Decimals))
	return math.Round(n*pow) / pow, nil
}

func (f *Number) fromInt(i int64) any {
	if f.Decimals == 0 {
		return i
	}
	return float64(i)
}

func (f *Number) SearchKeywords(value any, owner Owner) string {
	n, err := f.NormalizeValue(value, owner)
	if err != nil {
		return ""
	}
	switch v := n.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', f.Decimals, 64)
	default:
		return ""
	}
}

// Lightswitch stores an on/off toggle.
type Lightswitch struct {
	base
}

func NewLightswitch(id int64, handle string) *Lightswitch {
	return &Lightswitch{base{id: id, handle: handle}}
}

func (f *Lightswitch) HasContentColumn() bool { return true }
func (f *Lightswitch) ColumnKind() Kind        { return KindBool }

func (f *Lightswitch) SerializeValue(value any, owner Owner) (any, error) {
	return f.NormalizeValue(value, owner)
}

func (f *Lightswitch) NormalizeValue(value any, _ Owner) (any, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, invalid(f.handle, value)
		}
		return b, nil
	default:
		return nil, invalid(f.handle, value)
	}
}

func (f *Lightswitch) SearchKeywords(value any, _ Owner) string {
	if on, _ := value.(bool); on {
		return "1"
	}
	return ""
}

// Checkboxes stores the selected option values as a JSON array.
type Checkboxes struct {
	base
	Options []string
}

func NewCheckboxes(id int64, handle string, options []string) *Checkboxes {
	return &Checkboxes{base: base{id: id, handle: handle}, Options: options}
}

func (f *Checkboxes) HasContentColumn() bool { return true }
func (f *Checkboxes) ColumnKind() Kind        { return KindText }

func (f *Checkboxes) SerializeValue(value any, owner Owner) (any, error) {
	selected, err := f.NormalizeValue(value, owner)
	if err != nil {
		return nil, err
	}
	values := selected.([]string)
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.handle, err)
	}
	return string(data), nil
}

func (f *Checkboxes) NormalizeValue(value any, _ Owner) (any, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(f.handle, value)
			}
			out = append(out, s)
		}
		return out, nil
	case []byte:
		return f.NormalizeValue(string(v), nil)
	case string:
		if v == "" {
			return []string{}, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, invalid(f.handle, value)
		}
		return out, nil
	default:
		return nil, invalid(f.handle, value)
	}
}

func (f *Checkboxes) SearchKeywords(value any, _ Owner) string {
	values, _ := value.([]string)
	return strings.Join(values, " ")
}

// Date stores a point in time flattened to UTC with second precision.
type Date struct {
	base
}

func NewDate(id int64, handle string) *Date {
	return &Date{base{id: id, handle: handle}}
}

func (f *Date) HasContentColumn() bool { return true }
func (f *Date) ColumnKind() Kind        { return KindDateTime }

func (f *Date) SerializeValue(value any, owner Owner) (any, error) {
	return f.NormalizeValue(value, owner)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *Date) NormalizeValue(value any, _ Owner) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return v.UTC().Truncate(time.Second), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.UTC().Truncate(time.Second), nil
	case string:
		if v == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC().Truncate(time.Second), nil
			}
		}
		return nil, invalid(f.handle, value)
	default:
		return nil, invalid(f.handle, value)
	}
}

func (f *Date) SearchKeywords(value any, _ Owner) string {
	t, ok := value.(time.Time)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

// Tags relates an element to free-form tags. Relations live outside the
// content table, so the field has no column but still feeds the search index.
type Tags struct {
	base
}

func NewTags(id int64, handle string) *Tags {
	return &Tags{base{id: id, handle: handle}}
}

func (f *Tags) HasContentColumn() bool { return false }
func (f *Tags) ColumnKind() Kind        { return KindNone }

func (f *Tags) SerializeValue(value any, owner Owner) (any, error) {
	return f.NormalizeValue(value, owner)
}

func (f *Tags) NormalizeValue(value any, _ Owner) (any, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(f.handle, value)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalid(f.handle, value)
	}
}

func (f *Tags) SearchKeywords(value any, _ Owner) string {
	tags, _ := value.([]string)
	return strings.Join(tags, " ")
}
