package field

import "fmt"

// Definition is the declarative form of a field, as read from configuration.
type Definition struct {
	ID       int64    `mapstructure:"id" json:"id"`
	Handle   string   `mapstructure:"handle" json:"handle"`
	Type     string   `mapstructure:"type" json:"type"`
	Decimals int      `mapstructure:"decimals" json:"decimals,omitempty"`
	Options  []string `mapstructure:"options" json:"options,omitempty"`
}

// Type names accepted by New.
const (
	TypePlainText   = "plain_text"
	TypeNumber      = "number"
	TypeLightswitch = "lightswitch"
	TypeCheckboxes  = "checkboxes"
	TypeDate        = "date"
	TypeTags        = "tags"
)

// New instantiates the field described by def.
func New(def Definition) (Field, error) {
	if def.ID <= 0 {
		return nil, fmt.Errorf("field %q: id must be positive", def.Handle)
	}
	if !ValidHandle(def.Handle) {
		return nil, fmt.Errorf("field %q: invalid handle", def.Handle)
	}
	if ReservedHandle(def.Handle) {
		return nil, fmt.Errorf("field %q: handle is reserved", def.Handle)
	}

	switch def.Type {
	case TypePlainText:
		return NewPlainText(def.ID, def.Handle), nil
	case TypeNumber:
		if def.Decimals < 0 {
			return nil, fmt.Errorf("field %q: decimals must not be negative", def.Handle)
		}
		return NewNumber(def.ID, def.Handle, def.Decimals), nil
	case TypeLightswitch:
		return NewLightswitch(def.ID, def.Handle), nil
	case TypeCheckboxes:
		return NewCheckboxes(def.ID, def.Handle, def.Options), nil
	case TypeDate:
		return NewDate(def.ID, def.Handle), nil
	case TypeTags:
		return NewTags(def.ID, def.Handle), nil
	default:
		return nil, fmt.Errorf("field %q: unknown type %q", def.Handle, def.Type)
	}
}
