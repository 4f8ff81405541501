package config

import (
	"fmt"
	"regexp"

	"github.com/spf13/viper"

	"github.com/ryanbastic/go-contentstore/internal/element"
	"github.com/ryanbastic/go-contentstore/internal/field"
)

// ElementTypeDefinition describes one element type and its field layout.
type ElementTypeDefinition struct {
	Handle            string             `mapstructure:"handle"`
	HasContent        *bool              `mapstructure:"has_content"`
	HasTitles         bool               `mapstructure:"has_titles"`
	ContentTable      string             `mapstructure:"content_table"`
	FieldColumnPrefix *string            `mapstructure:"field_column_prefix"`
	FieldContext      string             `mapstructure:"field_context"`
	Fields            []field.Definition `mapstructure:"fields"`
}

// ElementTypesConfig holds the element type definitions.
type ElementTypesConfig struct {
	ElementTypes []ElementTypeDefinition `mapstructure:"element_types"`
}

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// LoadElementTypes reads a YAML, JSON or TOML element type file and
// validates it.
func LoadElementTypes(path string) (*ElementTypesConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read element types: %w", err)
	}

	var cfg ElementTypesConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse element types: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ElementTypesConfig) validate() error {
	if len(c.ElementTypes) == 0 {
		return fmt.Errorf("element types: no element types defined")
	}

	seen := make(map[string]bool, len(c.ElementTypes))
	for i, def := range c.ElementTypes {
		if def.Handle == "" {
			return fmt.Errorf("element types: type #%d has empty handle", i)
		}
		if !field.ValidHandle(def.Handle) {
			return fmt.Errorf("element types: invalid handle %q", def.Handle)
		}
		if seen[def.Handle] {
			return fmt.Errorf("element types: duplicate handle %q", def.Handle)
		}
		seen[def.Handle] = true

		if def.ContentTable != "" && !tableName.MatchString(def.ContentTable) {
			return fmt.Errorf("element types: type %q has invalid content_table %q", def.Handle, def.ContentTable)
		}
		if def.FieldColumnPrefix != nil && *def.FieldColumnPrefix != "" && !field.ValidHandle(*def.FieldColumnPrefix) {
			return fmt.Errorf("element types: type %q has invalid field_column_prefix %q", def.Handle, *def.FieldColumnPrefix)
		}

		prefix := element.DefaultFieldColumnPrefix
		if def.FieldColumnPrefix != nil {
			prefix = *def.FieldColumnPrefix
		}
		for _, fd := range def.Fields {
			if field.ReservedHandle(fd.Handle) || field.ReservedHandle(prefix+fd.Handle) {
				return fmt.Errorf("element types: type %q field %q collides with a fixed content column", def.Handle, fd.Handle)
			}
		}
	}
	return nil
}

// Build instantiates the element types. Fields are validated by field.New
// and layouts reject duplicate field ids and handles.
func (c *ElementTypesConfig) Build() (*element.Registry, error) {
	reg := element.NewRegistry()
	for _, def := range c.ElementTypes {
		typ, err := def.build()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(typ); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (d ElementTypeDefinition) build() (*element.Type, error) {
	typ := &element.Type{
		Handle:            d.Handle,
		HasContent:        d.HasContent == nil || *d.HasContent,
		HasTitles:         d.HasTitles,
		ContentTable:      d.ContentTable,
		FieldColumnPrefix: element.DefaultFieldColumnPrefix,
		FieldContext:      d.FieldContext,
	}
	if typ.ContentTable == "" {
		typ.ContentTable = element.DefaultContentTable
	}
	if d.FieldColumnPrefix != nil {
		typ.FieldColumnPrefix = *d.FieldColumnPrefix
	}
	if typ.FieldContext == "" {
		typ.FieldContext = element.DefaultFieldContext
	}

	if len(d.Fields) == 0 {
		return typ, nil
	}
	fields := make([]field.Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		f, err := field.New(fd)
		if err != nil {
			return nil, fmt.Errorf("element type %q: %w", d.Handle, err)
		}
		fields = append(fields, f)
	}
	layout, err := field.NewLayout(fields...)
	if err != nil {
		return nil, fmt.Errorf("element type %q: %w", d.Handle, err)
	}
	typ.Layout = layout
	return typ, nil
}
