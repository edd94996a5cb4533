package openapi

import (
	"encoding"
	"reflect"
	"strings"
	"time"
)

var (
	timeType          = reflect.TypeFor[time.Time]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// SchemaOf derives an object schema from v's exported, json-tagged fields.
// Time values become date-time strings and other text marshalers plain
// strings. Nested structs are inlined and embedded structs flattened.
func SchemaOf(v any) *Schema {
	return schemaFor(reflect.TypeOf(v))
}

func schemaFor(t reflect.Type) *Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch {
	case t == timeType:
		return &Schema{Type: "string", Format: "date-time"}
	case t.Implements(textMarshalerType), reflect.PointerTo(t).Implements(textMarshalerType):
		if t.Kind() == reflect.Array && t.Len() == 16 {
			return &Schema{Type: "string", Format: "uuid"}
		}
		return &Schema{Type: "string"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: "string", Format: "byte"}
		}
		return &Schema{Type: "array", Items: schemaFor(t.Elem())}
	case reflect.Map:
		return &Schema{Type: "object"}
	case reflect.Struct:
		s := &Schema{Type: "object", Properties: make(map[string]*Schema)}
		addFields(s, t)
		return s
	default:
		return &Schema{}
	}
}

func addFields(s *Schema, t reflect.Type) {
	for i := range t.NumField() {
		field := t.Field(i)
		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}

		if field.Anonymous && name == "" {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				addFields(s, ft)
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		if name == "" {
			name = field.Name
		}

		s.Properties[name] = schemaFor(field.Type)
		if field.Type.Kind() != reflect.Pointer && !strings.Contains(opts, "omitempty") {
			s.Required = append(s.Required, name)
		}
	}
}
