package util

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

// DateLayout is the argument format of every date a tool accepts.
const DateLayout = "2006-01-02"

// ValidationError reports one argument that does not satisfy a tool schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// CreateSchema derives a JSON object schema from the exported fields of a
// struct. Recognized tags:
//
//	json:"name,omitempty"   property name; omitempty or a pointer makes it optional
//	description:"..."       property description
//	enum:"a,b,c"            allowed string values
//	format:"date"           string in YYYY-MM-DD form
func CreateSchema(structType any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}

	t := reflect.TypeOf(structType)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}

	props := schema["properties"].(map[string]any)

	var required []string

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}

		name, optional, skip := jsonName(f)
		if skip {
			continue
		}

		props[name] = propertySchema(f)

		if !optional && f.Type.Kind() != reflect.Pointer {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func jsonName(f reflect.StructField) (name string, optional, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}

	for _, o := range strings.Split(opts, ",") {
		if strings.TrimSpace(o) == "omitempty" {
			optional = true
		}
	}

	return name, optional, false
}

func propertySchema(f reflect.StructField) map[string]any {
	p := map[string]any{"type": jsonType(f.Type)}

	if d := f.Tag.Get("description"); d != "" {
		p["description"] = d
	}

	if e := f.Tag.Get("enum"); e != "" {
		values := strings.Split(e, ",")
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		p["enum"] = values
	}

	if fm := f.Tag.Get("format"); fm != "" {
		p["format"] = fm
	}

	return p
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return jsonType(t.Elem())
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}

// ValidateParameters checks params against schema: required fields must be
// present and non-blank, values must match their declared type, enum and
// date format. Unknown fields are ignored.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range RequiredFields(schema) {
		v, ok := params[name]
		if !ok || v == nil {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}

		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return &ValidationError{Field: name, Value: v, Message: "required field is empty"}
		}
	}

	props, _ := schema["properties"].(map[string]any)

	for name, value := range params {
		p, ok := props[name].(map[string]any)
		if !ok || value == nil {
			continue
		}

		if err := checkValue(name, value, p); err != nil {
			return err
		}
	}

	return nil
}

func checkValue(name string, value any, p map[string]any) error {
	typ, _ := p["type"].(string)
	if !hasType(value, typ) {
		return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("expected type %s, got %T", typ, value)}
	}

	s, isString := value.(string)
	if !isString || s == "" {
		return nil
	}

	if enum := enumValues(p["enum"]); len(enum) > 0 && !slices.Contains(enum, s) {
		return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("must be one of %s", strings.Join(enum, ", "))}
	}

	if p["format"] == "date" {
		if _, err := time.Parse(DateLayout, s); err != nil {
			return &ValidationError{Field: name, Value: value, Message: "expected a date in YYYY-MM-DD format"}
		}
	}

	return nil
}

func enumValues(v any) []string {
	switch e := v.(type) {
	case []string:
		return e
	case []any:
		return toStrings(e)
	default:
		return nil
	}
}

// RequiredFields returns the "required" list of a schema. Schemas built in Go
// carry []string while decoded JSON schemas carry []any; both are accepted.
func RequiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		return toStrings(req)
	default:
		return nil
	}
}

func toStrings(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// hasType reports whether a decoded JSON value fits a schema type. Numbers
// arrive as float64, so integers accept whole floats.
func hasType(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "integer":
		switch v := value.(type) {
		case float64:
			return v == float64(int64(v))
		case float32:
			return v == float32(int64(v))
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case "number":
		switch value.(type) {
		case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		}
		return false
	case "array":
		k := reflect.TypeOf(value).Kind()
		return k == reflect.Slice || k == reflect.Array
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
