package util

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// ValidationError reports the first argument that does not satisfy a tool's
// parameter schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

var kindTypes = map[reflect.Kind]string{
	reflect.String:  "string",
	reflect.Bool:    "boolean",
	reflect.Float32: "number",
	reflect.Float64: "number",
	reflect.Slice:   "array",
	reflect.Array:   "array",
	reflect.Map:     "object",
	reflect.Struct:  "object",
}

func schemaType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if typ, ok := kindTypes[t.Kind()]; ok {
		return typ
	}

	if t.ConvertibleTo(reflect.TypeOf(int64(0))) {
		return "integer"
	}

	return "string"
}

// CreateSchema derives an object schema from the exported fields of a struct
// (or pointer to struct). The property name comes from the json tag and the
// description tag is copied verbatim. A field is required unless it is a
// pointer or tagged omitempty; `json:"-"` hides it.
func CreateSchema(v any) map[string]any {
	properties := map[string]any{}
	schema := map[string]any{"type": "object", "properties": properties}

	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}

	var required []string

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}

		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" && opts == "" {
			continue
		}
		if name == "" {
			name = f.Name
		}

		prop := map[string]any{"type": schemaType(f.Type)}
		if desc, ok := f.Tag.Lookup("description"); ok && desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop

		if f.Type.Kind() != reflect.Pointer && !hasOption(opts, "omitempty") {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if strings.TrimSpace(opt) == want {
			return true
		}
	}

	return false
}

// ValidateParameters checks params against schema: every required field must
// be present and every declared property must match its primitive type. Extra
// fields and nil values pass.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range RequiredFields(schema) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)

	for _, name := range sortedKeys(params) {
		prop, _ := properties[name].(map[string]any)
		typ, _ := prop["type"].(string)

		check, known := typeChecks[typ]
		if !known || params[name] == nil || check(params[name]) {
			continue
		}

		return &ValidationError{
			Field:   name,
			Value:   params[name],
			Message: fmt.Sprintf("expected type %s, got %T", typ, params[name]),
		}
	}

	return nil
}

var typeChecks = map[string]func(v any) bool{
	"string":  func(v any) bool { _, ok := v.(string); return ok },
	"boolean": func(v any) bool { _, ok := v.(bool); return ok },
	"array":   func(v any) bool { _, ok := v.([]any); return ok },
	"object":  func(v any) bool { _, ok := v.(map[string]any); return ok },
	"number": func(v any) bool {
		switch reflect.ValueOf(v).Kind() {
		case reflect.Float32, reflect.Float64:
			return true
		default:
			return isInteger(v)
		}
	},
	"integer": func(v any) bool {
		if f, ok := v.(float64); ok {
			return f == math.Trunc(f) && !math.IsInf(f, 0)
		}
		return isInteger(v)
	},
}

func isInteger(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// RequiredFields returns the names listed under "required", accepting both the
// []string shape produced by CreateSchema and the []any shape of decoded JSON.
func RequiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}

// PropertyNames returns the declared property names of an object schema in
// sorted order.
func PropertyNames(schema map[string]any) []string {
	properties, _ := schema["properties"].(map[string]any)
	return sortedKeys(properties)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
