package finchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrInvalidStructSchema is returned when a schema cannot be built from the
// provided type.
var ErrInvalidStructSchema = errors.New("finchat: struct schema requires a struct type")

// SchemaFromStruct builds a JSON-schema object from a struct value or
// pointer. Supported struct tags: `json` (field name, "-" skips), `required`,
// `desc`, `enum` (comma-separated).
func SchemaFromStruct(sample any) (map[string]any, error) {
	if sample == nil {
		return nil, ErrInvalidStructSchema
	}

	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, ErrInvalidStructSchema
	}

	return schemaFromStructType(t, map[reflect.Type]struct{}{}), nil
}

// NewStructTool creates a tool whose arguments decode into T. The parameter
// schema is derived from T's fields, so complex argument shapes don't need
// manual WithParameter chains.
//
//	type RebalanceArgs struct {
//	    Portfolio string `json:"portfolio" required:"true" desc:"Holdings to rebalance"`
//	    Target    string `json:"target" enum:"conservative,balanced,aggressive"`
//	}
//
//	tool, err := finchat.NewStructTool("rebalance", func(ctx context.Context, args RebalanceArgs) (any, error) { ... })
func NewStructTool[T any](name string, handler func(context.Context, T) (any, error)) (*ToolBuilder, error) {
	var zero T
	schema, err := SchemaFromStruct(zero)
	if err != nil {
		return nil, err
	}

	wrapper := func(ctx context.Context, args map[string]any) (any, error) {
		var typed T
		payload, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode tool args: %w", err)
		}
		if err := json.Unmarshal(payload, &typed); err != nil {
			return nil, fmt.Errorf("decode tool args: %w", err)
		}
		return handler(ctx, typed)
	}

	return NewTool(name).
		WithRawParameters(schema).
		WithHandler(wrapper), nil
}

func schemaFromStructType(t reflect.Type, visited map[reflect.Type]struct{}) map[string]any {
	// Break recursion on self-referential types.
	if _, ok := visited[t]; ok {
		return map[string]any{"type": "object"}
	}
	visited[t] = struct{}{}
	defer delete(visited, t)

	properties := make(map[string]any)
	var required []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" { // unexported
			continue
		}

		name, skip := jsonFieldName(field)
		if skip {
			continue
		}

		schema := schemaForType(field.Type, visited)
		if desc := field.Tag.Get("desc"); desc != "" {
			schema["description"] = desc
		}
		if enum := field.Tag.Get("enum"); enum != "" {
			if values := splitCSV(enum); len(values) > 0 {
				schema["enum"] = values
			}
		}

		properties[name] = schema
		if isRequiredField(field) {
			required = append(required, name)
		}
	}

	result := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		result["required"] = required
	}
	return result
}

func schemaForType(t reflect.Type, visited map[reflect.Type]struct{}) map[string]any {
	if t.Kind() == reflect.Pointer {
		return schemaForType(t.Elem(), visited)
	}

	if t.PkgPath() == "time" && t.Name() == "Time" {
		return map[string]any{"type": "string", "format": "date-time"}
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}
	case reflect.Bool:
		return map[string]any{"type": "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array", "items": schemaForType(t.Elem(), visited)}
	case reflect.Map:
		return map[string]any{"type": "object"}
	case reflect.Struct:
		return schemaFromStructType(t, visited)
	default:
		return map[string]any{"type": "string"}
	}
}

func jsonFieldName(field reflect.StructField) (name string, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name = strings.Split(tag, ",")[0]
	if name == "" {
		name = lowerFirst(field.Name)
	}
	return name, false
}

func lowerFirst(value string) string {
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = []rune(strings.ToLower(string(runes[0])))[0]
	return string(runes)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isRequiredField(field reflect.StructField) bool {
	switch strings.ToLower(strings.TrimSpace(field.Tag.Get("required"))) {
	case "true", "1", "yes":
		return true
	}
	return false
}
