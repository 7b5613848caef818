package llm

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects T into a JSON schema map that satisfies strict
// structured-output mode: no additional properties and every property required.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := schemaToMap(reflector.Reflect(v))
	delete(schema, "$schema")
	delete(schema, "$id")
	ensureStrict(schema)
	return schema
}

func schemaToMap(schema *jsonschema.Schema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		panic("llm: marshal schema: " + err.Error())
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic("llm: unmarshal schema: " + err.Error())
	}
	return out
}

func ensureStrict(schema map[string]any) {
	if schema["type"] == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name, prop := range props {
				required = append(required, name)
				if m, ok := prop.(map[string]any); ok {
					ensureStrict(m)
				}
			}
			sort.Strings(required)
			schema["required"] = required
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		ensureStrict(items)
	}
}

// ExtractJSONObject returns the JSON object embedded in text. Models that
// cannot enforce a schema natively sometimes wrap the object in prose or
// markdown fences; the outermost braces are taken in that case.
func ExtractJSONObject(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", errors.New("empty model output")
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", errors.New("model output contains no JSON object")
	}
	candidate := trimmed[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", errors.New("model output contains malformed JSON")
	}
	return candidate, nil
}

// DecodeJSON unmarshals the JSON object embedded in text into v.
func DecodeJSON(text string, v any) error {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(obj), v)
}
