package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildVotersJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// voters envelope the prompt asks for. Used locally for advisory validation;
// a mismatch is logged, never fatal, because salvageable output must survive.
func BuildVotersJSONSchema() map[string]any {
	record := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"epic_number":   map[string]any{"type": []string{"string", "null"}},
			"name":          map[string]any{"type": []string{"string", "null"}},
			"relation_type": map[string]any{"type": []string{"string", "null"}},
			"relation_name": map[string]any{"type": []string{"string", "null"}},
			"house_number":  map[string]any{"type": []string{"string", "null"}},
			"age":           map[string]any{"type": []string{"integer", "string", "null"}},
			"gender":        map[string]any{"type": []string{"string", "null"}},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"voters": map[string]any{
				"type":  "array",
				"items": record,
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
