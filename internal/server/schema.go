package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// processQuoteSchema constrains the process-quote request body before it is
// decoded, so malformed pricing overrides fail fast with a clear message.
var processQuoteSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"url":                       map[string]any{"type": "string", "minLength": 1},
		"filename":                  map[string]any{"type": "string"},
		"lineItems":                 map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		"markupPercent":             map[string]any{"type": "number", "minimum": 0},
		"vatPercent":                map[string]any{"type": "number", "minimum": 0},
		"markupDelivery":            map[string]any{"type": "boolean"},
		"amalgamateDelivery":        map[string]any{"type": "boolean"},
		"clientDeliveryGBP":         map[string]any{"type": "number", "minimum": 0},
		"clientDeliveryDescription": map[string]any{"type": "string"},
		"roundTo":                   map[string]any{"type": "integer", "minimum": 0, "maximum": 6},
	},
	"additionalProperties": false,
}

// validateAgainstSchema validates raw JSON against an inline schema map.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
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
