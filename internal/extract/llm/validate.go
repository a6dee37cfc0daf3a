package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// validateAgainstSchema checks the model output against the per-category
// field schema before it is accepted into the pipeline.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal field schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("fields.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add field schema: %w", err)
	}
	schema, err := compiler.Compile("fields.schema.json")
	if err != nil {
		return fmt.Errorf("compile field schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("model output does not match field schema: %w", err)
	}
	return nil
}
