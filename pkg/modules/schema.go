// pkg/modules/schema.go
package modules

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidatePayload checks a payload against a JSON Schema given as a Go
// map. An empty schema accepts anything.
func ValidatePayload(schema, payload map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("payload validation failed: %v", errs)
	}

	return nil
}
