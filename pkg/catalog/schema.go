// pkg/catalog/schema.go
package catalog

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

var catalogSchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"version", "templates"},
	"properties": map[string]interface{}{
		"version":     map[string]interface{}{"type": "string", "minLength": 1},
		"lastUpdated": map[string]interface{}{"type": "string"},
		"templates": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []string{"code", "channel", "language", "body"},
				"properties": map[string]interface{}{
					"code":     map[string]interface{}{"type": "string", "minLength": 1},
					"channel":  map[string]interface{}{"type": "string", "enum": []string{"email", "whatsapp", "sms"}},
					"language": map[string]interface{}{"type": "string", "minLength": 2},
					"subject":  map[string]interface{}{"type": "string"},
					"body":     map[string]interface{}{"type": "string", "minLength": 1},
				},
			},
		},
	},
}

// Validate checks the catalog against its schema and rejects duplicate
// (code, channel, language) entries, which would fight over one template
// row at seed time.
func (c *TemplateCatalog) Validate() error {
	schemaLoader := gojsonschema.NewGoLoader(catalogSchema)
	documentLoader := gojsonschema.NewGoLoader(c)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("catalog validation failed: %v", errs)
	}

	seen := make(map[string]bool, len(c.Templates))
	for _, tmpl := range c.Templates {
		key := tmpl.Code + "/" + tmpl.Channel + "/" + tmpl.Language
		if seen[key] {
			return fmt.Errorf("duplicate catalog entry: %s", key)
		}
		seen[key] = true
	}

	return nil
}
