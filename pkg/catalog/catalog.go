// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"os"
)

// TemplateCatalog is a versioned set of seed templates. The engine ships
// one (templates.json) and the template-loader tool installs it into the
// template store as the global defaults operators then override.
type TemplateCatalog struct {
	Version     string         `json:"version"`
	LastUpdated string         `json:"lastUpdated"`
	Templates   []SeedTemplate `json:"templates"`
}

// SeedTemplate is one catalog entry. TenantID is deliberately absent:
// seeds always install as global templates.
type SeedTemplate struct {
	Code     string `json:"code"`
	Channel  string `json:"channel"`
	Language string `json:"language"`
	Subject  string `json:"subject,omitempty"`
	Body     string `json:"body"`
}

// Load reads and unmarshals a catalog file.
func Load(path string) (*TemplateCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat TemplateCatalog
	err = json.Unmarshal(data, &cat)
	return &cat, err
}
