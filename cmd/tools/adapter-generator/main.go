// cmd/tools/adapter-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// AdapterData holds data for templates
type AdapterData struct {
	ModuleName  string   `json:"moduleName"`
	PackageName string   `json:"packageName"`
	Events      []string `json:"events"`
}

var eventPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// upperFirst makes the first character uppercase
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// constName turns an event type into its Go constant name,
// e.g. "deal_won" -> "EventDealWon".
func constName(event string) string {
	parts := strings.Split(event, "_")
	for i, part := range parts {
		parts[i] = upperFirst(part)
	}
	return "Event" + strings.Join(parts, "")
}

const adapterTemplate = `// pkg/modules/{{ .PackageName }}/adapter.go
package {{ .PackageName }}

import (
	"fmt"

	"notification-engine/pkg/modules"
)

// ModuleName is the registry key for the {{ .ModuleName }} adapter.
const ModuleName = "{{ .ModuleName }}"

// Event types emitted by the {{ .ModuleName }} module. Each doubles as the
// template code dispatched for it.
const (
{{- range .Events }}
	{{ constName . }} = "{{ . }}"
{{- end }}
)

// payloadSchemas validates the domain payload of each event before
// template variables are built from it.
var payloadSchemas = map[string]map[string]interface{}{
{{- range .Events }}
	{{ constName . }}: {
		"type":     "object",
		"required": []string{},
		"properties": map[string]interface{}{
			// TODO: declare the payload fields {{ . }} carries
		},
	},
{{- end }}
}

// variableKeys lists the payload fields copied into template variables.
var variableKeys = map[string][]string{
{{- range .Events }}
	{{ constName . }}: {},
{{- end }}
}

// Adapter maps {{ .ModuleName }} events onto notification templates.
type Adapter struct {
	modules.Base
}

// NewAdapter returns the {{ .ModuleName }} module adapter.
func NewAdapter() *Adapter { return &Adapter{} }

func (*Adapter) ModuleName() string { return ModuleName }

// BuildVariables validates the event payload and copies its
// template-facing fields into the variable map.
func (*Adapter) BuildVariables(eventType string, payload map[string]interface{}) (map[string]interface{}, error) {
	schema, ok := payloadSchemas[eventType]
	if !ok {
		return nil, fmt.Errorf("{{ .ModuleName }}: unknown event type %q", eventType)
	}
	if err := modules.ValidatePayload(schema, payload); err != nil {
		return nil, fmt.Errorf("{{ .ModuleName }} %s: %w", eventType, err)
	}

	vars := make(map[string]interface{}, len(variableKeys[eventType]))
	for _, key := range variableKeys[eventType] {
		if value, ok := payload[key]; ok {
			vars[key] = value
		}
	}
	return vars, nil
}

// DefaultChannels returns the channels an event goes out on when the
// caller does not override them.
func (*Adapter) DefaultChannels(eventType string) []string {
	// TODO: route per event type once the channel policy is decided
	return []string{"email"}
}
`

const testTemplate = `// pkg/modules/{{ .PackageName }}/adapter_test.go
package {{ .PackageName }}

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdapter_Identity(t *testing.T) {
	adapter := NewAdapter()
	assert.Equal(t, "{{ .ModuleName }}", adapter.ModuleName())
	// Event types double as template codes.
{{- range .Events }}
	assert.Equal(t, {{ constName . }}, adapter.MapEventToTemplateCode({{ constName . }}))
{{- end }}
}

func TestAdapter_BuildVariables(t *testing.T) {
	adapter := NewAdapter()

	tests := []struct {
		name      string
		eventType string
		payload   map[string]interface{}
		wantErr   bool
	}{
{{- range .Events }}
		{
			name:      "{{ . }} accepts a well-formed payload",
			eventType: {{ constName . }},
			payload:   map[string]interface{}{
				// TODO: fill in the fields payloadSchemas requires
			},
			wantErr: false,
		},
{{- end }}
		{
			name:      "unknown event type is rejected",
			eventType: "no_such_event",
			payload:   map[string]interface{}{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars, err := adapter.BuildVariables(tt.eventType, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, vars)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, vars)
			}
		})
	}
}

func TestAdapter_DefaultChannels(t *testing.T) {
	adapter := NewAdapter()
{{- range .Events }}
	assert.Equal(t, []string{"email"}, adapter.DefaultChannels({{ constName . }}))
{{- end }}
}
`

func main() {
	moduleName := flag.String("module", "", "Module name (e.g., crm)")
	events := flag.String("events", "", "Comma-separated event types (e.g., deal_won,deal_lost)")
	outputDir := flag.String("output", "./pkg/modules/", "Output directory for the generated adapter")
	flag.Parse()

	if *moduleName == "" || *events == "" {
		fmt.Println("Usage: adapter-generator --module <name> --events <type,type,...> [--output <dir>]")
		fmt.Println("\nExample:")
		fmt.Println("  go run cmd/tools/adapter-generator/main.go --module crm --events deal_won,deal_lost")
		os.Exit(1)
	}

	if !eventPattern.MatchString(*moduleName) {
		fmt.Printf("Invalid module name %q: use lower_snake_case\n", *moduleName)
		os.Exit(1)
	}

	var eventTypes []string
	seen := map[string]bool{}
	for _, raw := range strings.Split(*events, ",") {
		event := strings.TrimSpace(raw)
		if event == "" {
			continue
		}
		if !eventPattern.MatchString(event) {
			fmt.Printf("Invalid event type %q: use lower_snake_case\n", event)
			os.Exit(1)
		}
		if seen[event] {
			fmt.Printf("Duplicate event type %q\n", event)
			os.Exit(1)
		}
		seen[event] = true
		eventTypes = append(eventTypes, event)
	}
	if len(eventTypes) == 0 {
		fmt.Println("No event types given")
		os.Exit(1)
	}

	// Prepare data for templates
	data := AdapterData{
		ModuleName:  *moduleName,
		PackageName: strings.ReplaceAll(*moduleName, "_", ""),
		Events:      eventTypes,
	}

	adapterDir := filepath.Join(*outputDir, data.PackageName)
	if err := os.MkdirAll(adapterDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	// Create templates with functions
	funcMap := template.FuncMap{
		"upperFirst": upperFirst,
		"constName":  constName,
	}

	// Generate files
	templates := map[string]string{
		"adapter.go":      adapterTemplate,
		"adapter_test.go": testTemplate,
	}

	for filename, tmplStr := range templates {
		tmpl, err := template.New(filename).Funcs(funcMap).Parse(tmplStr)
		if err != nil {
			fmt.Printf("Error parsing template %s: %v\n", filename, err)
			continue
		}

		filePath := filepath.Join(adapterDir, filename)
		file, err := os.Create(filePath)
		if err != nil {
			fmt.Printf("Error creating file %s: %v\n", filePath, err)
			continue
		}

		if err := tmpl.Execute(file, data); err != nil {
			fmt.Printf("Error executing template for %s: %v\n", filename, err)
		}
		file.Close()

		fmt.Printf("✓ Generated %s\n", filePath)
	}

	fmt.Printf("\n✅ Adapter scaffold generated successfully at: %s\n", adapterDir)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Declare payload schemas and variable keys in adapter.go\n")
	fmt.Printf("  2. Decide channel routing in DefaultChannels\n")
	fmt.Printf("  3. Fill in the test payloads in adapter_test.go\n")
	fmt.Printf("  4. Register the adapter in cmd/dispatchd/main.go\n")
	fmt.Printf("  5. Add templates for each event to pkg/catalog/templates.json\n")
}
