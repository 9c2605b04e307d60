// pkg/modules/modules_test.go
package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAdapter struct {
	Base
	name     string
	channels []string
}

func (a *stubAdapter) ModuleName() string { return a.name }

func (a *stubAdapter) BuildVariables(eventType string, payload map[string]interface{}) (map[string]interface{}, error) {
	return payload, nil
}

func (a *stubAdapter) DefaultChannels(eventType string) []string { return a.channels }

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Get("billing")
	assert.False(t, ok)

	billing := &stubAdapter{name: "billing", channels: []string{"email"}}
	reg.Register(billing)

	got, ok := reg.Get("billing")
	assert.True(t, ok)
	assert.Same(t, billing, got)
}

func TestRegistry_LastWriterWins(t *testing.T) {
	reg := NewRegistry()

	first := &stubAdapter{name: "billing", channels: []string{"email"}}
	second := &stubAdapter{name: "billing", channels: []string{"sms"}}
	reg.Register(first)
	reg.Register(second)

	got, ok := reg.Get("billing")
	assert.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"billing"}, reg.Modules())
}

func TestRegistry_ModulesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubAdapter{name: "hr"})
	reg.Register(&stubAdapter{name: "billing"})
	reg.Register(&stubAdapter{name: "crm"})

	assert.Equal(t, []string{"billing", "crm", "hr"}, reg.Modules())
}

func TestBase_PassthroughTemplateCode(t *testing.T) {
	var base Base
	assert.Equal(t, "invoice_created", base.MapEventToTemplateCode("invoice_created"))
	assert.Equal(t, "", base.MapEventToTemplateCode(""))
}

func TestValidatePayload(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "object",
		"required": []string{"invoiceNumber", "totalAmount"},
		"properties": map[string]interface{}{
			"invoiceNumber": map[string]interface{}{"type": "string"},
			"totalAmount":   map[string]interface{}{"type": "number"},
		},
	}

	tests := []struct {
		name    string
		schema  map[string]interface{}
		payload map[string]interface{}
		wantErr bool
	}{
		{
			name:   "valid payload",
			schema: schema,
			payload: map[string]interface{}{
				"invoiceNumber": "INV-1",
				"totalAmount":   99.5,
			},
			wantErr: false,
		},
		{
			name:    "missing required field",
			schema:  schema,
			payload: map[string]interface{}{"invoiceNumber": "INV-1"},
			wantErr: true,
		},
		{
			name:   "wrong type",
			schema: schema,
			payload: map[string]interface{}{
				"invoiceNumber": 42,
				"totalAmount":   99.5,
			},
			wantErr: true,
		},
		{
			name:    "empty schema accepts anything",
			schema:  nil,
			payload: map[string]interface{}{"whatever": true},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayload(tt.schema, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
