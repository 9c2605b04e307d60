// pkg/modules/billing/adapter.go
package billing

import (
	"fmt"

	"notification-engine/pkg/modules"
)

// ModuleName is the registry key for the billing adapter.
const ModuleName = "billing"

// Event types emitted by the billing module. Each doubles as the
// template code dispatched for it.
const (
	EventInvoiceCreated  = "invoice_created"
	EventInvoiceOverdue  = "invoice_overdue"
	EventPaymentReceived = "payment_received"
)

// payloadSchemas validates the domain payload of each event before
// template variables are built from it. Amounts may arrive as numbers or
// as display-formatted strings ("250.00"); both render fine.
var payloadSchemas = map[string]map[string]interface{}{
	EventInvoiceCreated: {
		"type":     "object",
		"required": []string{"invoiceNumber", "customerName", "totalAmount", "currency", "dueDate"},
		"properties": map[string]interface{}{
			"invoiceNumber": map[string]interface{}{"type": "string"},
			"customerName":  map[string]interface{}{"type": "string"},
			"totalAmount":   map[string]interface{}{"type": []string{"number", "string"}},
			"currency":      map[string]interface{}{"type": "string"},
			"dueDate":       map[string]interface{}{"type": "string"},
		},
	},
	EventInvoiceOverdue: {
		"type":     "object",
		"required": []string{"invoiceNumber", "customerName", "balanceAmount", "currency"},
		"properties": map[string]interface{}{
			"invoiceNumber": map[string]interface{}{"type": "string"},
			"customerName":  map[string]interface{}{"type": "string"},
			"balanceAmount": map[string]interface{}{"type": []string{"number", "string"}},
			"currency":      map[string]interface{}{"type": "string"},
			"dueDate":       map[string]interface{}{"type": "string"},
		},
	},
	EventPaymentReceived: {
		"type":     "object",
		"required": []string{"invoiceNumber", "customerName", "amountPaid", "currency"},
		"properties": map[string]interface{}{
			"invoiceNumber": map[string]interface{}{"type": "string"},
			"customerName":  map[string]interface{}{"type": "string"},
			"amountPaid":    map[string]interface{}{"type": []string{"number", "string"}},
			"currency":      map[string]interface{}{"type": "string"},
		},
	},
}

// variableKeys lists the payload fields copied into template variables.
var variableKeys = map[string][]string{
	EventInvoiceCreated:  {"invoiceNumber", "customerName", "totalAmount", "currency", "dueDate"},
	EventInvoiceOverdue:  {"invoiceNumber", "customerName", "balanceAmount", "currency", "dueDate"},
	EventPaymentReceived: {"invoiceNumber", "customerName", "amountPaid", "currency"},
}

// Adapter maps billing events onto notification templates.
type Adapter struct {
	modules.Base
}

// NewAdapter returns the billing module adapter.
func NewAdapter() *Adapter { return &Adapter{} }

func (*Adapter) ModuleName() string { return ModuleName }

// BuildVariables validates the invoice/payment payload and copies its
// template-facing fields into the variable map.
func (*Adapter) BuildVariables(eventType string, payload map[string]interface{}) (map[string]interface{}, error) {
	schema, ok := payloadSchemas[eventType]
	if !ok {
		return nil, fmt.Errorf("billing: unknown event type %q", eventType)
	}
	if err := modules.ValidatePayload(schema, payload); err != nil {
		return nil, fmt.Errorf("billing %s: %w", eventType, err)
	}

	vars := make(map[string]interface{}, len(variableKeys[eventType]))
	for _, key := range variableKeys[eventType] {
		if value, ok := payload[key]; ok {
			vars[key] = value
		}
	}
	return vars, nil
}

// DefaultChannels routes overdue reminders to every channel we hold an
// address for; the rest go out by email only.
func (*Adapter) DefaultChannels(eventType string) []string {
	switch eventType {
	case EventInvoiceOverdue:
		return []string{"email", "whatsapp"}
	default:
		return []string{"email"}
	}
}
