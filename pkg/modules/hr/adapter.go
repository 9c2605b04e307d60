// pkg/modules/hr/adapter.go
package hr

import (
	"fmt"

	"notification-engine/pkg/modules"
)

// ModuleName is the registry key for the HR adapter.
const ModuleName = "hr"

// Event types emitted by the HR module. Each doubles as the template
// code dispatched for it.
const (
	EventPayslipReady  = "payslip_ready"
	EventLeaveApproved = "leave_approved"
	EventLeaveRejected = "leave_rejected"
)

var payloadSchemas = map[string]map[string]interface{}{
	EventPayslipReady: {
		"type":     "object",
		"required": []string{"employeeName", "month", "year", "netPay", "currency"},
		"properties": map[string]interface{}{
			"employeeName": map[string]interface{}{"type": "string"},
			"month":        map[string]interface{}{"type": "string"},
			"year":         map[string]interface{}{"type": []string{"number", "string"}},
			"netPay":       map[string]interface{}{"type": []string{"number", "string"}},
			"currency":     map[string]interface{}{"type": "string"},
		},
	},
	EventLeaveApproved: {
		"type":     "object",
		"required": []string{"employeeName", "leaveType", "startDate", "endDate"},
		"properties": map[string]interface{}{
			"employeeName": map[string]interface{}{"type": "string"},
			"leaveType":    map[string]interface{}{"type": "string"},
			"startDate":    map[string]interface{}{"type": "string"},
			"endDate":      map[string]interface{}{"type": "string"},
		},
	},
	EventLeaveRejected: {
		"type":     "object",
		"required": []string{"employeeName", "leaveType", "startDate", "endDate", "reason"},
		"properties": map[string]interface{}{
			"employeeName": map[string]interface{}{"type": "string"},
			"leaveType":    map[string]interface{}{"type": "string"},
			"startDate":    map[string]interface{}{"type": "string"},
			"endDate":      map[string]interface{}{"type": "string"},
			"reason":       map[string]interface{}{"type": "string"},
		},
	},
}

var variableKeys = map[string][]string{
	EventPayslipReady:  {"employeeName", "month", "year", "netPay", "currency"},
	EventLeaveApproved: {"employeeName", "leaveType", "startDate", "endDate"},
	EventLeaveRejected: {"employeeName", "leaveType", "startDate", "endDate", "reason"},
}

// Adapter maps HR events onto notification templates.
type Adapter struct {
	modules.Base
}

// NewAdapter returns the HR module adapter.
func NewAdapter() *Adapter { return &Adapter{} }

func (*Adapter) ModuleName() string { return ModuleName }

// BuildVariables validates the payslip/leave payload and copies its
// template-facing fields into the variable map.
func (*Adapter) BuildVariables(eventType string, payload map[string]interface{}) (map[string]interface{}, error) {
	schema, ok := payloadSchemas[eventType]
	if !ok {
		return nil, fmt.Errorf("hr: unknown event type %q", eventType)
	}
	if err := modules.ValidatePayload(schema, payload); err != nil {
		return nil, fmt.Errorf("hr %s: %w", eventType, err)
	}

	vars := make(map[string]interface{}, len(variableKeys[eventType]))
	for _, key := range variableKeys[eventType] {
		if value, ok := payload[key]; ok {
			vars[key] = value
		}
	}
	return vars, nil
}

// DefaultChannels sends payslip notices by email; leave decisions also
// reach the employee on WhatsApp.
func (*Adapter) DefaultChannels(eventType string) []string {
	switch eventType {
	case EventLeaveApproved, EventLeaveRejected:
		return []string{"email", "whatsapp"}
	default:
		return []string{"email"}
	}
}
