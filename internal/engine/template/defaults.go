// internal/engine/template/defaults.go
package template

import (
	"notification-engine/internal/models"
)

type defaultContent struct {
	Subject string
	Body    string
}

// Compiled-in fallback content, keyed by event code and channel. Every
// supported event renders to something even for tenants that never
// configured a template.
var defaultTemplates = map[string]map[models.Channel]defaultContent{
	"invoice_created": {
		models.ChannelEmail: {
			Subject: "Invoice {{invoiceNumber}} from {{tenantName}}",
			Body:    "Hello {{customerName}},\n\n{{tenantName}} has issued invoice {{invoiceNumber}} for {{currency}} {{totalAmount}}, due on {{dueDate}}.\n\nThank you for your business.",
		},
		models.ChannelWhatsApp: {
			Body: "Hello {{customerName}}, invoice {{invoiceNumber}} for {{currency}} {{totalAmount}} from {{tenantName}} is due on {{dueDate}}.",
		},
		models.ChannelSMS: {
			Body: "Invoice {{invoiceNumber}} for {{currency}} {{totalAmount}} from {{tenantName}} is due on {{dueDate}}.",
		},
	},
	"invoice_overdue": {
		models.ChannelEmail: {
			Subject: "Payment reminder: invoice {{invoiceNumber}} is overdue",
			Body:    "Hello {{customerName}},\n\nInvoice {{invoiceNumber}} from {{tenantName}} has an outstanding balance of {{currency}} {{balanceAmount}}. Please arrange payment at your earliest convenience.",
		},
		models.ChannelWhatsApp: {
			Body: "Hello {{customerName}}, invoice {{invoiceNumber}} from {{tenantName}} is overdue. Outstanding balance: {{currency}} {{balanceAmount}}.",
		},
		models.ChannelSMS: {
			Body: "Invoice {{invoiceNumber}} from {{tenantName}} is overdue. Balance due: {{currency}} {{balanceAmount}}.",
		},
	},
	"payment_received": {
		models.ChannelEmail: {
			Subject: "Payment received for invoice {{invoiceNumber}}",
			Body:    "Hello {{customerName}},\n\n{{tenantName}} has received your payment of {{currency}} {{amountPaid}} for invoice {{invoiceNumber}}. Thank you.",
		},
		models.ChannelWhatsApp: {
			Body: "Hello {{customerName}}, {{tenantName}} received your payment of {{currency}} {{amountPaid}} for invoice {{invoiceNumber}}. Thank you.",
		},
		models.ChannelSMS: {
			Body: "Payment of {{currency}} {{amountPaid}} received for invoice {{invoiceNumber}}. Thank you.",
		},
	},
	"payslip_ready": {
		models.ChannelEmail: {
			Subject: "Your payslip for {{month}} {{year}} is ready",
			Body:    "Hello {{employeeName}},\n\nYour payslip for {{month}} {{year}} is now available. Net pay: {{currency}} {{netPay}}.\n\n{{tenantName}} HR",
		},
		models.ChannelWhatsApp: {
			Body: "Hello {{employeeName}}, your {{month}} {{year}} payslip from {{tenantName}} is ready. Net pay: {{currency}} {{netPay}}.",
		},
		models.ChannelSMS: {
			Body: "Your {{month}} {{year}} payslip from {{tenantName}} is ready.",
		},
	},
	"leave_approved": {
		models.ChannelEmail: {
			Subject: "Leave request approved",
			Body:    "Hello {{employeeName}},\n\nYour {{leaveType}} leave from {{startDate}} to {{endDate}} has been approved.\n\n{{tenantName}} HR",
		},
		models.ChannelWhatsApp: {
			Body: "Hello {{employeeName}}, your {{leaveType}} leave from {{startDate}} to {{endDate}} has been approved.",
		},
		models.ChannelSMS: {
			Body: "Your {{leaveType}} leave from {{startDate}} to {{endDate}} has been approved.",
		},
	},
	"leave_rejected": {
		models.ChannelEmail: {
			Subject: "Leave request update",
			Body:    "Hello {{employeeName}},\n\nYour {{leaveType}} leave request from {{startDate}} to {{endDate}} was not approved. Reason: {{reason}}.\n\n{{tenantName}} HR",
		},
		models.ChannelWhatsApp: {
			Body: "Hello {{employeeName}}, your {{leaveType}} leave request from {{startDate}} to {{endDate}} was not approved. Reason: {{reason}}.",
		},
		models.ChannelSMS: {
			Body: "Your {{leaveType}} leave request was not approved. Reason: {{reason}}.",
		},
	},
}

var genericDefault = map[models.Channel]defaultContent{
	models.ChannelEmail: {
		Subject: "Notification from {{tenantName}}",
		Body:    "Hello,\n\nYou have a new update from {{tenantName}}.",
	},
	models.ChannelWhatsApp: {
		Body: "You have a new update from {{tenantName}}.",
	},
	models.ChannelSMS: {
		Body: "You have a new update from {{tenantName}}.",
	},
}

// DefaultFor returns compiled-in content for an event code and channel.
// Unknown codes fall back to a generic notification so every send has
// renderable content.
func DefaultFor(code string, channel models.Channel) *models.NotificationTemplate {
	content, ok := defaultTemplates[code][channel]
	if !ok {
		content, ok = genericDefault[channel]
		if !ok {
			content = genericDefault[models.ChannelEmail]
		}
	}
	return &models.NotificationTemplate{
		TenantID: models.GlobalTenantID,
		Code:     code,
		Channel:  channel,
		Language: models.DefaultLanguage,
		Subject:  content.Subject,
		Body:     content.Body,
		IsActive: true,
	}
}
