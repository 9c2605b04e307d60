// internal/models/template.go
package models

import "time"

const (
	// GlobalTenantID is the tenant scope sentinel for templates shared by
	// every tenant.
	GlobalTenantID = ""

	// DefaultLanguage is the language every resolution chain falls back to.
	DefaultLanguage = "en"
)

// NotificationTemplate is one renderable message variant, scoped to a
// tenant or global, keyed by (code, channel, language).
type NotificationTemplate struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"` // empty = global/shared
	Code      string    `json:"code"`     // logical identifier, e.g. "invoice_overdue"
	Channel   Channel   `json:"channel"`
	Language  string    `json:"language"`
	Subject   string    `json:"subject,omitempty"` // email only
	Body      string    `json:"body"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsGlobal reports whether the template is platform-shared rather than
// tenant-owned.
func (t *NotificationTemplate) IsGlobal() bool {
	return t.TenantID == GlobalTenantID
}
