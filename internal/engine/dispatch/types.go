// internal/engine/dispatch/types.go
package dispatch

import (
	"context"
	"time"

	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/models"
)

// Request is one dispatch call: deliver one event to one recipient on
// one channel.
type Request struct {
	TenantID  string                 `json:"tenantId"`
	Channel   models.Channel         `json:"channel"`
	EventType string                 `json:"eventType"`
	Recipient models.Recipient       `json:"recipient"`
	Variables map[string]interface{} `json:"variables,omitempty"`
	Options   Options                `json:"options,omitempty"`
}

// Options carries the optional dispatch parameters.
type Options struct {
	ReferenceID          string `json:"referenceId,omitempty"`
	ReferenceType        string `json:"referenceType,omitempty"`
	UserID               string `json:"userId,omitempty"`
	TemplateCodeOverride string `json:"templateCodeOverride,omitempty"`
}

// Result is the synchronous outcome of the first delivery attempt. Later
// retries run asynchronously and are observable only through the ledger.
// LogID is set whenever a ledger entry exists, including on failure, so
// callers can surface it to operators.
type Result struct {
	Success   bool                        `json:"success"`
	LogID     string                      `json:"logId,omitempty"`
	MessageID string                      `json:"messageId,omitempty"`
	Error     *commonerrors.StandardError `json:"error,omitempty"`
}

// SettingsReader is the slice of the settings store the orchestrator
// reads. Interface for mocking.
type SettingsReader interface {
	GetChannelSettings(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error)
	GetTenantName(ctx context.Context, tenantID string) (string, error)
}

// TemplateSource resolves stored templates; nil means no active template
// matched anywhere in the fallback chain. Interface for mocking.
type TemplateSource interface {
	Resolve(ctx context.Context, tenantID, code string, channel models.Channel, language string) *models.NotificationTemplate
}

// LedgerWriter is the slice of the ledger store the orchestrator
// mutates. Interface for mocking.
type LedgerWriter interface {
	Insert(ctx context.Context, entry *models.NotificationLog) error
	MarkSent(ctx context.Context, id, externalMessageID string, sentAt time.Time) error
	MarkRetrying(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, errorMessage string) error
	MarkFailed(ctx context.Context, id string, retryCount int, errorMessage string, failedAt time.Time) error
}

// AuditSink receives terminal ledger outcomes (sent or failed).
// Implementations must not block or fail the dispatch path.
type AuditSink interface {
	Record(ctx context.Context, entry *models.NotificationLog)
}
