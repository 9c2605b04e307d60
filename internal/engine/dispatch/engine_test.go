// internal/engine/dispatch/engine_test.go
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"notification-engine/internal/common/config"
	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/engine/provider"
	"notification-engine/internal/models"
)

// ==========================
// Test Harness
// ==========================

var testClock = time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

type MockSettings struct {
	GetChannelSettingsFunc func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error)
	GetTenantNameFunc      func(ctx context.Context, tenantID string) (string, error)
}

func (m *MockSettings) GetChannelSettings(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
	if m.GetChannelSettingsFunc != nil {
		return m.GetChannelSettingsFunc(ctx, tenantID, channel)
	}
	return nil, nil
}

func (m *MockSettings) GetTenantName(ctx context.Context, tenantID string) (string, error) {
	if m.GetTenantNameFunc != nil {
		return m.GetTenantNameFunc(ctx, tenantID)
	}
	return "", nil
}

type MockTemplates struct {
	ResolveFunc func(ctx context.Context, tenantID, code string, channel models.Channel, language string) *models.NotificationTemplate
}

func (m *MockTemplates) Resolve(ctx context.Context, tenantID, code string, channel models.Channel, language string) *models.NotificationTemplate {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, tenantID, code, channel, language)
	}
	return nil
}

type sentCall struct {
	id                string
	externalMessageID string
	sentAt            time.Time
}

type retryingCall struct {
	id           string
	retryCount   int
	nextRetryAt  time.Time
	errorMessage string
}

type failedCall struct {
	id           string
	retryCount   int
	errorMessage string
	failedAt     time.Time
}

// MockLedger records every mutation in order; the per-method funcs force
// error outcomes.
type MockLedger struct {
	InsertFunc   func(ctx context.Context, entry *models.NotificationLog) error
	MarkSentFunc func(ctx context.Context, id, externalMessageID string, sentAt time.Time) error

	inserted []*models.NotificationLog
	sent     []sentCall
	retrying []retryingCall
	failed   []failedCall
}

func (m *MockLedger) Insert(ctx context.Context, entry *models.NotificationLog) error {
	if m.InsertFunc != nil {
		if err := m.InsertFunc(ctx, entry); err != nil {
			return err
		}
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("log-%d", len(m.inserted)+1)
	}
	if entry.Status == "" {
		entry.Status = models.StatusPending
	}
	m.inserted = append(m.inserted, entry)
	return nil
}

func (m *MockLedger) MarkSent(ctx context.Context, id, externalMessageID string, sentAt time.Time) error {
	if m.MarkSentFunc != nil {
		if err := m.MarkSentFunc(ctx, id, externalMessageID, sentAt); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, sentCall{id: id, externalMessageID: externalMessageID, sentAt: sentAt})
	return nil
}

func (m *MockLedger) MarkRetrying(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, errorMessage string) error {
	m.retrying = append(m.retrying, retryingCall{id: id, retryCount: retryCount, nextRetryAt: nextRetryAt, errorMessage: errorMessage})
	return nil
}

func (m *MockLedger) MarkFailed(ctx context.Context, id string, retryCount int, errorMessage string, failedAt time.Time) error {
	m.failed = append(m.failed, failedCall{id: id, retryCount: retryCount, errorMessage: errorMessage, failedAt: failedAt})
	return nil
}

type providerCall struct {
	to      string
	subject string
	body    string
}

// scriptedAdapter returns canned results in call order, repeating the
// last one.
type scriptedAdapter struct {
	name    string
	results []provider.Result
	calls   []providerCall
}

func (a *scriptedAdapter) Name() string { return a.name }

func (a *scriptedAdapter) Send(ctx context.Context, cfg *models.ProviderConfig, to, subject, body string) provider.Result {
	a.calls = append(a.calls, providerCall{to: to, subject: subject, body: body})
	idx := len(a.calls) - 1
	if idx >= len(a.results) {
		idx = len(a.results) - 1
	}
	return a.results[idx]
}

type recordingSink struct {
	statuses []models.Status
}

func (s *recordingSink) Record(ctx context.Context, entry *models.NotificationLog) {
	s.statuses = append(s.statuses, entry.Status)
}

func newTestEngine(t *testing.T, settings *MockSettings, tmpl *MockTemplates, led *MockLedger, adapters *provider.Registry) *Engine {
	t.Helper()
	cfg := config.DispatchConfig{DefaultLanguage: "en", MaxRetries: 3, ProviderTimeoutMs: 5000}
	eng := New(cfg, settings, tmpl, led, adapters, logger.NewTestLogger(t))
	eng.now = func() time.Time { return testClock }
	return eng
}

func registryWith(channel models.Channel, adapter provider.Adapter) *provider.Registry {
	reg := provider.NewRegistry()
	reg.Register(channel, adapter)
	return reg
}

func twilioSettings(tenantID string) *models.ChannelSettings {
	return &models.ChannelSettings{
		TenantID:     tenantID,
		Channel:      models.ChannelWhatsApp,
		IsEnabled:    true,
		ProviderName: models.ProviderTwilio,
		Config:       json.RawMessage(`{"accountId":"AC123","authToken":"secret","fromNumber":"+15550001111"}`),
	}
}

func sendgridSettings(tenantID string) *models.ChannelSettings {
	return &models.ChannelSettings{
		TenantID:     tenantID,
		Channel:      models.ChannelEmail,
		IsEnabled:    true,
		ProviderName: models.ProviderSendgrid,
		Config:       json.RawMessage(`{"apiKey":"sg-key","fromAddress":"billing@globex.test"}`),
	}
}

func overdueRequest() Request {
	return Request{
		TenantID:  "tenant-1",
		Channel:   models.ChannelWhatsApp,
		EventType: "invoice_overdue",
		Recipient: models.Recipient{Phone: "+15551234567", Name: "Acme"},
		Variables: map[string]interface{}{
			"customerName":  "Acme",
			"invoiceNumber": "INV-100",
			"balanceAmount": "250.00",
			"currency":      "USD",
		},
		Options: Options{ReferenceID: "inv-100", ReferenceType: "invoice"},
	}
}

// ==========================
// Successful Dispatch
// ==========================

func TestEngine_Send_WhatsAppDelivered(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			assert.Equal(t, "tenant-1", tenantID)
			assert.Equal(t, models.ChannelWhatsApp, channel)
			return twilioSettings(tenantID), nil
		},
		GetTenantNameFunc: func(ctx context.Context, tenantID string) (string, error) {
			return "Globex Corporation", nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	res := eng.Send(context.Background(), overdueRequest())

	assert.True(t, res.Success)
	assert.Equal(t, "log-1", res.LogID)
	assert.Equal(t, "SM-1", res.MessageID)
	assert.Nil(t, res.Error)

	assert.Len(t, led.inserted, 1)
	entry := led.inserted[0]
	assert.Equal(t, "tenant-1", entry.TenantID)
	assert.Equal(t, models.ChannelWhatsApp, entry.Channel)
	assert.Equal(t, "invoice_overdue", entry.EventType)
	assert.Equal(t, "+15551234567", entry.Recipient)
	assert.Equal(t, "Hello Acme, invoice INV-100 from Globex Corporation is overdue. Outstanding balance: USD 250.00.", entry.Body)
	assert.Empty(t, entry.Subject)
	assert.Equal(t, 3, entry.MaxRetries)
	assert.Equal(t, "inv-100", entry.ReferenceID)
	assert.Equal(t, "invoice", entry.ReferenceType)

	assert.Equal(t, models.StatusSent, entry.Status)
	assert.Equal(t, "SM-1", entry.ExternalMessageID)
	assert.NotNil(t, entry.SentAt)
	assert.Equal(t, testClock, *entry.SentAt)
	assert.Nil(t, entry.NextRetryAt)

	assert.Len(t, adapter.calls, 1)
	assert.Equal(t, "+15551234567", adapter.calls[0].to)
	assert.Equal(t, entry.Body, adapter.calls[0].body)

	assert.Equal(t, []sentCall{{id: "log-1", externalMessageID: "SM-1", sentAt: testClock}}, led.sent)
}

func TestEngine_Send_EmailUsesStoredTemplate(t *testing.T) {
	var resolved struct {
		tenantID, code, language string
		channel                  models.Channel
	}
	tmpl := &MockTemplates{
		ResolveFunc: func(ctx context.Context, tenantID, code string, channel models.Channel, language string) *models.NotificationTemplate {
			resolved.tenantID, resolved.code, resolved.channel, resolved.language = tenantID, code, channel, language
			return &models.NotificationTemplate{
				TenantID: tenantID,
				Code:     code,
				Channel:  channel,
				Language: language,
				Subject:  "Invoice {{invoiceNumber}} for {{customerName}}",
				Body:     "Total {{currency}} {{totalAmount}} from {{tenantName}}.",
				IsActive: true,
			}
		},
	}
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return sendgridSettings(tenantID), nil
		},
		GetTenantNameFunc: func(ctx context.Context, tenantID string) (string, error) {
			return "Globex", nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderSendgrid, results: []provider.Result{{Success: true, MessageID: "sg-1"}}}
	eng := newTestEngine(t, settings, tmpl, led, registryWith(models.ChannelEmail, adapter))

	res := eng.Send(context.Background(), Request{
		TenantID:  "tenant-1",
		Channel:   models.ChannelEmail,
		EventType: "invoice_created",
		Recipient: models.Recipient{Email: "ops@acme.test"},
		Variables: map[string]interface{}{
			"customerName":  "Acme",
			"invoiceNumber": "INV-7",
			"totalAmount":   "99.00",
			"currency":      "USD",
		},
	})

	assert.True(t, res.Success)
	assert.Equal(t, "tenant-1", resolved.tenantID)
	assert.Equal(t, "invoice_created", resolved.code)
	assert.Equal(t, models.ChannelEmail, resolved.channel)
	assert.Equal(t, "en", resolved.language)

	entry := led.inserted[0]
	assert.Equal(t, "Invoice INV-7 for Acme", entry.Subject)
	assert.Equal(t, "Total USD 99.00 from Globex.", entry.Body)
	assert.Equal(t, "ops@acme.test", entry.Recipient)
	assert.Equal(t, entry.Subject, adapter.calls[0].subject)
}

func TestEngine_Send_TemplateCodeOverride(t *testing.T) {
	var resolvedCode string
	tmpl := &MockTemplates{
		ResolveFunc: func(ctx context.Context, tenantID, code string, channel models.Channel, language string) *models.NotificationTemplate {
			resolvedCode = code
			return nil
		},
	}
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
	eng := newTestEngine(t, settings, tmpl, led, registryWith(models.ChannelWhatsApp, adapter))

	req := overdueRequest()
	req.Options.TemplateCodeOverride = "invoice_overdue_final"
	res := eng.Send(context.Background(), req)

	assert.True(t, res.Success)
	assert.Equal(t, "invoice_overdue_final", resolvedCode)
	// The ledger keeps the triggering event type, not the override.
	assert.Equal(t, "invoice_overdue", led.inserted[0].EventType)
}

func TestEngine_Send_CallerTenantNameWins(t *testing.T) {
	lookupCalled := false
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
		GetTenantNameFunc: func(ctx context.Context, tenantID string) (string, error) {
			lookupCalled = true
			return "Store Name", nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	req := overdueRequest()
	req.Variables["tenantName"] = "Caller Name"
	res := eng.Send(context.Background(), req)

	assert.True(t, res.Success)
	assert.False(t, lookupCalled)
	assert.Contains(t, led.inserted[0].Body, "Caller Name")
}

func TestEngine_Send_TenantNameLookupFailureStillSends(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
		GetTenantNameFunc: func(ctx context.Context, tenantID string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	res := eng.Send(context.Background(), overdueRequest())

	assert.True(t, res.Success)
	assert.NotContains(t, led.inserted[0].Body, "{{tenantName}}")
}

// ==========================
// Configuration Short-Circuits
// ==========================

func TestEngine_Send_ConfigurationShortCircuits(t *testing.T) {
	tests := []struct {
		name         string
		settings     *models.ChannelSettings
		settingsErr  error
		mutate       func(*Request)
		expectedCode commonerrors.ErrorCode
	}{
		{
			name: "disabled channel",
			settings: &models.ChannelSettings{
				TenantID: "tenant-1", Channel: models.ChannelWhatsApp,
				IsEnabled: false, ProviderName: models.ProviderTwilio,
			},
			expectedCode: commonerrors.ErrCodeChannelDisabled,
		},
		{
			name:         "no settings row",
			settings:     nil,
			expectedCode: commonerrors.ErrCodeChannelNotConfigured,
		},
		{
			name:         "settings lookup error",
			settingsErr:  errors.New("connection refused"),
			expectedCode: commonerrors.ErrCodeDatabaseError,
		},
		{
			name: "no adapter for provider",
			settings: &models.ChannelSettings{
				TenantID: "tenant-1", Channel: models.ChannelWhatsApp,
				IsEnabled: true, ProviderName: "mailchimp",
				Config: json.RawMessage(`{"apiKey":"x"}`),
			},
			expectedCode: commonerrors.ErrCodeInvalidProviderConfig,
		},
		{
			name: "config missing required fields",
			settings: &models.ChannelSettings{
				TenantID: "tenant-1", Channel: models.ChannelWhatsApp,
				IsEnabled: true, ProviderName: models.ProviderTwilio,
				Config: json.RawMessage(`{"accountId":"AC123"}`),
			},
			expectedCode: commonerrors.ErrCodeInvalidProviderConfig,
		},
		{
			name:     "missing recipient address",
			settings: twilioSettings("tenant-1"),
			mutate: func(req *Request) {
				req.Recipient = models.Recipient{Name: "Acme"}
			},
			expectedCode: commonerrors.ErrCodeMissingRecipient,
		},
		{
			name:     "malformed phone recipient",
			settings: twilioSettings("tenant-1"),
			mutate: func(req *Request) {
				req.Recipient = models.Recipient{Phone: "call-me-maybe"}
			},
			expectedCode: commonerrors.ErrCodeValidationFailed,
		},
		{
			name: "unsupported channel",
			mutate: func(req *Request) {
				req.Channel = models.Channel("pager")
			},
			expectedCode: commonerrors.ErrCodeUnsupportedChannel,
		},
		{
			name: "missing tenant id",
			mutate: func(req *Request) {
				req.TenantID = ""
			},
			expectedCode: commonerrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &MockSettings{
				GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
					return tt.settings, tt.settingsErr
				},
			}
			led := &MockLedger{}
			adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
			eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

			req := overdueRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			res := eng.Send(context.Background(), req)

			assert.False(t, res.Success)
			assert.Empty(t, res.LogID)
			assert.NotNil(t, res.Error)
			assert.Equal(t, tt.expectedCode, res.Error.Code)

			// Configuration failures leave no trace: no ledger rows, no
			// provider traffic.
			assert.Empty(t, led.inserted)
			assert.Empty(t, adapter.calls)
		})
	}
}

func TestEngine_Send_MalformedEmailRejected(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return sendgridSettings(tenantID), nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderSendgrid, results: []provider.Result{{Success: true, MessageID: "sg-1"}}}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelEmail, adapter))

	req := overdueRequest()
	req.Channel = models.ChannelEmail
	req.Recipient = models.Recipient{Email: "billing-at-acme", Name: "Acme"}
	res := eng.Send(context.Background(), req)

	assert.False(t, res.Success)
	assert.NotNil(t, res.Error)
	assert.Equal(t, commonerrors.ErrCodeValidationFailed, res.Error.Code)
	assert.Empty(t, led.inserted)
	assert.Empty(t, adapter.calls)
}

func TestEngine_Send_PhoneNormalizedForProvider(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	req := overdueRequest()
	req.Recipient = models.Recipient{Phone: "+1 (555) 123-4567", Name: "Acme"}
	res := eng.Send(context.Background(), req)

	assert.True(t, res.Success)
	// Formatting characters are stripped before the provider sees the
	// number, and the ledger records the address actually dialed.
	assert.Equal(t, "+15551234567", adapter.calls[0].to)
	assert.Equal(t, "+15551234567", led.inserted[0].Recipient)
}

func TestEngine_Send_InsertFailureSkipsProviderCall(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{
		InsertFunc: func(ctx context.Context, entry *models.NotificationLog) error {
			return errors.New("disk full")
		},
	}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true}}}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	res := eng.Send(context.Background(), overdueRequest())

	assert.False(t, res.Success)
	assert.Empty(t, res.LogID)
	assert.Equal(t, commonerrors.ErrCodeDatabaseError, res.Error.Code)
	assert.Empty(t, adapter.calls, "untracked sends are not allowed")
}

// ==========================
// Failure Transitions
// ==========================

func TestEngine_Send_TransientFailureSchedulesRetry(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{
		name:    models.ProviderTwilio,
		results: []provider.Result{{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 500, "upstream down")}},
	}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	res := eng.Send(context.Background(), overdueRequest())

	assert.False(t, res.Success)
	assert.Equal(t, "log-1", res.LogID)
	assert.Equal(t, commonerrors.ErrCodeProviderUnavailable, res.Error.Code)

	entry := led.inserted[0]
	assert.Equal(t, models.StatusRetrying, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	assert.NotNil(t, entry.NextRetryAt)
	assert.Equal(t, testClock.Add(10*time.Minute), *entry.NextRetryAt)
	assert.Contains(t, entry.ErrorMessage, "PROVIDER_UNAVAILABLE")
	assert.Contains(t, entry.ErrorMessage, "upstream down")

	assert.Len(t, led.retrying, 1)
	assert.Equal(t, "log-1", led.retrying[0].id)
	assert.Equal(t, 1, led.retrying[0].retryCount)
	assert.Equal(t, testClock.Add(10*time.Minute), led.retrying[0].nextRetryAt)
	assert.Empty(t, led.failed)
}

func TestEngine_Send_RejectionConsumesRetryBudget(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{
		name:    models.ProviderTwilio,
		results: []provider.Result{{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 400, "invalid number")}},
	}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	res := eng.Send(context.Background(), overdueRequest())

	// Rejections ride the same ladder as transient failures; the budget
	// bounds them instead of a special case.
	assert.False(t, res.Success)
	assert.Equal(t, commonerrors.ErrCodeProviderRejected, res.Error.Code)
	assert.Equal(t, models.StatusRetrying, led.inserted[0].Status)
	assert.Equal(t, 1, led.inserted[0].RetryCount)
}

func TestEngine_Resend_DeliversStoredContent(t *testing.T) {
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-2"}}}
	eng := newTestEngine(t, &MockSettings{}, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	entry := &models.NotificationLog{
		ID:         "log-9",
		TenantID:   "tenant-1",
		Channel:    models.ChannelWhatsApp,
		EventType:  "invoice_overdue",
		Recipient:  "+15551234567",
		Body:       "Content rendered at first attempt, with {{placeholders}} left alone.",
		Status:     models.StatusPending,
		RetryCount: 1,
		MaxRetries: 3,
	}
	res := eng.Resend(context.Background(), entry, twilioSettings("tenant-1"))

	assert.True(t, res.Success)
	assert.Equal(t, "log-9", res.LogID)
	assert.Equal(t, "SM-2", res.MessageID)

	assert.Len(t, adapter.calls, 1)
	assert.Equal(t, "Content rendered at first attempt, with {{placeholders}} left alone.", adapter.calls[0].body)

	assert.Empty(t, led.inserted, "resend reuses the existing ledger row")
	assert.Equal(t, []sentCall{{id: "log-9", externalMessageID: "SM-2", sentAt: testClock}}, led.sent)
	assert.Equal(t, models.StatusSent, entry.Status)
	assert.Nil(t, entry.NextRetryAt)
}

func TestEngine_Resend_FailureExhaustsBudget(t *testing.T) {
	led := &MockLedger{}
	adapter := &scriptedAdapter{
		name:    models.ProviderTwilio,
		results: []provider.Result{{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 503, "still down")}},
	}
	eng := newTestEngine(t, &MockSettings{}, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	entry := &models.NotificationLog{
		ID:         "log-9",
		TenantID:   "tenant-1",
		Channel:    models.ChannelWhatsApp,
		Recipient:  "+15551234567",
		Body:       "stored body",
		Status:     models.StatusPending,
		RetryCount: 2,
		MaxRetries: 3,
	}
	res := eng.Resend(context.Background(), entry, twilioSettings("tenant-1"))

	assert.False(t, res.Success)
	assert.Equal(t, 3, entry.RetryCount)
	assert.Equal(t, models.StatusFailed, entry.Status)
	assert.NotNil(t, entry.FailedAt)
	assert.Equal(t, testClock, *entry.FailedAt)
	assert.Nil(t, entry.NextRetryAt)

	assert.Empty(t, led.retrying)
	assert.Len(t, led.failed, 1)
	assert.Equal(t, failedCall{id: "log-9", retryCount: 3, errorMessage: entry.ErrorMessage, failedAt: testClock}, led.failed[0])
}

func TestEngine_Resend_UnknownProviderCountsAsAttempt(t *testing.T) {
	led := &MockLedger{}
	adapter := &scriptedAdapter{name: models.ProviderTwilio}
	eng := newTestEngine(t, &MockSettings{}, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	entry := &models.NotificationLog{
		ID: "log-9", TenantID: "tenant-1", Channel: models.ChannelWhatsApp,
		Recipient: "+15551234567", Body: "stored body",
		Status: models.StatusPending, RetryCount: 0, MaxRetries: 3,
	}
	st := twilioSettings("tenant-1")
	st.ProviderName = "mailchimp"

	res := eng.Resend(context.Background(), entry, st)

	assert.False(t, res.Success)
	assert.Equal(t, commonerrors.ErrCodeInvalidProviderConfig, res.Error.Code)
	assert.Equal(t, models.StatusRetrying, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	assert.Empty(t, adapter.calls)
}

func TestEngine_BackoffSchedule(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{
		name:    models.ProviderTwilio,
		results: []provider.Result{{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 500, "down")}},
	}
	cfg := config.DispatchConfig{DefaultLanguage: "en", MaxRetries: 4, ProviderTimeoutMs: 5000}
	eng := New(cfg, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter), logger.NewTestLogger(t))
	eng.now = func() time.Time { return testClock }

	res := eng.Send(context.Background(), overdueRequest())
	assert.False(t, res.Success)
	entry := led.inserted[0]

	st := twilioSettings("tenant-1")
	eng.Resend(context.Background(), entry, st)
	eng.Resend(context.Background(), entry, st)
	eng.Resend(context.Background(), entry, st)

	assert.Len(t, led.retrying, 3)
	assert.Equal(t, testClock.Add(10*time.Minute), led.retrying[0].nextRetryAt)
	assert.Equal(t, testClock.Add(20*time.Minute), led.retrying[1].nextRetryAt)
	assert.Equal(t, testClock.Add(40*time.Minute), led.retrying[2].nextRetryAt)

	// The fourth failure is terminal: failed, no next retry.
	assert.Len(t, led.failed, 1)
	assert.Equal(t, 4, led.failed[0].retryCount)
	assert.Equal(t, models.StatusFailed, entry.Status)
	assert.Nil(t, entry.NextRetryAt)
}

func TestEngine_ThreeServerErrorsExhaustRetries(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{}
	adapter := &scriptedAdapter{
		name: models.ProviderTwilio,
		results: []provider.Result{
			{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 500, "first error")},
			{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 500, "second error")},
			{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 500, "third error")},
		},
	}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	res := eng.Send(context.Background(), overdueRequest())
	assert.False(t, res.Success)
	entry := led.inserted[0]

	st := twilioSettings("tenant-1")
	eng.Resend(context.Background(), entry, st)
	eng.Resend(context.Background(), entry, st)

	assert.Len(t, adapter.calls, 3)
	assert.Equal(t, 3, entry.RetryCount)
	assert.Equal(t, models.StatusFailed, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "third error")
	assert.Len(t, led.failed, 1)
	assert.Contains(t, led.failed[0].errorMessage, "third error")
}

func TestEngine_Send_MarkSentFailureStillReportsSuccess(t *testing.T) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
	}
	led := &MockLedger{
		MarkSentFunc: func(ctx context.Context, id, externalMessageID string, sentAt time.Time) error {
			return errors.New("connection reset")
		},
	}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
	eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter))

	res := eng.Send(context.Background(), overdueRequest())

	// The provider accepted the message; reporting failure here would
	// invite a duplicate send from the caller.
	assert.True(t, res.Success)
	assert.Equal(t, "SM-1", res.MessageID)
}

// ==========================
// Audit Mirroring
// ==========================

func TestEngine_AuditReceivesTerminalOutcomes(t *testing.T) {
	t.Run("sent outcome recorded", func(t *testing.T) {
		settings := &MockSettings{
			GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
				return twilioSettings(tenantID), nil
			},
		}
		sink := &recordingSink{}
		adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
		eng := newTestEngine(t, settings, &MockTemplates{}, &MockLedger{}, registryWith(models.ChannelWhatsApp, adapter)).WithAudit(sink)

		eng.Send(context.Background(), overdueRequest())

		assert.Equal(t, []models.Status{models.StatusSent}, sink.statuses)
	})

	t.Run("retrying outcome not recorded until terminal", func(t *testing.T) {
		settings := &MockSettings{
			GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
				return twilioSettings(tenantID), nil
			},
		}
		sink := &recordingSink{}
		led := &MockLedger{}
		adapter := &scriptedAdapter{
			name:    models.ProviderTwilio,
			results: []provider.Result{{Success: false, Error: commonerrors.FromHTTPStatus(models.ProviderTwilio, 500, "down")}},
		}
		eng := newTestEngine(t, settings, &MockTemplates{}, led, registryWith(models.ChannelWhatsApp, adapter)).WithAudit(sink)

		eng.Send(context.Background(), overdueRequest())
		assert.Empty(t, sink.statuses)

		entry := led.inserted[0]
		st := twilioSettings("tenant-1")
		eng.Resend(context.Background(), entry, st)
		assert.Empty(t, sink.statuses)

		eng.Resend(context.Background(), entry, st)
		assert.Equal(t, []models.Status{models.StatusFailed}, sink.statuses)
	})
}

// ==========================
// Helpers
// ==========================

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		retryCount int
		expected   time.Duration
	}{
		{1, 10 * time.Minute},
		{2, 20 * time.Minute},
		{3, 40 * time.Minute},
		{4, 80 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoffDelay(tt.retryCount), "retryCount=%d", tt.retryCount)
	}
}

func TestErrorText(t *testing.T) {
	withDetails := commonerrors.NewProviderUnavailableError("twilio", "status 500: boom")
	assert.Equal(t, "PROVIDER_UNAVAILABLE: Provider twilio unavailable: status 500: boom", errorText(withDetails))

	withoutDetails := commonerrors.NewRateLimitedError("twilio")
	assert.Equal(t, "RATE_LIMITED: Provider twilio rate limited the request", errorText(withoutDetails))
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkEngine_Send(b *testing.B) {
	settings := &MockSettings{
		GetChannelSettingsFunc: func(ctx context.Context, tenantID string, channel models.Channel) (*models.ChannelSettings, error) {
			return twilioSettings(tenantID), nil
		},
		GetTenantNameFunc: func(ctx context.Context, tenantID string) (string, error) {
			return "Globex Corporation", nil
		},
	}
	adapter := &scriptedAdapter{name: models.ProviderTwilio, results: []provider.Result{{Success: true, MessageID: "SM-1"}}}
	cfg := config.DispatchConfig{DefaultLanguage: "en", MaxRetries: 3, ProviderTimeoutMs: 5000}
	eng := New(cfg, settings, &MockTemplates{}, &MockLedger{}, registryWith(models.ChannelWhatsApp, adapter), logger.NewNoOpLogger())

	req := overdueRequest()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eng.Send(ctx, req)
	}
}
