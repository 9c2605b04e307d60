// internal/engine/dispatch/engine.go
package dispatch

import (
	"context"
	"fmt"
	"time"

	"notification-engine/internal/common/config"
	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/common/logger"
	"notification-engine/internal/common/metrics"
	"notification-engine/internal/common/observability"
	"notification-engine/internal/common/validation"
	"notification-engine/internal/engine/provider"
	"notification-engine/internal/engine/template"
	"notification-engine/internal/models"
)

// Engine is the dispatch orchestrator. It coordinates settings lookup,
// template resolution and rendering, ledger bookkeeping and the provider
// call for every notification, and applies the retry state machine to
// delivery failures. Send never panics across this boundary; every
// failure mode comes back as a Result value.
type Engine struct {
	cfg      config.DispatchConfig
	settings SettingsReader
	tmpl     TemplateSource
	entries  LedgerWriter
	adapters *provider.Registry
	audit    AuditSink
	obs      *observability.Observability
	log      logger.Logger
	now      func() time.Time
}

// New wires the orchestrator. Audit and observability are optional and
// attached with the With* methods.
func New(cfg config.DispatchConfig, settings SettingsReader, tmpl TemplateSource, entries LedgerWriter, adapters *provider.Registry, log logger.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		settings: settings,
		tmpl:     tmpl,
		entries:  entries,
		adapters: adapters,
		log:      log,
		now:      time.Now,
	}
}

// WithAudit attaches a sink that mirrors terminal outcomes.
func (e *Engine) WithAudit(sink AuditSink) *Engine {
	e.audit = sink
	return e
}

// WithObservability attaches the OpenTelemetry dispatch instruments.
func (e *Engine) WithObservability(obs *observability.Observability) *Engine {
	e.obs = obs
	return e
}

// Send runs one notification through the full dispatch algorithm:
// settings validation, tenant-name enrichment, template resolution and
// rendering, ledger insert, provider call, ledger transition.
//
// Configuration problems (disabled channel, missing settings, bad
// credentials, missing recipient address) fail before any ledger row or
// network call; they need an admin, not a retry. Once a ledger row
// exists, delivery failures transition it through the retry state
// machine and the returned Result carries the ledger id alongside the
// error.
func (e *Engine) Send(ctx context.Context, req Request) Result {
	start := e.now()
	defer func() {
		metrics.DispatchDuration.WithLabelValues(string(req.Channel)).Observe(e.now().Sub(start).Seconds())
	}()

	log := e.log.WithFields(map[string]interface{}{
		"tenantId":  req.TenantID,
		"channel":   string(req.Channel),
		"eventType": req.EventType,
	})

	if req.TenantID == "" || req.EventType == "" {
		return e.reject(ctx, req, commonerrors.NewValidationError("tenantId and eventType are required", ""), log)
	}
	if !req.Channel.Valid() {
		return e.reject(ctx, req, commonerrors.NewUnsupportedChannelError(string(req.Channel)), log)
	}

	st, err := e.settings.GetChannelSettings(ctx, req.TenantID, req.Channel)
	if err != nil {
		log.Error("channel settings lookup failed", map[string]interface{}{"error": err.Error()})
		return e.reject(ctx, req, commonerrors.NewDatabaseError("get channel settings", err), log)
	}
	if st == nil {
		return e.reject(ctx, req, commonerrors.NewChannelNotConfiguredError(req.TenantID, string(req.Channel)), log)
	}
	if !st.IsEnabled {
		return e.reject(ctx, req, commonerrors.NewChannelDisabledError(req.TenantID, string(req.Channel)), log)
	}

	adapter, ok := e.adapters.Lookup(req.Channel, st.ProviderName)
	if !ok {
		return e.reject(ctx, req, commonerrors.NewInvalidProviderConfigError(st.ProviderName,
			fmt.Sprintf("no %s adapter registered for provider %q", req.Channel, st.ProviderName)), log)
	}
	pcfg, err := st.DecodeProviderConfig()
	if err != nil {
		return e.reject(ctx, req, commonerrors.NewInvalidProviderConfigError(st.ProviderName, err.Error()), log)
	}

	vars := e.enrich(ctx, req, log)

	code := req.EventType
	if req.Options.TemplateCodeOverride != "" {
		code = req.Options.TemplateCodeOverride
	}
	tmpl := e.tmpl.Resolve(ctx, req.TenantID, code, req.Channel, e.language())
	if tmpl == nil {
		tmpl = template.DefaultFor(code, req.Channel)
		log.Debug("no stored template, using compiled-in default", map[string]interface{}{"code": code})
	}

	to := req.Recipient.AddressFor(req.Channel)
	if to == "" {
		return e.reject(ctx, req, commonerrors.NewMissingRecipientError(string(req.Channel)), log)
	}
	if req.Channel == models.ChannelEmail && !validation.ValidateEmail(to) {
		return e.reject(ctx, req, commonerrors.NewValidationError("recipient email is malformed", to), log)
	}
	if req.Channel.PhoneBased() {
		if !validation.ValidatePhone(to) {
			return e.reject(ctx, req, commonerrors.NewValidationError("recipient phone is malformed", to), log)
		}
		to = validation.NormalizePhone(to)
	}

	entry := &models.NotificationLog{
		TenantID:      req.TenantID,
		Channel:       req.Channel,
		EventType:     req.EventType,
		Recipient:     to,
		Subject:       template.Render(tmpl.Subject, vars),
		Body:          template.Render(tmpl.Body, vars),
		MaxRetries:    e.maxRetries(),
		ReferenceID:   req.Options.ReferenceID,
		ReferenceType: req.Options.ReferenceType,
		UserID:        req.Options.UserID,
	}
	if err := e.entries.Insert(ctx, entry); err != nil {
		log.Error("ledger insert failed", map[string]interface{}{"error": err.Error()})
		return e.reject(ctx, req, commonerrors.NewDatabaseError("insert notification log", err), log)
	}

	log = log.WithFields(map[string]interface{}{"logId": entry.ID})
	return e.attempt(ctx, adapter, pcfg, entry, log)
}

// Resend pushes a claimed ledger entry through one more delivery attempt
// using the rendered content stored at first-attempt time; nothing is
// re-rendered. The caller must have claimed the entry already, which
// puts it back in the pending state, and must pass the channel settings
// it verified before claiming.
func (e *Engine) Resend(ctx context.Context, entry *models.NotificationLog, st *models.ChannelSettings) Result {
	log := e.log.WithFields(map[string]interface{}{
		"logId":      entry.ID,
		"tenantId":   entry.TenantID,
		"channel":    string(entry.Channel),
		"eventType":  entry.EventType,
		"retryCount": entry.RetryCount,
	})

	adapter, ok := e.adapters.Lookup(entry.Channel, st.ProviderName)
	if !ok {
		serr := commonerrors.NewInvalidProviderConfigError(st.ProviderName,
			fmt.Sprintf("no %s adapter registered for provider %q", entry.Channel, st.ProviderName))
		e.transition(ctx, entry, serr, log)
		return Result{Success: false, LogID: entry.ID, Error: serr}
	}
	pcfg, err := st.DecodeProviderConfig()
	if err != nil {
		serr := commonerrors.NewInvalidProviderConfigError(st.ProviderName, err.Error())
		e.transition(ctx, entry, serr, log)
		return Result{Success: false, LogID: entry.ID, Error: serr}
	}

	return e.attempt(ctx, adapter, pcfg, entry, log)
}

// attempt makes one provider call for an entry whose ledger row is in
// the pending state and applies the resulting transition.
func (e *Engine) attempt(ctx context.Context, adapter provider.Adapter, pcfg *models.ProviderConfig, entry *models.NotificationLog, log logger.Logger) Result {
	callCtx, cancel := context.WithTimeout(ctx, e.providerTimeout())
	defer cancel()

	res := adapter.Send(callCtx, pcfg, entry.Recipient, entry.Subject, entry.Body)

	if res.Success {
		metrics.ProviderRequests.WithLabelValues(adapter.Name(), "success").Inc()
		e.markSent(ctx, entry, res.MessageID, adapter.Name(), log)
		return Result{Success: true, LogID: entry.ID, MessageID: res.MessageID}
	}

	metrics.ProviderRequests.WithLabelValues(adapter.Name(), "failure").Inc()
	sendErr := res.Error
	if sendErr == nil {
		sendErr = commonerrors.NewInternalError("provider reported failure without detail", nil)
	}
	e.transition(ctx, entry, sendErr, log)
	return Result{Success: false, LogID: entry.ID, Error: sendErr}
}

// markSent records a confirmed delivery. The provider has accepted the
// message at this point, so a ledger write failure is logged but does
// not turn the result into a failure; reporting one would invite
// duplicate sends from callers.
func (e *Engine) markSent(ctx context.Context, entry *models.NotificationLog, messageID, providerName string, log logger.Logger) {
	sentAt := e.now().UTC()
	if err := e.entries.MarkSent(ctx, entry.ID, messageID, sentAt); err != nil {
		log.Error("ledger update to sent failed", map[string]interface{}{
			"error":             err.Error(),
			"externalMessageId": messageID,
		})
	}
	entry.Status = models.StatusSent
	entry.SentAt = &sentAt
	entry.NextRetryAt = nil
	entry.ExternalMessageID = messageID

	metrics.NotificationsSent.WithLabelValues(entry.TenantID, string(entry.Channel)).Inc()
	if e.obs != nil {
		e.obs.RecordDispatch(ctx, string(entry.Channel), "sent")
	}
	if e.audit != nil {
		e.audit.Record(ctx, entry)
	}
	log.Info("notification sent", map[string]interface{}{
		"provider":          providerName,
		"externalMessageId": messageID,
	})
}

// transition applies the failure state machine to an entry whose row is
// pending: another attempt is scheduled while the retry budget lasts,
// after which the entry parks in the terminal failed state. Every
// delivery failure consumes budget; there is no permanent-error shortcut
// past the ladder.
func (e *Engine) transition(ctx context.Context, entry *models.NotificationLog, sendErr *commonerrors.StandardError, log logger.Logger) {
	entry.RetryCount++
	entry.ErrorMessage = errorText(sendErr)

	if entry.RetryCount < entry.MaxRetries {
		next := e.now().UTC().Add(backoffDelay(entry.RetryCount))
		if err := e.entries.MarkRetrying(ctx, entry.ID, entry.RetryCount, next, entry.ErrorMessage); err != nil {
			log.Error("ledger update to retrying failed", map[string]interface{}{"error": err.Error()})
		}
		entry.Status = models.StatusRetrying
		entry.NextRetryAt = &next

		metrics.NotificationsRetried.WithLabelValues(entry.TenantID, string(entry.Channel)).Inc()
		if e.obs != nil {
			e.obs.RecordDispatch(ctx, string(entry.Channel), "retrying")
		}
		log.Warn("delivery failed, retry scheduled", map[string]interface{}{
			"errorCode":   string(sendErr.Code),
			"retryCount":  entry.RetryCount,
			"nextRetryAt": next.Format(time.RFC3339),
		})
		return
	}

	failedAt := e.now().UTC()
	if err := e.entries.MarkFailed(ctx, entry.ID, entry.RetryCount, entry.ErrorMessage, failedAt); err != nil {
		log.Error("ledger update to failed failed", map[string]interface{}{"error": err.Error()})
	}
	entry.Status = models.StatusFailed
	entry.FailedAt = &failedAt
	entry.NextRetryAt = nil

	metrics.NotificationsFailed.WithLabelValues(entry.TenantID, string(entry.Channel), string(sendErr.Code)).Inc()
	if e.obs != nil {
		e.obs.RecordDispatch(ctx, string(entry.Channel), "failed")
	}
	if e.audit != nil {
		e.audit.Record(ctx, entry)
	}
	log.Error("delivery failed permanently", map[string]interface{}{
		"errorCode":  string(sendErr.Code),
		"retryCount": entry.RetryCount,
	})
}

// reject returns a failure that precedes any ledger row. Validation and
// configuration errors land here, keeping misconfigured channels from
// producing delivery records.
func (e *Engine) reject(ctx context.Context, req Request, serr *commonerrors.StandardError, log logger.Logger) Result {
	metrics.NotificationsFailed.WithLabelValues(req.TenantID, string(req.Channel), string(serr.Code)).Inc()
	if e.obs != nil {
		e.obs.RecordDispatch(ctx, string(req.Channel), "rejected")
	}
	log.Warn("dispatch rejected", map[string]interface{}{
		"errorCode": string(serr.Code),
		"error":     serr.Message,
	})
	return Result{Success: false, Error: serr}
}

// enrich copies the caller's variables and fills tenantName from the
// tenant record. A caller-supplied tenantName wins; the lookup is
// best-effort and a miss leaves the placeholder to render empty.
func (e *Engine) enrich(ctx context.Context, req Request, log logger.Logger) map[string]interface{} {
	vars := make(map[string]interface{}, len(req.Variables)+1)
	for k, v := range req.Variables {
		vars[k] = v
	}
	if _, ok := vars["tenantName"]; ok {
		return vars
	}

	name, err := e.settings.GetTenantName(ctx, req.TenantID)
	if err != nil {
		log.Warn("tenant name lookup failed", map[string]interface{}{"error": err.Error()})
		return vars
	}
	if name != "" {
		vars["tenantName"] = name
	}
	return vars
}

func (e *Engine) maxRetries() int {
	if e.cfg.MaxRetries > 0 {
		return e.cfg.MaxRetries
	}
	return models.DefaultMaxRetries
}

func (e *Engine) language() string {
	if e.cfg.DefaultLanguage != "" {
		return e.cfg.DefaultLanguage
	}
	return models.DefaultLanguage
}

func (e *Engine) providerTimeout() time.Duration {
	if t := e.cfg.GetProviderTimeout(); t > 0 {
		return t
	}
	return 10 * time.Second
}

// backoffDelay doubles a five-minute base per completed attempt: 10m,
// 20m, 40m for retry counts 1..3.
func backoffDelay(retryCount int) time.Duration {
	return time.Duration(1<<uint(retryCount)) * 5 * time.Minute
}

// errorText flattens a StandardError into the ledger's error message
// column, keeping the code and provider detail for operators.
func errorText(serr *commonerrors.StandardError) string {
	if serr.Details != "" {
		return fmt.Sprintf("%s: %s: %s", serr.Code, serr.Message, serr.Details)
	}
	return fmt.Sprintf("%s: %s", serr.Code, serr.Message)
}
