// internal/engine/dispatch/notify.go
package dispatch

import (
	"context"

	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/models"
)

// ModuleAdapter is the slice of a module adapter the notify path needs.
// pkg/modules adapters satisfy it.
type ModuleAdapter interface {
	ModuleName() string
	MapEventToTemplateCode(eventType string) string
	BuildVariables(eventType string, payload map[string]interface{}) (map[string]interface{}, error)
	DefaultChannels(eventType string) []string
}

// NotifyRequest is one module event for one recipient, fanned out across
// channels.
type NotifyRequest struct {
	TenantID  string
	EventType string
	Recipient models.Recipient

	// Payload is the module domain object; the adapter validates it and
	// builds template variables from it.
	Payload map[string]interface{}

	// Channels overrides the adapter's default channel set when non-empty.
	Channels []models.Channel

	Options Options
}

// ChannelResult pairs one channel of a notify fan-out with its dispatch
// outcome.
type ChannelResult struct {
	Channel models.Channel
	Result  Result
}

// Notify dispatches a module event: variables come from the adapter,
// channels from the caller or the adapter's defaults, and every channel
// goes through Send independently so one failing channel never blocks
// the others. The returned error covers pre-dispatch rejections (payload
// failed validation, no channels to send on) where nothing was
// attempted and no ledger rows exist.
func (e *Engine) Notify(ctx context.Context, adapter ModuleAdapter, req NotifyRequest) ([]ChannelResult, error) {
	log := e.log.WithFields(map[string]interface{}{
		"module":    adapter.ModuleName(),
		"tenantId":  req.TenantID,
		"eventType": req.EventType,
	})

	variables, err := adapter.BuildVariables(req.EventType, req.Payload)
	if err != nil {
		log.Warn("module payload rejected", map[string]interface{}{"error": err.Error()})
		return nil, commonerrors.NewPayloadInvalidError(adapter.ModuleName(), err.Error())
	}

	channels := req.Channels
	if len(channels) == 0 {
		for _, name := range adapter.DefaultChannels(req.EventType) {
			channels = append(channels, models.Channel(name))
		}
	}
	if len(channels) == 0 {
		return nil, commonerrors.NewValidationError(
			"No channels to dispatch on",
			"event "+req.EventType+" has no default channels and none were requested",
		)
	}

	// The adapter's template-code mapping rides the override slot; an
	// explicit caller override still wins.
	options := req.Options
	if options.TemplateCodeOverride == "" {
		if code := adapter.MapEventToTemplateCode(req.EventType); code != req.EventType {
			options.TemplateCodeOverride = code
		}
	}

	results := make([]ChannelResult, 0, len(channels))
	for _, channel := range channels {
		res := e.Send(ctx, Request{
			TenantID:  req.TenantID,
			Channel:   channel,
			EventType: req.EventType,
			Recipient: req.Recipient,
			Variables: variables,
			Options:   options,
		})
		results = append(results, ChannelResult{Channel: channel, Result: res})
	}

	log.Debug("module event dispatched", map[string]interface{}{"channels": len(results)})
	return results, nil
}
