// internal/engine/provider/registry.go
package provider

import (
	"sort"

	"notification-engine/internal/common/config"
	"notification-engine/internal/common/httpclient"
	"notification-engine/internal/models"
)

// Registry maps (channel, providerName) to a delivery adapter. The
// dispatch engine only ever performs this lookup; it never special-cases
// a provider. Registration happens at process startup, so lookups need no
// locking.
type Registry struct {
	adapters map[models.Channel]map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[models.Channel]map[string]Adapter)}
}

// Register binds an adapter to a channel under the adapter's provider
// name. Registering the same pair twice replaces the earlier adapter.
func (r *Registry) Register(channel models.Channel, adapter Adapter) {
	byName, ok := r.adapters[channel]
	if !ok {
		byName = make(map[string]Adapter)
		r.adapters[channel] = byName
	}
	byName[adapter.Name()] = adapter
}

// Lookup returns the adapter serving (channel, providerName).
func (r *Registry) Lookup(channel models.Channel, providerName string) (Adapter, bool) {
	adapter, ok := r.adapters[channel][providerName]
	return adapter, ok
}

// Providers returns the provider names registered for a channel, sorted
// for stable diagnostics output.
func (r *Registry) Providers(channel models.Channel) []string {
	names := make([]string, 0, len(r.adapters[channel]))
	for name := range r.adapters[channel] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry wires the built-in adapters against the configured
// provider endpoints.
func DefaultRegistry(client *httpclient.Client, cfg config.ProvidersConfig) *Registry {
	r := NewRegistry()

	r.Register(models.ChannelEmail, NewSendgridEmail(client, cfg.Sendgrid.BaseURL))
	r.Register(models.ChannelEmail, NewResendEmail(client, cfg.Resend.BaseURL))
	r.Register(models.ChannelEmail, NewSESEmail())

	r.Register(models.ChannelWhatsApp, NewTwilioMessaging(client, cfg.Twilio.BaseURL, models.ChannelWhatsApp))

	r.Register(models.ChannelSMS, NewTwilioMessaging(client, cfg.Twilio.BaseURL, models.ChannelSMS))
	r.Register(models.ChannelSMS, NewSNSMessaging())

	return r
}
