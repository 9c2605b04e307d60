// pkg/modules/modules.go
package modules

// Adapter is the contract a business module implements to plug its
// events into the dispatch engine. The engine has no compile-time
// knowledge of any module; everything it needs about one arrives through
// this interface at registration time.
type Adapter interface {
	// ModuleName identifies the module in the registry ("billing", "hr").
	ModuleName() string

	// MapEventToTemplateCode translates a module event type into the
	// template code dispatched for it. Modules whose event types double
	// as template codes embed Base for the passthrough.
	MapEventToTemplateCode(eventType string) string

	// BuildVariables turns a module domain payload into the flat variable
	// map consumed by template rendering. Implementations validate the
	// payload and must not mutate it.
	BuildVariables(eventType string, payload map[string]interface{}) (map[string]interface{}, error)

	// DefaultChannels lists the channels an event goes out on when the
	// caller does not pick any ("email", "whatsapp", "sms").
	DefaultChannels(eventType string) []string
}

// Base supplies the passthrough event-to-template-code mapping. Embed it
// in adapters that name templates after their event types.
type Base struct{}

// MapEventToTemplateCode returns the event type unchanged.
func (Base) MapEventToTemplateCode(eventType string) string {
	return eventType
}
