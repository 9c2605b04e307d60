// internal/engine/provider/adapter.go
package provider

import (
	"context"

	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/models"
)

// Adapter translates a rendered message into one provider API call.
// Implementations never return Go errors across this boundary; every
// outcome is normalized into a Result.
type Adapter interface {
	// Name is the providerName this adapter serves, as stored in channel
	// settings.
	Name() string
	// Send delivers the rendered subject and body to one recipient
	// address using the tenant's provider credentials.
	Send(ctx context.Context, cfg *models.ProviderConfig, to, subject, body string) Result
}

// Result is the normalized outcome of one provider call.
type Result struct {
	Success   bool
	MessageID string
	Error     *commonerrors.StandardError
}

func success(messageID string) Result {
	return Result{Success: true, MessageID: messageID}
}

func failure(err *commonerrors.StandardError) Result {
	return Result{Error: err}
}
