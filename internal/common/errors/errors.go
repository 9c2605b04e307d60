// Package errors provides the standardized error taxonomy for the
// notification dispatch engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Configuration errors: require admin correction, never retried, never
// produce a ledger entry.
const (
	ErrCodeChannelDisabled       ErrorCode = "CHANNEL_DISABLED"
	ErrCodeChannelNotConfigured  ErrorCode = "CHANNEL_NOT_CONFIGURED"
	ErrCodeInvalidProviderConfig ErrorCode = "INVALID_PROVIDER_CONFIG"
	ErrCodeMissingRecipient      ErrorCode = "MISSING_RECIPIENT"
	ErrCodeUnsupportedChannel    ErrorCode = "UNSUPPORTED_CHANNEL"
)

// Validation errors.
const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodePayloadInvalid   ErrorCode = "PAYLOAD_INVALID"
)

// Provider errors: transient ones route through the retry/backoff
// transition, rejections exhaust into the failed state.
const (
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderRejected    ErrorCode = "PROVIDER_REJECTED"
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
)

// Infrastructure errors.
const (
	ErrCodeDatabaseError    ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError       ErrorCode = "CACHE_ERROR"
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTenantNotFound   ErrorCode = "TENANT_NOT_FOUND"
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandardError unwraps err into a *StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewChannelDisabledError creates a non-retryable configuration error for
// a channel a tenant has switched off.
func NewChannelDisabledError(tenantID, channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelDisabled,
		Message:   fmt.Sprintf("Channel %s is disabled for tenant", channel),
		Retryable: false,
		Metadata:  map[string]interface{}{"tenantId": tenantID, "channel": channel},
		Timestamp: time.Now().UTC(),
	}
}

// NewChannelNotConfiguredError creates a non-retryable configuration error
// for a (tenant, channel) pair with no settings row.
func NewChannelNotConfiguredError(tenantID, channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeChannelNotConfigured,
		Message:   fmt.Sprintf("No settings configured for channel %s", channel),
		Retryable: false,
		Metadata:  map[string]interface{}{"tenantId": tenantID, "channel": channel},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidProviderConfigError creates a non-retryable configuration error
// for a credential blob missing required fields.
func NewInvalidProviderConfigError(provider, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidProviderConfig,
		Message:   fmt.Sprintf("Invalid configuration for provider %s", provider),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingRecipientError creates a non-retryable configuration error for
// a recipient lacking an address on the requested channel.
func NewMissingRecipientError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRecipient,
		Message:   fmt.Sprintf("Recipient has no address for channel %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedChannelError creates a non-retryable error for a channel
// the engine does not dispatch on.
func NewUnsupportedChannelError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedChannel,
		Message:   fmt.Sprintf("Unsupported channel %q", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadInvalidError creates a non-retryable error for a module payload
// that failed schema validation.
func NewPayloadInvalidError(module, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadInvalid,
		Message:   fmt.Sprintf("Payload for module %s failed validation", module),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderUnavailableError creates a retryable error for a provider
// network failure or 5xx response.
func NewProviderUnavailableError(provider, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   fmt.Sprintf("Provider %s unavailable", provider),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable error for a provider call
// exceeding its bounded timeout.
func NewProviderTimeoutError(provider string, timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   fmt.Sprintf("Provider %s timed out after %s", provider, timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderRejectedError creates an error for a non-2xx provider
// response outside the transient class. The status and body are preserved
// for the ledger's error text.
func NewProviderRejectedError(provider string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderRejected,
		Message:   fmt.Sprintf("Provider %s rejected the request (status %d)", provider, status),
		Details:   body,
		Retryable: false,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError creates a retryable error for a 429 response.
func NewRateLimitedError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   fmt.Sprintf("Provider %s rate limited the request", provider),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseError creates a retryable error wrapping a failed database
// operation.
func NewDatabaseError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseError,
		Message:   fmt.Sprintf("Database operation %s failed", operation),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheError creates a retryable error wrapping a failed cache
// operation. Cache failures degrade to the store, so callers usually only
// log these.
func NewCacheError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheError,
		Message:   fmt.Sprintf("Cache operation %s failed", operation),
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates the resolver's store-miss marker. The
// orchestrator treats it as a fallback trigger, never as a hard failure.
func NewTemplateNotFoundError(tenantID, code, channel, language string) *StandardError {
	return &StandardError{
		Code:    ErrCodeTemplateNotFound,
		Message: fmt.Sprintf("No active template for code %s", code),
		Metadata: map[string]interface{}{
			"tenantId": tenantID,
			"code":     code,
			"channel":  channel,
			"language": language,
		},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTenantNotFoundError creates a non-retryable error for an unknown
// tenant id.
func NewTenantNotFoundError(tenantID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTenantNotFound,
		Message:   fmt.Sprintf("Tenant %s not found", tenantID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetriesExhaustedError creates the terminal error recorded when the
// retry budget is spent.
func NewRetriesExhaustedError(attempts int) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetriesExhausted,
		Message:   fmt.Sprintf("All %d delivery attempts failed", attempts),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError creates a non-retryable error for unexpected failures.
func NewInternalError(message string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   message,
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsConfigurationErrorCode reports whether the code belongs to the
// fail-fast class that must never create a ledger entry.
func IsConfigurationErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeChannelDisabled,
		ErrCodeChannelNotConfigured,
		ErrCodeInvalidProviderConfig,
		ErrCodeMissingRecipient,
		ErrCodeUnsupportedChannel:
		return true
	}
	return false
}

// IsRetryableErrorCode reports whether the code is transient.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeProviderUnavailable,
		ErrCodeProviderTimeout,
		ErrCodeRateLimited,
		ErrCodeDatabaseError,
		ErrCodeCacheError:
		return true
	}
	return false
}

// GetErrorCategory groups codes for metrics labels and log fields.
func GetErrorCategory(code ErrorCode) string {
	switch {
	case IsConfigurationErrorCode(code):
		return "configuration"
	case code == ErrCodeValidationFailed || code == ErrCodePayloadInvalid:
		return "validation"
	case code == ErrCodeProviderUnavailable || code == ErrCodeProviderTimeout ||
		code == ErrCodeProviderRejected || code == ErrCodeRateLimited:
		return "provider"
	case code == ErrCodeDatabaseError || code == ErrCodeCacheError ||
		code == ErrCodeTemplateNotFound || code == ErrCodeTenantNotFound:
		return "infrastructure"
	default:
		return "internal"
	}
}
