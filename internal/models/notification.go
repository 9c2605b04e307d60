// internal/models/notification.go
package models

import "time"

// Channel is a delivery medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
)

// Valid reports whether the channel is one the engine can dispatch on.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelWhatsApp, ChannelSMS:
		return true
	}
	return false
}

// PhoneBased reports whether the channel delivers to a phone number.
func (c Channel) PhoneBased() bool {
	return c == ChannelWhatsApp || c == ChannelSMS
}

// DefaultMaxRetries bounds automatic redelivery attempts per ledger entry.
const DefaultMaxRetries = 3

// Status is the lifecycle state of a ledger entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusRetrying Status = "retrying"
	StatusFailed   Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Recipient identifies who a notification is addressed to. Email and Phone
// are channel-specific; dispatch only requires the address for the channel
// being sent on.
type Recipient struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

// AddressFor returns the recipient address used by the given channel, or
// the empty string if the recipient has none for it.
func (r Recipient) AddressFor(ch Channel) string {
	if ch == ChannelEmail {
		return r.Email
	}
	if ch.PhoneBased() {
		return r.Phone
	}
	return ""
}

// NotificationLog is one ledger entry: the audit and state record for one
// logical notification across all of its delivery attempts.
type NotificationLog struct {
	ID                string     `json:"id"`
	TenantID          string     `json:"tenantId"`
	Channel           Channel    `json:"channel"`
	EventType         string     `json:"eventType"`
	Recipient         string     `json:"recipient"` // rendered address for the channel
	Subject           string     `json:"subject,omitempty"`
	Body              string     `json:"body"`
	Status            Status     `json:"status"`
	RetryCount        int        `json:"retryCount"`
	MaxRetries        int        `json:"maxRetries"`
	NextRetryAt       *time.Time `json:"nextRetryAt,omitempty"` // non-nil iff status=retrying
	ExternalMessageID string     `json:"externalMessageId,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	ReferenceID       string     `json:"referenceId,omitempty"`
	ReferenceType     string     `json:"referenceType,omitempty"`
	UserID            string     `json:"userId,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	SentAt            *time.Time `json:"sentAt,omitempty"`
	FailedAt          *time.Time `json:"failedAt,omitempty"`
}
