// internal/models/settings.go
package models

import (
	"encoding/json"
	"fmt"
)

// Provider names accepted in ChannelSettings.ProviderName.
const (
	ProviderSendgrid = "sendgrid"
	ProviderResend   = "resend"
	ProviderTwilio   = "twilio"
	ProviderSES      = "ses"
	ProviderSNS      = "sns"
)

// ChannelSettings is the per-tenant, per-channel delivery configuration.
// Config is an opaque credential blob whose shape is keyed by ProviderName;
// DecodeProviderConfig turns it into the typed union.
type ChannelSettings struct {
	TenantID     string          `json:"tenantId"`
	Channel      Channel         `json:"channel"`
	IsEnabled    bool            `json:"isEnabled"`
	ProviderName string          `json:"providerName"`
	Config       json.RawMessage `json:"config"`
}

// EmailAPIConfig holds credentials for the HTTP transactional email
// providers (sendgrid, resend).
type EmailAPIConfig struct {
	APIKey      string `json:"apiKey"`
	FromAddress string `json:"fromAddress"`
}

// MessagingAPIConfig holds credentials for Twilio-style messaging
// providers (whatsapp, sms).
type MessagingAPIConfig struct {
	AccountID  string `json:"accountId"`
	AuthToken  string `json:"authToken"`
	FromNumber string `json:"fromNumber"`
}

// AWSAPIConfig holds credentials for the AWS providers (ses, sns).
// FromAddress is required for ses only.
type AWSAPIConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	FromAddress     string `json:"fromAddress,omitempty"`
}

// ProviderConfig is the decoded credential union. Exactly one branch is
// non-nil, determined by ChannelSettings.ProviderName.
type ProviderConfig struct {
	Email     *EmailAPIConfig
	Messaging *MessagingAPIConfig
	AWS       *AWSAPIConfig
}

// DecodeProviderConfig decodes and validates the credential blob for the
// configured provider. A missing required field is a configuration error
// and must be caught here, before any network call.
func (s *ChannelSettings) DecodeProviderConfig() (*ProviderConfig, error) {
	if len(s.Config) == 0 {
		return nil, fmt.Errorf("provider %q: empty config", s.ProviderName)
	}

	switch s.ProviderName {
	case ProviderSendgrid, ProviderResend:
		var c EmailAPIConfig
		if err := json.Unmarshal(s.Config, &c); err != nil {
			return nil, fmt.Errorf("provider %q: decode config: %w", s.ProviderName, err)
		}
		if c.APIKey == "" || c.FromAddress == "" {
			return nil, fmt.Errorf("provider %q: apiKey and fromAddress are required", s.ProviderName)
		}
		return &ProviderConfig{Email: &c}, nil

	case ProviderTwilio:
		var c MessagingAPIConfig
		if err := json.Unmarshal(s.Config, &c); err != nil {
			return nil, fmt.Errorf("provider %q: decode config: %w", s.ProviderName, err)
		}
		if c.AccountID == "" || c.AuthToken == "" || c.FromNumber == "" {
			return nil, fmt.Errorf("provider %q: accountId, authToken and fromNumber are required", s.ProviderName)
		}
		return &ProviderConfig{Messaging: &c}, nil

	case ProviderSES, ProviderSNS:
		var c AWSAPIConfig
		if err := json.Unmarshal(s.Config, &c); err != nil {
			return nil, fmt.Errorf("provider %q: decode config: %w", s.ProviderName, err)
		}
		if c.Region == "" || c.AccessKeyID == "" || c.SecretAccessKey == "" {
			return nil, fmt.Errorf("provider %q: region, accessKeyId and secretAccessKey are required", s.ProviderName)
		}
		if s.ProviderName == ProviderSES && c.FromAddress == "" {
			return nil, fmt.Errorf("provider %q: fromAddress is required", s.ProviderName)
		}
		return &ProviderConfig{AWS: &c}, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", s.ProviderName)
	}
}
