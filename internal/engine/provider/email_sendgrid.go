// internal/engine/provider/email_sendgrid.go
package provider

import (
	"context"
	"strings"

	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/common/httpclient"
	"notification-engine/internal/models"
)

// SendgridEmail delivers email through the SendGrid v3 send API. SendGrid
// answers an accepted send with 202 and the message id in the
// X-Message-Id header.
type SendgridEmail struct {
	client  *httpclient.Client
	baseURL string
}

func NewSendgridEmail(client *httpclient.Client, baseURL string) *SendgridEmail {
	return &SendgridEmail{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *SendgridEmail) Name() string {
	return models.ProviderSendgrid
}

func (a *SendgridEmail) Send(ctx context.Context, cfg *models.ProviderConfig, to, subject, body string) Result {
	email := cfg.Email
	if email == nil {
		return failure(commonerrors.NewInvalidProviderConfigError(a.Name(), "email credentials missing"))
	}

	status, respBody, header, err := postJSON(ctx, a.client, a.baseURL+"/v3/mail/send", email.APIKey, emailPayload{
		From:    email.FromAddress,
		To:      to,
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return failure(commonerrors.ClassifyProviderError(a.Name(), a.client.Timeout(), err))
	}
	if status < 200 || status >= 300 {
		return failure(commonerrors.FromHTTPStatus(a.Name(), status, string(respBody)))
	}

	return success(extractMessageID(respBody, header))
}
