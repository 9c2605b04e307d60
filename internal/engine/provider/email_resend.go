// internal/engine/provider/email_resend.go
package provider

import (
	"context"
	"strings"

	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/common/httpclient"
	"notification-engine/internal/models"
)

// ResendEmail delivers email through the Resend API. Resend answers with
// 200 and a JSON body carrying the message id.
type ResendEmail struct {
	client  *httpclient.Client
	baseURL string
}

func NewResendEmail(client *httpclient.Client, baseURL string) *ResendEmail {
	return &ResendEmail{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *ResendEmail) Name() string {
	return models.ProviderResend
}

func (a *ResendEmail) Send(ctx context.Context, cfg *models.ProviderConfig, to, subject, body string) Result {
	email := cfg.Email
	if email == nil {
		return failure(commonerrors.NewInvalidProviderConfigError(a.Name(), "email credentials missing"))
	}

	status, respBody, header, err := postJSON(ctx, a.client, a.baseURL+"/emails", email.APIKey, emailPayload{
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
