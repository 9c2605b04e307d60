// internal/engine/provider/messaging_twilio.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	commonerrors "notification-engine/internal/common/errors"
	"notification-engine/internal/common/httpclient"
	"notification-engine/internal/models"
)

// TwilioMessaging delivers WhatsApp and SMS through the Twilio messages
// API: a Basic-authenticated form POST answered with a JSON body carrying
// the message sid. One instance serves one channel so the whatsapp number
// prefixing lives in exactly one place.
type TwilioMessaging struct {
	client  *httpclient.Client
	baseURL string
	channel models.Channel
}

func NewTwilioMessaging(client *httpclient.Client, baseURL string, channel models.Channel) *TwilioMessaging {
	return &TwilioMessaging{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		channel: channel,
	}
}

func (a *TwilioMessaging) Name() string {
	return models.ProviderTwilio
}

func (a *TwilioMessaging) Send(ctx context.Context, cfg *models.ProviderConfig, to, subject, body string) Result {
	msg := cfg.Messaging
	if msg == nil {
		return failure(commonerrors.NewInvalidProviderConfigError(a.Name(), "messaging credentials missing"))
	}

	from := msg.FromNumber
	if a.channel == models.ChannelWhatsApp {
		from = ensureWhatsAppPrefix(from)
		to = ensureWhatsAppPrefix(to)
	}

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", a.baseURL, msg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return failure(commonerrors.ClassifyProviderError(a.Name(), a.client.Timeout(), err))
	}
	req.SetBasicAuth(msg.AccountID, msg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return failure(commonerrors.ClassifyProviderError(a.Name(), a.client.Timeout(), err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failure(commonerrors.ClassifyProviderError(a.Name(), a.client.Timeout(), err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure(commonerrors.FromHTTPStatus(a.Name(), resp.StatusCode, string(respBody)))
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	_ = json.Unmarshal(respBody, &parsed)
	return success(parsed.SID)
}

// ensureWhatsAppPrefix adds the channel prefix Twilio requires on both
// ends of a whatsapp message. Already-prefixed numbers pass through.
func ensureWhatsAppPrefix(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
