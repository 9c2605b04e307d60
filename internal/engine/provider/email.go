// internal/engine/provider/email.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"notification-engine/internal/common/httpclient"
)

const maxResponseBytes = 64 << 10

// emailPayload is the wire body shared by the transactional email APIs:
// a flat JSON object with from, to, subject and text.
type emailPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// postJSON issues a bearer-authenticated JSON POST and returns the
// response status, body and headers. Transport failures come back as the
// raw error for classification by the caller.
func postJSON(ctx context.Context, client *httpclient.Client, url, apiKey string, payload interface{}) (int, []byte, http.Header, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, resp.Header, err
	}
	return resp.StatusCode, body, resp.Header, nil
}

// extractMessageID pulls a provider message id from a response body or
// header. Some email APIs return {"id": ...}, others only set an
// X-Message-Id header on an empty 202.
func extractMessageID(body []byte, header http.Header) string {
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.ID != "" {
		return parsed.ID
	}
	return header.Get("X-Message-Id")
}
