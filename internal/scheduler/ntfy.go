package scheduler

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

// Notifier sends a push notification. *NtfyClient is the production
// implementation; tests substitute a recording fake.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// NtfyClient posts plain-text push notifications to an ntfy-compatible
// server (https://ntfy.sh or a self-hosted instance), matching
// original_source/radbot/tools/ntfy's contract (referenced by SPEC_FULL
// §4.10 but not present in the retrieval pack — implemented fresh here
// from the spec: a POST of the body to <baseURL>/<topic> with a Title
// header).
type NtfyClient struct {
	BaseURL string
	Topic   string
	Token   string

	httpClient *http.Client
}

// NewNtfyClient builds a client posting to baseURL/topic. An empty topic
// disables delivery (Notify becomes a no-op), so a deployment with no
// push target configured still wires cleanly.
func NewNtfyClient(baseURL, topic, token string) *NtfyClient {
	return &NtfyClient{
		BaseURL:    baseURL,
		Topic:      topic,
		Token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *NtfyClient) Notify(ctx context.Context, title, body string) error {
	if c == nil || c.Topic == "" {
		return nil
	}
	url := c.BaseURL + "/" + c.Topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return err
	}
	req.Header.Set("Title", title)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
